/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"time"

	"github.com/Comcast/casematch/match"
)

// alphabet is used by Gensym.
var alphabet = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Gensym makes a random string of the given length.
//
// Since we're returning a string and not (somehow a symbol), should
// be named something else.  Using this name just brings back good
// memories.
func Gensym(n int) string {
	bs := make([]byte, n)
	for i := 0; i < len(bs); i++ {
		bs[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(bs)
}

// Canonicalize is ... hey, look over there!
//
// Round-trips the value through JSON, so the result only contains
// map[string]interface{}, []interface{}, float64, string, bool, and
// nil.  SetValues become arrays.
func Canonicalize(x interface{}) (interface{}, error) {
	x = jsonable(x)

	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}

	return y, nil
}

// jsonable replaces SetValues, which JSON can't represent, with
// slices.  Maps with keys that aren't strings get keys rendered by
// fmt.
func jsonable(x interface{}) interface{} {
	switch vv := x.(type) {
	case match.SetValue:
		acc := make([]interface{}, 0, len(vv))
		for y := range vv {
			acc = append(acc, jsonable(y))
		}
		return acc
	case match.Bindings:
		return jsonable(map[string]interface{}(vv))
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, y := range vv {
			acc[k] = jsonable(y)
		}
		return acc
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, y := range vv {
			acc[i] = jsonable(y)
		}
		return acc
	}

	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Elem() == reflect.TypeOf(struct{}{}) {
			acc := make([]interface{}, 0, v.Len())
			for _, k := range v.MapKeys() {
				acc = append(acc, jsonable(k.Interface()))
			}
			return acc
		}
		acc := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key().Interface()
			s, is := k.(string)
			if !is {
				s = fmt.Sprint(k)
			}
			acc[s] = jsonable(iter.Value().Interface())
		}
		return acc
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return x
		}
		fallthrough
	case reflect.Array:
		acc := make([]interface{}, v.Len())
		for i := range acc {
			acc[i] = jsonable(v.Index(i).Interface())
		}
		return acc
	}
	return x
}

// Instantiate replaces every string "$name" in x with the binding
// for name, if there is one.
//
// Maps and slices are copied.  "$$name" becomes the string "$name".
func Instantiate(x interface{}, bs match.Bindings) interface{} {
	switch vv := x.(type) {
	case string:
		if !strings.HasPrefix(vv, "$") {
			return vv
		}
		if strings.HasPrefix(vv, "$$") {
			return vv[1:]
		}
		if y, have := bs[vv[1:]]; have {
			return y
		}
		return vv
	case map[string]interface{}:
		acc := make(map[string]interface{}, len(vv))
		for k, y := range vv {
			acc[k] = Instantiate(y, bs)
		}
		return acc
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, y := range vv {
			acc[i] = Instantiate(y, bs)
		}
		return acc
	}
	return x
}

// Timestamp returns a string representing the current time in
// RFC3339Nano.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
