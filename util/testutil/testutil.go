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

// Package testutil has JSON and YAML conveniences for tests and for
// printing subjects, bindings, and outcomes.
//
// Usually dot-imported.
package testutil

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/jsccast/yaml"
)

// JS renders its argument as compact JSON.  If that fails, the result
// is the Go syntax for the value.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: JS: %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// JSI is JS with indentation.
func JSI(x interface{}) string {
	bs, err := json.MarshalIndent(&x, "", "  ")
	if err != nil {
		log.Printf("warning: JSI: %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// dwim parses a string or bytes with the given unmarshaller and
// panics on failure.  Anything else is returned as is.
func dwim(x interface{}, unmarshal func([]byte, interface{}) error) interface{} {
	var src []byte
	switch vv := x.(type) {
	case []byte:
		src = vv
	case string:
		src = []byte(vv)
	default:
		return x
	}
	var v interface{}
	if err := unmarshal(src, &v); err != nil {
		panic(fmt.Sprintf("can't parse %q: %s", src, err))
	}
	return v
}

// Dwimjs parses a string or bytes as JSON.  Other values are returned
// as they are, so a test table can mix literal values and JSON.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	return dwim(x, json.Unmarshal)
}

// Dwimyaml is Dwimjs for YAML.
//
// The YAML parser yields JSON-compatible values (map[string]interface{}
// rather than map[interface{}]interface{}).
func Dwimyaml(x interface{}) interface{} {
	return dwim(x, yaml.Unmarshal)
}
