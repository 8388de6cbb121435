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

package match

import (
	"reflect"
)

// SetValue is the default representation of a set.
//
// Any map with element type struct{} is treated as a set.
type SetValue map[interface{}]struct{}

// NewSetValue makes a SetValue with the given elements.
func NewSetValue(xs ...interface{}) SetValue {
	s := make(SetValue, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

// Has reports whether x is an element.
func (s SetValue) Has(x interface{}) bool {
	_, have := s[x]
	return have
}

type shape int

const (
	scalar shape = iota
	sequence
	set
	mapping
)

var emptyStruct = reflect.TypeOf(struct{}{})

func shapeOf(v reflect.Value) shape {
	if !v.IsValid() {
		return scalar
	}
	switch v.Kind() {
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			// []byte is a blob, not a sequence.
			return scalar
		}
		return sequence
	case reflect.Array:
		return sequence
	case reflect.Map:
		if v.Type().Elem() == emptyStruct {
			return set
		}
		return mapping
	default:
		return scalar
	}
}

// unwrap returns the value that a value-like Node stands for.
//
// Returns false for a Pin whose Var has no committed value.
func unwrap(x interface{}) (interface{}, bool) {
	switch vv := x.(type) {
	case *Constant:
		return vv.Value, true
	case *Pin:
		return vv.Var.Value()
	}
	return x, true
}

// Equal is value equality.
//
// Constants and Pins are replaced by the values they stand for (on
// either side).  A Wildcard is equal to anything.  Sequences are
// equal when they have the same length and equal elements.  Sets
// and mappings are equal when they have the same size and each key
// of one is found (with an equal value) in the other.  Otherwise,
// when the NumericEquality switch is on, numbers are compared by
// value.  Everything else uses reflect.DeepEqual.
func (m *Matcher) Equal(a, b interface{}) bool {
	if _, is := a.(*Wildcard); is {
		return true
	}
	if _, is := b.(*Wildcard); is {
		return true
	}

	var ok bool
	if a, ok = unwrap(a); !ok {
		return false
	}
	if b, ok = unwrap(b); !ok {
		return false
	}

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if m.NumericEquality {
		if x, is := number(a); is {
			y, is := number(b)
			return is && x == y
		}
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	as, bs := shapeOf(av), shapeOf(bv)
	if as != bs {
		return false
	}

	switch as {
	case sequence:
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !m.Equal(av.Index(i).Interface(), bv.Index(i).Interface()) {
				return false
			}
		}
		return true

	case set:
		if av.Len() != bv.Len() {
			return false
		}
		iter := av.MapRange()
		for iter.Next() {
			if _, have := m.mapKey(bv, iter.Key().Interface()); !have {
				return false
			}
		}
		return true

	case mapping:
		if av.Len() != bv.Len() {
			return false
		}
		iter := av.MapRange()
		for iter.Next() {
			y, have := m.mapIndex(bv, iter.Key().Interface())
			if !have {
				return false
			}
			if !m.Equal(iter.Value().Interface(), y) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// Equal uses the DefaultMatcher.
func Equal(a, b interface{}) bool {
	return DefaultMatcher.Equal(a, b)
}

// number returns a float64 for any Go number.
//
// Like encoding/json, every number becomes a float64.
func number(x interface{}) (float64, bool) {
	switch vv := x.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int8:
		return float64(vv), true
	case int16:
		return float64(vv), true
	case int32:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case uint:
		return float64(vv), true
	case uint8:
		return float64(vv), true
	case uint16:
		return float64(vv), true
	case uint32:
		return float64(vv), true
	case uint64:
		return float64(vv), true
	}
	return 0, false
}

// mapKey finds the key in the map that is Equal to k.
//
// Returns the map's own key, which might differ in type from k.
func (m *Matcher) mapKey(mv reflect.Value, k interface{}) (reflect.Value, bool) {
	if k != nil {
		kv := reflect.ValueOf(k)
		if kv.Type().AssignableTo(mv.Type().Key()) && kv.Comparable() {
			kv = kv.Convert(mv.Type().Key())
			if mv.MapIndex(kv).IsValid() {
				return kv, true
			}
			if !m.NumericEquality {
				return reflect.Value{}, false
			}
		}
	}
	iter := mv.MapRange()
	for iter.Next() {
		if m.Equal(iter.Key().Interface(), k) {
			return iter.Key(), true
		}
	}
	return reflect.Value{}, false
}

// mapIndex returns the value at the key Equal to k.
func (m *Matcher) mapIndex(mv reflect.Value, k interface{}) (interface{}, bool) {
	key, have := m.mapKey(mv, k)
	if !have {
		return nil, false
	}
	return mv.MapIndex(key).Interface(), true
}

// asSlice returns a sliceable Value for a sequence.
//
// Arrays aren't addressable when they come from an interface, so
// they are copied into a slice.
func asSlice(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Array {
		return v
	}
	s := reflect.MakeSlice(reflect.SliceOf(v.Type().Elem()), v.Len(), v.Len())
	reflect.Copy(s, v)
	return s
}
