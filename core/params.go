/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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
	"fmt"
	"log"
	"reflect"
	"sort"
)

// ParamSpec describes a Table parameter.
//
// A parameter is a value that a Table's patterns can refer to with a
// pin (^name).  Guards see parameters as props.
type ParamSpec struct {

	// Doc describes the parameter in English and Markdown.
	// Audience is developers, not users.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// PrimitiveType is one of "string", "number", "boolean",
	// "object", "array", or "" (anything).
	PrimitiveType string `json:"primitiveType,omitempty" yaml:"primitiveType,omitempty"`

	// Default is the value used when no value is given.
	Default interface{} `json:"default,omitempty" yaml:",omitempty"`

	// Optional means that the parameter is not required.
	Optional bool `json:"optional,omitempty" yaml:",omitempty"`

	// IsArray specifies whether a value must be an array of
	// values of the PrimitiveType.
	IsArray bool `json:"isArray,omitempty" yaml:"isArray,omitempty"`

	// MinCardinality is the minimum number of values of an array.
	MinCardinality int `json:"minCard,omitempty" yaml:"minCard,omitempty"`

	// MaxCardinality is the maximum number of values of an array.
	// Zero means no limit.
	MaxCardinality int `json:"maxCard,omitempty" yaml:"maxCard,omitempty"`

	// Advisory indicates that a violation of this spec is a
	// warning, not an error.
	Advisory bool `json:"advisory,omitempty" yaml:",omitempty"`
}

var primitiveTypes = map[string]bool{
	"":        true,
	"string":  true,
	"number":  true,
	"boolean": true,
	"object":  true,
	"array":   true,
}

// Valid returns an error if the spec itself is bad.
func (s *ParamSpec) Valid() error {
	if !primitiveTypes[s.PrimitiveType] {
		return fmt.Errorf("unknown primitive type %q", s.PrimitiveType)
	}
	if 0 < s.MaxCardinality && s.MaxCardinality < s.MinCardinality {
		return fmt.Errorf("maxCard %d is less than minCard %d", s.MaxCardinality, s.MinCardinality)
	}
	return nil
}

func primitive(x interface{}) string {
	switch x.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case nil:
		return ""
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	}
	return ""
}

// ValueCompliesWith checks that the given value complies with the
// spec. Returns an error if not.
func (s *ParamSpec) ValueCompliesWith(x interface{}) error {
	check := func(y interface{}) error {
		if s.PrimitiveType == "" {
			return nil
		}
		if got := primitive(y); got != s.PrimitiveType {
			return fmt.Errorf("%#v is not a %s", y, s.PrimitiveType)
		}
		return nil
	}

	if !s.IsArray {
		return check(x)
	}

	v := reflect.ValueOf(x)
	if k := v.Kind(); k != reflect.Slice && k != reflect.Array {
		return fmt.Errorf("%#v is not an array", x)
	}
	if v.Len() < s.MinCardinality {
		return fmt.Errorf("%d values is fewer than %d", v.Len(), s.MinCardinality)
	}
	if 0 < s.MaxCardinality && s.MaxCardinality < v.Len() {
		return fmt.Errorf("%d values is more than %d", v.Len(), s.MaxCardinality)
	}
	for i := 0; i < v.Len(); i++ {
		if err := check(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// resolveParams fills in defaults and checks the parameters against
// the specs.  Returns the resolved parameters.
func resolveParams(specs map[string]ParamSpec, given map[string]interface{}) (map[string]interface{}, error) {
	acc := make(map[string]interface{}, len(given)+len(specs))
	for name, x := range given {
		acc[name] = x
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := specs[name]
		if err := spec.Valid(); err != nil {
			return nil, &BadParam{name, err.Error()}
		}
		x, have := acc[name]
		if !have {
			if spec.Default != nil {
				acc[name] = spec.Default
				continue
			}
			if spec.Optional {
				continue
			}
			if spec.Advisory {
				log.Printf("warning: parameter %q is missing", name)
				continue
			}
			return nil, &BadParam{name, "missing"}
		}
		if err := spec.ValueCompliesWith(x); err != nil {
			if spec.Advisory {
				log.Printf("warning: parameter %q: %s", name, err)
				continue
			}
			return nil, &BadParam{name, err.Error()}
		}
	}

	return acc, nil
}
