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

package tools

import (
	"fmt"
	"sort"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/match"
)

// TableAnalysis reports some properties of a Table that might
// indicate trouble.
type TableAnalysis struct {
	table *core.Table

	Errors []string `json:"errors,omitempty"`

	Cases    int `json:"cases"`
	Guards   int `json:"guards"`
	Emitters int `json:"emitters"`

	// Unreachable cases follow an unguarded case that matches
	// anything.
	Unreachable []string `json:"unreachable,omitempty"`

	// Duplicates are case names that appear more than once.
	Duplicates []string `json:"duplicates,omitempty"`

	// Variables maps each case to the variables that its pattern
	// binds.
	Variables map[string][]string `json:"variables,omitempty"`

	// Pins are the names of all pinned variables.
	Pins []string `json:"pins,omitempty"`

	// Constructors are the names of all constructors used.
	Constructors []string `json:"constructors,omitempty"`

	Interpreters []string `json:"interpreters,omitempty"`
}

// catchAll reports whether the pattern matches every subject.
func catchAll(n match.Node) bool {
	switch n.(type) {
	case *match.Wildcard, *match.Variable:
		return true
	}
	return false
}

// Analyze examines a compiled Table.
func Analyze(t *core.Table) (*TableAnalysis, error) {
	if !t.Compiled() {
		return nil, &core.TableNotCompiled{Table: t}
	}

	a := TableAnalysis{
		table:     t,
		Cases:     len(t.Cases),
		Errors:    make([]string, 0, 8),
		Variables: make(map[string][]string, len(t.Cases)),
	}

	var (
		names        = make(map[string]int)
		duplicates   = make(map[string]bool)
		pins         = make(map[string]bool)
		constructors = make(map[string]bool)
		interpreters = make(map[string]bool)
		caught       = ""
	)

	for i, c := range t.Cases {
		label := caseLabel(i, c)

		if c.Name != "" {
			if names[c.Name]++; 1 < names[c.Name] {
				duplicates[c.Name] = true
			}
		}

		if c.Emit != nil {
			a.Emitters++
		}

		guarded := c.Guard != nil || c.GuardSource != nil
		if guarded {
			a.Guards++
			if c.GuardSource != nil {
				interp := c.GuardSource.Interpreter
				if interp == "" {
					interp = "default"
				}
				interpreters[interp] = true
			}
		}

		if caught != "" {
			a.Unreachable = append(a.Unreachable, label)
		}

		if c.Node == nil {
			a.Errors = append(a.Errors, fmt.Sprintf("case %s has no pattern", label))
			continue
		}

		vars := make(map[string]bool)
		match.Walk(c.Node, func(n match.Node) bool {
			switch vv := n.(type) {
			case *match.Variable:
				if vv.Var.Name != match.Anonymous {
					vars[vv.Var.Name] = true
				}
			case *match.Pin:
				pins[vv.Var.Name] = true
			case *match.Constructor:
				constructors[vv.Name] = true
			}
			return true
		})
		if 0 < len(vars) {
			a.Variables[label] = keysToStringSlice(vars)
		}

		if caught == "" && !guarded && catchAll(c.Node) {
			caught = label
		}
	}

	if 0 < len(a.Unreachable) {
		a.Errors = append(a.Errors,
			fmt.Sprintf("case %s matches everything, so %d case(s) after it are unreachable",
				caught, len(a.Unreachable)))
	}

	a.Duplicates = keysToStringSlice(duplicates)
	for _, name := range a.Duplicates {
		a.Errors = append(a.Errors, fmt.Sprintf("case name %q is used more than once", name))
	}
	a.Pins = keysToStringSlice(pins)
	a.Constructors = keysToStringSlice(constructors)
	a.Interpreters = keysToStringSlice(interpreters)

	return &a, nil
}

// keysToStringSlice returns the sorted keys of the map.
func keysToStringSlice(m map[string]bool) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
