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

package syntax

import (
	"sort"

	"github.com/Comcast/casematch/match"
)

// Factories maps constructor names to Factories.
type Factories map[string]match.Factory

// Copy makes a shallow copy.
func (fs Factories) Copy() Factories {
	acc := make(Factories, len(fs))
	for name, f := range fs {
		acc[name] = f
	}
	return acc
}

// Env resolves the names that appear in patterns.
//
// A plain name is a Variable for the Env's Var with that name.  A
// name that's followed by arguments is a Constructor using the
// Factory with that name.  The same Env should be used for all the
// patterns that should share Vars.
type Env struct {
	vars      map[string]*match.Var
	factories Factories
}

// NewEnv makes an Env with the given Factories, which can be nil.
func NewEnv(fs Factories) *Env {
	if fs == nil {
		fs = make(Factories)
	}
	return &Env{
		vars:      make(map[string]*match.Var),
		factories: fs,
	}
}

// Var returns the Var with the given name, making it if necessary.
func (e *Env) Var(name string) *match.Var {
	v, have := e.vars[name]
	if !have {
		v = match.NewVar(name)
		e.vars[name] = v
	}
	return v
}

// Names returns the sorted names of the Env's Vars.
func (e *Env) Names() []string {
	acc := make([]string, 0, len(e.vars))
	for name := range e.vars {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Set commits a value to the named Var.
//
// A pattern can then refer to the value with a pin (^name).
func (e *Env) Set(name string, x interface{}) {
	v := e.Var(name)
	v.Reset()
	ss := match.NewSlots()
	ss.Bind(v, x)
	ss.Commit()
}

// Define adds a Factory.
func (e *Env) Define(name string, f match.Factory) *Env {
	e.factories[name] = f
	return e
}

// Factory finds the Factory with the given name.
func (e *Env) Factory(name string) (match.Factory, bool) {
	f, have := e.factories[name]
	return f, have
}
