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

// Package match implements the core structural pattern matcher.
//
// A pattern is a tree of Nodes.  Matching a Node against a subject
// either fails or succeeds, and success can bind the Vars that
// appear in the tree.  Those bindings are held in Slots, which
// belong to a single match attempt.  Nothing outside the attempt
// sees a binding until the Slots are committed.
//
// Subjects are plain Go values.  Slices and arrays are sequences.
// A map with an element type of struct{} is a set (see SetValue).
// Any other map is a mapping.  Everything else is a scalar.
package match

import (
	"errors"
	"fmt"
)

var (
	// ErrMultipleRest occurs when a *WithRest node is given more
	// than one rest Variable.
	ErrMultipleRest = errors.New("more than one rest variable")

	// ErrDuplicateKey occurs when a mapping pattern or the keyword
	// arguments of a constructor pattern repeat a key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotValued occurs when a set pattern is given an element
	// that isn't a value (a Constant or a Pin).
	ErrNotValued = errors.New("set element is not a value")

	// ErrNotKeyed occurs when a MappingWithRest is given a segment
	// that can't provide key/value pairs.
	ErrNotKeyed = errors.New("segment is not a mapping")
)

// ConstructorError reports that a Factory refused its arguments.
type ConstructorError struct {
	Name string
	Err  error
}

func (e *ConstructorError) Error() string {
	return `constructor "` + e.Name + `": ` + e.Err.Error()
}

func (e *ConstructorError) Unwrap() error {
	return e.Err
}

// Matcher holds switches that influence matching.
type Matcher struct {
	// NumericEquality makes numbers equal by value regardless of
	// their Go types.  With this switch on, int(1), int64(1), and
	// float64(1) are all equal.
	//
	// Subjects that come from JSON have float64 numbers, while
	// patterns written in Go usually have ints.  Turning this
	// switch off makes number comparison use reflect.DeepEqual.
	NumericEquality bool
}

// DefaultMatcher is used by NewSlots and Match.
var DefaultMatcher = &Matcher{
	NumericEquality: true,
}

// Node is a pattern.
//
// Match reports whether the subject x has the structure that the
// Node describes.  A successful match might bind Vars in the given
// Slots.  A failed match might have bound some Vars as well, so
// the caller should discard Slots after a failure.
//
// Match never panics on a subject of an unexpected type.  Such a
// subject just doesn't match.
type Node interface {
	Match(ss *Slots, x interface{}) bool
	String() string
}

// Matchable is the capability that a Constructor pattern delegates
// to.
//
// The matcher calls Match without interpreting the subject at all.
// A Matchable is free to bind Vars via the given Slots (usually by
// matching Nodes that it was constructed with).
type Matchable interface {
	Match(ss *Slots, x interface{}) bool
}

// MatchableFunc makes a function a Matchable.
type MatchableFunc func(ss *Slots, x interface{}) bool

func (f MatchableFunc) Match(ss *Slots, x interface{}) bool {
	return f(ss, x)
}

// Factory makes a Matchable from constructor arguments, which are
// themselves patterns.
//
// Think of Regex(`(\d+)-(\d+)`, y, m), where the factory gets the
// Constant for the expression and the Variables y and m.
type Factory interface {
	Construct(args []Node, kwargs []Pair) (Matchable, error)
}

// FactoryFunc makes a function a Factory.
type FactoryFunc func(args []Node, kwargs []Pair) (Matchable, error)

func (f FactoryFunc) Construct(args []Node, kwargs []Pair) (Matchable, error) {
	return f(args, kwargs)
}

// Must panics if err isn't nil.  Otherwise it returns the Node.
//
// Handy for patterns that are known to be good, as in
// regexp.MustCompile.
func Must(n Node, err error) Node {
	if err != nil {
		panic(err)
	}
	return n
}

// Match attempts to match the subject x with a new set of Slots
// from the DefaultMatcher.
//
// Returns the resulting bindings when the match succeeds.  No Var is
// modified.
func Match(n Node, x interface{}) (Bindings, bool) {
	return DefaultMatcher.Match(n, x)
}

// Match is the Matcher version of the function of the same name.
func (m *Matcher) Match(n Node, x interface{}) (Bindings, bool) {
	ss := m.NewSlots()
	if !n.Match(ss, x) {
		return nil, false
	}
	return ss.Bindings(), true
}

// Bindings is a map from variable names to their values.
//
// Bindings are a report.  Changing a Bindings doesn't change any Var
// or Slot.
type Bindings map[string]interface{}

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the property; modifies and returns the Bindings.
func (bs Bindings) Extend(p string, v interface{}) Bindings {
	bs[p] = v
	return bs
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// render writes a value the way the pattern syntax would.
func render(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", vv)
	case Node:
		return vv.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
