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
	"strings"
)

// Wildcard matches anything and binds nothing.
type Wildcard struct{}

// Any is the Wildcard.
var Any = &Wildcard{}

func (w *Wildcard) Match(ss *Slots, x interface{}) bool {
	return true
}

func (w *Wildcard) String() string {
	return "_"
}

// Constant matches a value equal to its Value.
type Constant struct {
	Value interface{}
}

func NewConstant(x interface{}) *Constant {
	return &Constant{Value: x}
}

func (c *Constant) Match(ss *Slots, x interface{}) bool {
	return ss.m.Equal(c.Value, x)
}

func (c *Constant) String() string {
	return render(c.Value)
}

// Variable binds its Var's Slot to the subject.
//
// If the Slot is already Bound in this attempt (because the Variable
// appears more than once), the subject must be equal to the bound
// value.
type Variable struct {
	Var *Var
}

func NewVariable(v *Var) *Variable {
	return &Variable{Var: v}
}

func (v *Variable) Match(ss *Slots, x interface{}) bool {
	return ss.Bind(v.Var, x)
}

func (v *Variable) String() string {
	return v.Var.Name
}

// Pin matches a value equal to the committed value of its Var.
//
// A Pin never binds.  If the Var has never been committed, the Pin
// fails.
type Pin struct {
	Var *Var
}

func NewPin(v *Var) *Pin {
	return &Pin{Var: v}
}

func (p *Pin) Match(ss *Slots, x interface{}) bool {
	y, bound := p.Var.Value()
	if !bound {
		return false
	}
	return ss.m.Equal(y, x)
}

func (p *Pin) String() string {
	return "^" + p.Var.Name
}

// Sequence matches a sequence with exactly as many elements as the
// Sequence has children.
type Sequence struct {
	Elems []Node
}

func NewSequence(elems ...Node) *Sequence {
	return &Sequence{Elems: elems}
}

func (s *Sequence) Match(ss *Slots, x interface{}) bool {
	v := reflect.ValueOf(x)
	if shapeOf(v) != sequence {
		return false
	}
	if v.Len() != len(s.Elems) {
		return false
	}
	for i, e := range s.Elems {
		if !e.Match(ss, v.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func (s *Sequence) String() string {
	if len(s.Elems) == 1 {
		return "(" + s.Elems[0].String() + ",)"
	}
	return "(" + joinNodes(s.Elems) + ")"
}

// Set matches a set with exactly the values of its elements.
type Set struct {
	Elems []Node
}

// NewSet makes a Set.
//
// Every element must be a Constant or a Pin.  Otherwise returns
// ErrNotValued.
func NewSet(elems ...Node) (*Set, error) {
	for _, e := range elems {
		if !valued(e) {
			return nil, ErrNotValued
		}
	}
	return &Set{Elems: elems}, nil
}

func valued(n Node) bool {
	switch n.(type) {
	case *Constant, *Pin:
		return true
	}
	return false
}

// values gets the distinct values of the elements.
func (s *Set) values(m *Matcher) ([]interface{}, bool) {
	acc := make([]interface{}, 0, len(s.Elems))
LOOP:
	for _, e := range s.Elems {
		x, ok := unwrap(e)
		if !ok {
			return nil, false
		}
		for _, y := range acc {
			if m.Equal(x, y) {
				continue LOOP
			}
		}
		acc = append(acc, x)
	}
	return acc, true
}

func (s *Set) Match(ss *Slots, x interface{}) bool {
	v := reflect.ValueOf(x)
	if shapeOf(v) != set {
		return false
	}
	xs, ok := s.values(ss.m)
	if !ok {
		return false
	}
	if v.Len() != len(xs) {
		return false
	}
	for _, y := range xs {
		if _, have := ss.m.mapKey(v, y); !have {
			return false
		}
	}
	return true
}

func (s *Set) String() string {
	if len(s.Elems) == 0 {
		return "set()"
	}
	return "{" + joinNodes(s.Elems) + "}"
}

// Pair is a key with a value pattern.
type Pair struct {
	Key   interface{}
	Value Node
}

func (p Pair) String() string {
	return render(p.Key) + ": " + p.Value.String()
}

// Mapping matches a mapping that has exactly the Mapping's keys with
// values that match the corresponding patterns.
type Mapping struct {
	Pairs []Pair
}

// NewMapping makes a Mapping.
//
// Returns ErrDuplicateKey if two pairs have equal keys.
func NewMapping(pairs ...Pair) (*Mapping, error) {
	if err := checkKeys(DefaultMatcher, pairs); err != nil {
		return nil, err
	}
	return &Mapping{Pairs: pairs}, nil
}

func checkKeys(m *Matcher, pairs []Pair) error {
	for i := range pairs {
		for j := 0; j < i; j++ {
			if m.Equal(pairs[i].Key, pairs[j].Key) {
				return ErrDuplicateKey
			}
		}
	}
	return nil
}

// matchPairs checks that each pair's key is in the map and that the
// key's value matches.  Returns the keys found.
func matchPairs(ss *Slots, v reflect.Value, pairs []Pair) ([]reflect.Value, bool) {
	found := make([]reflect.Value, 0, len(pairs))
	for _, p := range pairs {
		k, have := ss.m.mapKey(v, p.Key)
		if !have {
			return nil, false
		}
		if !p.Value.Match(ss, v.MapIndex(k).Interface()) {
			return nil, false
		}
		found = append(found, k)
	}
	return found, true
}

func (mp *Mapping) Match(ss *Slots, x interface{}) bool {
	v := reflect.ValueOf(x)
	if shapeOf(v) != mapping {
		return false
	}
	if v.Len() != len(mp.Pairs) {
		return false
	}
	_, ok := matchPairs(ss, v, mp.Pairs)
	return ok
}

func (mp *Mapping) String() string {
	acc := make([]string, len(mp.Pairs))
	for i, p := range mp.Pairs {
		acc[i] = p.String()
	}
	return "{" + strings.Join(acc, ", ") + "}"
}

// Constructor delegates matching to a Matchable made by a Factory.
//
// Args and Kwargs are kept for rendering and analysis.
type Constructor struct {
	Name      string
	Args      []Node
	Kwargs    []Pair
	Matchable Matchable
}

// NewConstructor asks the Factory for a Matchable.
//
// Returns ErrDuplicateKey if two keyword arguments have the same
// key.  An error from the Factory is returned as a
// *ConstructorError.
func NewConstructor(name string, f Factory, args []Node, kwargs []Pair) (*Constructor, error) {
	if err := checkKeys(DefaultMatcher, kwargs); err != nil {
		return nil, err
	}
	m, err := f.Construct(args, kwargs)
	if err != nil {
		return nil, &ConstructorError{
			Name: name,
			Err:  err,
		}
	}
	return &Constructor{
		Name:      name,
		Args:      args,
		Kwargs:    kwargs,
		Matchable: m,
	}, nil
}

func (c *Constructor) Match(ss *Slots, x interface{}) bool {
	return c.Matchable.Match(ss, x)
}

func (c *Constructor) String() string {
	acc := make([]string, 0, len(c.Args)+len(c.Kwargs))
	for _, a := range c.Args {
		acc = append(acc, a.String())
	}
	for _, p := range c.Kwargs {
		k, is := p.Key.(string)
		if !is {
			k = render(p.Key)
		}
		acc = append(acc, k+"="+p.Value.String())
	}
	return c.Name + "(" + strings.Join(acc, ", ") + ")"
}

func joinNodes(ns []Node) string {
	acc := make([]string, len(ns))
	for i, n := range ns {
		acc[i] = n.String()
	}
	return strings.Join(acc, ", ")
}

// Elements decomposes a Node into element patterns.
//
// Works for a Sequence, a Set, and a Constant or (committed) Pin
// that holds a sequence or set.  The elements of a decomposed value
// are Constants.
func Elements(n Node) ([]Node, bool) {
	switch vv := n.(type) {
	case *Sequence:
		return vv.Elems, true
	case *Set:
		return vv.Elems, true
	}
	x, ok := unwrap(n)
	if !ok || !valued(n) {
		return nil, false
	}
	v := reflect.ValueOf(x)
	switch shapeOf(v) {
	case sequence:
		acc := make([]Node, v.Len())
		for i := range acc {
			acc[i] = NewConstant(v.Index(i).Interface())
		}
		return acc, true
	case set:
		acc := make([]Node, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			acc = append(acc, NewConstant(iter.Key().Interface()))
		}
		return acc, true
	}
	return nil, false
}

// Items decomposes a Node into key/value patterns.
//
// Works for a Mapping and a Constant or (committed) Pin that holds a
// mapping.
func Items(n Node) ([]Pair, bool) {
	if mp, is := n.(*Mapping); is {
		return mp.Pairs, true
	}
	x, ok := unwrap(n)
	if !ok || !valued(n) {
		return nil, false
	}
	v := reflect.ValueOf(x)
	if shapeOf(v) != mapping {
		return nil, false
	}
	acc := make([]Pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		acc = append(acc, Pair{
			Key:   iter.Key().Interface(),
			Value: NewConstant(iter.Value().Interface()),
		})
	}
	return acc, true
}

// Walk calls f on n and then (if f returns true) on each of n's
// children.
//
// Children are the elements of containers, the segments of *WithRest
// nodes (including the rest Variable), and the arguments of
// Constructors.
func Walk(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	var children []Node
	switch vv := n.(type) {
	case *Sequence:
		children = vv.Elems
	case *Set:
		children = vv.Elems
	case *Mapping:
		for _, p := range vv.Pairs {
			children = append(children, p.Value)
		}
	case *SequenceWithRest:
		children = append(children, vv.Head...)
		if vv.Rest != nil {
			children = append(children, vv.Rest)
		}
		children = append(children, vv.Tail...)
	case *SetWithRest:
		children = append(children, vv.Required...)
		if vv.Rest != nil {
			children = append(children, vv.Rest)
		}
	case *MappingWithRest:
		children = append(children, vv.Parts...)
		if vv.Rest != nil {
			children = append(children, vv.Rest)
		}
	case *Constructor:
		children = append(children, vv.Args...)
		for _, p := range vv.Kwargs {
			children = append(children, p.Value)
		}
	}
	for _, c := range children {
		Walk(c, f)
	}
}
