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

// splitRest finds the rest Variable among the segments.
//
// The segments before the rest Variable are the head, and the
// segments after it are the tail.  When there is no rest Variable,
// every segment is in the head.
func splitRest(segs []Node) (head []Node, rest *Variable, tail []Node, err error) {
	at := -1
	for i, s := range segs {
		if v, is := s.(*Variable); is {
			if rest != nil {
				return nil, nil, nil, ErrMultipleRest
			}
			rest, at = v, i
		}
	}
	if rest == nil {
		return segs, nil, nil, nil
	}
	return segs[:at], rest, segs[at+1:], nil
}

// SequenceWithRest matches a sequence in segments.
//
// A Sequence segment matches as many consecutive elements as it has
// children.  A Constant or Pin that holds a sequence matches as many
// consecutive elements as that sequence has.  Every other segment
// matches exactly one element.  The Head segments match from the
// start of the subject, and the Tail segments match up to the end.
// The Rest Variable (if any) binds whatever is left in the middle,
// which is a slice of the subject's type.  Without a Rest, nothing
// can be left over.
type SequenceWithRest struct {
	Head []Node
	Rest *Variable
	Tail []Node
}

// NewSequenceWithRest makes a SequenceWithRest from segments.
//
// At most one segment may be a Variable (the rest).  Otherwise
// returns ErrMultipleRest.
func NewSequenceWithRest(segs ...Node) (*SequenceWithRest, error) {
	head, rest, tail, err := splitRest(segs)
	if err != nil {
		return nil, err
	}
	return &SequenceWithRest{
		Head: head,
		Rest: rest,
		Tail: tail,
	}, nil
}

// span reports how many elements the segment consumes and whether
// it should be given a sub-slice (rather than a single element).
//
// An unbound Pin doesn't have a span.
func span(n Node) (int, bool, bool) {
	switch vv := n.(type) {
	case *Sequence:
		return len(vv.Elems), true, true
	case *Constant, *Pin:
		x, ok := unwrap(vv)
		if !ok {
			return 0, false, false
		}
		v := reflect.ValueOf(x)
		if shapeOf(v) == sequence {
			return v.Len(), true, true
		}
	}
	return 1, false, true
}

func spans(segs []Node) ([]int, []bool, int, bool) {
	var (
		ns    = make([]int, len(segs))
		subs  = make([]bool, len(segs))
		total = 0
	)
	for i, s := range segs {
		n, sub, ok := span(s)
		if !ok {
			return nil, nil, 0, false
		}
		ns[i], subs[i] = n, sub
		total += n
	}
	return ns, subs, total, true
}

func matchSegments(ss *Slots, v reflect.Value, off int, segs []Node, ns []int, subs []bool) bool {
	for i, s := range segs {
		var x interface{}
		if subs[i] {
			x = v.Slice(off, off+ns[i]).Interface()
		} else {
			x = v.Index(off).Interface()
		}
		if !s.Match(ss, x) {
			return false
		}
		off += ns[i]
	}
	return true
}

func (s *SequenceWithRest) Match(ss *Slots, x interface{}) bool {
	v := reflect.ValueOf(x)
	if shapeOf(v) != sequence {
		return false
	}
	v = asSlice(v)

	hns, hsubs, h, ok := spans(s.Head)
	if !ok {
		return false
	}
	tns, tsubs, t, ok := spans(s.Tail)
	if !ok {
		return false
	}

	n := v.Len()
	if n < h+t {
		return false
	}

	if !matchSegments(ss, v, 0, s.Head, hns, hsubs) {
		return false
	}

	middle := v.Slice(h, n-t)
	if s.Rest == nil {
		if middle.Len() != 0 {
			return false
		}
	} else if !s.Rest.Match(ss, middle.Interface()) {
		return false
	}

	return matchSegments(ss, v, n-t, s.Tail, tns, tsubs)
}

func (s *SequenceWithRest) String() string {
	return "(" + joinSegments(s.Head, s.Rest, s.Tail, "*") + ")"
}

func joinSegments(head []Node, rest *Variable, tail []Node, star string) string {
	acc := make([]string, 0, len(head)+len(tail)+1)
	add := func(s string) {
		if s != "" {
			acc = append(acc, s)
		}
	}
	for _, n := range head {
		add(segment(n, star))
	}
	if rest != nil {
		add(star + rest.String())
	}
	for _, n := range tail {
		add(segment(n, star))
	}
	return strings.Join(acc, ", ")
}

func segment(n Node, star string) string {
	switch vv := n.(type) {
	case *Sequence:
		return joinNodes(vv.Elems)
	case *Set:
		return joinNodes(vv.Elems)
	case *Mapping:
		s := vv.String()
		return s[1 : len(s)-1]
	case *Constant:
		if shapeOf(reflect.ValueOf(vv.Value)) == scalar {
			return vv.String()
		}
	}
	return star + n.String()
}

// SetWithRest matches a set that contains the Required elements.
//
// The Rest Variable (if any) binds the other elements, which are
// given as a new map of the subject's type.  Without a Rest, the
// subject can't have other elements.
type SetWithRest struct {
	Required []Node
	Rest     *Variable
}

// NewSetWithRest makes a SetWithRest from segments.
//
// A segment can be a Set or a value (Constant or Pin).  A value that
// holds a set or a sequence contributes all of its elements.  Any
// other value contributes itself.  At most one segment may be a
// Variable (the rest).
func NewSetWithRest(segs ...Node) (*SetWithRest, error) {
	head, rest, tail, err := splitRest(segs)
	if err != nil {
		return nil, err
	}
	req := make([]Node, 0, len(head)+len(tail))
	for _, parts := range [][]Node{head, tail} {
		for _, n := range parts {
			switch n.(type) {
			case *Set, *Constant, *Pin:
				req = append(req, n)
			default:
				return nil, ErrNotValued
			}
		}
	}
	return &SetWithRest{
		Required: req,
		Rest:     rest,
	}, nil
}

// required gets the values of the required elements.
func (s *SetWithRest) required(m *Matcher) ([]interface{}, bool) {
	acc := make([]interface{}, 0, len(s.Required))
	add := func(x interface{}) {
		for _, y := range acc {
			if m.Equal(x, y) {
				return
			}
		}
		acc = append(acc, x)
	}
	for _, n := range s.Required {
		if st, is := n.(*Set); is {
			xs, ok := st.values(m)
			if !ok {
				return nil, false
			}
			for _, x := range xs {
				add(x)
			}
			continue
		}
		x, ok := unwrap(n)
		if !ok {
			return nil, false
		}
		v := reflect.ValueOf(x)
		switch shapeOf(v) {
		case set:
			iter := v.MapRange()
			for iter.Next() {
				add(iter.Key().Interface())
			}
		case sequence:
			for i := 0; i < v.Len(); i++ {
				add(v.Index(i).Interface())
			}
		default:
			add(x)
		}
	}
	return acc, true
}

func (s *SetWithRest) Match(ss *Slots, x interface{}) bool {
	v := reflect.ValueOf(x)
	if shapeOf(v) != set {
		return false
	}
	req, ok := s.required(ss.m)
	if !ok {
		return false
	}
	found := make([]reflect.Value, 0, len(req))
	for _, y := range req {
		k, have := ss.m.mapKey(v, y)
		if !have {
			return false
		}
		found = append(found, k)
	}
	if s.Rest == nil {
		return v.Len() == len(found)
	}
	return s.Rest.Match(ss, without(v, found).Interface())
}

func (s *SetWithRest) String() string {
	return "{" + joinSegments(s.Required, s.Rest, nil, "*") + "}"
}

// without makes a new map of v's type without the given keys.
func without(v reflect.Value, keys []reflect.Value) reflect.Value {
	acc := reflect.MakeMapWithSize(v.Type(), v.Len())
	iter := v.MapRange()
	for iter.Next() {
		acc.SetMapIndex(iter.Key(), iter.Value())
	}
	for _, k := range keys {
		acc.SetMapIndex(k, reflect.Value{})
	}
	return acc
}

// MappingWithRest matches a mapping that has the keys of its Parts
// with matching values.
//
// The Rest Variable (if any) binds the other pairs, which are given
// as a new map of the subject's type.  Without a Rest, the subject
// can't have other keys.
type MappingWithRest struct {
	Parts []Node
	Rest  *Variable
}

// NewMappingWithRest makes a MappingWithRest from segments.
//
// A segment is a Mapping or a value (Constant or Pin) that holds a
// mapping.  At most one segment may be a Variable (the rest).
// Returns ErrDuplicateKey if statically known segments repeat a key.
func NewMappingWithRest(segs ...Node) (*MappingWithRest, error) {
	head, rest, tail, err := splitRest(segs)
	if err != nil {
		return nil, err
	}
	parts := make([]Node, 0, len(head)+len(tail))
	parts = append(parts, head...)
	parts = append(parts, tail...)

	var static []Pair
	for _, n := range parts {
		switch vv := n.(type) {
		case *Mapping:
			static = append(static, vv.Pairs...)
		case *Constant:
			items, ok := Items(vv)
			if !ok {
				return nil, ErrNotKeyed
			}
			static = append(static, items...)
		case *Pin:
		default:
			return nil, ErrNotKeyed
		}
	}
	if err := checkKeys(DefaultMatcher, static); err != nil {
		return nil, err
	}

	return &MappingWithRest{
		Parts: parts,
		Rest:  rest,
	}, nil
}

func (mr *MappingWithRest) pairs(m *Matcher) ([]Pair, bool) {
	var acc []Pair
	for _, n := range mr.Parts {
		items, ok := Items(n)
		if !ok {
			return nil, false
		}
		acc = append(acc, items...)
	}
	if checkKeys(m, acc) != nil {
		return nil, false
	}
	return acc, true
}

func (mr *MappingWithRest) Match(ss *Slots, x interface{}) bool {
	v := reflect.ValueOf(x)
	if shapeOf(v) != mapping {
		return false
	}
	pairs, ok := mr.pairs(ss.m)
	if !ok {
		return false
	}
	found, ok := matchPairs(ss, v, pairs)
	if !ok {
		return false
	}
	if mr.Rest == nil {
		return v.Len() == len(found)
	}
	return mr.Rest.Match(ss, without(v, found).Interface())
}

func (mr *MappingWithRest) String() string {
	return "{" + joinSegments(mr.Parts, mr.Rest, nil, "**") + "}"
}
