package match

import (
	"fmt"
)

// Var is a logic variable that a caller can see.
//
// A Var gets a value only when a match attempt commits.  During an
// attempt, the value lives in a Slot that belongs to that attempt.
// A Var is not safe for concurrent use.
type Var struct {
	Name string

	value interface{}
	bound bool
}

// NewVar makes an unbound Var.
func NewVar(name string) *Var {
	return &Var{Name: name}
}

// Value returns the committed value (if any).
func (v *Var) Value() (interface{}, bool) {
	return v.value, v.bound
}

// Get returns the committed value or nil.
func (v *Var) Get() interface{} {
	return v.value
}

// Bound reports whether a match has committed a value to this Var.
func (v *Var) Bound() bool {
	return v.bound
}

// Reset forgets the committed value.
func (v *Var) Reset() {
	v.value, v.bound = nil, false
}

func (v *Var) String() string {
	if !v.bound {
		return v.Name
	}
	return fmt.Sprintf("%s=%s", v.Name, render(v.value))
}

// SlotState is either Empty or Bound.
type SlotState int

const (
	Empty SlotState = iota
	Bound
)

func (s SlotState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Bound:
		return "bound"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// Slot is the cell for one Var during one match attempt.
//
// A Slot goes from Empty to Bound at most once.  Binding a Bound
// Slot again is an equality check.
type Slot struct {
	state SlotState
	value interface{}
}

// State returns the state of the Slot.
func (s *Slot) State() SlotState {
	return s.state
}

// Value returns the bound value (if any).
func (s *Slot) Value() (interface{}, bool) {
	return s.value, s.state == Bound
}

func (s *Slot) bind(m *Matcher, x interface{}) bool {
	switch s.state {
	case Empty:
		s.value = x
		s.state = Bound
		return true
	case Bound:
		return m.Equal(s.value, x)
	default:
		return false
	}
}

// Slots holds the Slots for one match attempt.
//
// A Slot is allocated, Empty, the first time the attempt refers to
// a Var.  Slots are never shared between attempts.
type Slots struct {
	m     *Matcher
	slots map[*Var]*Slot
	order []*Var
}

// NewSlots makes Slots using the DefaultMatcher.
func NewSlots() *Slots {
	return DefaultMatcher.NewSlots()
}

// NewSlots makes an empty set of Slots for one match attempt.
func (m *Matcher) NewSlots() *Slots {
	if m == nil {
		m = DefaultMatcher
	}
	return &Slots{
		m:     m,
		slots: make(map[*Var]*Slot, 8),
	}
}

// Matcher returns the Matcher that these Slots use for equality.
func (ss *Slots) Matcher() *Matcher {
	return ss.m
}

func (ss *Slots) slot(v *Var) *Slot {
	s, have := ss.slots[v]
	if !have {
		s = &Slot{}
		ss.slots[v] = s
		ss.order = append(ss.order, v)
	}
	return s
}

// Bind binds the Var to x if its Slot is Empty.  Otherwise Bind
// reports whether the bound value is equal to x.
func (ss *Slots) Bind(v *Var, x interface{}) bool {
	return ss.slot(v).bind(ss.m, x)
}

// Lookup returns the value bound in this attempt (if any).
func (ss *Slots) Lookup(v *Var) (interface{}, bool) {
	s, have := ss.slots[v]
	if !have {
		return nil, false
	}
	return s.Value()
}

// Get returns the value bound in this attempt or nil.
func (ss *Slots) Get(v *Var) interface{} {
	x, _ := ss.Lookup(v)
	return x
}

// Len returns the number of Bound Slots.
func (ss *Slots) Len() int {
	n := 0
	for _, s := range ss.slots {
		if s.state == Bound {
			n++
		}
	}
	return n
}

// Vars returns the Vars that this attempt has referenced, in the
// order of first reference.
func (ss *Slots) Vars() []*Var {
	acc := make([]*Var, len(ss.order))
	copy(acc, ss.order)
	return acc
}

// Anonymous is the name of Vars that Bindings doesn't report.
const Anonymous = "_"

// Bindings reports the Bound Slots by Var name.
func (ss *Slots) Bindings() Bindings {
	bs := make(Bindings, len(ss.slots))
	for _, v := range ss.order {
		if v.Name == Anonymous {
			continue
		}
		if x, bound := ss.slots[v].Value(); bound {
			bs[v.Name] = x
		}
	}
	return bs
}

// Commit copies every bound value into its Var.
//
// Commit is the only way that a Var gets a value.  Returns the
// number of Vars written.
func (ss *Slots) Commit() int {
	n := 0
	for _, v := range ss.order {
		if x, bound := ss.slots[v].Value(); bound {
			v.value, v.bound = x, true
			n++
		}
	}
	return n
}
