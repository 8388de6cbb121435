package core

import (
	"context"

	"github.com/Comcast/casematch/match"
)

var (
	// TracesInitialCap is the initial capacity for Traces buffers.
	TracesInitialCap = 16

	// EmittedMessagesInitialCap is the initial capacity for
	// slices of emitted messages.
	EmittedMessagesInitialCap = 16
)

// Traces holds trace messages.
type Traces struct {
	Messages []interface{} `json:"messages,omitempty" yaml:",omitempty"`
}

// NewTraces creates an initialized Traces.
//
// The Messages array has TracesInitialCap initial capacity.
func NewTraces() *Traces {
	return &Traces{
		Messages: make([]interface{}, 0, TracesInitialCap),
	}
}

func (ts *Traces) Add(xs ...interface{}) {
	ts.Messages = append(ts.Messages, xs...)
}

// Events contains emitted messages and Traces.
type Events struct {
	Emitted []interface{} `json:"emitted,omitempty" yaml:",omitempty"`
	Traces  *Traces       `json:"traces,omitempty" yaml:",omitempty"`
}

func newEvents() *Events {
	return &Events{
		Emitted: make([]interface{}, 0, EmittedMessagesInitialCap),
		Traces:  NewTraces(),
	}
}

// AddEmitted adds the given thing to the list of emitted messages.
func (es *Events) AddEmitted(x interface{}) {
	es.Emitted = append(es.Emitted, x)
}

// AddTrace adds the given thing to the list of traces.
func (es *Events) AddTrace(x interface{}) {
	es.Traces.Add(x)
}

// AddEvents adds the given Event's emitted messages and traces to the
// receiving Events.
func (es *Events) AddEvents(more *Events) {
	if more == nil {
		return
	}
	for _, x := range more.Emitted {
		es.AddEmitted(x)
	}
	if more.Traces != nil {
		for _, x := range more.Traces.Messages {
			es.AddTrace(x)
		}
	}
}

// Try matches the current subject of the Scope against the
// candidates in order.
//
// Each candidate gets fresh Slots.  When a candidate matches, the
// guard (if any) is asked to admit it.  The first admitted candidate
// wins, and its Slots are committed to their Vars.  Nothing else
// ever modifies a Var.  Returns false if no candidate wins.
//
// An error from the guard ends the session.  No Var is modified in
// that case.
func Try(ctx context.Context, sc *Scope, guard Guard, candidates ...match.Node) (bool, error) {
	_, ss, err := try(ctx, sc, guard, candidates)
	if err != nil || ss == nil {
		return false, err
	}
	ss.Commit()
	return true, nil
}

// try finds the winning candidate without committing anything.
//
// Returns the index of the winner and its Slots.  The Slots are nil
// if there's no winner.
func try(ctx context.Context, sc *Scope, guard Guard, candidates []match.Node) (int, *match.Slots, error) {
	x, err := sc.Subject()
	if err != nil {
		return -1, nil, err
	}
	ctx = WithScope(ctx, sc)
	m := sc.matcher()

	for i, c := range candidates {
		ss := m.NewSlots()
		if !c.Match(ss, x) {
			continue
		}
		if guard != nil {
			exe, err := guard.Admit(withSlots(ctx, ss), ss.Bindings(), nil)
			if err != nil {
				return -1, nil, err
			}
			if exe == nil || !exe.Admitted {
				continue
			}
		}
		return i, ss, nil
	}
	return -1, nil, nil
}

// Case is Try without a guard.
//
// Returns EmptyScope if the Scope has no subject.
func Case(sc *Scope, candidates ...match.Node) (bool, error) {
	return Try(context.Background(), sc, nil, candidates...)
}

// Which is like Try but also reports the index of the winning
// candidate (or -1).
func Which(ctx context.Context, sc *Scope, guard Guard, candidates ...match.Node) (int, error) {
	i, ss, err := try(ctx, sc, guard, candidates)
	if err != nil || ss == nil {
		return -1, err
	}
	ss.Commit()
	return i, nil
}
