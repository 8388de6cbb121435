package core

import (
	"context"
)

// TurnstileTable makes an example Table that's useful to have around.
//
// A subject is a map with a "state" and an "input".  The winning
// Case emits the next state.
//
// See https://en.wikipedia.org/wiki/Finite-state_machine#Example:_coin-operated_turnstile.
func TurnstileTable(ctx context.Context) (*Table, error) {

	next := func(state string) interface{} {
		return map[string]interface{}{
			"state": state,
		}
	}

	t := &Table{
		Name: "turnstile",
		Doc:  "A coin-operated turnstile.",
		Cases: []*CaseSpec{
			{
				Name:    "pay",
				Pattern: `{"state": "locked", "input": "coin"}`,
				Emit:    next("unlocked"),
			},
			{
				Name:    "blocked",
				Pattern: `{"state": "locked", "input": "push"}`,
				Emit:    next("locked"),
			},
			{
				Name:    "thanks",
				Pattern: `{"state": "unlocked", "input": "coin"}`,
				Emit:    next("unlocked"),
			},
			{
				Name:    "enter",
				Pattern: `{"state": "unlocked", "input": "push"}`,
				Emit:    next("locked"),
			},
			{
				Name:    "confused",
				Doc:     "Anything else binds the input and stays put.",
				Pattern: `{"state": state, "input": input}`,
				Emit:    next("$state"),
			},
		},
	}

	if err := t.Compile(ctx, nil, nil, true); err != nil {
		return nil, err
	}

	return t, nil
}
