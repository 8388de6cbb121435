package core

import (
	"context"

	"github.com/Comcast/casematch/match"
)

var (
	// DefaultInterpreters will be used in GuardSource.Compile if
	// the given nil interpreters.
	DefaultInterpreters = make(InterpretersMap)
)

// Props are parameters that are exposed to guards.
type Props map[string]interface{}

func (ps Props) Copy() Props {
	acc := make(Props, len(ps))
	for p, v := range ps {
		acc[p] = v
	}
	return acc
}

// Execution is the result of running a Guard.
type Execution struct {
	// Admitted reports whether the guard accepted the candidate.
	Admitted bool

	*Events
}

func NewExecution(admitted bool) *Execution {
	return &Execution{
		Admitted: admitted,
		Events:   newEvents(),
	}
}

// Guard decides whether a candidate that matched structurally is
// admitted.
//
// The Bindings are the candidate's bindings, which have not been
// committed.  An error aborts the whole match session.
type Guard interface {
	Admit(ctx context.Context, bs match.Bindings, props Props) (*Execution, error)
}

// GuardFunc makes a function a Guard.
type GuardFunc func(ctx context.Context, bs match.Bindings, props Props) (*Execution, error)

func (f GuardFunc) Admit(ctx context.Context, bs match.Bindings, props Props) (*Execution, error) {
	return f(ctx, bs, props)
}

// When makes a Guard from a predicate on the candidate's Bindings.
func When(pred func(bs match.Bindings) bool) Guard {
	return GuardFunc(func(ctx context.Context, bs match.Bindings, props Props) (*Execution, error) {
		return NewExecution(pred(bs)), nil
	})
}

// Interpreter can compile and execute code for guards.
type Interpreter interface {
	// Compile can make something that helps when Exec()ing the
	// code later.
	Compile(ctx context.Context, code interface{}) (interface{}, error)

	// Exec executes the code.  The result of previous Compile()
	// might be provided.
	Exec(ctx context.Context, bs match.Bindings, props Props, code interface{}, compiled interface{}) (*Execution, error)
}

// InterpretersMap maps interpreter names to Interpreters.
type InterpretersMap map[string]Interpreter

func NewInterpretersMap() InterpretersMap {
	return make(InterpretersMap)
}

// Find returns the named Interpreter or nil.
func (m InterpretersMap) Find(name string) Interpreter {
	return m[name]
}

// GuardSource can be compiled to a Guard.
type GuardSource struct {
	Interpreter string      `json:"interpreter,omitempty" yaml:",omitempty"`
	Source      interface{} `json:"source"`
}

// Copy makes a shallow copy.
func (g *GuardSource) Copy() *GuardSource {
	if g == nil {
		return nil
	}
	return &GuardSource{
		Interpreter: g.Interpreter,
		Source:      g.Source,
	}
}

// Compile attempts to compile the GuardSource into a Guard using
// the given interpreters, which defaults to DefaultInterpreters.
func (g *GuardSource) Compile(ctx context.Context, interpreters InterpretersMap) (Guard, error) {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}

	interpreter, have := interpreters[g.Interpreter]
	if !have {
		return nil, InterpreterNotFound
	}

	x, err := interpreter.Compile(ctx, g.Source)
	if err != nil {
		return nil, err
	}

	return GuardFunc(func(ctx context.Context, bs match.Bindings, props Props) (*Execution, error) {
		return interpreter.Exec(ctx, bs, props, g.Source, x)
	}), nil
}
