package noop

import (
	"context"
	"log"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/match"
)

// Interpreter is a core.Interpreter that admits every candidate
// without looking at the code.
type Interpreter struct {
	// Silent, if true, will suppress warning log messages.
	Silent bool
}

func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	if !i.Silent {
		log.Printf("warning: Using noop Interpreter for compilation")
	}
	return nil, nil
}

func (i *Interpreter) Exec(ctx context.Context, bs match.Bindings, props core.Props, code interface{}, compiled interface{}) (*core.Execution, error) {
	if !i.Silent {
		log.Printf("warning: Using noop Interpreter for execution")
	}
	return core.NewExecution(true), nil
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// InterpretersFor returns an InterpretersMap that resolves every
// interpreter named by the Table's guards (and "noop") to the given
// Interpreter.
//
// Useful for compiling a Table just to look at it.
func InterpretersFor(t *core.Table, i *Interpreter) core.InterpretersMap {
	is := core.NewInterpretersMap()
	is["noop"] = i
	for _, c := range t.Cases {
		if c != nil && c.GuardSource != nil {
			is[c.GuardSource.Interpreter] = i
		}
	}
	return is
}
