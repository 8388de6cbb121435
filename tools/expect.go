package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/syntax"
	. "github.com/Comcast/casematch/util/testutil"

	"github.com/jsccast/yaml"
)

// Expectation is a subject and what should happen when a Table
// evaluates it.
type Expectation struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Subject is given to the Table.
	Subject interface{} `json:"subject" yaml:"subject"`

	// Case is the name of the Case that should win.  If empty
	// (and Error is false), the Table should be exhausted.
	Case string `json:"case,omitempty" yaml:"case,omitempty"`

	// Bindings must all be present (with equal values) in the
	// winning Case's bindings.
	Bindings map[string]interface{} `json:"bs,omitempty" yaml:"bs,omitempty"`

	// Emitted, if not nil, must equal what the evaluation
	// emitted.
	Emitted []interface{} `json:"emitted,omitempty" yaml:"emitted,omitempty"`

	// Error means that the evaluation should fail.
	Error bool `json:"error,omitempty" yaml:"error,omitempty"`
}

// Session is a Table (usually a filename) and a sequence of
// Expectations.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Table is the filename of the Table, which is relative to
	// the directory given to Run.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`

	// Params, if not nil, replace the Table's Params.
	Params map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`

	Expectations []Expectation `json:"expectations" yaml:"expectations"`

	// Timeout is the optional timeout for each evaluation.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Interpreters are used to compile guards.
	Interpreters core.InterpretersMap `json:"-" yaml:"-"`

	// Factories are used to parse patterns.
	Factories syntax.Factories `json:"-" yaml:"-"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Failure describes an Expectation that wasn't met.
type Failure struct {
	Index   int           `json:"index"`
	Doc     string        `json:"doc,omitempty"`
	Problem string        `json:"problem"`
	Outcome *core.Outcome `json:"outcome,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("expectation %d: %s", f.Index, f.Problem)
}

// Report summarizes a Session run.
type Report struct {
	Passed   int       `json:"passed"`
	Failures []Failure `json:"failures,omitempty"`
}

// OK reports whether every Expectation was met.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// ReadSession reads a Session from a YAML (or JSON) file.
func ReadSession(filename string) (*Session, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var s Session
	if err = yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Run reads and compiles the Session's Table (relative to dir) and
// then checks the Expectations.
func (s *Session) Run(ctx context.Context, dir string) (*Report, error) {
	if s.Table == "" {
		return nil, fmt.Errorf("session has no table")
	}
	t, err := ReadTable(filepath.Join(dir, s.Table))
	if err != nil {
		return nil, err
	}
	if s.Params != nil {
		t.Params = s.Params
	}
	if err = t.Compile(ctx, s.Interpreters, s.Factories, true); err != nil {
		return nil, err
	}
	return s.Check(ctx, t)
}

// Check evaluates each Expectation's subject with the given compiled
// Table.
//
// An Expectation that isn't met is reported as a Failure.  The
// returned error is for problems that prevent checking at all.
func (s *Session) Check(ctx context.Context, t *core.Table) (*Report, error) {
	if !t.Compiled() {
		return nil, &core.TableNotCompiled{Table: t}
	}

	r := &Report{}
	for i, e := range s.Expectations {
		o, problem := s.check(ctx, t, e)
		if problem == "" {
			r.Passed++
			if s.Verbose {
				logf("expectation %d passed", i)
			}
			continue
		}
		f := Failure{
			Index:   i,
			Doc:     e.Doc,
			Problem: problem,
			Outcome: o,
		}
		if s.Verbose {
			logf("%s", f.Error())
		}
		r.Failures = append(r.Failures, f)
	}
	return r, nil
}

func (s *Session) check(ctx context.Context, t *core.Table, e Expectation) (*core.Outcome, string) {
	if 0 < s.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	o, err := t.Eval(ctx, e.Subject)
	if err != nil {
		if e.Error {
			return o, ""
		}
		return o, "error: " + err.Error()
	}
	if e.Error {
		return o, "wanted an error"
	}

	if e.Case == "" {
		if o.Status != core.Exhausted {
			return o, fmt.Sprintf("wanted no case but %q won", o.Name)
		}
		return o, ""
	}
	if o.Status != core.Matched {
		return o, fmt.Sprintf("wanted %q but the table was exhausted", e.Case)
	}
	if o.Name != e.Case {
		return o, fmt.Sprintf("wanted %q but %q won", e.Case, o.Name)
	}

	for name, want := range e.Bindings {
		got, have := o.Bs[name]
		if !have {
			return o, fmt.Sprintf("no binding for %s", name)
		}
		if !match.Equal(want, got) {
			return o, fmt.Sprintf("%s is %s, not %s", name, JS(got), JS(want))
		}
	}

	if e.Emitted != nil {
		var got []interface{}
		if o.Events != nil {
			got = o.Emitted
		}
		if got == nil {
			got = []interface{}{}
		}
		if !match.Equal(e.Emitted, got) {
			return o, fmt.Sprintf("emitted %s, not %s", JS(got), JS(e.Emitted))
		}
	}

	return o, ""
}
