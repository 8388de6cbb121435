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

package core

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/syntax"
)

// DefaultPatternParser parses the source of a Case's pattern.
//
// Syntax "dsl" (or "") is the pattern language of package syntax.
// Syntax "json" makes a Constant from a JSON value.
var DefaultPatternParser = func(lang string, src string, env *syntax.Env) (match.Node, error) {
	switch lang {
	case "", "dsl":
		return syntax.Parse(src, env)
	case "json":
		var x interface{}
		if err := json.Unmarshal([]byte(src), &x); err != nil {
			return nil, err
		}
		return match.NewConstant(x), nil
	default:
		return nil, UnknownPatternSyntax
	}
}

// Table is an ordered list of Cases.
//
// A Table is a declarative rendition of a call to Try: the first Case
// whose pattern matches a subject (and whose guard, if any, admits
// the candidate) wins.
//
// A Table should be Compiled before use.  A compiled Table isn't
// modified by Eval, so a compiled Table can be evaluated by many
// goroutines at once.
type Table struct {
	// Name is the generic name for this table.  Cf. Id.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Version is the version of this table.  Something like
	// "1.2".
	Version string `json:"version,omitempty" yaml:",omitempty"`

	// Id should be a globally unique identifier.
	//
	// This package does not read or write this value.
	Id string `json:"id,omitempty" yaml:",omitempty"`

	// Doc is general documentation about how this table works.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// ParamSpecs is an optional map from a parameter name to a
	// specification for that parameter.
	ParamSpecs map[string]ParamSpec `json:"paramSpecs,omitempty" yaml:"paramSpecs,omitempty"`

	// Params are values that patterns can refer to with pins
	// and that guards see as props.
	Params map[string]interface{} `json:"params,omitempty" yaml:",omitempty"`

	// PatternSyntax indicates the syntax for Case patterns.
	PatternSyntax string `json:"patternSyntax,omitempty" yaml:"patternSyntax,omitempty"`

	PatternParser func(lang string, src string, env *syntax.Env) (match.Node, error) `json:"-" yaml:"-"`

	// Matcher is used for every attempt.  Nil means
	// match.DefaultMatcher.
	Matcher *match.Matcher `json:"-" yaml:"-"`

	Cases []*CaseSpec `json:"cases" yaml:"cases"`

	compiled bool
	env      *syntax.Env
	props    Props
}

// CaseSpec is one candidate in a Table.
type CaseSpec struct {
	Name string `json:"name,omitempty" yaml:",omitempty"`

	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Pattern is the source of the pattern.  If Pattern is empty,
	// then Node should already be set.
	Pattern string `json:"pattern,omitempty" yaml:",omitempty"`

	// Node is the compiled Pattern.
	Node match.Node `json:"-" yaml:"-"`

	// GuardSource, if given, is compiled to the Guard.
	GuardSource *GuardSource `json:"guard,omitempty" yaml:"guard,omitempty"`

	// Guard is an optional procedure that decides whether a
	// candidate that matched is admitted.
	Guard Guard `json:"-" yaml:"-"`

	// Emit is instantiated with the winning bindings and emitted.
	Emit interface{} `json:"emit,omitempty" yaml:",omitempty"`
}

// Copy makes a copy that shares the compiled pattern and guard.
func (c *CaseSpec) Copy() *CaseSpec {
	if c == nil {
		return nil
	}
	// A Node parsed from a Pattern belongs to the Env of the Table
	// that compiled it, so only a Node built in Go is carried over.
	var n match.Node
	if c.Pattern == "" {
		n = c.Node
	}
	return &CaseSpec{
		Name:        c.Name,
		Doc:         c.Doc,
		Pattern:     c.Pattern,
		Node:        n,
		GuardSource: c.GuardSource.Copy(),
		Guard:       c.Guard,
		Emit:        c.Emit,
	}
}

// label is the Case's name or its position.
func (c *CaseSpec) label(i int) string {
	if c.Name != "" {
		return c.Name
	}
	return "#" + strconv.Itoa(i)
}

// Copy makes an uncompiled copy of the Table.
func (t *Table) Copy(version string) *Table {
	if version == "" {
		version = t.Version
	}
	cs := make([]*CaseSpec, len(t.Cases))
	for i, c := range t.Cases {
		cs[i] = c.Copy()
	}
	var params map[string]interface{}
	if t.Params != nil {
		params = make(map[string]interface{}, len(t.Params))
		for p, v := range t.Params {
			params[p] = v
		}
	}
	var specs map[string]ParamSpec
	if t.ParamSpecs != nil {
		specs = make(map[string]ParamSpec, len(t.ParamSpecs))
		for p, s := range t.ParamSpecs {
			specs[p] = s
		}
	}

	return &Table{
		Name:          t.Name,
		Version:       version,
		Doc:           t.Doc,
		ParamSpecs:    specs,
		Params:        params,
		PatternSyntax: t.PatternSyntax,
		PatternParser: t.PatternParser,
		Matcher:       t.Matcher,
		Cases:         cs,
	}
}

// Compiled reports whether the Table has been compiled.
func (t *Table) Compiled() bool {
	return t.compiled
}

// Env returns the Env that Compile used for the Table's patterns.
func (t *Table) Env() *syntax.Env {
	return t.env
}

// Compile parses patterns and compiles guards.
//
// Parameters are checked against their specs, and then their values
// are committed to the Vars with the same names.  A pin in a pattern
// must refer to a parameter.
//
// The factories resolve constructor calls in patterns.  Every Compile
// makes a new Env, so a Case with a Pattern is always parsed again.
// If force is false, a Case without a Pattern keeps its Node, and
// Cases that already have a Guard keep it.
func (t *Table) Compile(ctx context.Context, interpreters InterpretersMap, factories syntax.Factories, force bool) error {
	if t.PatternParser == nil {
		t.PatternParser = DefaultPatternParser
	}

	params, err := resolveParams(t.ParamSpecs, t.Params)
	if err != nil {
		return err
	}

	env := syntax.NewEnv(factories)
	for name, x := range params {
		env.Set(name, x)
	}

	for i, c := range t.Cases {
		if c == nil {
			return &CaseError{t.Name, "", i, errors.New("nil case")}
		}
		caseErr := func(err error) error {
			return &CaseError{t.Name, c.Name, i, err}
		}

		if c.Pattern != "" {
			n, err := t.PatternParser(t.PatternSyntax, c.Pattern, env)
			if err != nil {
				return caseErr(err)
			}
			c.Node = n
		}
		if c.Node == nil {
			return caseErr(errors.New("no pattern"))
		}
		if err := checkPins(c.Node); err != nil {
			return caseErr(err)
		}

		if c.GuardSource != nil && (force || c.Guard == nil) {
			guard, err := c.GuardSource.Compile(ctx, interpreters)
			if err != nil {
				return caseErr(err)
			}
			c.Guard = guard
		}
	}

	t.env = env
	t.props = Props(params)
	t.compiled = true

	return nil
}

// checkPins returns an UnboundPin error for the first pin that has
// nothing to refer to.
func checkPins(n match.Node) error {
	var err error
	match.Walk(n, func(n match.Node) bool {
		if err != nil {
			return false
		}
		if p, is := n.(*match.Pin); is && !p.Var.Bound() {
			err = &UnboundPin{p.Var.Name}
			return false
		}
		return true
	})
	return err
}

// Status is the final state of a Table evaluation.
type Status int

const (
	// Exhausted means that no Case won.
	Exhausted Status = iota

	// Matched means that a Case won.
	Matched
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case Exhausted:
		return "exhausted"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(bs []byte) error {
	switch string(bs) {
	case "matched":
		*s = Matched
	case "exhausted":
		*s = Exhausted
	default:
		return errors.New("unknown status " + strconv.Quote(string(bs)))
	}
	return nil
}

// Outcome is the result of a Table evaluation.
type Outcome struct {
	Status Status `json:"status" yaml:"status"`

	// Case is the index of the winning Case or -1.
	Case int `json:"case" yaml:"case"`

	// Name is the name of the winning Case.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Bs are the winning Case's bindings.
	Bs match.Bindings `json:"bs,omitempty" yaml:",omitempty"`

	*Events `json:"events,omitempty" yaml:",omitempty"`
}

// Eval finds the Case that wins for the given subject.
//
// Eval doesn't commit anything.  The winning bindings are returned
// in the Outcome.  Each Case that was tried gets a trace.
//
// If the Context carries a Scope, the subject is entered into that
// Scope, so Eval can be called from a guard.
func (t *Table) Eval(ctx context.Context, x interface{}) (*Outcome, error) {
	if !t.compiled {
		return nil, &TableNotCompiled{t}
	}

	sc, have := ScopeFrom(ctx)
	if !have {
		sc = NewScope()
		sc.Matcher = t.Matcher
	}

	out := &Outcome{
		Status: Exhausted,
		Case:   -1,
		Events: newEvents(),
	}

	err := sc.With(x, func() error {
		ctx := WithScope(ctx, sc)
		m := t.Matcher
		if m == nil {
			m = sc.matcher()
		}
		for i, c := range t.Cases {
			if err := ctx.Err(); err != nil {
				return err
			}
			ss := m.NewSlots()
			matched := c.Node.Match(ss, x)
			trace := map[string]interface{}{
				"case":    c.label(i),
				"matched": matched,
			}
			if !matched {
				out.AddTrace(trace)
				continue
			}

			var emitted []interface{}
			if c.Guard != nil {
				exe, err := c.Guard.Admit(withSlots(ctx, ss), ss.Bindings(), t.props.Copy())
				if exe != nil && exe.Events != nil {
					if exe.Traces != nil {
						out.Traces.Add(exe.Traces.Messages...)
					}
					emitted = exe.Emitted
				}
				if err != nil {
					trace["error"] = err.Error()
					out.AddTrace(trace)
					return &CaseError{t.Name, c.Name, i, err}
				}
				admitted := exe != nil && exe.Admitted
				trace["admitted"] = admitted
				if !admitted {
					out.AddTrace(trace)
					continue
				}
			}
			out.AddTrace(trace)

			out.Status = Matched
			out.Case = i
			out.Name = c.Name
			out.Bs = ss.Bindings()
			for _, y := range emitted {
				out.AddEmitted(y)
			}
			if c.Emit != nil {
				out.AddEmitted(Instantiate(c.Emit, out.Bs))
			}
			return nil
		}
		return nil
	})

	return out, err
}
