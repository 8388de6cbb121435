/* Copyright 2021 Comcast Cable Communications Management, LLC
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
	"errors"
	"strings"
	"sync"
	"testing"

	. "github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/syntax"
	. "github.com/Comcast/casematch/util/testutil"
)

func mockPatternParser(n Node, err error) func(string, string, *syntax.Env) (Node, error) {
	return func(_ string, _ string, _ *syntax.Env) (Node, error) {
		return n, err
	}
}

func TestParsePatterns(t *testing.T) {
	testErr := errors.New("test parser error")

	tests := []struct {
		name    string
		parser  func(string, string, *syntax.Env) (Node, error)
		cases   []*CaseSpec
		wantErr error
	}{
		{
			name:   "good",
			parser: mockPatternParser(Any, nil),
			cases: []*CaseSpec{
				{Pattern: "something nice"},
				{Pattern: "something else"},
			},
		},
		{
			name:   "native",
			parser: mockPatternParser(nil, testErr),
			cases: []*CaseSpec{
				{Node: Any},
			},
		},
		{
			name:    "parser error",
			parser:  mockPatternParser(nil, testErr),
			cases:   []*CaseSpec{{Pattern: "x"}},
			wantErr: testErr,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table := &Table{
				Name:          tc.name,
				PatternParser: tc.parser,
				Cases:         tc.cases,
			}
			err := table.Compile(context.Background(), nil, nil, false)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v; wanted %v", err, tc.wantErr)
			}
			if err != nil {
				var ce *CaseError
				if !errors.As(err, &ce) {
					t.Fatalf("%T isn't a CaseError", err)
				}
				return
			}
			if !table.Compiled() {
				t.Fatal("not compiled")
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		table   *Table
		wantErr string
	}{
		{
			name: "syntax",
			table: &Table{Cases: []*CaseSpec{
				{Name: "bad", Pattern: "(1, "},
			}},
			wantErr: "case bad",
		},
		{
			name: "multiple rest",
			table: &Table{Cases: []*CaseSpec{
				{Pattern: "(*a, *b)"},
			}},
			wantErr: "#0",
		},
		{
			name: "unbound pin",
			table: &Table{Cases: []*CaseSpec{
				{Pattern: "^nope"},
			}},
			wantErr: `"^nope"`,
		},
		{
			name: "no pattern",
			table: &Table{Cases: []*CaseSpec{
				{Name: "empty"},
			}},
			wantErr: "no pattern",
		},
		{
			name: "unknown syntax",
			table: &Table{PatternSyntax: "cobol", Cases: []*CaseSpec{
				{Pattern: "x"},
			}},
			wantErr: UnknownPatternSyntax.Error(),
		},
		{
			name: "unknown interpreter",
			table: &Table{Cases: []*CaseSpec{
				{Pattern: "x", GuardSource: &GuardSource{Interpreter: "cobol", Source: "x"}},
			}},
			wantErr: InterpreterNotFound.Error(),
		},
		{
			name: "missing param",
			table: &Table{
				ParamSpecs: map[string]ParamSpec{"limit": {PrimitiveType: "number"}},
				Cases:      []*CaseSpec{{Pattern: "x"}},
			},
			wantErr: `parameter "limit": missing`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.table.Compile(context.Background(), nil, nil, true)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("%q doesn't mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestEvalNotCompiled(t *testing.T) {
	table := &Table{Name: "raw"}
	_, err := table.Eval(context.Background(), 1)
	var nc *TableNotCompiled
	if !errors.As(err, &nc) {
		t.Fatalf("err=%v", err)
	}
}

func TestEvalTurnstile(t *testing.T) {
	ctx := context.Background()
	table, err := TurnstileTable(ctx)
	if err != nil {
		t.Fatal(err)
	}

	state := "locked"
	for _, step := range []struct {
		input, name, state string
	}{
		{"push", "blocked", "locked"},
		{"coin", "pay", "unlocked"},
		{"coin", "thanks", "unlocked"},
		{"push", "enter", "locked"},
		{"kick", "confused", "locked"},
	} {
		out, err := table.Eval(ctx, map[string]interface{}{
			"state": state,
			"input": step.input,
		})
		if err != nil {
			t.Fatal(err)
		}
		if out.Status != Matched || out.Name != step.name {
			t.Fatalf("%s: %s %q", step.input, out.Status, out.Name)
		}
		if len(out.Emitted) != 1 {
			t.Fatalf("emitted %s", JS(out.Emitted))
		}
		m, is := out.Emitted[0].(map[string]interface{})
		if !is {
			t.Fatalf("emitted a %T", out.Emitted[0])
		}
		if state = m["state"].(string); state != step.state {
			t.Fatalf("%s: state %q", step.input, state)
		}
	}
}

func TestEvalParams(t *testing.T) {
	table := &Table{
		Name: "limits",
		ParamSpecs: map[string]ParamSpec{
			"limit": {PrimitiveType: "number", Default: 10},
		},
		Cases: []*CaseSpec{
			{Name: "at", Pattern: `{"n": ^limit}`},
			{Name: "other", Pattern: `{"n": n}`},
		},
	}
	ctx := context.Background()
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}

	out, err := table.Eval(ctx, Dwimjs(`{"n":10}`))
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != "at" || len(out.Bs) != 0 {
		t.Fatalf("%s %s", out.Name, JS(out.Bs))
	}

	if out, err = table.Eval(ctx, Dwimjs(`{"n":11}`)); err != nil {
		t.Fatal(err)
	}
	if out.Name != "other" {
		t.Fatal(out.Name)
	}
}

func TestEvalGuard(t *testing.T) {
	var props Props
	table := &Table{
		Params: map[string]interface{}{"min": 2},
		Cases: []*CaseSpec{
			{
				Name:    "pair",
				Pattern: "(x, y)",
				Guard: GuardFunc(func(ctx context.Context, bs Bindings, ps Props) (*Execution, error) {
					props = ps
					e := NewExecution(false)
					e.AddTrace("rejected")
					e.AddEmitted("lost")
					return e, nil
				}),
			},
			{
				Name:    "first",
				Pattern: "(z, *_)",
				Guard: GuardFunc(func(ctx context.Context, bs Bindings, ps Props) (*Execution, error) {
					e := NewExecution(true)
					e.AddEmitted("won")
					return e, nil
				}),
			},
		},
	}
	ctx := context.Background()
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}

	out, err := table.Eval(ctx, []interface{}{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Case != 1 {
		t.Fatalf("case %d", out.Case)
	}
	if _, have := out.Bs["x"]; have {
		t.Fatalf("x leaked: %s", JS(out.Bs))
	}
	if out.Bs["z"] != "a" {
		t.Fatalf("bs %s", JS(out.Bs))
	}
	if len(out.Emitted) != 1 || out.Emitted[0] != "won" {
		t.Fatalf("emitted %s", JS(out.Emitted))
	}
	if props["min"] != 2 {
		t.Fatalf("props %s", JS(props))
	}
	// Two case traces and one guard trace.
	if n := len(out.Traces.Messages); n != 3 {
		t.Fatalf("traces %s", JS(out.Traces.Messages))
	}
}

func TestEvalGuardError(t *testing.T) {
	boom := errors.New("boom")
	table := &Table{
		Name: "broken",
		Cases: []*CaseSpec{
			{
				Name:    "bad",
				Pattern: "_",
				Guard: GuardFunc(func(ctx context.Context, bs Bindings, ps Props) (*Execution, error) {
					return nil, boom
				}),
			},
			{Pattern: "_"},
		},
	}
	ctx := context.Background()
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}
	out, err := table.Eval(ctx, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if out.Status != Exhausted {
		t.Fatal(out.Status)
	}
}

func TestEvalExhausted(t *testing.T) {
	table := &Table{
		Cases: []*CaseSpec{
			{Pattern: "(1, 2)"},
			{Pattern: "{1, 2}"},
		},
	}
	ctx := context.Background()
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}
	out, err := table.Eval(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != Exhausted || out.Case != -1 {
		t.Fatalf("%s %d", out.Status, out.Case)
	}
}

func TestEvalConcurrent(t *testing.T) {
	table := &Table{
		Cases: []*CaseSpec{
			{Pattern: "(a, a)"},
			{Pattern: "(a, b)"},
		},
	}
	ctx := context.Background()
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := table.Eval(ctx, []interface{}{i, i % 2})
			if err != nil {
				errs <- err
				return
			}
			if !Equal(out.Bs["a"], i) {
				errs <- errors.New("wrong binding")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestEvalJSONSyntax(t *testing.T) {
	table := &Table{
		PatternSyntax: "json",
		Cases: []*CaseSpec{
			{Pattern: `{"likes":"tacos"}`},
		},
	}
	ctx := context.Background()
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}
	out, err := table.Eval(ctx, Dwimjs(`{"likes":"tacos"}`))
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != Matched {
		t.Fatal(out.Status)
	}
}

func TestTableCopy(t *testing.T) {
	table, err := TurnstileTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	c := table.Copy("2")
	if c.Compiled() {
		t.Fatal("copy shouldn't be compiled")
	}
	if c.Version != "2" || len(c.Cases) != len(table.Cases) {
		t.Fatal(JS(c))
	}
	c.Cases[0].Name = "changed"
	if table.Cases[0].Name == "changed" {
		t.Fatal("copy shares cases")
	}
}

func TestTableCopyParams(t *testing.T) {
	ctx := context.Background()
	table := &Table{
		Name:   "limits",
		Params: map[string]interface{}{"limit": 1},
		Cases: []*CaseSpec{
			{Name: "at", Pattern: "^limit"},
			{Name: "native", Node: NewConstant("native")},
		},
	}
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}

	c := table.Copy("")
	if c.Cases[0].Node != nil {
		t.Fatal("copy kept a parsed node")
	}
	if c.Cases[1].Node == nil {
		t.Fatal("copy dropped a native node")
	}
	c.Params["limit"] = 2
	if err := c.Compile(ctx, nil, nil, false); err != nil {
		t.Fatal(err)
	}

	out, err := c.Eval(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != "at" {
		t.Fatalf("%s %s", out.Status, out.Name)
	}
	if out, err = c.Eval(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if out.Status != Exhausted {
		t.Fatal(out.Status)
	}

	// The original still pins the old value.
	if out, err = table.Eval(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if out.Name != "at" {
		t.Fatalf("%s %s", out.Status, out.Name)
	}
}

func TestUpdatableTable(t *testing.T) {
	table, err := TurnstileTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	u := NewUpdatableTable(table)
	var tr Tabler = u
	if tr.Table() != table {
		t.Fatal("wrong table")
	}
	if err := u.SetTable(table.Copy("")); err == nil {
		t.Fatal("should have refused an uncompiled table")
	}
	next := table.Copy("2")
	if err := next.Compile(context.Background(), nil, nil, true); err != nil {
		t.Fatal(err)
	}
	if err := u.SetTable(next); err != nil {
		t.Fatal(err)
	}
	if u.Table().Version != "2" {
		t.Fatal(u.Table().Version)
	}
}
