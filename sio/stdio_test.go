package sio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/match"
)

func TestStdio(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table, err := core.TurnstileTable(ctx)
	if err != nil {
		t.Fatal(err)
	}

	input := `{"state":"locked","input":"coin"}
# A comment
{"state":"unlocked","input":"push"}

"nope"
not json
quit
{"state":"locked","input":"push"}
`

	var out bytes.Buffer
	s := NewStdio(false)
	s.In = strings.NewReader(input)
	s.Out = &out
	s.Tags = true
	s.PrintEmitted = true
	s.TallyOutputFilename = filepath.Join(t.TempDir(), "tally.json")

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	e, err := NewEvaluator(ctx, &EvaluatorConf{HaltOnInputEOF: true}, table, s)
	if err != nil {
		t.Fatal(err)
	}

	if err = e.Loop(ctx); err != nil {
		t.Fatal(err)
	}

	if err = s.Stop(ctx); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("%d lines: %s", len(lines), out.String())
	}

	var o core.Outcome
	if !strings.HasPrefix(lines[0], "outcome ") {
		t.Fatal(lines[0])
	}
	if err = json.Unmarshal([]byte(strings.TrimPrefix(lines[0], "outcome ")), &o); err != nil {
		t.Fatal(err)
	}
	if o.Status != core.Matched || o.Name != "pay" {
		t.Fatal(lines[0])
	}
	if lines[1] != `emit {"state":"unlocked"}` {
		t.Fatal(lines[1])
	}
	if !strings.Contains(lines[2], `"name":"enter"`) {
		t.Fatal(lines[2])
	}
	if !strings.Contains(lines[4], `"status":"exhausted"`) {
		t.Fatal(lines[4])
	}

	js, err := os.ReadFile(s.TallyOutputFilename)
	if err != nil {
		t.Fatal(err)
	}
	var tally Tally
	if err = json.Unmarshal(js, &tally); err != nil {
		t.Fatal(err)
	}
	if tally["pay"] != 1 || tally["enter"] != 1 || tally[TallyExhausted] != 1 {
		t.Fatal(tally)
	}
	if _, have := tally["blocked"]; have {
		t.Fatal("input after quit was processed")
	}
}

func TestEvaluatorError(t *testing.T) {
	ctx := context.Background()

	table := &core.Table{
		Name: "fussy",
		Cases: []*core.CaseSpec{
			{
				Name:    "any",
				Pattern: `x`,
				Guard: core.GuardFunc(func(ctx context.Context, _ match.Bindings, _ core.Props) (*core.Execution, error) {
					return nil, errors.New("refused")
				}),
			},
		},
	}
	if err := table.Compile(ctx, nil, nil, true); err != nil {
		t.Fatal(err)
	}

	e := &Evaluator{
		Conf:   &EvaluatorConf{},
		Tabler: core.NewUpdatableTable(table),
	}

	r := e.Process(ctx, 42.0)
	if r.Err == "" {
		t.Fatal("expected an error")
	}
	if r.Outcome == nil || r.Traces == nil || len(r.Traces.Messages) != 1 {
		t.Fatal(r.Outcome)
	}

	tally := make(Tally)
	tally.Add(r)
	if tally[TallyError] != 1 {
		t.Fatal(tally)
	}
}

func TestShellExpand(t *testing.T) {
	if _, err := os.Stat("/bin/bash"); err != nil {
		t.Skip(err)
	}
	got, err := ShellExpand(`{"n": <<echo -n 42>>}`)
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"n": 42}` {
		t.Fatal(got)
	}
}
