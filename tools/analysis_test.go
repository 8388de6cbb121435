package tools

import (
	"context"
	"reflect"
	"testing"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/matchers"
)

func TestAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl, err := core.TurnstileTable(ctx)
	if err != nil {
		t.Fatal(err)
	}

	a, err := Analyze(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if a.Cases != 5 || a.Emitters != 5 || a.Guards != 0 {
		t.Fatal(a)
	}
	if 0 < len(a.Errors) {
		t.Fatal(a.Errors)
	}
	if !reflect.DeepEqual(a.Variables["confused"], []string{"input", "state"}) {
		t.Fatal(a.Variables)
	}
}

func TestAnalysisUnreachable(t *testing.T) {
	tbl := &core.Table{
		Params: map[string]interface{}{
			"limit": 3,
		},
		Cases: []*core.CaseSpec{
			{
				Name:    "dated",
				Pattern: "(Regex(`(\\d+)-(\\d+)`, y, m), ^limit)",
			},
			{
				Name:    "guarded",
				Pattern: "x",
				Guard: core.When(func(bs match.Bindings) bool {
					return false
				}),
			},
			{
				Name:    "anything",
				Pattern: "_",
			},
			{
				Name:    "never",
				Pattern: "[1, 2]",
			},
			{
				Name:    "never",
				Pattern: `{"x": x}`,
			},
		},
	}
	if err := tbl.Compile(context.Background(), nil, matchers.Standard(), true); err != nil {
		t.Fatal(err)
	}

	a, err := Analyze(tbl)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(a.Unreachable, []string{"never", "never"}) {
		t.Fatal(a.Unreachable)
	}
	if !reflect.DeepEqual(a.Duplicates, []string{"never"}) {
		t.Fatal(a.Duplicates)
	}
	if len(a.Errors) != 2 {
		t.Fatal(a.Errors)
	}
	if !reflect.DeepEqual(a.Pins, []string{"limit"}) {
		t.Fatal(a.Pins)
	}
	if !reflect.DeepEqual(a.Constructors, []string{"Regex"}) {
		t.Fatal(a.Constructors)
	}
	if !reflect.DeepEqual(a.Variables["dated"], []string{"m", "y"}) {
		t.Fatal(a.Variables)
	}
}
