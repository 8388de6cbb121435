package interpreters

import (
	"context"
	"testing"

	"github.com/Comcast/casematch/core"
)

func TestStandard(t *testing.T) {
	is := Standard(nil)
	for _, name := range []string{"ecmascript", "ecmascript-ext", "goja", "goja-libs", "noop"} {
		if is.Find(name) == nil {
			t.Fatalf("no %s", name)
		}
	}

	table := &core.Table{
		Cases: []*core.CaseSpec{
			{
				Pattern: "(x, *xs)",
				GuardSource: &core.GuardSource{
					Interpreter: "ecmascript-ext",
					Source:      `_.match("(1, y)", _.bindings.xs) !== null`,
				},
			},
		},
	}
	ctx := context.Background()
	if err := table.Compile(ctx, is, nil, true); err != nil {
		t.Fatal(err)
	}
	out, err := table.Eval(ctx, []interface{}{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != core.Matched {
		t.Fatal(out.Status)
	}
}
