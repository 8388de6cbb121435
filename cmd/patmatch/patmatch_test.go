package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	for _, c := range []struct {
		name string
		args []string
		ok   bool
		out  string
	}{
		{
			name: "bindings",
			args: []string{"-p", `(1, a, b)`, "-m", `[1, 2, 3]`},
			ok:   true,
			out:  `{"a":2,"b":3}`,
		},
		{
			name: "nomatch",
			args: []string{"-p", `(a, a)`, "-m", `[1, 2]`},
			ok:   true,
			out:  `null`,
		},
		{
			name: "wanted",
			args: []string{"-p", `{"likes": [first, *_]}`, "-m", `{"likes":["tacos","chips"]}`, "-w", `{"first":"tacos"}`},
			ok:   true,
			out:  `true`,
		},
		{
			name: "unwanted",
			args: []string{"-p", `{"likes": [first, *_]}`, "-m", `{"likes":["tacos","chips"]}`, "-w", `{"first":"chips"}`},
			ok:   false,
			out:  `false`,
		},
		{
			name: "guarded",
			args: []string{"-p", `{"n": n}`, "-m", `{"n": 3}`, "-g", `_.bindings.n > 5`},
			ok:   true,
			out:  `null`,
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			var out bytes.Buffer
			ok, err := run(context.Background(), c.args, &out)
			if err != nil {
				t.Fatal(err)
			}
			if ok != c.ok {
				t.Fatal(ok)
			}
			if got := strings.TrimSpace(out.String()); got != c.out {
				t.Fatal(got)
			}
		})
	}
}

func TestRunBadPattern(t *testing.T) {
	var out bytes.Buffer
	if _, err := run(context.Background(), []string{"-p", `(1, `}, &out); err == nil {
		t.Fatal("should have complained")
	}
}
