// Package storetest checks that a store.Storage behaves.
package storetest

import (
	"context"
	"testing"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/store"
)

func table(id, likes string) *core.Table {
	return &core.Table{
		Id:   id,
		Name: "likes",
		Cases: []*core.CaseSpec{
			{
				Name:    "likes",
				Pattern: `{"likes": "` + likes + `"}`,
				Emit: map[string]interface{}{
					"likes": likes,
				},
			},
		},
	}
}

// Exercise writes, reads, updates, and deletes some Tables.  The
// Storage must already be open.
func Exercise(t *testing.T, s store.Storage) {
	ns := "simpsons"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.MakeNamespace(ctx, ns); err != nil {
		t.Fatal(err)
	}

	if err := s.WriteTables(ctx, ns, store.AsTableStates(table("a", "tacos"), table("b", "queso"))); err != nil {
		t.Fatal(err)
	}

	check := func(id, what string) {
		t.Helper()
		got, err := s.GetTables(ctx, ns)
		if err != nil {
			t.Fatal(err)
		}

		tables := store.AsTables(got)
		tbl, found := tables[id]
		if what == "" {
			if found {
				t.Fatalf(`didn't expect to find "%s"`, id)
			}
			return
		}
		if !found {
			t.Fatalf(`didn't find "%s"`, id)
		}
		if tbl.Id != id {
			t.Fatalf(`id "%s" != "%s"`, tbl.Id, id)
		}

		if err := tbl.Compile(ctx, nil, nil, true); err != nil {
			t.Fatal(err)
		}
		o, err := tbl.Eval(ctx, map[string]interface{}{"likes": what})
		if err != nil {
			t.Fatal(err)
		}
		if o.Status != core.Matched {
			t.Fatalf(`table "%s" doesn't like "%s"`, id, what)
		}
	}

	check("a", "tacos")
	check("b", "queso")

	if err := s.WriteTables(ctx, ns, store.AsTableStates(table("a", "chips"))); err != nil {
		t.Fatal(err)
	}

	check("a", "chips")
	check("b", "queso")

	if err := s.WriteTables(ctx, ns, []*store.TableState{{Id: "a", Deleted: true}}); err != nil {
		t.Fatal(err)
	}

	check("a", "")
	check("b", "queso")

	if got, err := s.GetTables(ctx, "nobody"); err != nil || len(got) != 0 {
		t.Fatal(got, err)
	}

	if err := s.RemNamespace(ctx, ns); err != nil {
		t.Fatal(err)
	}
	if got, err := s.GetTables(ctx, ns); err != nil || len(got) != 0 {
		t.Fatal(got, err)
	}
	if err := s.RemNamespace(ctx, ns); err != store.NotFound {
		t.Fatalf("wanted NotFound, not %v", err)
	}
}
