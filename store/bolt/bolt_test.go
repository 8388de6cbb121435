package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Comcast/casematch/store"
	"github.com/Comcast/casematch/store/storetest"
)

func TestImpl(t *testing.T) {
	// Just confirm that this code compiles.
	var _ store.Storage = &Storage{}
}

func open(tb testing.TB) *Storage {
	s, err := NewStorage(filepath.Join(tb.TempDir(), "storage.db"))
	if err != nil {
		tb.Fatal(err)
	}

	ctx := context.Background()
	if err := s.Open(ctx); err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := s.Close(ctx); err != nil {
			tb.Fatal(err)
		}
	})
	return s
}

func TestBasics(t *testing.T) {
	storetest.Exercise(t, open(t))
}

func TestDump(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	tss := []*store.TableState{
		{
			Id:      "a",
			Updated: "2018-01-01T00:00:00Z",
		},
	}
	if err := s.WriteTables(ctx, "simpsons", tss); err != nil {
		t.Fatal(err)
	}

	d, err := s.Dump(ctx)
	if err != nil {
		t.Fatal(err)
	}
	a, is := d["simpsons"]["a"].(map[string]interface{})
	if !is {
		t.Fatal(d)
	}
	if a["updated"] != "2018-01-01T00:00:00Z" {
		t.Fatal(a)
	}
}

// BenchmarkBolt is just for fun.  Bolt is slow.
func BenchmarkBolt(b *testing.B) {
	s := open(b)
	ctx := context.Background()

	tss := []*store.TableState{
		{Id: "a", Updated: "2018-01-01T00:00:00Z"},
		{Id: "b", Updated: "2018-01-01T00:00:00Z"},
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var err error
		if i%2 == 0 {
			err = s.WriteTables(ctx, "simpsons", tss)
		} else {
			_, err = s.GetTables(ctx, "simpsons")
		}
		if err != nil {
			b.Fatal(err)
		}
	}
}
