package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/tools"
	. "github.com/Comcast/casematch/util/testutil"
)

func demoService(t *testing.T, ctx context.Context, storeFile string) *Service {
	s, err := makeDemoService(ctx, "", storeFile)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Storage.Close(context.Background()); err != nil {
			t.Fatal(err)
		}
	})
	return s
}

func TestServiceEval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := demoService(t, ctx, "")

	var emitted []interface{}
	s.OutSubs.Add(DemoNamespace, "test", func(x interface{}) {
		emitted = append(emitted, x)
	})

	outs, err := s.Eval(ctx, DemoNamespace, "double", Dwimjs(`{"double":3}`))
	if err != nil {
		t.Fatal(err)
	}
	o, have := outs["double"]
	if !have {
		t.Fatal(JS(outs))
	}
	if o.Status != core.Matched || o.Name != "small" {
		t.Fatal(JS(o))
	}
	if len(emitted) != 1 || JS(emitted[0]) != `{"doubled":6}` {
		t.Fatal(JS(emitted))
	}

	// Every table in the namespace.
	outs, err = s.Eval(ctx, DemoNamespace, "", Dwimjs(`{"state":"locked","input":"coin"}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 2 {
		t.Fatal(JS(outs))
	}
	if o := outs["turnstile"]; o.Status != core.Matched || o.Name != "pay" {
		t.Fatal(JS(o))
	}
	if o := outs["double"]; o.Status != core.Exhausted {
		t.Fatal(JS(o))
	}

	if _, err = s.Eval(ctx, DemoNamespace, "nope", Dwimjs(`{}`)); err == nil {
		t.Fatal("should have complained")
	}
}

func TestServicePutRem(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := demoService(t, ctx, "")
	s.nsCache = NewNamespaceCache(time.Minute, 8)

	ns := "homer"
	if err := s.MakeNamespace(ctx, ns); err != nil {
		t.Fatal(err)
	}

	if err := s.PutTable(ctx, ns, &core.Table{Name: "noid"}); err == nil {
		t.Fatal("should have complained about the id")
	}

	bad := &core.Table{
		Id: "bad",
		Cases: []*core.CaseSpec{
			{Pattern: `{"a": `},
		},
	}
	if err := s.PutTable(ctx, ns, bad); err == nil {
		t.Fatal("should have complained about the pattern")
	}

	donut := &core.Table{
		Id: "donut",
		Cases: []*core.CaseSpec{
			{Name: "want", Pattern: `{"want": x}`, Emit: map[string]interface{}{"got": "$x"}},
		},
	}
	if err := s.PutTable(ctx, ns, donut); err != nil {
		t.Fatal(err)
	}

	outs, err := s.Eval(ctx, ns, "donut", Dwimjs(`{"want":"donut"}`))
	if err != nil {
		t.Fatal(err)
	}
	if o := outs["donut"]; o.Name != "want" {
		t.Fatal(JS(o))
	}

	// Replace the table.
	donut = &core.Table{
		Id: "donut",
		Cases: []*core.CaseSpec{
			{Name: "anything", Pattern: `_`},
		},
	}
	if err = s.PutTable(ctx, ns, donut); err != nil {
		t.Fatal(err)
	}
	if outs, err = s.Eval(ctx, ns, "donut", Dwimjs(`{"want":"donut"}`)); err != nil {
		t.Fatal(err)
	}
	if o := outs["donut"]; o.Name != "anything" {
		t.Fatal(JS(o))
	}

	src, err := s.GetTable(ctx, ns, "donut")
	if err != nil {
		t.Fatal(err)
	}
	if src.Cases[0].Node != nil {
		t.Fatal("source shouldn't be compiled")
	}

	if err = s.RemTable(ctx, ns, "donut"); err != nil {
		t.Fatal(err)
	}
	if _, err = s.GetTable(ctx, ns, "donut"); err == nil {
		t.Fatal("should be gone")
	}

	if err = s.RemNamespace(ctx, ns); err != nil {
		t.Fatal(err)
	}
}

func TestServiceBolt(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filename := filepath.Join(t.TempDir(), "tables.db")

	s, err := makeDemoService(ctx, "", filename)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Storage.Close(ctx); err != nil {
		t.Fatal(err)
	}

	// Reopen, and the tables should still be there.
	s = demoService(t, ctx, filename)
	src, err := s.GetTable(ctx, DemoNamespace, "turnstile")
	if err != nil {
		t.Fatal(err)
	}
	want, err := tools.ReadTable("../../tables/turnstile.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(src.Cases) != len(want.Cases) {
		t.Fatal(JS(src))
	}
}

func TestNamespaceCache(t *testing.T) {
	c := NewNamespaceCache(10*time.Millisecond, 4)
	c.Put("a", NewNamespace("a"))
	if c.Get("a") == nil {
		t.Fatal("should have a")
	}
	time.Sleep(20 * time.Millisecond)
	if c.Get("a") != nil {
		t.Fatal("should have expired")
	}
	if _, have := c.Entries["a"]; have {
		t.Fatal("should have been removed")
	}
}

func TestSubs(t *testing.T) {
	s := NewSubs()
	n := 0
	s.Add("ns", "a", func(interface{}) { n++ })
	s.Add("ns", "b", func(interface{}) { n += 10 })
	s.Add("other", "a", func(interface{}) { n += 100 })

	s.Do("ns", 1)
	if n != 11 {
		t.Fatal(n)
	}

	s.Rem("ns", "b")
	s.Do("ns", 1)
	if n != 12 {
		t.Fatal(n)
	}

	s.RemAll("a")
	s.Do("ns", 1)
	s.Do("other", 1)
	if n != 12 {
		t.Fatal(n)
	}
}
