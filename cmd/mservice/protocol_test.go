package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/tools"
	. "github.com/Comcast/casematch/util/testutil"
)

func TestProtocol(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := demoService(t, ctx, "")

	ns := "simpsons"

	sop := &SOp{
		Make: ns,
	}
	if err := sop.Do(ctx, s); err != nil {
		t.Fatal(err)
	}

	t0, err := tools.ParseTable([]byte(`{"id":"beer","cases":[{"name":"duff","pattern":"{\"drink\": \"duff\"}","emit":{"said":"mmm"}}]}`))
	if err != nil {
		t.Fatal(err)
	}

	sop = &SOp{
		NOp: &NOp{
			Ns: ns,
			Put: &OpPut{
				Table: t0,
			},
		},
	}
	if err = sop.Do(ctx, s); err != nil {
		t.Fatal(err)
	}

	sop = &SOp{
		NOp: &NOp{
			Ns: ns,
			Eval: &OpEval{
				Subject: Dwimjs(`{"drink":"duff"}`),
				Render:  true,
			},
		},
	}
	if err = sop.Do(ctx, s); err != nil {
		t.Fatal(err)
	}
	o, have := sop.NOp.Eval.Outcomes["beer"]
	if !have || o.Status != core.Matched || o.Name != "duff" {
		t.Fatal(JS(sop))
	}

	sop = &SOp{
		GetTable: &GetTableOp{
			Ns: ns,
			Id: "beer",
		},
	}
	if err = sop.Do(ctx, s); err != nil {
		t.Fatal(err)
	}
	if sop.GetTable.Table == nil || sop.GetTable.Table.Cases[0].Name != "duff" {
		t.Fatal(JS(sop))
	}

	sop = &SOp{
		NOp: &NOp{
			Ns: ns,
			Rem: &OpRem{
				Id: "beer",
			},
		},
	}
	if err = sop.Do(ctx, s); err != nil {
		t.Fatal(err)
	}

	sop = &SOp{
		NOp: &NOp{
			Ns: ns,
			Eval: &OpEval{
				Id:      "beer",
				Subject: Dwimjs(`{"drink":"duff"}`),
			},
		},
	}
	if err = sop.Do(ctx, s); err == nil {
		t.Fatal("table should be gone")
	}
	if sop.Err == "" || sop.NOp.Eval.Err == "" {
		t.Fatal(JS(sop))
	}

	sop = &SOp{
		Rem: ns,
	}
	if err = sop.Do(ctx, s); err != nil {
		t.Fatal(err)
	}
}

func TestProtocolEmpty(t *testing.T) {
	ctx := context.Background()
	s := demoService(t, ctx, "")

	sop := &SOp{}
	if err := sop.Do(ctx, s); err == nil {
		t.Fatal("should have complained")
	}

	sop = &SOp{
		NOp: &NOp{
			Ns: DemoNamespace,
		},
	}
	if err := sop.Do(ctx, s); err == nil {
		t.Fatal("should have complained")
	}
}

func TestProtocolJSON(t *testing.T) {
	js := `{"nop":{"ns":"demo","eval":{"id":"turnstile","subject":{"state":"locked","input":"push"}}}}`
	var sop SOp
	if err := json.Unmarshal([]byte(js), &sop); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	s := demoService(t, ctx, "")
	if err := sop.Do(ctx, s); err != nil {
		t.Fatal(err)
	}

	bs, err := json.Marshal(&sop)
	if err != nil {
		t.Fatal(err)
	}
	var x map[string]interface{}
	if err = json.Unmarshal(bs, &x); err != nil {
		t.Fatal(err)
	}
	name := x["nop"].(map[string]interface{})["eval"].(map[string]interface{})["outcomes"].(map[string]interface{})["turnstile"].(map[string]interface{})["name"]
	if name != "blocked" {
		t.Fatal(string(bs))
	}
}
