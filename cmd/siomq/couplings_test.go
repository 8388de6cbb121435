package main

import (
	"context"
	"testing"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/sio"
)

func TestParseTopic(t *testing.T) {
	for _, c := range []struct {
		in    string
		topic string
		qos   byte
	}{
		{"here", "here", 0},
		{"here:1", "here", 1},
		{" there:2 ", "there", 2},
		{"a/b:c", "a/b:c", 0},
		{"a:7", "a:7", 0},
		{"", "", 0},
	} {
		topic, qos := parseTopic(c.in)
		if topic != c.topic || qos != c.qos {
			t.Fatalf("%q: %q %d", c.in, topic, qos)
		}
	}
}

func TestSubject(t *testing.T) {
	c := NewCouplings()
	c.InjectTopic = true
	c.WrapWithTopic = true

	x := c.subject("doors/1", []byte(`{"state":"locked"}`))
	m, is := x.(map[string]interface{})
	if !is || m["topic"] != "doors/1" || m["state"] != "locked" {
		t.Fatal(x)
	}

	x = c.subject("doors/1", []byte(`42`))
	if m, is = x.(map[string]interface{}); !is || m["payload"] != 42.0 {
		t.Fatal(x)
	}

	c.WrapWithTopic = false
	if x = c.subject("doors/1", []byte(`not json`)); x != "not json" {
		t.Fatal(x)
	}
}

func TestPublications(t *testing.T) {
	ctx := context.Background()
	table, err := core.TurnstileTable(ctx)
	if err != nil {
		t.Fatal(err)
	}

	c := NewCouplings()
	c.DefaultOutboundTopic = "turnstile:1"
	c.OutcomeTopic = "outcomes"

	e := &sio.Evaluator{
		Conf:   &sio.EvaluatorConf{},
		Tabler: table,
	}
	r := e.Process(ctx, map[string]interface{}{
		"state": "locked",
		"input": "coin",
	})

	ps := c.publications(r)
	if len(ps) != 2 {
		t.Fatal(len(ps))
	}
	if ps[0].Topic != "outcomes" {
		t.Fatal(ps[0].Topic)
	}
	if p := ps[1]; p.Topic != "turnstile" || p.QoS != 1 || string(p.Payload) != `{"state":"unlocked"}` {
		t.Fatal(p)
	}
}

func TestConsumeStall(t *testing.T) {
	c := NewCouplings()
	c.InTimeout = 10 * time.Millisecond

	// Nobody is reading, so this call should return after the
	// timeout.
	c.consume(context.Background(), "x", []byte(`{}`))
}
