package main

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHTTPAPI(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := demoService(t, ctx, "")

	ts := httptest.NewServer(s.Handler(ctx))
	defer ts.Close()

	post := func(js string) (int, map[string]interface{}) {
		resp, err := http.Post(ts.URL+"/api", "application/json", strings.NewReader(js))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		bs, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		var x map[string]interface{}
		if err = json.Unmarshal(bs, &x); err != nil {
			t.Fatalf("%s: %s", err, bs)
		}
		return resp.StatusCode, x
	}

	status, x := post(`{"nop":{"ns":"demo","eval":{"id":"double","subject":{"double":300}}}}`)
	if status != http.StatusOK {
		t.Fatal(status, x)
	}
	o := x["nop"].(map[string]interface{})["eval"].(map[string]interface{})["outcomes"].(map[string]interface{})["double"].(map[string]interface{})
	if o["name"] != "big" {
		t.Fatal(x)
	}

	if status, x = post(`{"getTable":{"ns":"demo","id":"nope"}}`); status != http.StatusInternalServerError {
		t.Fatal(status, x)
	}

	if status, x = post(`not json`); status != http.StatusBadRequest {
		t.Fatal(status, x)
	}
}

func TestHTTPTablePage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := demoService(t, ctx, "")

	ts := httptest.NewServer(s.Handler(ctx))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tables/demo/turnstile")
	if err != nil {
		t.Fatal(err)
	}
	bs, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatal(resp.StatusCode, string(bs))
	}
	if !strings.Contains(string(bs), "turnstile") {
		t.Fatal(string(bs))
	}

	if resp, err = http.Get(ts.URL + "/tables/demo"); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatal(resp.StatusCode)
	}

	if resp, err = http.Get(ts.URL + "/tables/demo/nope"); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatal(resp.StatusCode)
	}
}

func TestWebSockets(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := demoService(t, ctx, "")

	mux := s.Handler(ctx)
	s.WebSockets(ctx, mux, "localhost")

	ts := httptest.NewServer(mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/api"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	op := `{"nop":{"ns":"demo","eval":{"id":"turnstile","subject":{"state":"unlocked","input":"push"}}}}`
	if err = c.WriteMessage(websocket.TextMessage, []byte(op)); err != nil {
		t.Fatal(err)
	}

	// We get the reply and the firehose's copy, in either order.
	for i := 0; i < 2; i++ {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, bs, err := c.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var x map[string]interface{}
		if err = json.Unmarshal(bs, &x); err != nil {
			t.Fatal(err)
		}
		if _, is := x["op"]; is {
			x = x["op"].(map[string]interface{})
		}
		o := x["nop"].(map[string]interface{})["eval"].(map[string]interface{})["outcomes"].(map[string]interface{})["turnstile"].(map[string]interface{})
		if o["name"] != "enter" {
			t.Fatal(string(bs))
		}
	}

	resp, err := http.Get(ts.URL + "/ws/ui")
	if err != nil {
		t.Fatal(err)
	}
	bs, _ := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(bs), "ws://localhost/ws/api") {
		t.Fatal(string(bs))
	}
}
