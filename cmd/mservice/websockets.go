/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSockets adds Websockets support to the given mux.
//
// Each SOp received on /ws/api is answered on the same connection.
// Every op is also reported to ALL websocket clients via a firehose,
// which does not scale.  This is demo code.
func (s *Service) WebSockets(ctx context.Context, mux *http.ServeMux, host string) {
	s.firehose = make(chan interface{}, 1024)

	var upgrader = websocket.Upgrader{} // use default options

	conns := sync.Map{}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case x := <-s.firehose:
				conns.Range(func(k, v interface{}) bool {
					c := v.(chan interface{})
					select {
					case c <- x:
					default:
						log.Printf("%v firehose blocked", k)
					}
					return true
				})
			}
		}
	}()

	api := func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error", err)
			return
		}
		defer c.Close()

		var wmu sync.Mutex
		write := func(js []byte) error {
			wmu.Lock()
			defer wmu.Unlock()
			return c.WriteMessage(websocket.TextMessage, js)
		}

		ctl := make(chan bool)
		defer close(ctl)

		firehose := make(chan interface{}, 32)

		id := c.RemoteAddr().String()
		conns.Store(id, firehose)
		defer conns.Delete(id)

		go func() {
			for {
				select {
				case <-ctl:
					return
				case <-ctx.Done():
					return
				case x := <-firehose:
					js, err := json.Marshal(&x)
					if err != nil {
						log.Printf("s.firehose Marshal error %v on %#v", err, x)
						continue
					}
					if err = write(js); err != nil {
						log.Println("s.firehose write:", err)
					}
				}
			}
		}()

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("read error", err)
				break
			}

			var op SOp
			if err := json.Unmarshal(message, &op); err != nil {
				msg := fmt.Sprintf(`{"err":"can't parse: %v"}`, err)
				if err = write([]byte(msg)); err != nil {
					log.Println("write (err)", err)
				}
				continue
			}
			if err = op.Do(ctx, s); err != nil {
				log.Println("op.Do error", err) // Conveyed via op.Err.
			}
			js, err := json.Marshal(&op)
			if err != nil {
				log.Printf("op Marshal error %v", err)
				continue
			}
			if err = write(js); err != nil {
				log.Println("write", err)
				break
			}
		}
	}

	ui := func(w http.ResponseWriter, r *http.Request) {
		if err := uiTemplate.Execute(w, host); err != nil {
			log.Printf("ui template error %v", err)
		}
	}

	mux.HandleFunc("/ws/api", api)
	mux.HandleFunc("/ws/ui", ui)

	log.Printf("Service (%s) has Websockets", host)
}

// uiTemplate is a small page for sending SOps.  Its argument is the
// host:port of the service.
var uiTemplate = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>casematch</title>
<style>
body { margin: 2em; font-family: sans-serif }
textarea { width: 100%; font-family: monospace }
#log div { font-family: monospace; border-bottom: 1px solid #ddd; padding: 0.2em }
.sent { color: #555 }
</style>
</head>
<body>
<select id="examples">
  <option value='{"nop":{"ns":"demo","eval":{"subject":{"double":3}}}}'>eval</option>
  <option value='{"nop":{"ns":"demo","eval":{"id":"turnstile","subject":{"state":"locked","input":"coin"}}}}'>eval turnstile</option>
  <option value='{"getTable":{"ns":"demo","id":"turnstile"}}'>getTable</option>
  <option value='{"nop":{"ns":"demo","rem":{"id":"double"}}}'>rem</option>
</select>
<textarea id="op" rows="6">{"nop":{"ns":"demo","eval":{"subject":{"double":3}}}}</textarea>
<button id="send" disabled>Send</button>
<div id="log"></div>
<script>
(function() {
  var log = document.getElementById("log");
  var op = document.getElementById("op");
  var send = document.getElementById("send");

  var show = function(cls, text) {
    var d = document.createElement("div");
    d.className = cls;
    d.textContent = text;
    log.insertBefore(d, log.firstChild);
  };

  var ws = new WebSocket("ws://{{.}}/ws/api");
  ws.onopen = function() { send.disabled = false; show("info", "connected"); };
  ws.onclose = function() { send.disabled = true; show("info", "closed"); };
  ws.onmessage = function(evt) { show("received", evt.data); };

  document.getElementById("examples").onchange = function(evt) {
    op.value = evt.target.value;
  };
  send.onclick = function() {
    show("sent", op.value);
    ws.send(op.value);
  };
})();
</script>
</body>
</html>
`))
