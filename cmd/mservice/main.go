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

// Package main is an example multi-namespace table service.
//
// The control plane is HTTP (with optional websockets), and the data
// plane is line-oriented TCP.  Both speak SOps in JSON:
//
//	{"nop":{"ns":"demo","eval":{"subject":{"double":3}}}}
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	. "github.com/Comcast/casematch/util/testutil"
)

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)
}

func main() {

	var (
		httpPort   = flag.String("h", ":8080", "Control plane (HTTP) service port")
		httpDir    = flag.String("d", "", "optional directory that the HTTP service will serve")
		storeFile  = flag.String("p", "", "optional filename for persistence")
		websockets = flag.Bool("w", false, "start Web sockets service (requires HTTP service)")
		tcpPort    = flag.String("t", ":8081", "Data plane (TCP) service port")
		repl       = flag.Bool("r", false, "REPL")
		tableDir   = flag.String("s", DefaultTableDir, "tables directory")
		ttl        = flag.Duration("e", 60*time.Second, "namespace cache TTL (0 to disable)")
		stopwatch  = flag.Bool("sw", false, "log timings")
	)

	flag.Parse()

	StopwatchOutput = *stopwatch

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := makeDemoService(ctx, *tableDir, *storeFile)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Storage.Close(context.Background())

	if 0 < *ttl {
		s.nsCache = NewNamespaceCache(*ttl, 1024)
	}

	// For fun, we'll watch all emitted messages in the demo
	// namespace here.
	s.OutSubs.Add(DemoNamespace, "main", func(x interface{}) {
		log.Printf("emitted %s", JS(x))
	})

	if *httpPort != "" {
		mux := s.Handler(ctx)
		if *websockets {
			s.WebSockets(ctx, mux, "localhost"+*httpPort)
		}
		if *httpDir != "" {
			fs := http.FileServer(http.Dir(*httpDir))
			mux.Handle("/f/", http.StripPrefix("/f", fs))
		}

		go func() {
			if err := s.HTTPServer(ctx, *httpPort, mux); err != nil {
				log.Fatal(err)
			}
		}()
	}

	if *repl {
		go func() {
			in := bufio.NewReader(os.Stdin)
			if err := s.Listener(ctx, in, os.Stdout, nil); err != nil {
				log.Printf("REPL: %s", err)
			}
			cancel()
		}()
	}

	if err = s.TCPListener(ctx, *tcpPort); err != nil {
		log.Fatal(err)
	}

	log.Printf("main terminating")
}
