/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package main is a simple single-table process that reads subjects
// from stdin and writes outcomes to stdout.
//
//	echo '{"state":"locked","input":"coin"}' | siostd -t tables/turnstile.yaml
//
// SIGHUP rereads the table.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters"
	"github.com/Comcast/casematch/matchers"
	"github.com/Comcast/casematch/sio"
	"github.com/Comcast/casematch/tools"
)

func main() {
	io := sio.NewStdio(false)

	flag.BoolVar(&io.EchoInput, "echo", false, "echo input")
	flag.BoolVar(&io.Timestamps, "ts", false, "print timestamps")
	flag.BoolVar(&io.ShellExpand, "sh", false, "shell-expand input")
	flag.BoolVar(&io.PadTags, "pad", false, "pad tags")
	flag.BoolVar(&io.Tags, "tags", true, "tags")
	flag.BoolVar(&io.PrintEmitted, "emit", false, "print each emitted message")
	flag.StringVar(&io.TallyInputFilename, "tally-in", "", "tally input filename")
	flag.StringVar(&io.TallyOutputFilename, "tally-out", "", "tally output filename")
	flag.BoolVar(&io.WriteTallyPerMsg, "write-tally-msg", false, "write tally after each msg")
	flag.BoolVar(&io.PrintDiag, "diag", false, "print traces")

	var (
		tableFile = flag.String("t", "", "table filename (YAML or JSON)")
		paramsJS  = flag.String("params", "", "optional params (JSON) that replace the table's")
		timeout   = flag.Duration("timeout", 0, "optional timeout for each evaluation")
		wait      = flag.Duration("wait", time.Second, "wait this long before shutting down couplings")
		haltOnEOF = flag.Bool("halt-on-eof", false, "stop on input EOF")
		verbose   = flag.Bool("v", false, "verbose")
	)

	flag.Parse()

	if *tableFile == "" {
		log.Fatal("need -t TABLE")
	}

	var params map[string]interface{}
	if *paramsJS != "" {
		if err := json.Unmarshal([]byte(*paramsJS), &params); err != nil {
			log.Fatalf("bad -params: %s", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	load := func() (*core.Table, error) {
		t, err := tools.ReadTable(*tableFile)
		if err != nil {
			return nil, err
		}
		if params != nil {
			t.Params = params
		}
		is := interpreters.Standard(matchers.Standard())
		if err = t.Compile(ctx, is, matchers.Standard(), true); err != nil {
			return nil, err
		}
		return t, nil
	}

	t, err := load()
	if err != nil {
		log.Fatal(err)
	}
	table := core.NewUpdatableTable(t)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			t, err := load()
			if err != nil {
				log.Printf("not reloading %s: %s", *tableFile, err)
				continue
			}
			if err = table.SetTable(t); err != nil {
				log.Printf("not reloading %s: %s", *tableFile, err)
				continue
			}
			log.Printf("reloaded %s", *tableFile)
		}
	}()

	conf := &sio.EvaluatorConf{
		HaltOnInputEOF: *haltOnEOF,
		Timeout:        *timeout,
	}

	e, err := sio.NewEvaluator(ctx, conf, table, io)
	if err != nil {
		log.Fatal(err)
	}
	e.Verbose = *verbose

	if err = io.Start(ctx); err != nil {
		log.Fatal(err)
	}

	go func() {
		<-io.InputEOF
		log.Printf("input EOF (%v)", *wait)
		time.Sleep(*wait)
		cancel()
	}()

	if err := e.Loop(ctx); err != nil {
		log.Fatal(err)
	}

	if err = io.Stop(context.Background()); err != nil {
		log.Printf("error from io.Stop: %v", err)
	}
}
