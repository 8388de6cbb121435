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

// Package main is a command-line table debugger in the spirit of gdb.
//
// Load some tables, send them subjects, and see which cases win.
// Emitted messages go into a queue, and they can be sent back to the
// tables.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters"
	"github.com/Comcast/casematch/matchers"
	"github.com/Comcast/casematch/syntax"
	"github.com/Comcast/casematch/tools"
	. "github.com/Comcast/casematch/util/testutil"
)

type Opts struct {
	tableDir string
	echo     bool
}

func main() {

	opts := &Opts{}
	flag.StringVar(&opts.tableDir, "s", "tables", "table directory")
	flag.BoolVar(&opts.echo, "e", false, "echo input")
	flag.Parse()

	if err := opts.run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func (opts *Opts) run(in io.Reader, w io.Writer) error {

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHost(opts.tableDir)

	var (
		setTable = regexp.MustCompile("^set +([-a-zA-Z0-9_]+) +table +(.*)")

		setParams = regexp.MustCompile("^set +([-a-zA-Z0-9_]+) +params +(.*)")

		reload = regexp.MustCompile("^reload +([-a-zA-Z0-9_]+)")

		rem = regexp.MustCompile("^(rem|del|remove|delete) +([-a-zA-Z0-9_]+)")

		print = regexp.MustCompile("^print( +([-a-zA-Z0-9_]+))?$")

		printqueue = regexp.MustCompile("^printqueue")

		send = regexp.MustCompile("^send +([-a-zA-Z0-9_]+) +(.*)")

		run = regexp.MustCompile("^run +(.*)")

		pop = regexp.MustCompile("^pop")

		drop = regexp.MustCompile("^drop")

		help = regexp.MustCompile("^(help|h|\\?)$")

		save = regexp.MustCompile("^save +(.*)")

		load = regexp.MustCompile("^load +(.*)")

		trace = regexp.MustCompile("^trace (on|off)")

		outputPrefix = "# "

		tracing = false

		say = func(format string, args ...interface{}) {
			fmt.Fprintf(w, outputPrefix+format+"\n", args...)
		}

		protest = func(format string, args ...interface{}) {
			say("error: "+format, args...)
		}

		queue = make([]interface{}, 0, 128)
	)

	// eval sends the subject to one table (or all of them when id
	// is empty) and queues what's emitted.
	eval := func(id string, js string) {
		var x interface{}
		if err := json.Unmarshal([]byte(js), &x); err != nil {
			protest("couldn't parse subject %s", js)
			return
		}

		outcomes, err := h.Eval(ctx, id, x)
		if err != nil {
			protest("evaluation failed: %s", err)
		}

		Render(w, outputPrefix, outcomes, tracing)

		for _, id := range outcomeIds(outcomes) {
			if o := outcomes[id]; o.Events != nil {
				queue = append(queue, o.Emitted...)
			}
		}
		say("queue has %d messages", len(queue))
	}

	r := bufio.NewReader(in)
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF && line == "" {
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}
		line = strings.TrimSpace(line)

		if opts.echo {
			fmt.Fprintln(w, line)
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var ss []string

		if ss = help.FindStringSubmatch(line); 0 < len(ss) {
			for _, s := range strings.Split(doc(), "\n") {
				say("%s", s)
			}
			continue
		}
		if ss = reload.FindStringSubmatch(line); 0 < len(ss) {
			id := ss[1]
			if err := h.Reload(ctx, id); err != nil {
				protest("%s", err)
				continue
			}
			say("reloaded '%s'", id)
			continue
		}
		if ss = setTable.FindStringSubmatch(line); 0 < len(ss) {
			id, filename := ss[1], ss[2]
			if err := h.SetTable(ctx, id, filename); err != nil {
				protest("couldn't load table %s: %s", filename, err)
				continue
			}
			say("have %d tables", len(h.entries))
			continue
		}
		if ss = setParams.FindStringSubmatch(line); 0 < len(ss) {
			id, js := ss[1], ss[2]
			var params map[string]interface{}
			if err := json.Unmarshal([]byte(js), &params); err != nil {
				protest("couldn't parse params %s", js)
				continue
			}
			if err := h.SetParams(ctx, id, params); err != nil {
				protest("%s", err)
			}
			continue
		}
		if ss = rem.FindStringSubmatch(line); 0 < len(ss) {
			id := ss[2]
			if _, have := h.entries[id]; !have {
				protest("table '%s' not found", id)
				continue
			}
			delete(h.entries, id)
			say("have %d tables", len(h.entries))
			continue
		}
		if ss = drop.FindStringSubmatch(line); 0 < len(ss) {
			if len(queue) == 0 {
				protest("queue is empty")
				continue
			}
			queue = queue[1:]
			say("queue now has %d messages", len(queue))
			continue
		}
		if ss = pop.FindStringSubmatch(line); 0 < len(ss) {
			if len(queue) == 0 {
				protest("queue is empty")
				continue
			}
			x := queue[0]
			queue = queue[1:]
			js, err := json.Marshal(&x)
			if err != nil {
				return err // Internal error
			}
			say("evaluating %s", js)
			eval("", string(js))
			continue
		}
		if ss = send.FindStringSubmatch(line); 0 < len(ss) {
			eval(ss[1], ss[2])
			continue
		}
		if ss = run.FindStringSubmatch(line); 0 < len(ss) {
			eval("", ss[1])
			continue
		}
		if ss = printqueue.FindStringSubmatch(line); 0 < len(ss) {
			if len(queue) == 0 {
				say("queue is empty")
				continue
			}
			for i, x := range queue {
				say("%d. %s", i, JS(x))
			}
			continue
		}
		if ss = trace.FindStringSubmatch(line); 0 < len(ss) {
			tracing = ss[1] == "on"
			if tracing {
				say("tracing")
			} else {
				say("not tracing")
			}
			continue
		}
		if ss = print.FindStringSubmatch(line); 0 < len(ss) {
			printer := func(id string) error {
				e, have := h.entries[id]
				if !have {
					return fmt.Errorf("table '%s' not found", id)
				}
				say("  name:     %s", e.table.Name)
				say("  file:     %s", e.Filename)
				say("  cases:    %d", len(e.table.Cases))
				say("  params:   %s", JS(e.table.Params))
				return nil
			}
			if id := ss[2]; id != "" {
				if err := printer(id); err != nil {
					protest("%s", err)
				}
				continue
			}
			for _, id := range tableIds(h.entries) {
				say("table %s:", id)
				if err := printer(id); err != nil {
					protest("%s", err)
				}
			}
			continue
		}
		if ss = save.FindStringSubmatch(line); 0 < len(ss) {
			filename := ss[1]
			js, err := json.MarshalIndent(h.entries, "", "  ")
			if err != nil {
				return err // Internal error
			}
			if err = ioutil.WriteFile(filename, js, 0644); err != nil {
				protest("writing file: %s", err)
			}
			continue
		}
		if ss = load.FindStringSubmatch(line); 0 < len(ss) {
			filename := ss[1]
			js, err := ioutil.ReadFile(filename)
			if err != nil {
				protest("reading file '%s': %s", filename, err)
				continue
			}
			if err = h.Load(ctx, js); err != nil {
				protest("loading %s: %s", filename, err)
			}
			say("have %d tables", len(h.entries))
			continue
		}

		protest("unsupported command: %s", line)
	}
}

// Entry is a table that the Host knows about.
//
// Only Filename and Params are saved.
type Entry struct {
	Filename string                 `json:"filename"`
	Params   map[string]interface{} `json:"params,omitempty"`

	table *core.Table
}

type Host struct {
	interpreters core.InterpretersMap
	factories    syntax.Factories
	tableDir     string
	entries      map[string]*Entry
}

func NewHost(tableDir string) *Host {
	fs := matchers.Standard()
	return &Host{
		interpreters: interpreters.Standard(fs),
		factories:    fs,
		tableDir:     tableDir,
		entries:      make(map[string]*Entry, 32),
	}
}

func (h *Host) path(filename string) string {
	if filepath.IsAbs(filename) || h.tableDir == "" {
		return filename
	}
	return filepath.Join(h.tableDir, filename)
}

// compile reads and compiles the Entry's table.
func (h *Host) compile(ctx context.Context, e *Entry) error {
	t, err := tools.ReadTable(h.path(e.Filename))
	if err != nil {
		return err
	}
	if e.Params != nil {
		t.Params = e.Params
	}
	if err = t.Compile(ctx, h.interpreters, h.factories, true); err != nil {
		return err
	}
	e.table = t
	return nil
}

func (h *Host) SetTable(ctx context.Context, id, filename string) error {
	e := &Entry{
		Filename: filename,
	}
	if old, have := h.entries[id]; have {
		e.Params = old.Params
	}
	if err := h.compile(ctx, e); err != nil {
		return err
	}
	h.entries[id] = e
	return nil
}

func (h *Host) SetParams(ctx context.Context, id string, params map[string]interface{}) error {
	e, have := h.entries[id]
	if !have {
		return fmt.Errorf("table '%s' not found", id)
	}
	c := &Entry{
		Filename: e.Filename,
		Params:   params,
	}
	if err := h.compile(ctx, c); err != nil {
		return err
	}
	h.entries[id] = c
	return nil
}

func (h *Host) Reload(ctx context.Context, id string) error {
	e, have := h.entries[id]
	if !have {
		return fmt.Errorf("no table '%s' to reload", id)
	}
	return h.compile(ctx, e)
}

// Load replaces the entries with the ones in the JSON.
func (h *Host) Load(ctx context.Context, js []byte) error {
	var entries map[string]*Entry
	if err := json.Unmarshal(js, &entries); err != nil {
		return err
	}
	for id, e := range entries {
		if err := h.compile(ctx, e); err != nil {
			return fmt.Errorf("table '%s': %w", id, err)
		}
	}
	h.entries = entries
	return nil
}

// Eval evaluates the subject with the table with that id or with all
// tables if the id is empty.
func (h *Host) Eval(ctx context.Context, id string, x interface{}) (map[string]*core.Outcome, error) {
	ids := []string{id}
	if id == "" {
		ids = tableIds(h.entries)
	}

	var (
		outcomes = make(map[string]*core.Outcome, len(ids))
		errs     []string
	)

	for _, id := range ids {
		e, have := h.entries[id]
		if !have {
			return nil, fmt.Errorf("table '%s' not found", id)
		}
		o, err := e.table.Eval(ctx, x)
		if err != nil {
			errs = append(errs, id+": "+err.Error())
			continue
		}
		outcomes[id] = o
	}

	if 0 < len(errs) {
		return outcomes, errors.New(strings.Join(errs, "; "))
	}
	return outcomes, nil
}

func tableIds(m map[string]*Entry) []string {
	acc := make([]string, 0, len(m))
	for id := range m {
		acc = append(acc, id)
	}
	sort.Strings(acc)
	return acc
}

func outcomeIds(m map[string]*core.Outcome) []string {
	acc := make([]string, 0, len(m))
	for id := range m {
		acc = append(acc, id)
	}
	sort.Strings(acc)
	return acc
}

func doc() string {
	return `
  set ID table FILENAME      Load the table for that ID
  set ID params PARAMS       Set the params (JSON) for the table with that ID
  reload ID                  Reload the table with that ID
  rem ID                     Remove the table with that ID
  print [ID]                 Print a summary of the table with that ID
  run SUBJECT                Evaluate the subject (JSON) with all tables
  send ID SUBJECT            Evaluate the subject with one table
  printqueue                 Show the queue of emitted messages
  pop                        Evaluate the first message in the queue
  drop                       Drop the first message in the queue
  save FILENAME              Save the table filenames and params
  load FILENAME              Load table filenames and params
  trace on/off               When tracing, show each case tried
  help                       Show this documentation
`
}

func Render(w io.Writer, prefix string, m map[string]*core.Outcome, traces bool) {
	fmt.Fprintf(w, "%sOutcomes (%d tables)\n", prefix, len(m))
	for _, id := range outcomeIds(m) {
		o := m[id]
		fmt.Fprintf(w, "%sTable %s\n", prefix, id)
		fmt.Fprintf(w, "%s  status   %s\n", prefix, o.Status)
		if o.Status == core.Matched {
			fmt.Fprintf(w, "%s  case     %d %s\n", prefix, o.Case, o.Name)
			fmt.Fprintf(w, "%s  bs       %s\n", prefix, JS(o.Bs))
		}
		if o.Events == nil {
			continue
		}
		if 0 < len(o.Emitted) {
			fmt.Fprintf(w, "%s  emitted\n", prefix)
		}
		for _, x := range o.Emitted {
			fmt.Fprintf(w, "%s     %s\n", prefix, JS(x))
		}
		if traces && o.Traces != nil {
			fmt.Fprintf(w, "%s  traces\n", prefix)
			for _, x := range o.Traces.Messages {
				fmt.Fprintf(w, "%s     %s\n", prefix, JS(x))
			}
		}
	}
}
