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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters/noop"
	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/matchers"
	"github.com/Comcast/casematch/tools"

	"github.com/jsccast/yaml"
)

var Mods = map[string]Mod{
	"addCatchAll":  &AddCatchAllMod{},
	"addFirstCase": &AddFirstCaseMod{},
	"setParam":     &SetParamMod{},
	"analyze":      &Analyzer{},
	"graph":        &Grapher{},
	"mermaid":      &Mermaider{},
	"html":         &HTMLer{},
	"tree":         &Treer{},
}

var (
	CaseExists = errors.New("case exists")
)

// Diag is where mods that report write their reports.
var Diag io.Writer = os.Stderr

type Mod interface {
	F(*core.Table) error
	Doc() string
	Flags() *flag.FlagSet
}

func modNames() []string {
	acc := make([]string, 0, len(Mods))
	for name := range Mods {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

func haveCase(t *core.Table, name string) bool {
	for _, c := range t.Cases {
		if c != nil && c.Name == name {
			return true
		}
	}
	return false
}

func parseEmit(js string) (interface{}, error) {
	if js == "" {
		return nil, nil
	}
	var x interface{}
	if err := json.Unmarshal([]byte(js), &x); err != nil {
		return nil, err
	}
	return x, nil
}

// compiled compiles the Table with silent no-op guards, which is
// enough to render it.
func compiled(t *core.Table) error {
	is := noop.InterpretersFor(t, &noop.Interpreter{Silent: true})
	return t.Compile(context.Background(), is, matchers.Standard(), true)
}

// AddCatchAll appends a Case with the pattern '_' that emits the
// given message.
//
// The Table's Doc is updated to note that this processing has
// occurred.
func AddCatchAll(t *core.Table, name string, emit interface{}) error {
	if haveCase(t, name) {
		return CaseExists
	}

	t.Cases = append(t.Cases, &core.CaseSpec{
		Name:    name,
		Doc:     "Anything else.",
		Pattern: match.Anonymous,
		Emit:    emit,
	})

	t.Doc = t.Doc + fmt.Sprintf(`

This table has been processed by AddCatchAll with case "%s".
`, name)

	return nil
}

type AddCatchAllMod struct {
	Name   string
	EmitJS string
}

func (m *AddCatchAllMod) Doc() string {
	return `
Appends a case that matches anything and emits the given message (if any).
`
}

func (m *AddCatchAllMod) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("addCatchAll", flag.ContinueOnError)

	flags.StringVar(&m.Name, "n", "otherwise", "case name")
	flags.StringVar(&m.EmitJS, "e", `{"error":"unmatched"}`, "message to emit (JSON)")

	return flags
}

func (m *AddCatchAllMod) F(t *core.Table) error {
	emit, err := parseEmit(m.EmitJS)
	if err != nil {
		return err
	}
	return AddCatchAll(t, m.Name, emit)
}

// AddFirstCase puts a Case in front of all the others.
//
// A typical use is a control Case like '{"ctl": "cancel", **_}' that
// should win no matter what follows.
func AddFirstCase(t *core.Table, c *core.CaseSpec) error {
	if c.Name != "" && haveCase(t, c.Name) {
		return CaseExists
	}
	t.Cases = append([]*core.CaseSpec{c}, t.Cases...)
	return nil
}

type AddFirstCaseMod struct {
	Name    string
	Pattern string
	EmitJS  string
}

func (m *AddFirstCaseMod) Doc() string {
	return `
Adds a case (with the given pattern and emitted message) before all
the other cases.
`
}

func (m *AddFirstCaseMod) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("addFirstCase", flag.ContinueOnError)

	flags.StringVar(&m.Name, "n", "ctl", "case name")
	flags.StringVar(&m.Pattern, "p", `{"ctl": ctl, **_}`, "pattern")
	flags.StringVar(&m.EmitJS, "e", `{"ctl": "$ctl"}`, "message to emit (JSON)")

	return flags
}

func (m *AddFirstCaseMod) F(t *core.Table) error {
	emit, err := parseEmit(m.EmitJS)
	if err != nil {
		return err
	}
	return AddFirstCase(t, &core.CaseSpec{
		Name:    m.Name,
		Pattern: m.Pattern,
		Emit:    emit,
	})
}

type SetParamMod struct {
	Name    string
	ValueJS string
}

func (m *SetParamMod) Doc() string {
	return "Sets a parameter's value (given as JSON)."
}

func (m *SetParamMod) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("setParam", flag.ContinueOnError)

	flags.StringVar(&m.Name, "n", "", "parameter name")
	flags.StringVar(&m.ValueJS, "v", "null", "value (JSON)")

	return flags
}

func (m *SetParamMod) F(t *core.Table) error {
	if m.Name == "" {
		return fmt.Errorf("need a parameter name (-n)")
	}
	var x interface{}
	if err := json.Unmarshal([]byte(m.ValueJS), &x); err != nil {
		return err
	}
	if spec, have := t.ParamSpecs[m.Name]; have {
		if err := spec.ValueCompliesWith(x); err != nil {
			return err
		}
	}
	if t.Params == nil {
		t.Params = make(map[string]interface{})
	}
	t.Params[m.Name] = x
	return nil
}

type Analyzer struct {
}

func (m *Analyzer) F(t *core.Table) error {
	if err := compiled(t); err != nil {
		return err
	}
	a, err := tools.Analyze(t)
	if err != nil {
		return err
	}
	bs, err := yaml.Marshal(&a)
	if err != nil {
		return err
	}
	fmt.Fprintf(Diag, "%s\n", bs)

	return nil
}

func (m *Analyzer) Doc() string {
	return "Writes an analysis (unreachable cases, variables, guards) to stderr."
}

func (m *Analyzer) Flags() *flag.FlagSet {
	return flag.NewFlagSet("analyze", flag.ContinueOnError)
}

type Grapher struct {
	OutputFilename string
}

func (m *Grapher) F(t *core.Table) error {
	if err := compiled(t); err != nil {
		return err
	}
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}

	return tools.Dot(t, f, nil) // Will Close f.
}

func (m *Grapher) Doc() string {
	return "Writes a Graphviz rendering of the table."
}

func (m *Grapher) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("graph", flag.ContinueOnError)
	flags.StringVar(&m.OutputFilename, "o", "table.dot", "output filename")
	return flags
}

type Mermaider struct {
	OutputFilename string
	ShowPatterns   bool
}

func (m *Mermaider) F(t *core.Table) error {
	if err := compiled(t); err != nil {
		return err
	}
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}

	return tools.Mermaid(t, f, &tools.MermaidOpts{
		ShowPatterns: m.ShowPatterns,
	})
}

func (m *Mermaider) Doc() string {
	return "Writes a Mermaid rendering of the table."
}

func (m *Mermaider) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("mermaid", flag.ContinueOnError)
	flags.StringVar(&m.OutputFilename, "o", "table.mermaid", "output filename")
	flags.BoolVar(&m.ShowPatterns, "p", true, "show patterns")
	return flags
}

type HTMLer struct {
	OutputFilename string
	CSSFile        string
}

func (m *HTMLer) F(t *core.Table) error {
	if err := compiled(t); err != nil {
		return err
	}
	f, err := os.Create(m.OutputFilename)
	if err != nil {
		return err
	}
	defer f.Close()

	var css []string
	if m.CSSFile != "" {
		css = []string{m.CSSFile}
	}
	return tools.RenderTablePage(t, f, css)
}

func (m *HTMLer) Doc() string {
	return "Writes an HTML page that documents the table."
}

func (m *HTMLer) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("html", flag.ContinueOnError)
	flags.StringVar(&m.OutputFilename, "o", "table.html", "output filename")
	flags.StringVar(&m.CSSFile, "css", "", "optional CSS URL")
	return flags
}

type Treer struct {
}

func (m *Treer) F(t *core.Table) error {
	if err := compiled(t); err != nil {
		return err
	}
	for i, c := range t.Cases {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		fmt.Fprintf(Diag, "%s\n%s\n", name, match.Tree(c.Node))
	}
	return nil
}

func (m *Treer) Doc() string {
	return "Writes each case's pattern tree to stderr."
}

func (m *Treer) Flags() *flag.FlagSet {
	return flag.NewFlagSet("tree", flag.ContinueOnError)
}
