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

// Package main is a tool that reads a case table from stdin, does
// something with it, and usually writes the table to stdout.
//
//	casetool addCatchAll -e '{"error":"unmatched"}' < tables/turnstile.yaml
//	casetool graph -o turnstile.dot < tables/turnstile.yaml
//
// Set CASETOOL_VERBOSE to see some logging.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/tools"
	"github.com/Comcast/casematch/util"

	"github.com/jsccast/yaml"
)

func main() {
	util.Logging = os.Getenv("CASETOOL_VERBOSE") != ""

	if len(os.Args) < 2 {
		Usage(os.Stdout)
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func readTable(in io.Reader, parse func([]byte, interface{}) error) (*core.Table, error) {
	bs, err := tools.ReadAllWithInlines(in, ".")
	if err != nil {
		return nil, err
	}
	if len(bs) == 0 {
		bs = []byte(DefaultTableYAML)
	}
	var t core.Table
	if err = parse(bs, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func run(cmd string, args []string, in io.Reader, out io.Writer) error {
	switch cmd {
	case "expand":
		m := &MacroExpander{}
		flags := m.Flags()
		if err := flags.Parse(args); err != nil {
			return err
		}

		bs, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		var x interface{}
		if err = yaml.Unmarshal(bs, &x); err != nil {
			return err
		}

		if x, err = m.Expand(x); err != nil {
			return err
		}

		if bs, err = yaml.Marshal(&x); err != nil {
			return err
		}

		_, err = fmt.Fprintf(out, "%s\n", bs)
		return err

	case "yamltojson":
		pretty := false
		switch len(args) {
		case 0:
		case 1:
			if args[0] != "-p" {
				return fmt.Errorf("unsupported args: %v", args)
			}
			pretty = true
		default:
			return fmt.Errorf("unsupported args: %v", args)
		}

		t, err := readTable(in, yaml.Unmarshal)
		if err != nil {
			return err
		}

		var bs []byte
		if pretty {
			bs, err = json.MarshalIndent(t, "", "  ")
		} else {
			bs, err = json.Marshal(t)
		}
		if err != nil {
			return err
		}

		_, err = out.Write(bs)
		return err

	case "jsontoyaml":
		t, err := readTable(in, json.Unmarshal)
		if err != nil {
			return err
		}

		bs, err := yaml.Marshal(t)
		if err != nil {
			return err
		}

		_, err = out.Write(bs)
		return err

	default:
		mod, have := Mods[cmd]
		if !have {
			Usage(out)
			return fmt.Errorf("unknown subcommand %q", cmd)
		}

		if err := mod.Flags().Parse(args); err != nil {
			return err
		}

		t, err := readTable(in, yaml.Unmarshal)
		if err != nil {
			return err
		}

		if err := mod.F(t); err != nil {
			return err
		}

		bs, err := yaml.Marshal(t)
		if err != nil {
			return err
		}

		_, err = out.Write(bs)
		return err
	}
}

func Usage(out io.Writer) {
	fmt.Fprintf(out, "Subcommands:\n\n")
	for _, name := range modNames() {
		mod := Mods[name]
		flags := mod.Flags()
		flags.SetOutput(out)
		flags.Usage()
		fmt.Fprintln(out, "  "+mod.Doc())
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Usage of expand:\n")
	flags := (&MacroExpander{}).Flags()
	flags.SetOutput(out)
	flags.PrintDefaults()
	fmt.Fprintf(out, "\nUsage of yamltojson:\n")
	fmt.Fprintf(out, "  -p    pretty-print\n\n")
	fmt.Fprintf(out, "Usage of jsontoyaml: (no arguments)\n\n")
}

var DefaultTableYAML = `cases:
`
