/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package main is a little command-line utility to invoke pattern matching.
//
//	patmatch -p '{"likes": [*_, liked, *_]}' -m '{"likes":["tacos","chips"]}' -w '{"liked":"tacos"}'
//
// An optional ECMAScript guard (-g) can reject the bindings.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters"
	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/matchers"
)

func main() {
	ok, err := run(context.Background(), os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		os.Exit(1)
	}
}

// run does the work.  The returned bool is false when wanted bindings
// were given and not found.
func run(ctx context.Context, args []string, out io.Writer) (bool, error) {
	var (
		flags = flag.NewFlagSet("patmatch", flag.ContinueOnError)

		subjectJS  = flags.String("m", "null", "subject in JSON")
		pattern    = flags.String("p", "_", "pattern")
		syntaxName = flags.String("syntax", "", "pattern syntax ('json' or the default)")
		guardSrc   = flags.String("g", "", "optional ECMAScript guard")
		wantJS     = flags.String("w", "", "wanted bindings in JSON")
		showTree   = flags.Bool("tree", false, "print the pattern tree")
		bench      = flags.Int("bench", 0, "number of times to run (and report time)")
		verbose    = flags.Bool("v", false, "verbosity")

		subject interface{}
	)

	if err := flags.Parse(args); err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(*subjectJS), &subject); err != nil {
		return false, fmt.Errorf("bad subject: %w", err)
	}

	c := &core.CaseSpec{
		Name:    "patmatch",
		Pattern: *pattern,
	}
	if *guardSrc != "" {
		c.GuardSource = &core.GuardSource{
			Interpreter: "ecmascript",
			Source:      *guardSrc,
		}
	}
	t := &core.Table{
		Name:          "patmatch",
		PatternSyntax: *syntaxName,
		Cases:         []*core.CaseSpec{c},
	}

	fs := matchers.Standard()
	if err := t.Compile(ctx, interpreters.Standard(fs), fs, true); err != nil {
		return false, err
	}

	if *showTree {
		fmt.Fprintln(out, match.Tree(c.Node))
	}

	if 0 < *bench {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		allocs := stats.TotalAlloc
		then := time.Now()
		for i := 0; i < *bench; i++ {
			if _, err := t.Eval(ctx, subject); err != nil {
				return false, err
			}
		}
		elapsed := time.Now().Sub(then)
		meanNanos := elapsed.Nanoseconds() / int64(*bench)

		runtime.ReadMemStats(&stats)
		allocated := (stats.TotalAlloc - allocs) / uint64(*bench)

		log.Printf("%d iterations, %d mean ns/Eval, %d mean bytes allocated per Eval", *bench, meanNanos, allocated)
	}

	o, err := t.Eval(ctx, subject)
	if err != nil {
		return false, err
	}

	if *verbose && o.Traces != nil {
		for _, trace := range o.Traces.Messages {
			js, _ := json.Marshal(trace)
			log.Printf("trace %s", js)
		}
	}

	if *wantJS != "" {
		var want match.Bindings
		if err := json.Unmarshal([]byte(*wantJS), &want); err != nil {
			return false, fmt.Errorf("bad wanted bindings: %w", err)
		}
		ok := o.Status == core.Matched && match.Equal(want, o.Bs)
		fmt.Fprintf(out, "%v\n", ok)
		return ok, nil
	}

	if o.Status != core.Matched {
		fmt.Fprintf(out, "null\n")
		return true, nil
	}

	js, err := json.Marshal(o.Bs)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(out, "%s\n", js)

	return true, nil
}
