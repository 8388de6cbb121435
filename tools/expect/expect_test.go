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

package expect

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters"
	"github.com/Comcast/casematch/matchers"
)

func TestOutputAccepts(t *testing.T) {
	s := &Session{
		Interpreters: interpreters.Standard(nil),
		Factories:    matchers.Standard(),
		IOs: []*IO{
			{
				OutputSet: []*Output{
					{
						Pattern: `{"state": s, **_}`,
						GuardSource: &core.GuardSource{
							Interpreter: "ecmascript",
							Source:      `_.bindings.s == "unlocked"`,
						},
					},
				},
			},
		},
	}

	ctx := context.Background()
	if err := s.Compile(ctx); err != nil {
		t.Fatal(err)
	}

	o := s.IOs[0].OutputSet[0]

	bs, err := o.accepts(ctx, map[string]interface{}{"state": "unlocked", "n": 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if bs == nil || bs["s"] != "unlocked" {
		t.Fatal(bs)
	}

	if bs, err = o.accepts(ctx, map[string]interface{}{"state": "locked"}); err != nil {
		t.Fatal(err)
	}
	if bs != nil {
		t.Fatal("guard should have rejected")
	}
}

func TestCompileBadPattern(t *testing.T) {
	s := &Session{
		IOs: []*IO{
			{
				OutputSet: []*Output{
					{
						Pattern: `{"state": `,
					},
				},
			},
		},
	}
	if err := s.Compile(context.Background()); err == nil {
		t.Fatal("should have complained")
	}
}

// TestExpectCat runs a session against cat, which just echoes the
// inputs.
func TestExpectCat(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip(err)
	}

	s := &Session{
		DefaultTimeout: 5 * time.Second,
		IOs: []*IO{
			{
				Doc: "Echo a couple of messages",
				Inputs: []interface{}{
					`{"double": 1}`,
					map[string]interface{}{"doubled": 2},
				},
				OutputSet: []*Output{
					{
						Pattern: `{"doubled": n}`,
					},
					{
						Pattern: `{"double": 1}`,
					},
				},
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Run(ctx, "", "cat"); err != nil {
		t.Fatal(err)
	}

	if n := s.IOs[0].OutputSet[0].Bindings["n"]; n != 2.0 {
		t.Fatal(n)
	}
}

// TestExpectSiostd runs tables/turnstile.yaml with a real siostd
// process.
//
// Requires a current siostd in the path.
func TestExpectSiostd(t *testing.T) {
	if _, err := exec.LookPath("siostd"); err != nil {
		t.Skip(err)
	}

	s := &Session{
		DefaultTimeout: 5 * time.Second,
		OutputPrefix:   "outcome ",
		IOs: []*IO{
			{
				Inputs: []interface{}{
					`{"state": "locked", "input": "coin"}`,
				},
				OutputSet: []*Output{
					{
						Pattern: `{"name": "pay", **_}`,
					},
				},
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Run(ctx, "../..", "siostd", "-t", "tables/turnstile.yaml"); err != nil {
		t.Fatal(err)
	}
}
