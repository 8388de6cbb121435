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

// Package sio couples a Table to message input and output.
//
// An Evaluator reads subjects from its Couplings, evaluates each one
// with the current Table, and writes a Result for each.  Stdio is a
// Couplings for stdin and stdout.
package sio

import (
	"context"
	"log"
	"time"

	"github.com/Comcast/casematch/core"
	. "github.com/Comcast/casematch/util/testutil"
)

// Result represents all visible output from evaluating a subject.
type Result struct {
	// Subject is what was evaluated.
	Subject interface{} `json:"subject,omitempty"`

	// Outcome is the Table's verdict.  When the evaluation
	// failed, Outcome has the traces up to the failure.
	*core.Outcome

	// Err is the evaluation error (if any).
	Err string `json:"error,omitempty"`
}

// EvaluatorConf configures an Evaluator.
type EvaluatorConf struct {
	// HaltOnInputEOF will cause Loop to return when the
	// Couplings report that the input is exhausted.
	HaltOnInputEOF bool `json:"haltOnInputEOF,omitempty" yaml:"haltOnInputEOF,omitempty"`

	// Timeout, if positive, limits each evaluation.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Evaluator evaluates subjects with a Table, with I/O coupled via two
// channels (in and out).
type Evaluator struct {
	Conf *EvaluatorConf

	// Tabler gives the current Table.  An UpdatableTable allows
	// the Table to change while the Evaluator is running.
	Tabler core.Tabler

	Verbose bool

	in   chan interface{}
	out  chan *Result
	done chan bool
}

// NewEvaluator makes an Evaluator with the given configuration and
// couplings.
//
// The coupling's IO() method is called to obtain the in/out
// channels.
func NewEvaluator(ctx context.Context, conf *EvaluatorConf, tabler core.Tabler, couplings Couplings) (*Evaluator, error) {
	in, out, done, err := couplings.IO(ctx)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		conf = &EvaluatorConf{}
	}
	return &Evaluator{
		Conf:   conf,
		Tabler: tabler,
		in:     in,
		out:    out,
		done:   done,
	}, nil
}

// Logf logs if e.Verbose.
func (e *Evaluator) Logf(format string, args ...interface{}) {
	if !e.Verbose {
		return
	}
	log.Printf(format, args...)
}

// Process evaluates the subject with the current Table.
//
// An evaluation error is reported in the Result.
func (e *Evaluator) Process(ctx context.Context, subject interface{}) *Result {
	e.Logf("Process %s", JS(subject))

	if 0 < e.Conf.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Conf.Timeout)
		defer cancel()
	}

	r := &Result{
		Subject: subject,
	}

	t := e.Tabler.Table()
	if t == nil {
		r.Err = "no table"
		return r
	}

	o, err := t.Eval(ctx, subject)
	r.Outcome = o
	if err != nil {
		log.Printf("ERROR evaluating %s: %s", JShort(subject), err)
		r.Err = err.Error()
	}
	return r
}

// Loop starts the input processing loop in the current goroutine.
//
// This loop calls Process on each subject that arrives via the input
// coupling, and the loop halts when ctx.Done().  When the loop halts,
// it sends a nil Result.
func (e *Evaluator) Loop(ctx context.Context) error {
	e.Logf("Evaluator.Loop starting")

	done := e.done
LOOP:
	for {
		select {
		case <-done:
			if e.Conf.HaltOnInputEOF {
				e.Logf("Evaluator.Loop shutting down (done)")
				break LOOP
			}
			done = nil
		case <-ctx.Done():
			e.Logf("Evaluator.Loop shutting down (ctx.Done)")
			break LOOP
		case subject := <-e.in:
			r := e.Process(ctx, subject)
			select {
			case <-ctx.Done():
				break LOOP
			case e.out <- r:
			}
		}
	}

	select {
	case <-ctx.Done():
	case e.out <- nil:
	}

	e.Logf("Evaluator.Loop done")
	return nil
}
