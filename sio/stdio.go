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

package sio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	. "github.com/Comcast/casematch/util/testutil"
)

// Stdio is a fairly simple Couplings that uses stdin for input and
// stdout for output.
//
// Each input line is a JSON subject.  Each Result is written as one
// line of JSON.  A Tally of winning Cases is optionally written to a
// file.
type Stdio struct {
	// In is coupled to Evaluator input.
	In io.Reader

	// Out is coupled to Evaluator output.
	Out io.Writer

	// ShellExpand enables input to include inline shell commands
	// delimited by '<<' and '>>'.  Use at your own risk, of
	// course!
	ShellExpand bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "outcome", "emit", "error", "diag").
	Tags bool

	// PadTags adds some padding to tags.
	PadTags bool

	// PrintEmitted writes each emitted message on its own line
	// (tagged "emit").
	PrintEmitted bool

	JSONStore

	// InputEOF will be closed on EOF from stdin.
	InputEOF chan bool

	// WriteTallyPerMsg will write out the Tally after every input
	// subject is processed.
	WriteTallyPerMsg bool

	// PrintDiag turns on printing of traces.
	PrintDiag bool
}

// NewStdio creates a new Stdio.
//
// ShellExpand enables input to include inline shell commands
// delimited by '<<' and '>>'.  Use at your own risk, of course!
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio(shellExpand bool) *Stdio {
	return &Stdio{
		In:          os.Stdin,
		Out:         os.Stdout,
		ShellExpand: shellExpand,
		InputEOF:    make(chan bool),
	}
}

// Start reads the Tally given by TallyInputFilename (if any).
func (s *Stdio) Start(ctx context.Context) error {
	_, err := s.ReadTally(ctx)
	return err
}

// Stop writes out the Tally if requested by TallyOutputFilename.
//
// This function waits until IO is complete or was terminated via its
// context.
func (s *Stdio) Stop(ctx context.Context) error {
	s.WG.Wait()
	return s.writeTally(ctx)
}

func (s *Stdio) printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 10s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
		format = ts + " " + format
	}

	fmt.Fprintf(s.Out, format, args...)
}

// IO returns channels for reading from stdin and writing to stdout.
func (s *Stdio) IO(ctx context.Context) (chan interface{}, chan *Result, chan bool, error) {
	in := make(chan interface{})
	done := make(chan bool)

	if s.InputEOF == nil {
		s.InputEOF = make(chan bool)
	}

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		s.readLoop(ctx, in, done)
		log.Printf("stdio input done")
	}()

	out := make(chan *Result)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		if err := s.writeLoop(ctx, out); err != nil {
			log.Printf("stdio output error %s", err)
		}
		log.Printf("stdio output done")
	}()

	return in, out, done, nil
}

func (s *Stdio) readLoop(ctx context.Context, in chan interface{}, done chan bool) {
	stdin := bufio.NewReader(s.In)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := stdin.ReadString('\n')
		if (err == io.EOF && strings.TrimSpace(line) == "") || strings.TrimSpace(line) == "quit" {
			close(done)
			close(s.InputEOF)
			return
		}
		if err != nil && err != io.EOF {
			log.Printf("stdin error %s", err)
			return
		}
		if s.EchoInput {
			s.printf("input", "%s\n", strings.TrimRight(line, "\n"))
		}
		if strings.HasPrefix(line, "#") || len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if s.ShellExpand {
			if line, err = ShellExpand(line); err != nil {
				log.Printf("stdin error %s", err)
				return
			}
		}

		var subject interface{}
		if err := json.Unmarshal([]byte(line), &subject); err != nil {
			fmt.Fprintf(os.Stderr, "bad input: %s\n", err)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case in <- subject:
		}
	}
}

func (s *Stdio) writeLoop(ctx context.Context, out chan *Result) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-out:
			if r == nil {
				return nil
			}
			if r.Err != "" {
				s.printf("error", "%s\n", JS(map[string]interface{}{
					"error":   r.Err,
					"subject": r.Subject,
				}))
			} else {
				s.printf("outcome", "%s\n", JS(r.Outcome))
			}
			if s.PrintEmitted && r.Outcome != nil && r.Events != nil {
				for _, x := range r.Emitted {
					s.printf("emit", "%s\n", JS(x))
				}
			}
			if s.PrintDiag && r.Outcome != nil && r.Events != nil && r.Traces != nil {
				for _, trace := range r.Traces.Messages {
					s.printf("diag", "%s\n", JShort(trace))
				}
			}
			if err := s.Update(r); err != nil {
				return err
			}
			if s.WriteTallyPerMsg {
				if err := s.writeTally(ctx); err != nil {
					return err
				}
			}
		}
	}
}
