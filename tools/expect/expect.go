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

// Package expect is a tool for testing a process that evaluates
// subjects, like cmd/siostd.
//
// You construct a Session, which has inputs and expected outputs.
// Then run the session to see if the expected outputs actually
// appeared.
//
// An expected output is a pattern (in the syntax of package syntax)
// and an optional guard.
//
// This package also has support for delays and timeouts.
//
// See ../../cmd/mexpect for command-line use.
package expect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/syntax"
	. "github.com/Comcast/casematch/util/testutil"
)

var (
	errTimeout  = errors.New("timeout")
	errCanceled = errors.New("canceled")
)

// Output is a specification for a message that's expected.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Pattern must be matched by an output message.
	Pattern string `json:"pattern" yaml:"pattern"`

	// GuardSource is optional source for a guard that is given
	// the pattern's bindings.  The guard must admit them.
	GuardSource *core.GuardSource `json:"guard,omitempty" yaml:"guard,omitempty"`

	// Inverted means that matching output isn't desired!
	Inverted bool `json:"inverted,omitempty" yaml:"inverted,omitempty"`

	node  match.Node
	guard core.Guard

	// Bindings, which is the result of a match, is written
	// during processing.  Just for diagnostics.
	Bindings match.Bindings `json:"bs,omitempty" yaml:"bs,omitempty"`
}

// IO is a package of input messages and required output message
// specifications.
type IO struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// WaitBefore is the time to wait before sending the first message.
	WaitBefore time.Duration `json:"waitBefore,omitempty" yaml:"waitBefore,omitempty"`

	// WaitBetween is the time to wait between sending messages.
	WaitBetween time.Duration `json:"waitBetween,omitempty" yaml:"waitBetween,omitempty"`

	// Inputs are the messages to send.  A string is sent as is.
	// Anything else is sent as JSON.
	Inputs []interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// WaitAfter is the time to wait after sending the last
	// message.
	WaitAfter time.Duration `json:"waitAfter,omitempty" yaml:"waitAfter,omitempty"`

	// OutputSet is the set (not a list) of outputs to verify.
	OutputSet []*Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	// Timeout is the optional timeout for this set.
	// Session.DefaultTimeout is the default value.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Session is mostly a sequence of IOs.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// IOs is sequence of IOs that this session will run.
	IOs []*IO `json:"ios" yaml:"ios"`

	// Interpreters are used (if necessary) to compile any
	// GuardSources.
	Interpreters core.InterpretersMap `json:"-" yaml:"-"`

	// Factories are used to parse output patterns.
	Factories syntax.Factories `json:"-" yaml:"-"`

	// DefaultTimeout is the default timeout for each IO.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`

	// ShowStderr controls whether the subprocess's stderr is
	// logged.
	ShowStderr bool `json:"showStderr,omitempty" yaml:"showStderr,omitempty"`

	// ShowStdin controls whether the subprocess's stdin is
	// logged.
	ShowStdin bool `json:"showStdin,omitempty" yaml:"showStdin,omitempty"`

	// ShowStdout controls whether the subprocess's stdout is
	// logged.
	ShowStdout bool `json:"showStdout,omitempty" yaml:"showStdout,omitempty"`

	// OutputPrefix specifies the prefix of output lines that
	// should be considered.  The prefix is removed.
	OutputPrefix string `json:"outputPrefix,omitempty" yaml:"outputPrefix,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Compile parses the output patterns and compiles their guards.
//
// Run calls Compile.
func (s *Session) Compile(ctx context.Context) error {
	for i, iop := range s.IOs {
		for j, o := range iop.OutputSet {
			env := syntax.NewEnv(s.Factories)
			n, err := syntax.Parse(o.Pattern, env)
			if err != nil {
				return fmt.Errorf("io %d output %d: %w", i, j, err)
			}
			o.node = n
			if o.GuardSource != nil {
				if o.guard, err = o.GuardSource.Compile(ctx, s.Interpreters); err != nil {
					return fmt.Errorf("io %d output %d guard: %w", i, j, err)
				}
			}
		}
	}
	return nil
}

// accepts reports whether the message satisfies the Output.
func (o *Output) accepts(ctx context.Context, message interface{}) (match.Bindings, error) {
	bs, ok := match.Match(o.node, message)
	if !ok {
		return nil, nil
	}
	if o.guard != nil {
		exe, err := o.guard.Admit(ctx, bs, nil)
		if err != nil {
			return nil, err
		}
		if !exe.Admitted {
			return nil, nil
		}
	}
	return bs, nil
}

// Run processes all the IOs in the Session.
//
// The subprocess is given by the args, and it's started in the given
// directory (if not empty).  The first arg is the executable.
// Example args:
//
//	"siostd", "-t", "tables/turnstile.yaml"
func (s *Session) Run(ctx context.Context, dir string, args ...string) error {

	if len(args) == 0 {
		return fmt.Errorf("need a command (and optional args) (for expect.Session.Run)")
	}

	if err := s.Compile(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	defer stdin.Close()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	out := bufio.NewReader(stdout)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	go s.logStderr(stderr)

	for _, iop := range s.IOs {
		if err := s.runIO(ctx, iop, stdin, out); err != nil {
			return err
		}
	}

	if err := stdin.Close(); err != nil {
		log.Printf("stdin.Close() error %s", err)
	}

	return cmd.Wait()
}

func (s *Session) logStderr(stderr io.Reader) {
	in := bufio.NewReader(stderr)
	for {
		line, err := in.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			if !strings.Contains(err.Error(), "already closed") {
				log.Printf("stderr error %s", err)
			}
			break
		}
		if s.ShowStderr {
			log.Printf("stderr %s", line)
		}
	}
}

func (s *Session) runIO(ctx context.Context, iop *IO, stdin io.Writer, out *bufio.Reader) error {
	timeout := iop.Timeout
	if timeout == 0 {
		timeout = s.DefaultTimeout
	}

	// Both the consumer and the producer report here.
	errs := make(chan error, 2)

	go func() {
		errs <- s.consume(ctx, iop, out)
	}()

	go func() {
		errs <- s.produce(iop, stdin)
	}()

	var timer <-chan time.Time
	if 0 < timeout {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	for done := 0; done < 2; done++ {
		select {
		case <-ctx.Done():
			return errCanceled
		case <-timer:
			return errTimeout
		case err := <-errs:
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// consume reads stdout until every (non-inverted) Output has been
// seen.
func (s *Session) consume(ctx context.Context, iop *IO, out *bufio.Reader) error {
	need := 0
	for _, o := range iop.OutputSet {
		if !o.Inverted {
			need++
		}
	}

	for 0 < need {
		line, err := out.ReadBytes('\n')
		if err != nil {
			return err
		}

		if s.ShowStdout {
			log.Printf("out %s", line)
		}

		if s.OutputPrefix != "" {
			if !bytes.HasPrefix(line, []byte(s.OutputPrefix)) {
				continue
			}
			line = line[len(s.OutputPrefix):]
		}

		var message interface{}
		if err = json.Unmarshal(bytes.TrimSpace(line), &message); err != nil {
			if s.Verbose {
				log.Printf("ignoring '%s'", line)
			}
			continue
		}

		for _, o := range iop.OutputSet {
			if o.Bindings != nil {
				continue
			}
			bs, err := o.accepts(ctx, message)
			if err != nil {
				return err
			}
			if bs == nil {
				continue
			}
			o.Bindings = bs
			if o.Inverted {
				return fmt.Errorf("undesired output %s", JS(message))
			}
			need--
		}
	}

	return nil
}

// produce writes the inputs to stdin.
func (s *Session) produce(iop *IO, stdin io.Writer) error {
	s.pause("waitBefore", iop.WaitBefore)

	for i, input := range iop.Inputs {
		if 0 < i {
			s.pause("waitBetween", iop.WaitBetween)
		}

		var line []byte
		if str, is := input.(string); is {
			line = []byte(str)
		} else {
			js, err := json.Marshal(&input)
			if err != nil {
				return err
			}
			line = js
		}

		if s.ShowStdin {
			log.Printf("in %s\n", line)
		}

		if _, err := stdin.Write(append(line, '\n')); err != nil {
			return err
		}
	}

	s.pause("waitAfter", iop.WaitAfter)
	return nil
}

func (s *Session) pause(why string, d time.Duration) {
	if 0 < d {
		if s.Verbose {
			log.Printf("pause %s %s", why, d)
		}
		time.Sleep(d)
	}
}
