// Package main runs expectation sessions.
//
// With -f, each session file (tools.Session) is checked in-process:
//
//	mexpect -f tables/tests/turnstile.test.yaml
//
// With -io, the session (expect.Session) drives a subprocess given by
// the remaining arguments:
//
//	mexpect -io tables/tests/turnstile.io.yaml -- siostd -t tables/turnstile.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Comcast/casematch/interpreters"
	"github.com/Comcast/casematch/matchers"
	"github.com/Comcast/casematch/tools"
	"github.com/Comcast/casematch/tools/expect"
	. "github.com/Comcast/casematch/util/testutil"

	"github.com/jsccast/yaml"
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

func run(ctx context.Context, args []string, out io.Writer) (bool, error) {
	var (
		flags = flag.NewFlagSet("mexpect", flag.ContinueOnError)

		sessionFilename = flags.String("f", "", "filename for an in-process session")
		ioFilename      = flags.String("io", "", "filename for a subprocess session")
		dir             = flags.String("d", "", "working directory (default is the session's directory for -f)")
		showStderr      = flags.Bool("e", false, "show subprocess stderr")
		timeout         = flags.Duration("t", 10*time.Second, "main timeout")
		verbose         = flags.Bool("v", false, "verbose")
	)

	if err := flags.Parse(args); err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	fs := matchers.Standard()
	is := interpreters.Standard(fs)

	switch {
	case *sessionFilename != "":
		s, err := tools.ReadSession(*sessionFilename)
		if err != nil {
			return false, err
		}
		s.Interpreters = is
		s.Factories = fs
		s.Verbose = *verbose

		d := *dir
		if d == "" {
			d = filepath.Dir(*sessionFilename)
		}
		r, err := s.Run(ctx, d)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "%s\n", JS(r))
		return r.OK(), nil

	case *ioFilename != "":
		if flags.NArg() == 0 {
			return false, fmt.Errorf("-io needs a command")
		}
		bs, err := os.ReadFile(*ioFilename)
		if err != nil {
			return false, err
		}
		var s expect.Session
		if err = yaml.Unmarshal(bs, &s); err != nil {
			return false, err
		}
		s.Interpreters = is
		s.Factories = fs
		s.ShowStderr = *showStderr
		s.Verbose = *verbose
		if s.DefaultTimeout == 0 {
			s.DefaultTimeout = *timeout
		}

		if err = s.Run(ctx, *dir, flags.Args()...); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "passed %d\n", len(s.IOs))
		return true, nil
	}

	return false, fmt.Errorf("need -f or -io")
}
