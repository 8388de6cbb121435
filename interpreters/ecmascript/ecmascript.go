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

// Package ecmascript provides an ECMAScript-compatible guard
// interpreter.
//
// A guard is either an expression (like "_.bindings.n > 3") or a
// function body that returns a value.  The candidate is admitted if
// that value is truthy.
package ecmascript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/syntax"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// IgnoreExit will prevent the Goja function "exit" from
	// terminating the process. Being able to halt the process
	// from Goja is useful for some tests and utilities.  Maybe.
	IgnoreExit = false
)

// init adds a Interpreter as one of the DefaultInterpreters
func init() {
	core.DefaultInterpreters["ecmascript"] = NewInterpreter()
}

// Interpreter implements core.Intepreter using Goja, which is a
// Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
type Interpreter struct {

	// Testing is used to expose or hide some runtime
	// capabilities.
	Test bool

	// Extended adds some additional properties.
	Extended bool

	// InlineRequires enables the replacement of top-level
	// require("name") statements with the named library.
	InlineRequires bool

	// Factories resolve constructor calls in patterns given to
	// _.match.
	Factories syntax.Factories

	// LibraryProvider is a pluggable library provider.  If nil,
	// DefaultLibraryProvider is used.
	LibraryProvider LibraryProvider
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

func wrapExpr(src string) string {
	src = strings.TrimRight(strings.TrimSpace(src), ";")
	return fmt.Sprintf("(function() {\nreturn (\n%s\n);\n}());\n", src)
}

// Compile calls goja.Compile.  This step is optional.
//
// The source is first compiled as an expression.  If that fails, the
// source is compiled as a function body.  Libraries named in
// "requires" are prepended.
//
// This method can block if the interpreter's LibraryProvider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (interface{}, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	if i.InlineRequires {
		if code, err = InlineRequires(ctx, code, i.ProvideLibrary); err != nil {
			return nil, err
		}
	}

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	if obj, err := goja.Compile("", libsSrc+wrapExpr(code), true); err == nil {
		return obj, nil
	}

	obj, err := goja.Compile("", libsSrc+wrapSrc(code), true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}

	return obj, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func deepCopy(x interface{}) (interface{}, error) {
	return core.Canonicalize(x)
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

// Exec implements the Interpreter method of the same name.
//
// The following properties are available from the runtime at _.
//
// These things are most important:
//
//    bindings: the candidate's bindings.
//    props: core.Props
//    out(obj): Add the given object as a message to emit if the
//      candidate wins.
//    trace(obj): Add the given object to the traces.
//
// Extended properties (enabled by interpreter's Extended property):
//
//    randstr(): generate a random string.
//    cronNext(s): Return a string representing (RFC3999Nano) the
//      next time for the given crontab expression.
//    esc(s): URL query-escape the given string.
//    match(pat, obj): Match the object against the pattern (in the
//      pattern language of package syntax).  Returns the bindings
//      or null.
//
// Testing properties (enabled by the interpreter's Test property):
//
//    sleep(ms): sleep for the given number of milliseconds.  For testing.
//    log(x): log the given value.
//    exit(msg): Terminate the process after printing the given message.
//      For testing.
//
func (i *Interpreter) Exec(ctx context.Context, bs match.Bindings, props core.Props, src interface{}, compiled interface{}) (*core.Execution, error) {
	exe := core.NewExecution(false)

	var p *goja.Program
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return exe, err
		}
	}
	var is bool
	if p, is = compiled.(*goja.Program); !is {
		return exe, fmt.Errorf("ECMAScript bad compilation: %T %#v", compiled, compiled)
	}

	env := map[string]interface{}{
		"ctx": ctx,
	}
	if props == nil {
		env["props"] = map[string]interface{}{}
	} else {
		x, err := deepCopy(map[string]interface{}(props))
		if err != nil {
			return exe, err
		}
		env["props"] = x
	}

	if bs == nil {
		env["bindings"] = map[string]interface{}{}
	} else {
		// Guard code can modify values, and we don't want
		// any side effects.  So:
		x, err := deepCopy(bs)
		if err != nil {
			return exe, err
		}
		bsCopy, is := x.(map[string]interface{})
		if !is {
			return exe, fmt.Errorf("internal error: %#v copy failed", bs)
		}
		env["bindings"] = bsCopy
	}

	o := goja.New()

	o.Set("_", env)

	// "out" adds the given message to the list of messages to
	// emit.
	env["out"] = func(x interface{}) interface{} {
		var err error
		x = export(x)
		if x, err = core.Canonicalize(x); err != nil {
			// Will end up as a Javascript exception.
			panic(err)
		}
		exe.AddEmitted(x)
		return x
	}

	env["trace"] = func(x interface{}) interface{} {
		x = export(x)
		exe.AddTrace(x)
		return x
	}

	if i.Extended {
		env["randstr"] = func() interface{} {
			return core.Gensym(32)
		}

		env["esc"] = func(x interface{}) interface{} {
			s, is := export(x).(string)
			if !is {
				protest(o, "not a string")
			}
			return url.QueryEscape(s)
		}

		// cronNext parses the given string as a crontab expression
		// using github.com/gorhill/cronexpr.  Returns the next time
		// as a string formatted in time.RFC3339Nano (UTC).
		env["cronNext"] = func(x interface{}) interface{} {
			cronExpr, is := export(x).(string)
			if !is {
				protest(o, "not a string")
			}

			c, err := cronexpr.Parse(cronExpr)
			if err != nil {
				protest(o, err.Error())
			}
			return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
		}

		// match starts a nested match session.
		env["match"] = func(pat, subject goja.Value) interface{} {
			if pat == nil || subject == nil {
				protest(o, "match needs a pattern and a subject")
			}
			bs, err := i.match(ctx, pat.String(), subject.Export())
			if err != nil {
				protest(o, err.Error())
			}
			if bs == nil {
				return nil
			}
			x, err := deepCopy(bs)
			if err != nil {
				protest(o, err.Error())
			}
			return x
		}
	}

	if i.Test {

		env["sleep"] = func(n interface{}) interface{} {
			n = export(n)
			ms, is := n.(int64)
			if !is {
				panic(fmt.Sprintf("a %T is not an %T", n, ms))
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return nil
		}

		env["log"] = func(x interface{}) interface{} {
			x = export(x)
			js, err := json.Marshal(&x)
			if err != nil {
				log.Println("goja.log (can't marshal: " + err.Error() + ")")
			} else {
				log.Println(string(js))
			}

			return x
		}
		env["exit"] = func(n interface{}, msg interface{}) interface{} {
			s, is := export(msg).(string)
			if !is {
				panic("not a string")
			}
			n = export(n)
			ec, is := n.(int64)
			if !is {
				panic(fmt.Sprintf("a %T is not an %T", n, ec))
			}
			log.Println(s)
			if !IgnoreExit {
				os.Exit(int(ec))
			}
			return msg
		}
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If this Exec method calls cancel() after RunProgram
		// returns, then we'll never see this
		// InterruptedMessage, which is actually the behavior
		// we want.  In this case, we weren't actually interrupted.
		o.Interrupt(InterruptedMessage)
	}()

	v, err := RunProgram(o, p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	if v != nil {
		exe.Admitted = v.ToBoolean()
	}

	return exe, nil
}

// match matches the subject against the pattern in a session nested
// in the Scope carried by the Context (if any).
//
// Returns nil if there's no match.
func (i *Interpreter) match(ctx context.Context, src string, x interface{}) (match.Bindings, error) {
	env := syntax.NewEnv(i.Factories)
	n, err := syntax.Parse(src, env)
	if err != nil {
		return nil, err
	}

	sc, have := core.ScopeFrom(ctx)
	if !have {
		sc = core.NewScope()
	}

	var won bool
	err = sc.With(x, func() error {
		var err error
		won, err = core.Try(ctx, sc, nil, n)
		return err
	})
	if err != nil || !won {
		return nil, err
	}

	bs := match.NewBindings()
	for _, name := range env.Names() {
		if v := env.Var(name); v.Bound() {
			bs[name] = v.Get()
		}
	}
	return bs, nil
}

func RunProgram(o *goja.Runtime, p *goja.Program) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s", r)
		}
	}()
	return o.RunProgram(p)
}
