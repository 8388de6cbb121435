package core

// These errors are user errors, not internal errors.

import (
	"errors"
	"strconv"
)

var (
	// InterpreterNotFound occurs when you try to Compile a
	// GuardSource, and the required interpreter isn't in the
	// given map of interpreters.
	InterpreterNotFound = errors.New("interpreter not found")

	// UnknownPatternSyntax occurs when a Table's PatternSyntax
	// isn't supported by the Table's PatternParser.
	UnknownPatternSyntax = errors.New("unknown pattern syntax")

	// EmptyScope occurs when a subject is requested from a Scope
	// that has no subject.
	EmptyScope = errors.New("no subject in scope")
)

// TableNotCompiled occurs when a Table is used (say via Eval()) before
// it has been Compile()ed.
type TableNotCompiled struct {
	Table *Table
}

func (e *TableNotCompiled) Error() string {
	return `table "` + e.Table.Name + `" not compiled`
}

// CaseError reports a problem with a particular Case of a Table.
//
// Construction errors (from pattern parsing) and guard errors (from
// compilation or execution) are wrapped in a CaseError.
type CaseError struct {
	Table string
	Case  string
	Index int
	Err   error
}

func (e *CaseError) Error() string {
	name := e.Case
	if name == "" {
		name = "#" + strconv.Itoa(e.Index)
	}
	return `case ` + name + ` in table "` + e.Table + `": ` + e.Err.Error()
}

func (e *CaseError) Unwrap() error {
	return e.Err
}

// UnboundPin occurs when a pattern refers (via a pin) to a name that
// has no committed value when the pattern is compiled.
type UnboundPin struct {
	Name string
}

func (e *UnboundPin) Error() string {
	return `pin "^` + e.Name + `" refers to nothing`
}

// BadParam occurs when a Table parameter is missing or doesn't
// comply with its ParamSpec.
type BadParam struct {
	Name   string
	Reason string
}

func (e *BadParam) Error() string {
	return `parameter "` + e.Name + `": ` + e.Reason
}
