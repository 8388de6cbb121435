// Package matchers provides constructor patterns for use with
// package syntax.
//
// In a pattern, a call like Regex(`(\d+)-(\d+)`, y, m) asks the
// Factory registered as "Regex" to make a Matchable from the
// argument patterns.
package matchers

import (
	"errors"
	"fmt"

	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/syntax"
)

var (
	// ErrArity occurs when a constructor gets the wrong number of
	// arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrNotString occurs when an argument that should be a
	// string value isn't.
	ErrNotString = errors.New("argument isn't a string value")
)

// Standard returns the standard factories.
func Standard() syntax.Factories {
	return syntax.Factories{
		"Regex":  match.FactoryFunc(Regex),
		"Cron":   match.FactoryFunc(Cron),
		"Domain": match.FactoryFunc(Domain),
		"Record": match.FactoryFunc(AnyRecord),
	}
}

// stringArg returns the string value of a Constant or a bound Pin.
func stringArg(n match.Node) (string, error) {
	var x interface{}
	switch vv := n.(type) {
	case *match.Constant:
		x = vv.Value
	case *match.Pin:
		y, bound := vv.Var.Value()
		if !bound {
			return "", fmt.Errorf("%s refers to nothing", vv)
		}
		x = y
	default:
		return "", fmt.Errorf("%s: %w", n, ErrNotString)
	}
	s, is := x.(string)
	if !is {
		return "", fmt.Errorf("%s: %w", n, ErrNotString)
	}
	return s, nil
}

// kwarg finds the keyword argument with the given name.
func kwarg(kwargs []match.Pair, name string) (match.Node, bool) {
	for _, p := range kwargs {
		if p.Key == name {
			return p.Value, true
		}
	}
	return nil, false
}

// onlyKwargs returns an error if there's a keyword argument that
// isn't one of the given names.
func onlyKwargs(kwargs []match.Pair, names ...string) error {
	for _, p := range kwargs {
		ok := false
		for _, name := range names {
			if p.Key == name {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unknown keyword argument %v", p.Key)
		}
	}
	return nil
}
