package matchers

import (
	"errors"
	"sort"
	"strings"

	"github.com/Comcast/casematch/match"
)

// Record is a value with a name, positional fields, and named
// fields.
//
// A Record is matched by a constructor pattern with the same name,
// much like a struct is built by a constructor call.
type Record struct {
	Name   string                 `json:"name"`
	Args   []interface{}          `json:"args,omitempty"`
	Kwargs map[string]interface{} `json:"kwargs,omitempty"`
}

func NewRecord(name string, args ...interface{}) *Record {
	return &Record{
		Name:   name,
		Args:   args,
		Kwargs: make(map[string]interface{}),
	}
}

// With adds a named field.
func (r *Record) With(k string, v interface{}) *Record {
	r.Kwargs[k] = v
	return r
}

func (r *Record) String() string {
	acc := make([]string, 0, len(r.Args)+len(r.Kwargs))
	for _, x := range r.Args {
		acc = append(acc, match.NewConstant(x).String())
	}
	ks := make([]string, 0, len(r.Kwargs))
	for k := range r.Kwargs {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	for _, k := range ks {
		acc = append(acc, k+"="+match.NewConstant(r.Kwargs[k]).String())
	}
	return r.Name + "(" + strings.Join(acc, ", ") + ")"
}

// RecordOf returns a Factory for patterns that match Records with
// the given name.
//
// The positional arguments must match the Record's Args exactly, and
// the keyword arguments must match the Record's Kwargs exactly.
func RecordOf(name string) match.Factory {
	return match.FactoryFunc(func(args []match.Node, kwargs []match.Pair) (match.Matchable, error) {
		return recordMatcher(name, args, kwargs)
	})
}

// AnyRecord is a Factory that takes the name of the Record as its
// first argument.
//
//	Record("S", 1, a, x=a)
func AnyRecord(args []match.Node, kwargs []match.Pair) (match.Matchable, error) {
	if len(args) == 0 {
		return nil, ErrArity
	}
	name, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	return recordMatcher(name, args[1:], kwargs)
}

func recordMatcher(name string, args []match.Node, kwargs []match.Pair) (match.Matchable, error) {
	for _, p := range kwargs {
		if _, is := p.Key.(string); !is {
			return nil, errors.New("keyword arguments must have string names")
		}
	}
	seq := match.NewSequence(args...)
	fields, err := match.NewMapping(kwargs...)
	if err != nil {
		return nil, err
	}

	return match.MatchableFunc(func(ss *match.Slots, x interface{}) bool {
		var r *Record
		switch vv := x.(type) {
		case *Record:
			r = vv
		case Record:
			r = &vv
		default:
			return false
		}
		if r == nil || r.Name != name {
			return false
		}
		as, ks := r.Args, r.Kwargs
		if as == nil {
			as = []interface{}{}
		}
		if ks == nil {
			ks = map[string]interface{}{}
		}
		return seq.Match(ss, as) && fields.Match(ss, ks)
	}), nil
}
