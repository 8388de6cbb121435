package matchers

import (
	"strings"
	"time"

	"github.com/Comcast/casematch/match"

	"github.com/gorhill/cronexpr"
)

// Cron is a Factory for patterns that match times that a crontab
// expression fires at.
//
// The subject is a time.Time or a string in RFC3339 format.  The
// optional second argument is matched against the next time after
// the subject (of the same type as the subject).
//
//	Cron("0 9 * * MON-FRI")
//	Cron("*/5 * * * *", next)
//
// Only an expression with seven fields (which starts with seconds)
// has a resolution of a second.  Otherwise the resolution is a
// minute.
func Cron(args []match.Node, kwargs []match.Pair) (match.Matchable, error) {
	if len(args) < 1 || 2 < len(args) {
		return nil, ErrArity
	}
	if err := onlyKwargs(kwargs); err != nil {
		return nil, err
	}
	src, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	expr, err := cronexpr.Parse(src)
	if err != nil {
		return nil, err
	}

	resolution := time.Minute
	if len(strings.Fields(src)) == 7 {
		resolution = time.Second
	}

	return match.MatchableFunc(func(ss *match.Slots, x interface{}) bool {
		var (
			t       time.Time
			isStr   bool
			present bool
		)
		switch vv := x.(type) {
		case time.Time:
			t, present = vv, true
		case string:
			var err error
			if t, err = time.Parse(time.RFC3339Nano, vv); err == nil {
				isStr, present = true, true
			}
		}
		if !present {
			return false
		}

		at := t.Truncate(resolution)
		if !expr.Next(at.Add(-time.Second)).Equal(at) {
			return false
		}

		if len(args) == 2 {
			var next interface{} = expr.Next(t)
			if isStr {
				next = expr.Next(t).Format(time.RFC3339Nano)
			}
			return args[1].Match(ss, next)
		}
		return true
	}), nil
}
