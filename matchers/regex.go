package matchers

import (
	"fmt"

	"github.com/Comcast/casematch/match"

	"github.com/dlclark/regexp2"
)

// RegexOptions are used when compiling expressions for Regex.
var RegexOptions = regexp2.None

// Regex is a Factory for patterns that match strings with a regular
// expression.
//
// The first argument is the expression.  The expression must match
// at the start of the subject.  Each remaining positional argument is
// matched against the corresponding capture group.  A keyword
// argument is matched against the named group with that name.
//
//	Regex(`(\d+)-(\d+)-(\d+)`, y, m, d)
//	Regex(`(?<user>\w+)@(?<host>.+)`, user=u, host="example.com")
//
// The expression uses github.com/dlclark/regexp2, which supports
// backreferences and lookaround.
func Regex(args []match.Node, kwargs []match.Pair) (match.Matchable, error) {
	if len(args) == 0 {
		return nil, ErrArity
	}
	expr, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(expr, RegexOptions)
	if err != nil {
		return nil, err
	}

	groups := args[1:]
	// Group 0 is the whole match.
	if n := len(re.GetGroupNumbers()) - 1; n < len(groups) {
		return nil, fmt.Errorf("%d patterns for %d groups: %w", len(groups), n, ErrArity)
	}

	names := make(map[string]bool)
	for _, name := range re.GetGroupNames() {
		names[name] = true
	}
	for _, p := range kwargs {
		name, is := p.Key.(string)
		if !is || !names[name] {
			return nil, fmt.Errorf("no group named %v", p.Key)
		}
	}

	return match.MatchableFunc(func(ss *match.Slots, x interface{}) bool {
		s, is := x.(string)
		if !is {
			return false
		}
		m, err := re.FindStringMatch(s)
		if err != nil || m == nil || m.Index != 0 {
			return false
		}
		for i, g := range groups {
			if !g.Match(ss, m.GroupByNumber(i+1).String()) {
				return false
			}
		}
		for _, p := range kwargs {
			if !p.Value.Match(ss, m.GroupByName(p.Key.(string)).String()) {
				return false
			}
		}
		return true
	}), nil
}
