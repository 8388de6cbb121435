package matchers

import (
	"net/url"
	"strings"

	"github.com/Comcast/casematch/match"

	"golang.org/x/net/publicsuffix"
)

// Domain is a Factory for patterns that match host names.
//
// The subject is a host name or a URL.  The first argument is matched
// against the registered domain (eTLD+1), and the optional second
// argument is matched against the public suffix.  The keyword
// argument icann is matched against whether the suffix is managed by
// ICANN.
//
//	Domain("example.com")
//	Domain(d, "co.uk", icann=true)
func Domain(args []match.Node, kwargs []match.Pair) (match.Matchable, error) {
	if len(args) < 1 || 2 < len(args) {
		return nil, ErrArity
	}
	if err := onlyKwargs(kwargs, "icann"); err != nil {
		return nil, err
	}
	icann, checkICANN := kwarg(kwargs, "icann")

	return match.MatchableFunc(func(ss *match.Slots, x interface{}) bool {
		s, is := x.(string)
		if !is {
			return false
		}
		host := hostname(s)
		if host == "" {
			return false
		}
		etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
		if err != nil {
			return false
		}
		if !args[0].Match(ss, etld1) {
			return false
		}
		suffix, managed := publicsuffix.PublicSuffix(host)
		if len(args) == 2 && !args[1].Match(ss, suffix) {
			return false
		}
		if checkICANN && !icann.Match(ss, managed) {
			return false
		}
		return true
	}), nil
}

// hostname extracts the lower-case host from a URL or a host name.
func hostname(s string) string {
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		s = u.Hostname()
	}
	return strings.TrimSuffix(strings.ToLower(s), ".")
}
