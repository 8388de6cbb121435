package syntax

import (
	"errors"
	"testing"

	"github.com/Comcast/casematch/match"
	"github.com/stretchr/testify/require"
)

func matches(t *testing.T, env *Env, src string, x interface{}) match.Bindings {
	t.Helper()
	p, err := Parse(src, env)
	require.NoError(t, err, src)
	bs, ok := match.Match(p, x)
	require.True(t, ok, "%s didn't match %#v", src, x)
	return bs
}

func fails(t *testing.T, env *Env, src string, x interface{}) {
	t.Helper()
	p, err := Parse(src, env)
	require.NoError(t, err, src)
	_, ok := match.Match(p, x)
	require.False(t, ok, "%s matched %#v", src, x)
}

func TestScalars(t *testing.T) {
	env := NewEnv(nil)
	matches(t, env, `42`, 42.0)
	matches(t, env, `-1.5`, -1.5)
	matches(t, env, `"tacos"`, "tacos")
	matches(t, env, "`queso`", "queso")
	matches(t, env, `true`, true)
	matches(t, env, `None`, nil)
	matches(t, env, `_`, map[string]interface{}{"anything": "goes"})
	fails(t, env, `42`, "42")
}

func TestVariables(t *testing.T) {
	env := NewEnv(nil)
	bs := matches(t, env, `(a, b)`, []interface{}{1, 2})
	require.Equal(t, 1, bs["a"])
	require.Equal(t, 2, bs["b"])

	fails(t, env, `(a, a)`, []interface{}{1, 2})
	bs = matches(t, env, `a, a`, []interface{}{1, 1})
	require.Equal(t, 1, bs["a"])

	require.Equal(t, []string{"a", "b"}, env.Names())
}

func TestParens(t *testing.T) {
	env := NewEnv(nil)
	matches(t, env, `(1)`, 1)
	matches(t, env, `(1,)`, []interface{}{1})
	matches(t, env, `()`, []interface{}{})
	matches(t, env, `[]`, []int{})
	matches(t, env, `[[1, 2], 3]`, []interface{}{[]int{1, 2}, 3})
}

func TestSequenceRest(t *testing.T) {
	env := NewEnv(nil)
	bs := matches(t, env, `(1, *rest, 3)`, []interface{}{1, 2, 3})
	require.Equal(t, []interface{}{2}, bs["rest"])

	bs = matches(t, env, `[1, *rest, 3]`, []interface{}{1, 3})
	require.Len(t, bs["rest"], 0)

	fails(t, env, `(1, *rest, 3)`, []interface{}{1, 2})

	bs = matches(t, env, `(first, *_rest)`, []string{"a", "b", "c"})
	require.Equal(t, "a", bs["first"])
	require.Equal(t, []string{"b", "c"}, bs["_rest"])

	// A nested sequence after a rest is one element.
	bs = matches(t, env, `(*xs, [a, b])`, []interface{}{0, []interface{}{1, 2}})
	require.Equal(t, 1, bs["a"])
	require.Equal(t, []interface{}{0}, bs["xs"])
}

func TestMultipleRest(t *testing.T) {
	_, err := Parse(`(*a, *b)`, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, match.ErrMultipleRest))

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
}

func TestSets(t *testing.T) {
	env := NewEnv(nil)
	matches(t, env, `{1, 2}`, match.NewSetValue(1, 2))
	fails(t, env, `{1, 2}`, match.NewSetValue(1, 2, 3))
	matches(t, env, `set()`, match.NewSetValue())

	bs := matches(t, env, `{1, *rest}`, match.NewSetValue(1, 2, 3))
	require.True(t, match.Equal(match.NewSetValue(2, 3), bs["rest"]))

	fails(t, env, `{1, *rest}`, match.NewSetValue(2, 3))

	_, err := Parse(`{x, 1}`, nil)
	require.True(t, errors.Is(err, match.ErrNotValued))
}

func TestMappings(t *testing.T) {
	env := NewEnv(nil)
	fails(t, env, `{1: 2}`, map[int]int{1: 2, 2: 3})
	bs := matches(t, env, `{1: 2, **rest}`, map[int]int{1: 2, 2: 3})
	require.Equal(t, map[int]int{2: 3}, bs["rest"])

	bs = matches(t, env, `{"likes": [x, *_]}`, map[string]interface{}{
		"likes": []interface{}{"tacos", "chips"},
	})
	require.Equal(t, "tacos", bs["x"])

	matches(t, env, `{}`, map[string]interface{}{})

	_, err := Parse(`{"a": 1, "a": 2}`, nil)
	require.True(t, errors.Is(err, match.ErrDuplicateKey))

	_, err = Parse(`{x: 1}`, nil)
	require.Error(t, err)

	_, err = Parse(`{1: 2, 3}`, nil)
	require.Error(t, err)
}

func TestPins(t *testing.T) {
	env := NewEnv(nil)
	fails(t, env, `^a`, 1)

	env.Set("a", map[int]int{3: 4})
	env.Set("b", []interface{}{1, 2})
	env.Set("n", 7)

	matches(t, env, `^n`, 7)
	fails(t, env, `^n`, 8)

	bs := matches(t, env, `{1: 2, **^a, **rest}`, map[int]int{1: 2, 3: 4, 5: 6})
	require.Equal(t, map[int]int{5: 6}, bs["rest"])

	bs = matches(t, env, `(*^b, *rest)`, []interface{}{1, 2, 3})
	require.Equal(t, []interface{}{3}, bs["rest"])

	bs = matches(t, env, `{*^b, *rest}`, match.NewSetValue(1, 2, 3))
	require.True(t, match.Equal(match.NewSetValue(3), bs["rest"]))
}

func TestCalls(t *testing.T) {
	pair := match.FactoryFunc(func(args []match.Node, kwargs []match.Pair) (match.Matchable, error) {
		if len(args) != 2 {
			return nil, errors.New("want two args")
		}
		return match.MatchableFunc(func(ss *match.Slots, x interface{}) bool {
			m, is := x.(map[string]interface{})
			if !is {
				return false
			}
			if !args[0].Match(ss, m["left"]) || !args[1].Match(ss, m["right"]) {
				return false
			}
			for _, kw := range kwargs {
				if !kw.Value.Match(ss, m[kw.Key.(string)]) {
					return false
				}
			}
			return true
		}), nil
	})

	env := NewEnv(Factories{"Pair": pair})
	x := map[string]interface{}{"left": 1, "right": 2, "tag": "t"}

	bs := matches(t, env, `Pair(l, r, tag=tag)`, x)
	require.Equal(t, 1, bs["l"])
	require.Equal(t, "t", bs["tag"])

	env.Set("args", []interface{}{1, 2})
	matches(t, env, `Pair(*^args)`, x)
	matches(t, env, `Pair(*[1, 2], **{"tag": "t"})`, x)

	_, err := Parse(`Pair(1)`, env)
	var ce *match.ConstructorError
	require.True(t, errors.As(err, &ce))

	_, err = Parse(`Pair(1, 2, k=1, k=2)`, env)
	require.True(t, errors.Is(err, match.ErrDuplicateKey))

	_, err = Parse(`Nope(1)`, env)
	require.Error(t, err)

	_, err = Parse(`Pair(*xs)`, env)
	require.Error(t, err)
}

func TestSyntaxErrors(t *testing.T) {
	for _, src := range []string{
		``,
		`(1, 2`,
		`[1 2]`,
		`{1: }`,
		`**x`,
		`^1`,
		`- "a"`,
		`(1, *_x, *_y)`,
		`"unterminated`,
	} {
		_, err := Parse(src, nil)
		require.Error(t, err, src)
		var se *SyntaxError
		require.True(t, errors.As(err, &se), src)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, src := range []string{
		`(a, "b", _, null)`,
		`(1, *rest, 3)`,
		`{"k": v, **rest}`,
		`^x`,
	} {
		p, err := Parse(src, nil)
		require.NoError(t, err)
		q, err := Parse(p.String(), nil)
		require.NoError(t, err, p.String())
		require.Equal(t, p.String(), q.String())
	}
}
