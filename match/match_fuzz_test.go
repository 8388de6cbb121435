package match

// Fuzz patterns and subjects.  Match and then verify some of the
// results.

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

// Fuzz has parameters used to generate random patterns and subjects.
type Fuzz struct {
	MapWidth    int
	ArrayWidth  int
	Alphabet    string
	VarAlphabet string
	VarWidth    int
	StringWidth int
	MaxNumber   float64

	Nils      float64
	Strings   float64
	Vars      float64
	Wildcards float64
	Bools     float64
	Numbers   float64
	Arrays    float64
	Rests     float64
	Maps      float64
	Sets      float64
	Aliens    float64

	// generated counts the number of atomic values generated.
	generated int64

	vars map[string]*Var
}

// NoVars sets Vars, Wildcards, and Rests to zero so that generated
// patterns are all constants.
func (f *Fuzz) NoVars() {
	f.Vars = 0
	f.Wildcards = 0
	f.Rests = 0
}

// NewFuzz returns a reasonable, general-purpose Fuzz.
func NewFuzz() *Fuzz {
	return &Fuzz{
		MapWidth:    5,
		ArrayWidth:  5,
		Alphabet:    "abcde",
		VarAlphabet: "UVWXYZ",
		VarWidth:    2,
		StringWidth: 4,
		MaxNumber:   10,

		Nils:      1,
		Strings:   3,
		Vars:      2,
		Wildcards: 0.5,
		Bools:     1,
		Numbers:   4,
		Arrays:    3,
		Rests:     1,
		Maps:      3,
		Sets:      1,
		Aliens:    0.5,

		vars: make(map[string]*Var),
	}
}

// Subject generates a random subject.
func (f *Fuzz) Subject(r *rand.Rand, d int) interface{} {
	f.generated++

	m := f.Strings + f.Bools + f.Numbers + f.Aliens + f.Nils
	if 0 < d {
		m += f.Arrays + f.Maps + f.Sets
	}

	t := r.Float64() * m
	switch {
	case t < f.Strings:
		return f.genString(r)
	case t < f.Strings+f.Bools:
		return r.Intn(2) == 0
	case t < f.Strings+f.Bools+f.Numbers:
		return float64(r.Intn(int(f.MaxNumber)))
	case t < f.Strings+f.Bools+f.Numbers+f.Aliens:
		return struct{}{}
	case t < f.Strings+f.Bools+f.Numbers+f.Aliens+f.Nils:
		return nil
	case t < f.Strings+f.Bools+f.Numbers+f.Aliens+f.Nils+f.Arrays:
		xs := make([]interface{}, r.Intn(f.ArrayWidth))
		for i := range xs {
			xs[i] = f.Subject(r, d-1)
		}
		return xs
	case t < f.Strings+f.Bools+f.Numbers+f.Aliens+f.Nils+f.Arrays+f.Maps:
		n := r.Intn(f.MapWidth)
		m := make(map[string]interface{}, n)
		for i := 0; i < n; i++ {
			m[f.genString(r)] = f.Subject(r, d-1)
		}
		return m
	default:
		n := r.Intn(f.MapWidth)
		s := make(SetValue, n)
		for i := 0; i < n; i++ {
			s[f.genString(r)] = struct{}{}
		}
		return s
	}
}

// Pattern generates a random pattern.
func (f *Fuzz) Pattern(r *rand.Rand, d int) Node {
	m := f.Vars + f.Wildcards + 1
	if 0 < d {
		m += f.Arrays + f.Rests + f.Maps
	}

	t := r.Float64() * m
	switch {
	case t < f.Vars:
		return NewVariable(f.genVar(r))
	case t < f.Vars+f.Wildcards:
		return Any
	case t < f.Vars+f.Wildcards+1:
		return NewConstant(f.Subject(r, 0))
	case t < f.Vars+f.Wildcards+1+f.Arrays:
		ps := make([]Node, r.Intn(f.ArrayWidth))
		for i := range ps {
			ps[i] = f.Pattern(r, d-1)
		}
		return NewSequence(ps...)
	case t < f.Vars+f.Wildcards+1+f.Arrays+f.Rests:
		head := make([]Node, r.Intn(f.ArrayWidth))
		for i := range head {
			head[i] = f.Pattern(r, d-1)
			if _, is := head[i].(*Variable); is {
				head[i] = NewSequence(head[i])
			}
		}
		return Must(NewSequenceWithRest(append(head, NewVariable(f.genVar(r)))...))
	default:
		n := r.Intn(f.MapWidth)
		ps := make([]Pair, 0, n)
		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			k := f.genString(r)
			if seen[k] {
				continue
			}
			seen[k] = true
			ps = append(ps, Pair{k, f.Pattern(r, d-1)})
		}
		return Must(NewMapping(ps...))
	}
}

func (f *Fuzz) genString(r *rand.Rand) string {
	n := r.Intn(f.StringWidth-1) + 1
	s := make([]byte, n)
	for i := range s {
		s[i] = f.Alphabet[r.Intn(len(f.Alphabet))]
	}
	return string(s)
}

func (f *Fuzz) genVar(r *rand.Rand) *Var {
	n := r.Intn(f.VarWidth-1) + 1
	s := make([]byte, n)
	for i := range s {
		s[i] = f.VarAlphabet[r.Intn(len(f.VarAlphabet))]
	}
	name := string(s)
	v, have := f.vars[name]
	if !have {
		v = NewVar(name)
		f.vars[name] = v
	}
	return v
}

// TestMatchFuzz matches a bunch of patterns against a bunch of
// subjects.
//
// Verifies that every subject matches itself as a Constant, and that
// matching is idempotent.
func TestMatchFuzz(t *testing.T) {
	var (
		pats        = 500
		subsPerPat  = 500
		d           = 3
		r           = rand.New(rand.NewSource(42))
		p           = NewFuzz()
		s           = NewFuzz()
		matched     = 0
		attempted   = 0
		maxBindings = 0
	)
	s.NoVars()

	then := time.Now()
	for i := 0; i < pats; i++ {
		pat := p.Pattern(r, d)
		for j := 0; j < subsPerPat; j++ {
			x := s.Subject(r, d)
			if _, ok := Match(NewConstant(x), x); !ok {
				t.Fatalf("%#v didn't match itself", x)
			}

			attempted++
			bs, ok := Match(pat, x)
			again, ok2 := Match(pat, x)
			if ok != ok2 || !reflect.DeepEqual(bs, again) {
				t.Fatalf("%s against %#v not idempotent", pat, x)
			}
			if ok {
				matched++
				if maxBindings < len(bs) {
					maxBindings = len(bs)
				}
			}
		}
	}
	elapsed := time.Now().Sub(then)

	fmt.Printf(`fuzzed      %d
matched     %f%%
elapsed     %fms
maxBindings %d
generated   %d
`,
		attempted,
		100*float64(matched)/float64(attempted),
		elapsed.Seconds()*1000,
		maxBindings,
		p.generated+s.generated)
}

func BenchmarkSequenceWithRest(b *testing.B) {
	var (
		rest = NewVar("rest")
		p    = Must(NewSequenceWithRest(NewConstant(1), NewVariable(rest), NewConstant(3)))
		x    = []interface{}{1, 2, 2, 2, 3}
	)
	for i := 0; i < b.N; i++ {
		if _, ok := Match(p, x); !ok {
			b.Fatal("didn't match")
		}
	}
}
