package match

import (
	"reflect"
	"testing"
)

func TestSequenceWithRest(t *testing.T) {
	rest := NewVar("rest")
	p := Must(NewSequenceWithRest(NewConstant(1), NewVariable(rest), NewConstant(3)))

	type test struct {
		x    []int
		ok   bool
		want []int
	}
	for _, tc := range []test{
		{[]int{1, 2, 3}, true, []int{2}},
		{[]int{1, 3}, true, []int{}},
		{[]int{1, 2}, false, nil},
		{[]int{1, 2, 2, 3}, true, []int{2, 2}},
		{[]int{1}, false, nil},
	} {
		bs, ok := Match(p, tc.x)
		if ok != tc.ok {
			t.Fatalf("%v: %v", tc.x, ok)
		}
		if !ok {
			continue
		}
		got, is := bs["rest"].([]int)
		if !is {
			t.Fatalf("rest is a %T", bs["rest"])
		}
		if len(got) != len(tc.want) || (len(got) > 0 && !reflect.DeepEqual(got, tc.want)) {
			t.Fatalf("%v: %v", tc.x, got)
		}
	}
}

func TestSequenceWithRestNoRest(t *testing.T) {
	// Fixed-size destructuring.
	p := Must(NewSequenceWithRest(NewSequence(NewConstant(1)), NewSequence(Any)))
	if _, ok := Match(p, []interface{}{1, 2}); !ok {
		t.Fatal("didn't match")
	}
	if _, ok := Match(p, []interface{}{1, 2, 3}); ok {
		t.Fatal("leftovers matched")
	}
}

func TestSequenceWithRestSpread(t *testing.T) {
	var (
		c    = NewConstant([]interface{}{"a", "b"})
		rest = NewVar("rest")
		last = NewVar("last")
		p    = Must(NewSequenceWithRest(c, NewVariable(rest), NewSequence(NewVariable(last))))
	)
	bs, ok := Match(p, []interface{}{"a", "b", "c", "d"})
	if !ok {
		t.Fatal("didn't match")
	}
	if bs["last"] != "d" {
		t.Fatal(bs)
	}
	if !Equal(bs["rest"], []interface{}{"c"}) {
		t.Fatal(bs)
	}

	if _, ok := Match(p, []interface{}{"a", "x", "c", "d"}); ok {
		t.Fatal("spread prefix mismatch matched")
	}
}

func TestSequenceWithRestPin(t *testing.T) {
	var (
		prefix = NewVar("prefix")
		rest   = NewVar("rest")
		p      = Must(NewSequenceWithRest(NewPin(prefix), NewVariable(rest)))
	)
	if _, ok := Match(p, []int{1, 2}); ok {
		t.Fatal("unbound pin matched")
	}
	ss := NewSlots()
	ss.Bind(prefix, []int{1})
	ss.Commit()
	bs, ok := Match(p, []int{1, 2})
	if !ok {
		t.Fatal("didn't match")
	}
	if !Equal(bs["rest"], []int{2}) {
		t.Fatal(bs)
	}
}

func TestMultipleRest(t *testing.T) {
	a, b := NewVariable(NewVar("a")), NewVariable(NewVar("b"))
	if _, err := NewSequenceWithRest(a, b); err != ErrMultipleRest {
		t.Fatal(err)
	}
	if _, err := NewSetWithRest(a, b); err != ErrMultipleRest {
		t.Fatal(err)
	}
	if _, err := NewMappingWithRest(a, b); err != ErrMultipleRest {
		t.Fatal(err)
	}
}

func TestSetWithRest(t *testing.T) {
	rest := NewVar("rest")
	p := Must(NewSetWithRest(Must(NewSet(NewConstant(1))), NewVariable(rest)))

	bs, ok := Match(p, NewSetValue(1, 2, 3))
	if !ok {
		t.Fatal("didn't match")
	}
	if !Equal(bs["rest"], NewSetValue(2, 3)) {
		t.Fatal(bs)
	}
	if _, is := bs["rest"].(SetValue); !is {
		t.Fatalf("%T", bs["rest"])
	}

	if _, ok := Match(p, NewSetValue(2, 3)); ok {
		t.Fatal("missing element matched")
	}

	// Without a rest, a SetWithRest is exact.
	q := Must(NewSetWithRest(NewConstant([]int{1, 2})))
	if _, ok := Match(q, NewSetValue(1, 2)); !ok {
		t.Fatal("didn't match")
	}
	if _, ok := Match(q, NewSetValue(1, 2, 3)); ok {
		t.Fatal("extra element matched")
	}

	if _, err := NewSetWithRest(Any); err != ErrNotValued {
		t.Fatal(err)
	}
}

func TestMappingWithRest(t *testing.T) {
	rest := NewVar("rest")
	p := Must(NewMappingWithRest(
		Must(NewMapping(Pair{1, NewConstant(2)})),
		NewVariable(rest)))

	bs, ok := Match(p, map[int]int{1: 2, 2: 3})
	if !ok {
		t.Fatal("didn't match")
	}
	if !reflect.DeepEqual(bs["rest"], map[int]int{2: 3}) {
		t.Fatal(bs)
	}
}

func TestMappingWithRestPins(t *testing.T) {
	var (
		a    = NewVar("a")
		b    = NewVar("b")
		rest = NewVar("rest")
		p    = Must(NewMappingWithRest(
			Must(NewMapping(Pair{1, NewConstant(2)})),
			NewPin(a),
			NewPin(b),
			NewVariable(rest)))
	)

	ss := NewSlots()
	ss.Bind(a, map[int]int{3: 4})
	ss.Bind(b, map[int]int{5: 6})
	ss.Commit()

	bs, ok := Match(p, map[int]int{1: 2, 3: 4, 5: 6, 7: 8})
	if !ok {
		t.Fatal("didn't match")
	}
	if !reflect.DeepEqual(bs["rest"], map[int]int{7: 8}) {
		t.Fatal(bs)
	}

	// A duplicate key that appears only through a Pin fails the
	// match.
	ss = NewSlots()
	ss.Bind(b, map[int]int{1: 2})
	ss.Commit()
	if _, ok := Match(p, map[int]int{1: 2, 3: 4}); ok {
		t.Fatal("duplicate key matched")
	}
}

func TestMappingWithRestStaticDuplicate(t *testing.T) {
	_, err := NewMappingWithRest(
		NewConstant(map[string]int{"a": 1}),
		Must(NewMapping(Pair{"a", Any})))
	if err != ErrDuplicateKey {
		t.Fatal(err)
	}
	if _, err = NewMappingWithRest(Any); err != ErrNotKeyed {
		t.Fatal(err)
	}
}
