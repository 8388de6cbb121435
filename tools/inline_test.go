package tools

import (
	"context"
	"strings"
	"testing"
)

func TestInline(t *testing.T) {
	input := `
I like %inline("tacos"), and
I also like %inline("queso").
Both are delicious.
`
	want := `
I like TACOS, and
I also like QUESO.
Both are delicious.
`

	find := func(name string) ([]byte, error) {
		return []byte(strings.ToUpper(name)), nil
	}

	got, err := Inline([]byte(input), find)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("got %s", got)
	}
}

func TestReadTableWithInlines(t *testing.T) {
	tbl, err := ReadTable("../tables/double.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Cases) != 3 {
		t.Fatal(len(tbl.Cases))
	}
	src, is := tbl.Cases[0].GuardSource.Source.(string)
	if !is {
		t.Fatalf("%T", tbl.Cases[0].GuardSource.Source)
	}
	if !strings.Contains(src, "_.props.limit < n") {
		t.Fatal(src)
	}
	if strings.Contains(src, "%inline") {
		t.Fatal(src)
	}

	if err = tbl.Compile(context.Background(), nil, nil, true); err != nil {
		t.Fatal(err)
	}
}
