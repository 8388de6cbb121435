package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/casematch/core"
)

func TestMermaid(t *testing.T) {
	var (
		leaveFile = false
		filename  = "g.mermaid"
	)

	if !leaveFile {
		filename = filepath.Join(t.TempDir(), filename)
	}

	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}

	tbl, err := core.TurnstileTable(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if err := Mermaid(tbl, out, nil); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	got := string(bs)

	for _, want := range []string{
		"graph TB",
		"subject --> c0",
		"c3 -- else --> c4",
		"c4 -- else --> exhausted",
		`{'state': state, 'input': input}`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("no %q in\n%s", want, got)
		}
	}
}
