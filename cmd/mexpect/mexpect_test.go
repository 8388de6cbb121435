package main

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"
)

func TestRunSession(t *testing.T) {
	var out bytes.Buffer
	ok, err := run(context.Background(), []string{"-f", "../../tables/tests/turnstile.test.yaml"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal(out.String())
	}
	if !strings.Contains(out.String(), `"passed":4`) {
		t.Fatal(out.String())
	}
}

func TestRunNothing(t *testing.T) {
	if _, err := run(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Fatal("should have complained")
	}
}

func TestRunIO(t *testing.T) {
	if _, err := exec.LookPath("siostd"); err != nil {
		t.Skip(err)
	}
	var out bytes.Buffer
	args := []string{
		"-io", "../../tables/tests/turnstile.io.yaml",
		"-d", "../..",
		"--",
		"siostd", "-t", "tables/turnstile.yaml",
	}
	ok, err := run(context.Background(), args, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal(out.String())
	}
}
