// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFileForwardsOutput(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hello.ps1", "echo hello\n")

	var out bytes.Buffer
	s, err := NewSession(Options{Dir: dir, Stdout: &out, Stderr: &out})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.RunFile(context.Background(), script); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "hello" {
		t.Errorf("output = %q, want hello", got)
	}
}

func TestRunFileNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.ps1", "exit 3\n")

	s, err := NewSession(Options{Dir: dir, Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)})
	if err != nil {
		t.Fatal(err)
	}

	err = s.RunFile(context.Background(), script)
	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("err = %v, want ExitError", err)
	}
	if exit.Code != 3 {
		t.Errorf("exit code = %d, want 3", exit.Code)
	}
}

func TestSourceAndUnset(t *testing.T) {
	dir := t.TempDir()
	module := writeScript(t, dir, "Greet.psm1", "Greet() { echo \"hi $1\"; }\nFarewell() { echo bye; }\n")
	caller := writeScript(t, dir, "call.ps1", "Greet world\n")

	var out bytes.Buffer
	s, err := NewSession(Options{Dir: dir, Stdout: &out, Stderr: &out})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	funcs, err := s.Source(ctx, module)
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if len(funcs) != 2 || funcs[0] != "Greet" || funcs[1] != "Farewell" {
		t.Fatalf("declared functions = %v", funcs)
	}

	// Sourced functions are callable from later runs.
	if err := s.RunFile(ctx, caller); err != nil {
		t.Fatalf("call after source: %v", err)
	}
	if !strings.Contains(out.String(), "hi world") {
		t.Errorf("output = %q, want greeting", out.String())
	}

	// After Unset, calling the function fails.
	if err := s.Unset(ctx, funcs); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if err := s.RunFile(ctx, caller); err == nil {
		t.Error("calling an unset function should fail")
	}
}
