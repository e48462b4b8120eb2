// SPDX-License-Identifier: MPL-2.0

// Package shell provides the embedded script execution environment.
//
// A Session wraps a single mvdan/sh interpreter whose state (declared
// functions, variables, working directory) persists across runs. The build
// pipeline treats one Session as the process-wide "active environment":
// module files are sourced into it, test scripts run against it, and
// sourced definitions can be unset again when a module is unloaded.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Options configures a new Session. Zero values fall back to the current
// working directory, os.Stdout/os.Stderr, and the process environment.
type Options struct {
	// Dir is the interpreter's working directory.
	Dir string
	// Stdout and Stderr receive script output. Test scripts write directly
	// to these; nothing is buffered.
	Stdout io.Writer
	Stderr io.Writer
	// Env is the environment in KEY=VALUE form. nil inherits the process
	// environment.
	Env []string
}

// Session is a stateful shell interpreter. It is not safe for concurrent
// use; the pipeline is strictly single-threaded.
type Session struct {
	runner *interp.Runner
	parser *syntax.Parser
}

// NewSession creates a Session from the given options.
func NewSession(opts Options) (*Session, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ropts := []interp.RunnerOption{
		interp.StdIO(nil, stdout, stderr),
	}
	if opts.Dir != "" {
		ropts = append(ropts, interp.Dir(opts.Dir))
	}
	if opts.Env != nil {
		ropts = append(ropts, interp.Env(expand.ListEnviron(opts.Env...)))
	}

	runner, err := interp.New(ropts...)
	if err != nil {
		return nil, fmt.Errorf("create interpreter: %w", err)
	}

	return &Session{
		runner: runner,
		parser: syntax.NewParser(),
	}, nil
}

// RunFile parses and executes a script file in the session. A non-zero exit
// status is returned as an *ExitError; other errors indicate parse or
// runtime failures.
func (s *Session) RunFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	prog, err := s.parser.Parse(f, path)
	if err != nil {
		return fmt.Errorf("parse script %s: %w", path, err)
	}
	return s.run(ctx, prog)
}

// Source parses and executes a module file in the session, so that the
// functions it declares become available to later runs. It returns the names
// of the functions the file declares, for use with Unset.
func (s *Session) Source(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open module file: %w", err)
	}
	defer f.Close()

	prog, err := s.parser.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse module file %s: %w", path, err)
	}

	var funcs []string
	syntax.Walk(prog, func(node syntax.Node) bool {
		if decl, ok := node.(*syntax.FuncDecl); ok {
			funcs = append(funcs, decl.Name.Value)
		}
		return true
	})

	if err := s.run(ctx, prog); err != nil {
		return nil, err
	}
	return funcs, nil
}

// Unset removes previously sourced function definitions from the session.
func (s *Session) Unset(ctx context.Context, funcs []string) error {
	if len(funcs) == 0 {
		return nil
	}
	src := "unset -f " + strings.Join(funcs, " ")
	prog, err := s.parser.Parse(strings.NewReader(src), "unset")
	if err != nil {
		return fmt.Errorf("parse unset command: %w", err)
	}
	return s.run(ctx, prog)
}

func (s *Session) run(ctx context.Context, prog *syntax.File) error {
	err := s.runner.Run(ctx, prog)
	if err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return &ExitError{Code: int(status)}
		}
		return err
	}
	return nil
}

// ExitError reports a script that completed with a non-zero exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
