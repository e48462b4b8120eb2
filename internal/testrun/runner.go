// SPDX-License-Identifier: MPL-2.0

// Package testrun executes a project's test scripts against its loaded
// modules.
//
// Every module file under the source path is loaded through the injected
// Registry, every test script directly under the tests path runs in the
// shared shell session, and all loaded modules are unloaded afterward
// regardless of the test outcome.
package testrun

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"psforge/internal/registry"
	"psforge/internal/shell"
	"psforge/pkg/psproj"
)

// TestScriptSuffix is the fixed naming suffix that marks a file in the tests
// directory as a test script.
const TestScriptSuffix = ".Tests.ps1"

// Runner loads modules and runs test scripts. The zero value is not usable;
// both Registry and Session must be set.
type Runner struct {
	Registry registry.Registry
	Session  *shell.Session
	// Logger receives per-script progress. nil falls back to log.Default().
	Logger *log.Logger
}

// Run loads every module under the project's source path, executes every
// test script under its tests path in lexical order, and unloads the loaded
// modules before returning. The first failing script aborts the run and its
// error propagates; unloading still happens on that path.
func (r *Runner) Run(ctx context.Context, props *psproj.Properties) (err error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}

	modules, err := sourceModules(props.SourcePath)
	if err != nil {
		return err
	}

	loaded := make([]string, 0, len(modules))
	defer func() {
		// Always release what was acquired, even when a test failed.
		for _, name := range loaded {
			if uerr := r.Registry.Unload(ctx, name); uerr != nil && err == nil {
				err = uerr
			}
		}
	}()

	for _, m := range modules {
		if err := r.Registry.Load(ctx, m.name, m.path); err != nil {
			return fmt.Errorf("load module %s: %w", m.name, err)
		}
		loaded = append(loaded, m.name)
	}

	scripts, err := testScripts(props.TestsPath)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		logger.Warn("no test scripts found", "tests", props.TestsPath)
		return nil
	}

	for _, script := range scripts {
		logger.Info("running test script", "script", filepath.Base(script))
		if err := r.Session.RunFile(ctx, script); err != nil {
			return fmt.Errorf("test script %s: %w", filepath.Base(script), err)
		}
	}
	return nil
}

type moduleFile struct {
	name string
	path string
}

// sourceModules collects every module file under the source path, sorted by
// module name.
func sourceModules(sourcePath string) ([]moduleFile, error) {
	var modules []moduleFile
	err := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), psproj.ModuleExt) {
			modules = append(modules, moduleFile{
				name: strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
				path: path,
			})
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &psproj.NotFoundError{Resource: "source directory", Path: sourcePath}
		}
		return nil, &psproj.IOError{Op: "scan source directory", Path: sourcePath, Cause: err}
	}
	slices.SortFunc(modules, func(a, b moduleFile) int { return strings.Compare(a.name, b.name) })
	return modules, nil
}

// testScripts lists test scripts directly under the tests path. The lookup
// is deliberately non-recursive. A missing tests directory means the project
// has no tests.
func testScripts(testsPath string) ([]string, error) {
	entries, err := os.ReadDir(testsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &psproj.IOError{Op: "read tests directory", Path: testsPath, Cause: err}
	}

	var scripts []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), TestScriptSuffix) {
			scripts = append(scripts, filepath.Join(testsPath, e.Name()))
		}
	}
	slices.Sort(scripts)
	return scripts, nil
}
