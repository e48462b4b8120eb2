// SPDX-License-Identifier: MPL-2.0

// Package pipeline sequences the build and install steps.
//
// Build is a linear, fail-fast pipeline over a freshly loaded project
// record: load → run tests → ensure module loaded → reset dist dir →
// generate manifest → stage artifacts → compress. Any failing step aborts
// the rest; completed steps are not rolled back, and reruns self-heal
// because dist reset and compress destructively reset their targets.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"psforge/internal/registry"
	"psforge/internal/shell"
	"psforge/internal/stage"
	"psforge/internal/testrun"
	"psforge/pkg/archive"
	"psforge/pkg/manifest"
	"psforge/pkg/psproj"
)

// Pipeline runs builds and installs against a shared module-loading
// environment. One Pipeline serves one process; the project record is
// loaded fresh on every invocation.
type Pipeline struct {
	registry registry.Registry
	session  *shell.Session
	logger   *log.Logger
}

// New creates a Pipeline. A nil logger falls back to log.Default().
func New(reg registry.Registry, session *shell.Session, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{registry: reg, session: session, logger: logger}
}

// Build runs the full build pipeline for the project at root and returns the
// path of the release archive. moduleName optionally overrides the root
// module from the descriptor.
func (p *Pipeline) Build(ctx context.Context, root, moduleName string) (string, error) {
	props, err := psproj.Load(root)
	if err != nil {
		return "", err
	}
	rootModule := props.RootModuleName(moduleName)
	p.logger.Info("building project", "project", props.ProjectName, "module", rootModule)

	p.logger.Info("running tests")
	runner := &testrun.Runner{Registry: p.registry, Session: p.session, Logger: p.logger}
	if err := runner.Run(ctx, props); err != nil {
		return "", err
	}

	if err := p.ensureLoaded(ctx, props, rootModule); err != nil {
		return "", err
	}

	p.logger.Info("resetting dist directory", "dist", props.DistPath)
	if err := stage.ResetDistDir(props); err != nil {
		return "", err
	}

	p.logger.Info("generating manifest")
	manifestPath, err := manifest.Generate(props, rootModule)
	if err != nil {
		return "", err
	}
	p.logger.Debug("manifest written", "path", manifestPath)

	p.logger.Info("staging artifacts")
	if _, err := stage.Stage(props, rootModule); err != nil {
		return "", err
	}

	p.logger.Info("compressing release archive")
	zipPath, err := archive.Compress(props, rootModule)
	if err != nil {
		return "", err
	}
	p.logger.Info("build complete", "archive", zipPath)
	return zipPath, nil
}

// Test loads the project and runs its test scripts without building.
func (p *Pipeline) Test(ctx context.Context, root string) error {
	props, err := psproj.Load(root)
	if err != nil {
		return err
	}
	runner := &testrun.Runner{Registry: p.registry, Session: p.session, Logger: p.logger}
	return runner.Run(ctx, props)
}

// Install extracts the latest release archive for the project at root into
// <modulesDir>/<rootModule>, replacing any prior install. Archives carry no
// wrapper directory, so the install step supplies the module directory
// itself. Returns the install target.
func (p *Pipeline) Install(ctx context.Context, root, modulesDir string) (string, error) {
	props, err := psproj.Load(root)
	if err != nil {
		return "", err
	}
	rootModule := props.RootModuleName("")

	zipPath, err := archive.Latest(props.DistPath, rootModule)
	if err != nil {
		return "", err
	}
	p.logger.Info("installing module", "module", rootModule, "archive", zipPath)

	target := filepath.Join(modulesDir, rootModule)
	if _, err := os.Stat(target); err == nil {
		if err := os.RemoveAll(target); err != nil {
			return "", &psproj.IOError{Op: "remove prior install", Path: target, Cause: err}
		}
	}
	if err := archive.Extract(zipPath, target, false); err != nil {
		return "", err
	}

	// An installed module that is still loaded in the active environment is
	// stale; drop it so the next load picks up the new files.
	if p.registry.IsLoaded(rootModule) {
		if err := p.registry.Unload(ctx, rootModule); err != nil {
			return "", err
		}
	}

	p.logger.Info("install complete", "target", target)
	return target, nil
}

// ensureLoaded loads the root module into the active environment if it is
// not already there. A module outside the discovered set is rejected here,
// before any file search, so a mistyped name surfaces as the module being
// invalid rather than its file being missing.
func (p *Pipeline) ensureLoaded(ctx context.Context, props *psproj.Properties, rootModule string) error {
	if !props.HasModule(rootModule) {
		return &psproj.InvalidModuleError{Module: rootModule, Known: props.ModuleNames}
	}
	if p.registry.IsLoaded(rootModule) {
		return nil
	}
	path, err := props.ModuleFile(rootModule)
	if err != nil {
		return err
	}
	return p.registry.Load(ctx, rootModule, path)
}
