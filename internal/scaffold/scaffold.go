// SPDX-License-Identifier: MPL-2.0

// Package scaffold generates new project layouts.
//
// Generation is a pure function of a fully-populated Options value; all
// prompting lives in the CLI layer, so the generator can be tested without
// simulating input.
package scaffold

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"psforge/pkg/psproj"
)

// Options describes the project to scaffold. Use ApplyDefaults to fill the
// conventional values before calling Generate.
type Options struct {
	ProjectName string
	CompanyName string
	Version     string
	Description string
	Authors     []string
	SrcDir      string
	DistDir     string
	TestsDir    string
	// UniqueID is generated fresh by ApplyDefaults when empty.
	UniqueID string
	// Force overwrites an existing descriptor.
	Force bool
}

// ApplyDefaults fills empty fields with the conventional defaults: project
// name from the root's base name, version 1.0.0, src/dist/tests directories,
// and a freshly generated unique identifier.
func (o *Options) ApplyDefaults(projectRoot string) {
	if o.ProjectName == "" {
		abs, err := filepath.Abs(projectRoot)
		if err == nil {
			o.ProjectName = filepath.Base(abs)
		}
	}
	if o.Version == "" {
		o.Version = "1.0.0"
	}
	if o.SrcDir == "" {
		o.SrcDir = "src"
	}
	if o.DistDir == "" {
		o.DistDir = "dist"
	}
	if o.TestsDir == "" {
		o.TestsDir = "tests"
	}
	if o.UniqueID == "" {
		o.UniqueID = uuid.NewString()
	}
}

// Generate writes the project descriptor and creates the source, dist, and
// tests directories under projectRoot. It refuses to overwrite an existing
// descriptor unless Force is set. Returns the descriptor path.
func Generate(projectRoot string, opts Options) (string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", &psproj.IOError{Op: "resolve project root", Path: projectRoot, Cause: err}
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return "", &psproj.IOError{Op: "create project root", Path: absRoot, Cause: err}
	}

	descPath := filepath.Join(absRoot, psproj.DescriptorName)
	if _, err := os.Stat(descPath); err == nil && !opts.Force {
		return "", &psproj.IOError{Op: "write descriptor", Path: descPath,
			Cause: os.ErrExist}
	}

	desc := psproj.Descriptor{
		ProjectName:       opts.ProjectName,
		UniqueID:          opts.UniqueID,
		CompanyName:       opts.CompanyName,
		Version:           opts.Version,
		Description:       opts.Description,
		Authors:           opts.Authors,
		DotNetVersion:     psproj.DefaultDotNetVersion,
		PowerShellVersion: psproj.DefaultPowerShellVersion,
		Src:               opts.SrcDir,
		Dist:              opts.DistDir,
		Tests:             opts.TestsDir,
		RootModule:        opts.ProjectName,
	}

	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return "", err
	}
	data = append(data, '\n')
	if err := os.WriteFile(descPath, data, 0o644); err != nil {
		return "", &psproj.IOError{Op: "write descriptor", Path: descPath, Cause: err}
	}

	for _, dir := range []string{opts.SrcDir, opts.DistDir, opts.TestsDir} {
		if err := os.MkdirAll(filepath.Join(absRoot, dir), 0o755); err != nil {
			return "", &psproj.IOError{Op: "create project directory", Path: dir, Cause: err}
		}
	}
	return descPath, nil
}
