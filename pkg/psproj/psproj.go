// SPDX-License-Identifier: MPL-2.0

// Package psproj loads project descriptors for script-module projects.
//
// A project is a directory containing a psproj.json descriptor, a source
// directory with one or more script modules (.psm1 files), and optionally a
// tests directory with test scripts. Load reads the descriptor, validates it
// against an embedded CUE schema, resolves the configured paths against the
// project root, and scans the project for module files. The resulting
// Properties record is assembled once per invocation and is not mutated by
// later pipeline steps.
package psproj

import (
	_ "embed"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

const (
	// DescriptorName is the descriptor file expected at the project root.
	DescriptorName = "psproj.json"

	// ModuleExt is the extension of script module files.
	ModuleExt = ".psm1"
	// ManifestExt is the extension of generated module manifests.
	ManifestExt = ".psd1"
	// ScriptExt is the extension of plain script files.
	ScriptExt = ".ps1"

	// DefaultVersion is the module version stamped on manifests and archive
	// names when the descriptor declares none. Applied at generation time
	// only; the loaded record keeps its empty version.
	DefaultVersion = "0.0.0"
	// DefaultPowerShellVersion is the scripting-engine version written to
	// manifests and scaffolded descriptors when none is declared.
	DefaultPowerShellVersion = "4.0"
	// DefaultDotNetVersion is the host-runtime version written to manifests
	// and scaffolded descriptors when none is declared.
	DefaultDotNetVersion = "4.5"
)

//go:embed psproj_schema.cue
var descriptorSchema string

// Descriptor mirrors the psproj.json file. Every field is optional; the
// loader and the manifest generator apply defaults where the descriptor is
// silent.
type Descriptor struct {
	ProjectName       string   `json:"projectName,omitempty"`
	UniqueID          string   `json:"uniqueId,omitempty"`
	CompanyName       string   `json:"companyName,omitempty"`
	Version           string   `json:"version,omitempty"`
	Description       string   `json:"description,omitempty"`
	Authors           []string `json:"authors,omitempty"`
	DotNetVersion     string   `json:"dotNetVersion,omitempty"`
	PowerShellVersion string   `json:"powerShellVersion,omitempty"`
	Src               string   `json:"src,omitempty"`
	Dist              string   `json:"dist,omitempty"`
	Tests             string   `json:"tests,omitempty"`
	RootModule        string   `json:"rootModule,omitempty"`
	Dependencies      []string `json:"dependencies,omitempty"`
}

// Properties is the normalized project record shared by all pipeline steps.
// Paths are absolute, authors are joined into a single display string, and
// ModuleNames holds the module set discovered by scanning the project root.
type Properties struct {
	ProjectRoot string
	ProjectName string
	UniqueID    string
	CompanyName string
	Version     string
	Description string
	// Authors is the comma-joined display form of the descriptor's authors
	// array; empty when no authors are declared.
	Authors           string
	DotNetVersion     string
	PowerShellVersion string
	SourcePath        string
	DistPath          string
	TestsPath         string
	// RootModule is the descriptor's declared root module, if any. Use
	// RootModuleName to resolve the effective root module.
	RootModule string
	// ModuleNames is the sorted set of module base names (without extension)
	// discovered under the project root.
	ModuleNames  []string
	Dependencies []string
}

// Load reads and validates the descriptor at <root>/psproj.json and returns
// the assembled Properties. The module scan runs on every call; nothing is
// cached. Load has no side effects on the filesystem.
func Load(root string) (*Properties, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &IOError{Op: "resolve project root", Path: root, Cause: err}
	}

	descPath := filepath.Join(absRoot, DescriptorName)
	if _, err := os.Stat(descPath); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Resource: "project descriptor", Path: descPath}
		}
		return nil, &IOError{Op: "stat descriptor", Path: descPath, Cause: err}
	}

	data, err := os.ReadFile(descPath)
	if err != nil {
		return nil, &IOError{Op: "read descriptor", Path: descPath, Cause: err}
	}

	if err := validateDescriptor(descPath, data); err != nil {
		return nil, &ParseError{Path: descPath, Cause: err}
	}

	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, &ParseError{Path: descPath, Cause: err}
	}

	modules, err := discoverModules(absRoot)
	if err != nil {
		return nil, err
	}

	return &Properties{
		ProjectRoot:       absRoot,
		ProjectName:       desc.ProjectName,
		UniqueID:          desc.UniqueID,
		CompanyName:       desc.CompanyName,
		Version:           desc.Version,
		Description:       desc.Description,
		Authors:           strings.Join(desc.Authors, ", "),
		DotNetVersion:     desc.DotNetVersion,
		PowerShellVersion: desc.PowerShellVersion,
		SourcePath:        resolveDir(absRoot, desc.Src, "src"),
		DistPath:          resolveDir(absRoot, desc.Dist, "dist"),
		TestsPath:         resolveDir(absRoot, desc.Tests, "tests"),
		RootModule:        strings.TrimSuffix(desc.RootModule, ModuleExt),
		ModuleNames:       modules,
		Dependencies:      slices.Clone(desc.Dependencies),
	}, nil
}

// validateDescriptor checks the raw descriptor bytes against the embedded
// CUE schema. JSON is valid CUE, so the bytes are compiled directly and
// unified with the schema; both syntax errors and type violations surface
// here.
func validateDescriptor(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(descriptorSchema)
	if schema.Err() != nil {
		return schema.Err()
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if value.Err() != nil {
		return value.Err()
	}

	return schema.Unify(value).Validate(cue.Concrete(false))
}

// resolveDir resolves a descriptor path field against the project root,
// falling back to the conventional directory name when the field is empty.
func resolveDir(root, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// discoverModules walks the project root and collects the base names of all
// module files, deduplicated and sorted.
func discoverModules(root string) ([]string, error) {
	seen := map[string]struct{}{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ModuleExt) {
			seen[strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, &IOError{Op: "scan project for modules", Path: root, Cause: err}
	}

	modules := make([]string, 0, len(seen))
	for name := range seen {
		modules = append(modules, name)
	}
	slices.Sort(modules)
	return modules, nil
}

// SourceModules returns the sorted module names discovered under the source
// directory only, a subset of ModuleNames. Modules elsewhere in the project
// (test fixtures, staged copies) are excluded. A missing source directory
// yields an empty set.
func (p *Properties) SourceModules() ([]string, error) {
	if _, err := os.Stat(p.SourcePath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "stat source directory", Path: p.SourcePath, Cause: err}
	}
	return discoverModules(p.SourcePath)
}

// HasModule reports whether name (without extension) is part of the
// discovered module set.
func (p *Properties) HasModule(name string) bool {
	return slices.Contains(p.ModuleNames, name)
}

// RootModuleName resolves the effective root module: an explicit override
// wins, then the descriptor's rootModule field, then the project name. Any
// module-file extension is stripped.
func (p *Properties) RootModuleName(override string) string {
	switch {
	case override != "":
		return strings.TrimSuffix(override, filepath.Ext(override))
	case p.RootModule != "":
		return p.RootModule
	default:
		return p.ProjectName
	}
}

// ModuleFile locates the file for the named module by recursive search under
// the project root. It fails with NotFoundError when no such file exists.
func (p *Properties) ModuleFile(name string) (string, error) {
	target := name + ModuleExt
	found := ""
	err := filepath.WalkDir(p.ProjectRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), target) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", &IOError{Op: "search for module file", Path: p.ProjectRoot, Cause: err}
	}
	if found == "" {
		return "", &NotFoundError{Resource: "module file", Path: filepath.Join(p.ProjectRoot, target)}
	}
	return found, nil
}
