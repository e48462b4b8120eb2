// SPDX-License-Identifier: MPL-2.0

// Package manifest generates module manifest files (.psd1).
//
// A manifest pairs module metadata with fixed key names and is colocated
// with the module file it describes. All defaulting happens here, at
// generation time: the project record itself is never mutated, so a project
// without a declared version still loads fine and only picks up "0.0.0"
// when a manifest is written.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"psforge/pkg/psproj"
)

// Generate writes the manifest for the named module next to its module
// file, replacing any manifest already there. The module name (extension
// stripped) must be a member of the project's discovered module set.
// It returns the path of the written manifest.
func Generate(props *psproj.Properties, moduleName string) (string, error) {
	name := strings.TrimSuffix(moduleName, filepath.Ext(moduleName))
	if !props.HasModule(name) {
		return "", &psproj.InvalidModuleError{Module: name, Known: props.ModuleNames}
	}

	modulePath, err := props.ModuleFile(name)
	if err != nil {
		return "", err
	}

	// Only modules under the source path ship as nested modules; a .psm1
	// elsewhere in the project (a test fixture, say) is not part of the
	// distributable set.
	srcModules, err := props.SourceModules()
	if err != nil {
		return "", err
	}
	var nested []string
	for _, m := range srcModules {
		if m != name {
			nested = append(nested, m+psproj.ModuleExt)
		}
	}

	content := render(props, name, nested)

	manifestPath := strings.TrimSuffix(modulePath, filepath.Ext(modulePath)) + psproj.ManifestExt
	if _, err := os.Stat(manifestPath); err == nil {
		if err := os.Remove(manifestPath); err != nil {
			return "", &psproj.IOError{Op: "remove stale manifest", Path: manifestPath, Cause: err}
		}
	}
	if err := os.WriteFile(manifestPath, []byte(content), 0o644); err != nil {
		return "", &psproj.IOError{Op: "write manifest", Path: manifestPath, Cause: err}
	}
	return manifestPath, nil
}

// render produces the manifest text with all generation-time defaults
// applied.
func render(props *psproj.Properties, name string, nested []string) string {
	version := orDefault(props.Version, psproj.DefaultVersion)
	guid := props.UniqueID
	if guid == "" {
		guid = uuid.NewString()
	}
	psVersion := orDefault(props.PowerShellVersion, psproj.DefaultPowerShellVersion)
	dotNet := orDefault(props.DotNetVersion, psproj.DefaultDotNetVersion)

	owner := props.CompanyName
	if owner == "" {
		owner = props.Authors
	}
	copyright := fmt.Sprintf("(c) %d %s. All rights reserved.", time.Now().Year(), owner)

	fileList := []string{name + psproj.ModuleExt, name + psproj.ManifestExt}

	var b strings.Builder
	b.WriteString("@{\n")
	writeEntry(&b, "RootModule", name+psproj.ModuleExt)
	writeEntry(&b, "ModuleVersion", version)
	writeEntry(&b, "GUID", guid)
	writeEntry(&b, "Author", props.Authors)
	writeEntry(&b, "CompanyName", props.CompanyName)
	writeEntry(&b, "Copyright", copyright)
	writeEntry(&b, "Description", props.Description)
	writeEntry(&b, "PowerShellVersion", psVersion)
	writeEntry(&b, "DotNetFrameworkVersion", dotNet)
	writeList(&b, "RequiredModules", props.Dependencies)
	writeList(&b, "NestedModules", nested)
	writeList(&b, "FileList", fileList)
	b.WriteString("}\n")
	return b.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func writeEntry(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s = %s\n", key, quote(value))
}

func writeList(b *strings.Builder, key string, values []string) {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	fmt.Fprintf(b, "%s = @(%s)\n", key, strings.Join(quoted, ", "))
}

// quote renders a single-quoted manifest string, doubling embedded quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
