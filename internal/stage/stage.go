// SPDX-License-Identifier: MPL-2.0

// Package stage prepares the filesystem for packaging: it resets the
// distribution directory and copies distributable files into the staging
// tree the archiver compresses.
package stage

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"psforge/pkg/psproj"
)

// DirName is the staging directory created under the project root. The
// archiver deletes it after a successful compress; a leftover from a failed
// run is simply overwritten by the next one.
const DirName = "stage"

// distributableExts lists the file extensions copied into the staging tree:
// module files, manifests, plain scripts, and help text.
var distributableExts = []string{
	psproj.ModuleExt,
	psproj.ManifestExt,
	psproj.ScriptExt,
	".txt",
}

// ResetDistDir deletes the distribution directory if it exists and recreates
// it empty. Running it twice in a row yields the same end state.
func ResetDistDir(props *psproj.Properties) error {
	if _, err := os.Stat(props.DistPath); err == nil {
		if err := os.RemoveAll(props.DistPath); err != nil {
			return &psproj.IOError{Op: "reset dist directory", Path: props.DistPath, Cause: err}
		}
	}
	if err := os.MkdirAll(props.DistPath, 0o755); err != nil {
		return &psproj.IOError{Op: "create dist directory", Path: props.DistPath, Cause: err}
	}
	return nil
}

// Dir returns the staging directory for a project.
func Dir(props *psproj.Properties) string {
	return filepath.Join(props.ProjectRoot, DirName)
}

// ModuleDir returns the staged module directory, the tree the archiver
// compresses.
func ModuleDir(props *psproj.Properties, rootModule string) string {
	return filepath.Join(Dir(props), rootModule)
}

// Stage copies every distributable file under the source path into
// stage/<rootModule>/, preserving the relative layout. Pre-existing staged
// content from a prior failed run is left in place; the archiver owns final
// cleanup.
func Stage(props *psproj.Properties, rootModule string) (string, error) {
	dest := ModuleDir(props, rootModule)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", &psproj.IOError{Op: "create staging directory", Path: dest, Cause: err}
	}

	err := filepath.WalkDir(props.SourcePath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !distributable(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(props.SourcePath, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return copyFile(path, target)
	})
	if err != nil {
		return "", &psproj.IOError{Op: "stage artifacts", Path: props.SourcePath, Cause: err}
	}
	return dest, nil
}

func distributable(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range distributableExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
