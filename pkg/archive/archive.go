// SPDX-License-Identifier: MPL-2.0

// Package archive packages staged module trees into versioned zip files and
// extracts them again.
//
// Compress and Extract are symmetric: extracting an archive produced by
// Compress reproduces the staged tree byte for byte, minus the staging
// wrapper directory (archive entries are rooted at the staged module
// directory, so the zip has no extra top-level folder).
package archive

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"psforge/internal/stage"
	"psforge/pkg/psproj"
)

// Compress packages the staged module tree into
// <dist>/<rootModule>-<version>.zip at best compression, deleting any
// pre-existing archive of the same name first. The staging directory must
// already be populated; it is removed after a successful compress.
func Compress(props *psproj.Properties, rootModule string) (string, error) {
	version := props.Version
	if version == "" {
		version = psproj.DefaultVersion
	}

	srcDir := stage.ModuleDir(props, rootModule)
	if _, err := os.Stat(srcDir); err != nil {
		if os.IsNotExist(err) {
			return "", &psproj.NotFoundError{Resource: "staging directory", Path: srcDir}
		}
		return "", &psproj.IOError{Op: "stat staging directory", Path: srcDir, Cause: err}
	}

	target := filepath.Join(props.DistPath, fmt.Sprintf("%s-%s.zip", rootModule, version))
	if _, err := os.Stat(target); err == nil {
		if err := os.Remove(target); err != nil {
			return "", &psproj.IOError{Op: "remove stale archive", Path: target, Cause: err}
		}
	}

	if err := writeZip(target, srcDir); err != nil {
		os.Remove(target)
		return "", err
	}

	if err := os.RemoveAll(stage.Dir(props)); err != nil {
		return "", &psproj.IOError{Op: "remove staging directory", Path: stage.Dir(props), Cause: err}
	}
	return target, nil
}

func writeZip(target, srcDir string) error {
	f, err := os.Create(target)
	if err != nil {
		return &psproj.IOError{Op: "create archive", Path: target, Cause: err}
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		zw.Close()
		return &psproj.IOError{Op: "compress staging tree", Path: srcDir, Cause: err}
	}

	if err := zw.Close(); err != nil {
		return &psproj.IOError{Op: "finalize archive", Path: target, Cause: err}
	}
	return f.Close()
}

// Extract unpacks an archive into dest, creating it if absent. With replace
// set, an existing dest is deleted first instead of being merged into.
// Entries escaping dest are rejected.
func Extract(archivePath, dest string, replace bool) error {
	if _, err := os.Stat(archivePath); err != nil {
		if os.IsNotExist(err) {
			return &psproj.NotFoundError{Resource: "archive", Path: archivePath}
		}
		return &psproj.IOError{Op: "stat archive", Path: archivePath, Cause: err}
	}

	if replace {
		if _, err := os.Stat(dest); err == nil {
			if err := os.RemoveAll(dest); err != nil {
				return &psproj.IOError{Op: "replace destination", Path: dest, Cause: err}
			}
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return &psproj.IOError{Op: "create destination", Path: dest, Cause: err}
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return &psproj.IOError{Op: "open archive", Path: archivePath, Cause: err}
	}
	defer zr.Close()

	for _, entry := range zr.File {
		target := filepath.Join(dest, filepath.FromSlash(entry.Name))

		rel, err := filepath.Rel(dest, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			return &psproj.IOError{Op: "extract archive", Path: archivePath,
				Cause: fmt.Errorf("entry %q escapes destination", entry.Name)}
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &psproj.IOError{Op: "extract archive", Path: target, Cause: err}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return &psproj.IOError{Op: "extract archive", Path: target, Cause: err}
		}
		if err := extractFile(entry, target); err != nil {
			return &psproj.IOError{Op: "extract archive", Path: target, Cause: err}
		}
	}
	return nil
}

func extractFile(entry *zip.File, target string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Latest returns the first archive in dist matching <rootModule>*.zip.
// Matches come from the sorted directory listing; no semantic-version
// comparison is attempted, so first-match-wins is the documented behavior.
func Latest(dist, rootModule string) (string, error) {
	pattern := filepath.Join(dist, rootModule+"*.zip")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", &psproj.IOError{Op: "list archives", Path: dist, Cause: err}
	}
	if len(matches) == 0 {
		return "", &psproj.NotFoundError{Resource: "release archive", Path: pattern}
	}
	return matches[0], nil
}
