// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"psforge/internal/stage"
	"psforge/pkg/psproj"
)

func newProps(t *testing.T, version string, staged map[string]string) *psproj.Properties {
	t.Helper()
	root := t.TempDir()
	props := &psproj.Properties{
		ProjectRoot: root,
		Version:     version,
		SourcePath:  filepath.Join(root, "src"),
		DistPath:    filepath.Join(root, "dist"),
	}
	if err := os.MkdirAll(props.DistPath, 0o755); err != nil {
		t.Fatal(err)
	}
	for rel, content := range staged {
		path := filepath.Join(stage.ModuleDir(props, "MyModule"), filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return props
}

func TestCompressExtractRoundTrip(t *testing.T) {
	staged := map[string]string{
		"MyModule.psm1":     "MyFunc() { echo hi; }\n",
		"MyModule.psd1":     "@{ ModuleVersion = '1.2.3' }\n",
		"scripts/extra.ps1": "echo extra\n",
	}
	props := newProps(t, "1.2.3", staged)

	zipPath, err := Compress(props, "MyModule")
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if filepath.Base(zipPath) != "MyModule-1.2.3.zip" {
		t.Errorf("archive name = %q", filepath.Base(zipPath))
	}
	if _, err := os.Stat(stage.Dir(props)); !os.IsNotExist(err) {
		t.Error("staging directory must be removed after a successful compress")
	}

	dest := filepath.Join(t.TempDir(), "out")
	if err := Extract(zipPath, dest, false); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for rel, want := range staged {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("extracted file %s: %v", rel, err)
		}
		if string(got) != want {
			t.Errorf("%s: content differs after round trip", rel)
		}
	}
}

func TestCompressHasNoWrapperDirectory(t *testing.T) {
	props := newProps(t, "0.1.0", map[string]string{"MyModule.psm1": "x\n"})

	zipPath, err := Compress(props, "MyModule")
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "MyModule.psm1" {
			t.Errorf("unexpected entry %q; entries must sit at the archive root", f.Name)
		}
	}
}

func TestCompressDefaultsVersion(t *testing.T) {
	props := newProps(t, "", map[string]string{"MyModule.psm1": "x\n"})

	zipPath, err := Compress(props, "MyModule")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(zipPath) != "MyModule-0.0.0.zip" {
		t.Errorf("archive name = %q, want 0.0.0 default", filepath.Base(zipPath))
	}
}

func TestCompressReplacesExistingArchive(t *testing.T) {
	props := newProps(t, "1.0.0", map[string]string{"MyModule.psm1": "new\n"})
	stale := filepath.Join(props.DistPath, "MyModule-1.0.0.zip")
	if err := os.WriteFile(stale, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	zipPath, err := Compress(props, "MyModule")
	if err != nil {
		t.Fatalf("Compress over stale archive: %v", err)
	}
	if _, err := zip.OpenReader(zipPath); err != nil {
		t.Errorf("stale archive was not replaced: %v", err)
	}
}

func TestCompressWithoutStaging(t *testing.T) {
	props := newProps(t, "1.0.0", nil)

	_, err := Compress(props, "MyModule")
	var nf *psproj.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestExtractMissingArchive(t *testing.T) {
	err := Extract(filepath.Join(t.TempDir(), "nope.zip"), t.TempDir(), false)
	var nf *psproj.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestExtractReplace(t *testing.T) {
	props := newProps(t, "1.0.0", map[string]string{"MyModule.psm1": "x\n"})
	zipPath, err := Compress(props, "MyModule")
	if err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "mod")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	leftover := filepath.Join(dest, "old.ps1")
	if err := os.WriteFile(leftover, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Without replace, existing content is merged over.
	if err := Extract(zipPath, dest, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(leftover); err != nil {
		t.Error("merge extract must keep existing files")
	}

	// With replace, the destination is reset first.
	if err := Extract(zipPath, dest, true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("replace extract must delete existing destination")
	}
}

func TestLatest(t *testing.T) {
	dist := t.TempDir()
	for _, name := range []string{"MyModule-1.0.0.zip", "MyModule-1.2.0.zip", "Other-9.9.9.zip"} {
		if err := os.WriteFile(filepath.Join(dist, name), []byte("zip"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Latest(dist, "MyModule")
	if err != nil {
		t.Fatal(err)
	}
	// First match from the sorted directory listing wins.
	if filepath.Base(got) != "MyModule-1.0.0.zip" {
		t.Errorf("Latest = %q", got)
	}

	_, err = Latest(dist, "Missing")
	var nf *psproj.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}
