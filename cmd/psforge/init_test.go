// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"psforge/internal/scaffold"
)

// promptCommand builds a throwaway command whose input is the given answer
// lines and whose output is discarded.
func promptCommand(answers ...string) *cobra.Command {
	c := &cobra.Command{}
	c.SetIn(strings.NewReader(strings.Join(answers, "\n") + "\n"))
	c.SetOut(&bytes.Buffer{})
	return c
}

func TestPromptForOptions(t *testing.T) {
	c := promptCommand(
		"MyModule",      // project name
		"2.0.0",         // version
		"Acme",          // company
		"A test module", // description
		"Alice, Bob",    // authors
		"lib",           // source folder
		"out",           // distribution folder
		"spec",          // tests folder
	)

	var opts scaffold.Options
	if err := promptForOptions(c, ".", &opts); err != nil {
		t.Fatalf("promptForOptions: %v", err)
	}

	if opts.ProjectName != "MyModule" {
		t.Errorf("ProjectName = %q", opts.ProjectName)
	}
	if opts.Version != "2.0.0" {
		t.Errorf("Version = %q", opts.Version)
	}
	if opts.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q", opts.CompanyName)
	}
	if opts.Description != "A test module" {
		t.Errorf("Description = %q", opts.Description)
	}
	if len(opts.Authors) != 2 || opts.Authors[0] != "Alice" || opts.Authors[1] != "Bob" {
		t.Errorf("Authors = %v", opts.Authors)
	}
	if opts.SrcDir != "lib" || opts.DistDir != "out" || opts.TestsDir != "spec" {
		t.Errorf("folders = %q/%q/%q, want lib/out/spec", opts.SrcDir, opts.DistDir, opts.TestsDir)
	}
}

func TestPromptForOptionsEmptyAnswersKeepDefaults(t *testing.T) {
	// Eight empty answers: every prompt falls back to its shown default.
	c := promptCommand("", "", "", "", "", "", "", "")

	var opts scaffold.Options
	if err := promptForOptions(c, "/some/ProjectDir", &opts); err != nil {
		t.Fatalf("promptForOptions: %v", err)
	}

	if opts.ProjectName != "ProjectDir" {
		t.Errorf("ProjectName = %q, want directory base name", opts.ProjectName)
	}
	if opts.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", opts.Version)
	}
	if opts.SrcDir != "src" || opts.DistDir != "dist" || opts.TestsDir != "tests" {
		t.Errorf("folders = %q/%q/%q, want src/dist/tests", opts.SrcDir, opts.DistDir, opts.TestsDir)
	}
	if opts.CompanyName != "" || opts.Description != "" || len(opts.Authors) != 0 {
		t.Errorf("optional fields should stay empty, got %q/%q/%v",
			opts.CompanyName, opts.Description, opts.Authors)
	}
}

func TestPromptForOptionsSkipsPresetFields(t *testing.T) {
	// Name and folders preset (as via flags): only version, company,
	// description, and authors are asked.
	c := promptCommand("3.1.4", "", "", "")

	opts := scaffold.Options{
		ProjectName: "Preset",
		SrcDir:      "lib",
		DistDir:     "out",
		TestsDir:    "spec",
	}
	if err := promptForOptions(c, ".", &opts); err != nil {
		t.Fatalf("promptForOptions: %v", err)
	}

	if opts.ProjectName != "Preset" {
		t.Errorf("ProjectName = %q, want preset value", opts.ProjectName)
	}
	if opts.Version != "3.1.4" {
		t.Errorf("Version = %q", opts.Version)
	}
	if opts.SrcDir != "lib" || opts.DistDir != "out" || opts.TestsDir != "spec" {
		t.Errorf("preset folders changed: %q/%q/%q", opts.SrcDir, opts.DistDir, opts.TestsDir)
	}
}
