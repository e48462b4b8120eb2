// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"psforge/internal/scaffold"
)

var (
	initForce bool
	initYes   bool
	initOpts  scaffold.Options

	// initCmd scaffolds a new project
	initCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Scaffold a new project in the given directory",
		Long: `Scaffold a new project in the given directory (default: current directory).

This command writes a psproj.json descriptor and creates the source,
distribution, and tests directories. Values not passed as flags are
asked for interactively; --yes accepts the defaults for all of them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().StringVar(&initOpts.ProjectName, "name", "", "project name (default is the directory name)")
	initCmd.Flags().StringVar(&initOpts.CompanyName, "company", "", "company name for the module manifest")
	initCmd.Flags().StringVar(&initOpts.Version, "version", "", "initial project version (default 1.0.0)")
	initCmd.Flags().StringVar(&initOpts.Description, "description", "", "project description")
	initCmd.Flags().StringSliceVar(&initOpts.Authors, "author", nil, "project author (repeatable)")
	initCmd.Flags().StringVar(&initOpts.SrcDir, "src", "", "source folder name (default src)")
	initCmd.Flags().StringVar(&initOpts.DistDir, "dist", "", "distribution folder name (default dist)")
	initCmd.Flags().StringVar(&initOpts.TestsDir, "tests", "", "tests folder name (default tests)")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "accept defaults without prompting")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing descriptor")
}

func runInit(cmd *cobra.Command, args []string) error {
	root := projectRoot(args)

	opts := initOpts
	opts.Force = initForce

	if !initYes {
		if err := promptForOptions(cmd, root, &opts); err != nil {
			return err
		}
	}
	opts.ApplyDefaults(root)

	descPath, err := scaffold.Generate(root, opts)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists. Use --force to overwrite", descPath)
		}
		return wrapRunError(err)
	}

	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), PathStyle.Render(descPath))
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Printf("  1. Add module files (.psm1) under %s/\n", opts.SrcDir)
	fmt.Printf("  2. Add test scripts (*.Tests.ps1) under %s/\n", opts.TestsDir)
	fmt.Println("  3. Run 'psforge build' to produce a release archive")

	return nil
}

// promptForOptions asks for the descriptor fields that were not passed as
// flags. An empty answer keeps the shown default.
func promptForOptions(cmd *cobra.Command, root string, opts *scaffold.Options) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	defaultName := opts.ProjectName
	if defaultName == "" {
		if abs, err := filepath.Abs(root); err == nil {
			defaultName = filepath.Base(abs)
		}
	}

	var err error
	if opts.ProjectName == "" {
		opts.ProjectName, err = prompt(out, reader, "Project name", defaultName)
		if err != nil {
			return err
		}
	}
	if opts.Version == "" {
		opts.Version, err = prompt(out, reader, "Version", "1.0.0")
		if err != nil {
			return err
		}
	}
	if opts.CompanyName == "" {
		opts.CompanyName, err = prompt(out, reader, "Company", "")
		if err != nil {
			return err
		}
	}
	if opts.Description == "" {
		opts.Description, err = prompt(out, reader, "Description", "")
		if err != nil {
			return err
		}
	}
	if len(opts.Authors) == 0 {
		authors, err := prompt(out, reader, "Authors (comma-separated)", "")
		if err != nil {
			return err
		}
		for _, a := range strings.Split(authors, ",") {
			if a = strings.TrimSpace(a); a != "" {
				opts.Authors = append(opts.Authors, a)
			}
		}
	}
	if opts.SrcDir == "" {
		opts.SrcDir, err = prompt(out, reader, "Source folder", "src")
		if err != nil {
			return err
		}
	}
	if opts.DistDir == "" {
		opts.DistDir, err = prompt(out, reader, "Distribution folder", "dist")
		if err != nil {
			return err
		}
	}
	if opts.TestsDir == "" {
		opts.TestsDir, err = prompt(out, reader, "Tests folder", "tests")
		if err != nil {
			return err
		}
	}
	return nil
}

// prompt prints a styled question and reads one line. EOF counts as an empty
// answer so init keeps working with piped input.
func prompt(out io.Writer, reader *bufio.Reader, question, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(out, "%s %s: ", TitleStyle.Render(question), SubtitleStyle.Render("("+fallback+")"))
	} else {
		fmt.Fprintf(out, "%s: ", TitleStyle.Render(question))
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback, nil
	}
	return line, nil
}
