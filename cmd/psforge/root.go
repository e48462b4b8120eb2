// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for psforge.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"psforge/internal/config"
	"psforge/internal/issue"
	"psforge/internal/pipeline"
	"psforge/internal/registry"
	"psforge/internal/shell"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the loaded tool configuration, available to all commands after
	// cobra's initializers ran.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "psforge",
		Short: "A build orchestrator for script module projects",
		Long: TitleStyle.Render("psforge") + SubtitleStyle.Render(" - A build orchestrator for script module projects") + `

psforge turns a project of script module files into an installable
release archive. Projects are described by a 'psproj.json' descriptor
at the project root; psforge discovers the module files, runs the test
scripts, generates a module manifest, and packages everything into a
versioned zip under the distribution directory.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Scaffold a project with: psforge init
  2. Add module files (.psm1) under src/ and tests under tests/
  3. Build a release with: psforge build

` + SubtitleStyle.Render("Examples:") + `
  psforge build             Build the project in the current directory
  psforge test .            Run the test scripts without building
  psforge install           Install the latest archive into the modules dir
  psforge watch             Rebuild automatically on file changes`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <config-dir>/psforge/config.json)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(watchCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	loaded, err := config.Load()
	if err != nil {
		// Config problems must never block a build; warn and run on defaults.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		loaded = &config.Config{}
	}
	cfg = loaded

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}

// newLogger creates the step logger for pipeline runs. Verbose mode lowers
// the level so per-step debug output becomes visible.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "psforge",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newPipeline creates a Pipeline whose shell session is rooted at the given
// project directory.
func newPipeline(root string) (*pipeline.Pipeline, error) {
	session, err := shell.NewSession(shell.Options{Dir: root})
	if err != nil {
		return nil, err
	}
	reg := registry.NewShellRegistry(session)
	return pipeline.New(reg, session, newLogger()), nil
}

// projectRoot returns the project directory from the command args, defaulting
// to the current directory.
func projectRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// wrapRunError renders the issue-catalog help for classified errors and
// converts test-script exit statuses into matching process exit codes.
func wrapRunError(err error) error {
	if err == nil {
		return nil
	}

	if iss := issue.FromError(err); iss != nil {
		if rendered, renderErr := iss.Render("dark"); renderErr == nil {
			fmt.Fprint(os.Stderr, rendered)
		}
	}

	var shellErr *shell.ExitError
	if errors.As(err, &shellErr) {
		return &ExitError{Code: shellErr.Code, Err: err}
	}
	return err
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
