// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	buildModule string

	// buildCmd runs the full build pipeline for a project
	buildCmd = &cobra.Command{
		Use:   "build [path] [module]",
		Short: "Build the project into a release archive",
		Long: `Build the project into a release archive.

The build runs the project's test scripts, generates a module manifest,
stages the distributable files, and compresses them into a versioned zip
under the distribution directory. Any failing step aborts the build.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildModule, "module", "m", "", "module to package (default is the descriptor's root module)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := projectRoot(args)
	moduleName := buildModule
	if len(args) > 1 {
		moduleName = args[1]
	}

	p, err := newPipeline(root)
	if err != nil {
		return err
	}

	zipPath, err := p.Build(cmd.Context(), root, moduleName)
	if err != nil {
		return wrapRunError(err)
	}

	fmt.Printf("%s Built %s\n", SuccessStyle.Render("✓"), PathStyle.Render(zipPath))
	return nil
}
