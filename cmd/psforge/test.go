// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// testCmd runs the project's test scripts without building
var testCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Run the project's test scripts",
	Long: `Run the project's test scripts without building.

All module files under the source directory are sourced into the active
environment, then every test script (*.Tests.ps1) in the tests directory
runs against them. Modules loaded for the run are unloaded afterwards,
whether the scripts pass or fail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	root := projectRoot(args)

	p, err := newPipeline(root)
	if err != nil {
		return err
	}

	if err := p.Test(cmd.Context(), root); err != nil {
		return wrapRunError(err)
	}

	fmt.Printf("%s Tests passed\n", SuccessStyle.Render("✓"))
	return nil
}
