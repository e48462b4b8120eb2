// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"psforge/internal/config"
)

var (
	installModulesDir string

	// installCmd extracts the latest release archive into the modules directory
	installCmd = &cobra.Command{
		Use:   "install [path] [modules-dir]",
		Short: "Install the latest release archive into the modules directory",
		Long: `Install the latest release archive into the modules directory.

The most recent archive in the project's distribution directory is
extracted into <modules-dir>/<module>, replacing any prior install of
the same module. The project must have been built first.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runInstall,
	}
)

func init() {
	installCmd.Flags().StringVarP(&installModulesDir, "modules-dir", "d", "", "install target (default is the configured modules directory)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	root := projectRoot(args)

	modulesDir := installModulesDir
	if len(args) > 1 {
		modulesDir = args[1]
	}
	if modulesDir == "" && cfg != nil {
		modulesDir = cfg.ModulesDir
	}
	if modulesDir == "" {
		fallback, err := config.DefaultModulesDir()
		if err != nil {
			return err
		}
		modulesDir = fallback
	}

	p, err := newPipeline(root)
	if err != nil {
		return err
	}

	target, err := p.Install(cmd.Context(), root, modulesDir)
	if err != nil {
		return wrapRunError(err)
	}

	fmt.Printf("%s Installed to %s\n", SuccessStyle.Render("✓"), PathStyle.Render(target))
	return nil
}
