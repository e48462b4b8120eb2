// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"psforge/internal/watch"
)

var (
	watchDebounceMS int
	watchClear      bool

	// watchCmd rebuilds the project whenever its sources change
	watchCmd = &cobra.Command{
		Use:   "watch [path]",
		Short: "Rebuild the project automatically on file changes",
		Long: `Rebuild the project automatically on file changes.

The project is built once immediately, then module files, scripts, and
the project descriptor are watched for changes. Rapid successive changes
are coalesced into a single rebuild. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().IntVar(&watchDebounceMS, "debounce", 0, "quiet period in milliseconds before rebuilding (default from config)")
	watchCmd.Flags().BoolVar(&watchClear, "clear", false, "clear the terminal before each rebuild")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := projectRoot(args)

	p, err := newPipeline(root)
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) {
		if _, buildErr := p.Build(ctx, root, ""); buildErr != nil {
			// Log but don't stop — the user may fix the error and save again.
			fmt.Fprintf(os.Stderr, "%s Build failed: %v\n", WarningStyle.Render("!"), buildErr)
		}
	}

	fmt.Printf("%s Initial build\n", PathStyle.Render("→"))
	rebuild(cmd.Context())
	fmt.Printf("\n%s Watching for changes (Ctrl+C to stop)...\n\n", PathStyle.Render("→"))

	debounceMS := watchDebounceMS
	if debounceMS <= 0 && cfg != nil {
		debounceMS = cfg.Watch.DebounceMS
	}

	w, err := watch.New(watch.Config{
		Debounce:    time.Duration(debounceMS) * time.Millisecond,
		ClearScreen: watchClear,
		BaseDir:     root,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Printf("%s Detected %d change(s). Rebuilding...\n", PathStyle.Render("→"), len(changed))
			rebuild(ctx)
			fmt.Printf("\n%s Watching for changes...\n\n", PathStyle.Render("→"))
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(cmd.Context())
}
