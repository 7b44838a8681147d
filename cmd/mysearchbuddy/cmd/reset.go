package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DrDavidL/my-search-buddy/internal/daemon"
	"github.com/DrDavidL/my-search-buddy/internal/output"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the index and dedup state, then start a full crawl",
		Long: `Reset closes the index, deletes it and the identity/dedup cache from
disk, reinitializes an empty index, and starts a full crawl of the
configured roots.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd.Context(), cmd, yes)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

func runReset(ctx context.Context, cmd *cobra.Command, yes bool) error {
	out := output.New(cmd.OutOrStdout())

	if !yes {
		out.Warning("this deletes the existing index and dedup cache; rerun with --yes to proceed")
		return nil
	}

	a, err := openApp(".")
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	roots := a.cfg.Roots
	if len(roots) == 0 {
		cwd, _ := os.Getwd()
		roots = []string{cwd}
	}

	if client := daemon.NewClient(daemon.ClientConfig{SocketPath: daemon.DefaultSocketConfig(a.cfg.DataDir).SocketPath}); client.IsRunning() {
		_ = a.Close()
		params := daemon.StartCrawlParams{Roots: roots, Mode: "full"}
		if err := client.ResetAndStart(ctx, params); err != nil {
			return fmt.Errorf("failed to reset via daemon: %w", err)
		}
		out.Success("index reset, full crawl started")
		return nil
	}

	a.pipeline.Cancel()
	if err := a.indexer.Reset(); err != nil {
		_ = a.Close()
		return fmt.Errorf("failed to reset index: %w", err)
	}
	if err := a.Close(); err != nil {
		return fmt.Errorf("failed to close index after reset: %w", err)
	}

	out.Success("index reset")
	return runIndex(ctx, cmd, roots, true, false)
}
