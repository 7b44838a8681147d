package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DrDavidL/my-search-buddy/internal/crawl"
	"github.com/DrDavidL/my-search-buddy/internal/daemon"
	"github.com/DrDavidL/my-search-buddy/internal/output"
	"github.com/DrDavidL/my-search-buddy/internal/progress"
	"github.com/DrDavidL/my-search-buddy/internal/progressui"
)

func newIndexCmd() *cobra.Command {
	var (
		full  bool
		noTUI bool
	)

	cmd := &cobra.Command{
		Use:   "index [roots...]",
		Short: "Crawl and index the configured roots",
		Long: `Crawl the configured roots (or the paths given on the command line)
and build the filename and sampled-content index.

By default this runs an incremental crawl: only files that changed
since the last completed crawl are reindexed. Use --full to force a
complete rebuild of the recency-bucketed schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, args, full, noTUI)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Force a full crawl instead of incremental")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable the interactive progress display")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, args []string, full, noTUI bool) error {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(".")
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = a.Close() }()

	roots := args
	if len(roots) == 0 {
		roots = a.cfg.Roots
	}
	if len(roots) == 0 {
		cwd, _ := os.Getwd()
		roots = []string{cwd}
	}

	mode := crawl.ModeIncremental
	if full {
		mode = crawl.ModeFull
	}

	if client := daemon.NewClient(daemon.ClientConfig{SocketPath: daemon.DefaultSocketConfig(a.cfg.DataDir).SocketPath}); client.IsRunning() {
		out.Status(">", "delegating to running daemon")
		params := daemon.StartCrawlParams{Roots: roots, Mode: mode.String(), Phase: string(progress.PhaseInitial)}
		if err := client.StartCrawl(ctx, params); err != nil {
			return fmt.Errorf("failed to start crawl via daemon: %w", err)
		}
		out.Success("crawl started")
		return nil
	}

	renderer := progressui.NewRenderer(progressui.Config{
		Output:     cmd.OutOrStdout(),
		ForcePlain: noTUI,
		NoColor:    progressui.DetectNoColor(),
	})

	updates, unsubscribe := a.pipeline.Progress().Subscribe()
	defer unsubscribe()

	runErr := make(chan error, 1)
	go func() {
		runErr <- a.pipeline.Start(ctx, roots, mode, progress.PhaseInitial, false)
	}()

	if err := renderer.Run(a.pipeline.Progress().Snapshot(), updates); err != nil {
		return err
	}

	return <-runErr
}
