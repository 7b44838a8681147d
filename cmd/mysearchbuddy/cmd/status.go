package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DrDavidL/my-search-buddy/internal/daemon"
	"github.com/DrDavidL/my-search-buddy/internal/progressui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and crawl status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	a, err := openApp(".")
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = a.Close() }()

	renderer := progressui.NewStatusRenderer(cmd.OutOrStdout(), progressui.DetectNoColor())

	client := daemon.NewClient(daemon.ClientConfig{SocketPath: daemon.DefaultSocketConfig(a.cfg.DataDir).SocketPath})
	if client.IsRunning() {
		st, err := client.Status(ctx)
		if err != nil {
			return err
		}
		info := progressui.StatusInfo{
			CrawlRunning:   st.CrawlIsRunning,
			CrawlPhase:     st.CrawlPhase,
			DaemonRunning:  true,
			QueryCount:     st.QueryCount,
			QueryP95Millis: st.QueryP95Millis,
		}
		if st.LastCompletedAt != "" {
			if t, err := time.Parse(time.RFC3339, st.LastCompletedAt); err == nil {
				info.LastCompletedAt = t
			}
		}
		stats, err := a.indexer.Stats()
		if err == nil {
			info.DocumentCount = stats.DocumentCount
		}
		if jsonOutput {
			return renderer.RenderJSON(info)
		}
		return renderer.Render(info)
	}

	stats, err := a.indexer.Stats()
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	snap := a.pipeline.Progress().Snapshot()
	telemetry := a.searcher.Telemetry()
	info := progressui.StatusInfo{
		DocumentCount:   stats.DocumentCount,
		CrawlRunning:    snap.IsRunning,
		CrawlPhase:      string(snap.Phase),
		LastCompletedAt: snap.LastCompletedAt,
		DaemonRunning:   false,
		QueryCount:      telemetry.Count,
		QueryP95Millis:  telemetry.P95Millis,
	}

	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}
