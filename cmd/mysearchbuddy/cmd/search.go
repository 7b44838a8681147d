package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DrDavidL/my-search-buddy/internal/daemon"
	"github.com/DrDavidL/my-search-buddy/internal/docmodel"
	"github.com/DrDavidL/my-search-buddy/internal/output"
	"github.com/DrDavidL/my-search-buddy/pkg/searcher"
)

func newSearchCmd() *cobra.Command {
	var (
		glob  string
		scope string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search filenames and sampled content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), glob, scope, limit)
		},
	}

	cmd.Flags().StringVar(&glob, "glob", "", "Restrict to paths matching this glob")
	cmd.Flags().StringVar(&scope, "scope", "both", "Search scope: name, content, or both")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, q, glob, scopeFlag string, limit int) error {
	out := output.New(cmd.OutOrStdout())

	scope, ok := docmodel.ParseScope(scopeFlag)
	if !ok {
		return fmt.Errorf("invalid --scope %q: must be name, content, or both", scopeFlag)
	}

	a, err := openApp(".")
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = a.Close() }()

	if client := daemon.NewClient(daemon.ClientConfig{SocketPath: daemon.DefaultSocketConfig(a.cfg.DataDir).SocketPath}); client.IsRunning() {
		hits, err := client.Search(ctx, daemon.SearchParams{Q: q, Glob: glob, Scope: scope.String(), Limit: limit})
		if err != nil {
			return err
		}
		return printDaemonHits(out, hits)
	}

	results, err := a.searcher.Search(ctx, searcher.Query{Q: q, Glob: glob, Scope: scope, Limit: int32(limit)})
	if err != nil {
		return err
	}
	return printHits(out, results.Hits)
}

func printHits(out *output.Writer, hits []docmodel.Hit) error {
	if len(hits) == 0 {
		out.Status(">", "no matches")
		return nil
	}
	for _, h := range hits {
		out.Statusf(">", "%.3f  %s", h.Score, h.Path)
	}
	return nil
}

func printDaemonHits(out *output.Writer, hits []daemon.SearchResult) error {
	if len(hits) == 0 {
		out.Status(">", "no matches")
		return nil
	}
	for _, h := range hits {
		out.Statusf(">", "%.3f  %s", h.Score, h.Path)
	}
	return nil
}
