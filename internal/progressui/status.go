package progressui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo summarizes index and crawl health for the "status" command.
type StatusInfo struct {
	DocumentCount   uint64    `json:"document_count"`
	IndexSizeBytes  int64     `json:"index_size_bytes"`
	CrawlRunning    bool      `json:"crawl_running"`
	CrawlPhase      string    `json:"crawl_phase"`
	LastCompletedAt time.Time `json:"last_completed_at"`
	DaemonRunning   bool      `json:"daemon_running"`
	QueryCount      int       `json:"query_count"`
	QueryP95Millis  float64   `json:"query_p95_millis"`
}

// StatusRenderer prints a StatusInfo to the terminal.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer builds a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render prints a human-readable summary.
func (r *StatusRenderer) Render(info StatusInfo) error {
	fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status"))
	fmt.Fprintf(r.out, "  Documents:  %d\n", info.DocumentCount)
	fmt.Fprintf(r.out, "  Index size: %s\n", FormatBytes(info.IndexSizeBytes))
	if !info.LastCompletedAt.IsZero() {
		fmt.Fprintf(r.out, "  Last crawl: %s\n", formatDuration(time.Since(info.LastCompletedAt))+" ago")
	}
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  Crawl:  %s\n", r.renderState(info.CrawlRunning, info.CrawlPhase))
	fmt.Fprintf(r.out, "  Daemon: %s\n", r.renderState(info.DaemonRunning, ""))
	if info.QueryCount > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintf(r.out, "  Queries: %d (p95 %.1fms)\n", info.QueryCount, info.QueryP95Millis)
	}
	return nil
}

// RenderJSON prints info as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func (r *StatusRenderer) renderState(running bool, phase string) string {
	if !running {
		return r.styles.Dim.Render("idle")
	}
	label := "running"
	if phase != "" {
		label = phase
	}
	return r.styles.Success.Render(label)
}

// FormatBytes renders a byte count in human-friendly units.
func FormatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
