package progressui

import (
	"fmt"
	"io"

	"github.com/DrDavidL/my-search-buddy/internal/progress"
)

// PlainRenderer prints one line per progress update, for CI and pipes.
type PlainRenderer struct {
	out io.Writer
}

// NewPlainRenderer creates a line-oriented renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Run implements Renderer. It prints one line per update and returns
// as soon as a terminal (not-running) state arrives, since a crawl's
// broadcaster stays open for later crawls and never closes its
// subscriber channels on its own.
func (r *PlainRenderer) Run(initial progress.State, updates <-chan progress.State) error {
	r.print(initial)
	for st := range updates {
		r.print(st)
		if !st.IsRunning {
			return nil
		}
	}
	return nil
}

func (r *PlainRenderer) print(st progress.State) {
	if st.ErrorMessage != "" {
		fmt.Fprintf(r.out, "[%s] error: %s\n", st.Phase, st.ErrorMessage)
		return
	}
	if st.FilesEnumerated > 0 {
		fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", st.Phase, st.FilesIndexed, st.FilesEnumerated, st.StatusText)
		return
	}
	fmt.Fprintf(r.out, "[%s] %d indexed - %s\n", st.Phase, st.FilesIndexed, st.StatusText)
}
