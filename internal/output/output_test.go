package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Status(">", "checking index")
	output := buf.String()
	assert.Contains(t, output, ">")
	assert.Contains(t, output, "checking index")
}

func TestWriter_Success_PrintsCheckmark(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Success("index complete")
	output := buf.String()
	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "index complete")
}

func TestWriter_Warning_PrintsWarningIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Warning("index stale")
	assert.Contains(t, buf.String(), "index stale")
}

func TestWriter_Error_PrintsErrorIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Error("failed to connect")
	output := buf.String()
	assert.Contains(t, output, "x")
	assert.Contains(t, output, "failed to connect")
}

func TestWriter_Progress_PrintsProgressBar(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Progress(50, 100, "indexing files")
	output := buf.String()
	assert.Contains(t, output, "50%")
	assert.Contains(t, output, "indexing files")
}

func TestWriter_Progress_ZeroTotal_NoOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	assert.NotPanics(t, func() { w.Progress(0, 0, "processing") })
	assert.Empty(t, buf.String())
}

func TestWriter_Statusf_FormatsMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Statusf(">", "found %d files in %s", 42, "/path/to/root")
	assert.Contains(t, buf.String(), "found 42 files in /path/to/root")
}

func TestProgressBar_Render(t *testing.T) {
	tests := []struct {
		name             string
		current, total   int
		width, wantFull  int
	}{
		{"0 percent", 0, 100, 10, 0},
		{"50 percent", 50, 100, 10, 5},
		{"100 percent", 100, 100, 10, 10},
		{"25 percent", 25, 100, 20, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(tt.current, tt.total, tt.width)
			assert.Equal(t, tt.wantFull, strings.Count(bar, "█"))
			assert.Equal(t, tt.width, len([]rune(bar)))
		})
	}
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)
	w.Newline()
	assert.Equal(t, "\n", buf.String())
}
