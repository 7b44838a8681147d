package progressui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRenderer_Render(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	err := r.Render(StatusInfo{
		DocumentCount:   1234,
		IndexSizeBytes:  5 * 1024 * 1024,
		CrawlRunning:    true,
		CrawlPhase:      "background",
		LastCompletedAt: time.Now().Add(-2 * time.Hour),
		DaemonRunning:   true,
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "1234")
	assert.Contains(t, output, "5.0 MB")
	assert.Contains(t, output, "background")
}

func TestStatusRenderer_Render_QueryTelemetry(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.Render(StatusInfo{QueryCount: 42, QueryP95Millis: 12.5}))
	assert.Contains(t, buf.String(), "42")
	assert.Contains(t, buf.String(), "12.5ms")
}

func TestStatusRenderer_Render_Idle(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.Render(StatusInfo{}))
	assert.Contains(t, buf.String(), "idle")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.RenderJSON(StatusInfo{DocumentCount: 7}))
	assert.Contains(t, buf.String(), `"document_count": 7`)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.0 MB", FormatBytes(1024*1024))
	assert.Equal(t, "1.0 GB", FormatBytes(1024*1024*1024))
}
