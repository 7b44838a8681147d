package progressui

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTTY_NonFileWriter(t *testing.T) {
	var buf writerOnly
	assert.False(t, IsTTY(buf))
}

type writerOnly struct{}

func (writerOnly) Write(p []byte) (int, error) { return len(p), nil }

func TestDetectCI_Unset(t *testing.T) {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		_ = os.Unsetenv(v)
	}
	assert.False(t, DetectCI())
}

func TestDetectCI_Set(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "1h 5m", formatDuration(65*time.Minute))
}
