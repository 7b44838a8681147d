package daemon

import (
	"path/filepath"
	"time"
)

// SocketConfig locates the daemon's Unix socket and PID file under a
// data directory.
type SocketConfig struct {
	SocketPath          string
	PIDPath             string
	Timeout             time.Duration
	ShutdownGracePeriod time.Duration
}

// DefaultSocketConfig derives socket and PID file paths from dataDir
// (typically config.Config.DataDir).
func DefaultSocketConfig(dataDir string) SocketConfig {
	return SocketConfig{
		SocketPath:          filepath.Join(dataDir, "daemon.sock"),
		PIDPath:             filepath.Join(dataDir, "daemon.pid"),
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
}
