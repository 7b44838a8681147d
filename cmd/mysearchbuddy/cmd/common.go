package cmd

import (
	"github.com/DrDavidL/my-search-buddy/internal/config"
)

// dataDir loads configuration for the current directory and returns
// the data directory used for logs, the daemon socket, and profiling
// output.
func dataDir() (string, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return "", err
	}
	return cfg.DataDir, nil
}
