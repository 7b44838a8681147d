package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DrDavidL/my-search-buddy/internal/logging"
	"github.com/DrDavidL/my-search-buddy/internal/profiling"
	"github.com/DrDavidL/my-search-buddy/pkg/version"
)

var (
	profileCPU     string
	profileMem     string
	profiler       = profiling.NewProfiler()
	cpuCleanup     func()
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the my-search-buddy CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "my-search-buddy",
		Short:   "Local incremental search over your files",
		Long:    `my-search-buddy indexes filenames and sampled file content on your machine and answers name/content searches without ever leaving it.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("my-search-buddy version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDaemonCmd())

	return cmd
}

func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}

	if debugMode {
		logCfg := logging.DefaultConfig(dir)
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
		logger, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled", slog.String("data_dir", dir))
	}

	if profileCPU != "" {
		cleanup, err := profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		cpuCleanup = cleanup
	}

	return nil
}

func stopProfilingAndLogging(*cobra.Command, []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
