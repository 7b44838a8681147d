package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DrDavidL/my-search-buddy/internal/daemon"
	"github.com/DrDavidL/my-search-buddy/internal/logging"
	"github.com/DrDavidL/my-search-buddy/internal/output"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background indexing/query daemon",
		Long: `The daemon keeps the index open in memory and exposes the same
search and crawl-control operations as the CLI over a Unix socket, so
the CLI and any GUI shell can share one running index without
reopening it on every invocation.`,
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	var foreground bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonStart(cmd.Context(), cmd, foreground)
		},
	}

	cmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in the foreground instead of forking a background process")
	return cmd
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonStop(cmd)
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runDaemonStart(ctx context.Context, cmd *cobra.Command, foreground bool) error {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(".")
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	sockCfg := daemon.DefaultSocketConfig(a.cfg.DataDir)
	client := daemon.NewClient(daemon.ClientConfig{SocketPath: sockCfg.SocketPath})
	if client.IsRunning() {
		_ = a.Close()
		out.Status(">", "daemon is already running")
		return nil
	}

	if foreground {
		defer func() { _ = a.Close() }()

		logCfg := logging.DefaultConfig(a.cfg.DataDir)
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
		if logger, cleanup, err := logging.Setup(logCfg); err == nil {
			slog.SetDefault(logger)
			defer cleanup()
		}

		out.Status(">", fmt.Sprintf("starting daemon in foreground (socket: %s)", sockCfg.SocketPath))

		pidFile := daemon.NewPIDFile(sockCfg.PIDPath)
		if err := pidFile.Write(); err != nil {
			return fmt.Errorf("failed to write pid file: %w", err)
		}
		defer func() { _ = pidFile.Remove() }()

		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := daemon.NewServer(sockCfg.SocketPath, &daemon.Backend{
			Indexer:  a.indexer,
			Searcher: a.searcher,
			Pipeline: a.pipeline,
		})
		return server.ListenAndServe(runCtx)
	}

	_ = a.Close()

	out.Status(">", "starting daemon in background...")

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	bgCmd := exec.Command(execPath, "daemon", "start", "--foreground")
	bgCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := bgCmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if client.IsRunning() {
			out.Success(fmt.Sprintf("daemon started (pid: %d)", bgCmd.Process.Pid))
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

func runDaemonStop(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(".")
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	_ = a.Close()

	sockCfg := daemon.DefaultSocketConfig(a.cfg.DataDir)
	pidFile := daemon.NewPIDFile(sockCfg.PIDPath)

	if !pidFile.IsRunning() {
		out.Status(">", "daemon is not running")
		return nil
	}

	pid, err := pidFile.Read()
	if err != nil {
		return fmt.Errorf("failed to read pid: %w", err)
	}

	if err := pidFile.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	for i := 0; i < 100; i++ {
		time.Sleep(100 * time.Millisecond)
		if !pidFile.IsRunning() {
			out.Success(fmt.Sprintf("daemon stopped (was pid: %d)", pid))
			return nil
		}
	}

	out.Warning("daemon not responding, sending SIGKILL")
	if err := pidFile.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill daemon: %w", err)
	}
	out.Success("daemon killed")
	return nil
}

func runDaemonStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(".")
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	_ = a.Close()

	sockCfg := daemon.DefaultSocketConfig(a.cfg.DataDir)
	client := daemon.NewClient(daemon.ClientConfig{SocketPath: sockCfg.SocketPath})

	if !client.IsRunning() {
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(daemon.StatusResult{Running: false})
		}
		out.Status(">", "daemon is not running")
		return nil
	}

	status, err := client.Status(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	out.Statusf(">", "daemon running (pid: %d, uptime: %s)", status.PID, status.Uptime)
	out.Statusf(">", "crawl: running=%t phase=%s files_indexed=%d", status.CrawlIsRunning, status.CrawlPhase, status.FilesIndexed)
	return nil
}
