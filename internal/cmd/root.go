// Package cmd implements the tarkovsync command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/internal/config"
	"github.com/XRay205/tarkov-data/internal/observability"
	"github.com/XRay205/tarkov-data/pkg/runguard"
)

var rootCmd = &cobra.Command{
	Use:   "tarkovsync",
	Short: "Sync Escape from Tarkov game data to a git repository",
	Long: `tarkovsync automates periodic retrieval and redistribution of game data.

It downloads client binaries from the distribution CDN, drives the
containerized extraction tool against a git working tree, captures
live API responses, and publishes the results.

Each job takes a per-job lock so overlapping scheduled runs exit
cleanly instead of corrupting shared state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionInfo holds build metadata injected by the linker via main.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata for the version command and
// the status server.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	cfgPath string
	cfg     *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (default: ./tarkovsync.yaml)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return exitError(1, "Invalid configuration", err)
		}

		_, err = observability.InitLogging(observability.LogConfig{
			Level:      cfg.Logging.Level,
			Profile:    cfg.Logging.Profile,
			File:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return exitError(1, "Invalid logging configuration", err)
		}
		return nil
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	defer observability.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

// acquireLock takes the per-job run lock. A live holder is not an
// error condition worth a stack trace: scheduled runs overlap by
// design and the late one simply leaves.
func acquireLock(jobName string) error {
	guard := runguard.New(cfg.Lock.Dir)
	if _, err := guard.Acquire(jobName); err != nil {
		if errors.Is(err, runguard.ErrAlreadyRunning) {
			observability.CLILogger.Warn("Still running, exiting",
				zap.String("job", jobName))
			return exitError(1, "Still running", err)
		}
		return exitError(1, "Failed to take run lock", err)
	}
	return nil
}
