package cmd

import (
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/internal/observability"
	"github.com/XRay205/tarkov-data/internal/runstate"
	"github.com/XRay205/tarkov-data/pkg/manifest"
	"github.com/XRay205/tarkov-data/pkg/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture backend data snapshots over the launcher API",
	Long: `Log in through the launcher API and capture backend endpoints
to pretty-printed JSON files.

Credentials come from the secrets file unless overridden with flags.
A hardware code is generated on first use and persisted per account,
so activation only has to happen once per machine.

Example:
  tarkovsync snapshot
  tarkovsync snapshot --email me@example.com --password hunter2`,
	RunE: runSnapshot,
}

var (
	snapshotEmail    string
	snapshotPassword string
	snapshotOutput   string
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapshotEmail, "email", "", "Account email (defaults to secrets file)")
	snapshotCmd.Flags().StringVar(&snapshotPassword, "password", "", "Account password (defaults to secrets file)")
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "Override output destination")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := acquireLock("snapshot"); err != nil {
		return err
	}

	email, password := snapshotEmail, snapshotPassword
	if email == "" || password == "" {
		secrets, err := manifest.LoadSecrets(cfg.Update.SecretsPath)
		if err != nil {
			observability.CLILogger.Error("Failed to load secrets",
				zap.String("path", cfg.Update.SecretsPath),
				zap.Error(err))
			return exitError(foundry.ExitInvalidArgument, "No account credentials available", err)
		}
		if email == "" {
			email = secrets.Email
		}
		if password == "" {
			password = secrets.Password
		}
	}

	launcher, err := snapshot.NewLauncher(email, password, snapshot.LauncherConfig{
		StorageDir: cfg.Snapshot.StorageDir,
	})
	if err != nil {
		observability.CLILogger.Error("Failed to initialize launcher client", zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid account credentials", err)
	}

	jobID := uuid.New().String()

	writer, cleanup, err := createWriter(snapshotOutput, jobID, "snapshot")
	if err != nil {
		observability.CLILogger.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	snapper := snapshot.NewSnapshotter(launcher, snapshot.SnapshotterConfig{
		OutDir:    cfg.Snapshot.OutDir,
		RateLimit: cfg.Snapshot.RateLimit,
	}, writer, observability.CLILogger)

	observability.CLILogger.Info("Starting snapshot",
		zap.String("job_id", jobID),
		zap.String("out_dir", cfg.Snapshot.OutDir))

	started := time.Now().UTC()
	sum, runErr := snapper.Run(ctx)
	if sum == nil {
		sum = &snapshot.Summary{}
	}

	run := &runstate.Run{
		Job:        "snapshot",
		JobID:      jobID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Success:    runErr == nil,
		Bytes:      sum.Bytes,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	saveRunState(run)

	if runErr != nil {
		if ctx.Err() != nil {
			observability.CLILogger.Warn("Snapshot cancelled", zap.String("job_id", jobID))
			return exitError(foundry.ExitSignalInt, "Snapshot cancelled", runErr)
		}
		observability.CLILogger.Error("Snapshot failed",
			zap.String("job_id", jobID),
			zap.Error(runErr))
		return exitError(foundry.ExitExternalServiceUnavailable, "Snapshot failed", runErr)
	}

	observability.CLILogger.Info("Snapshot completed",
		zap.String("job_id", jobID),
		zap.Int("captured", sum.Captured),
		zap.Int("failed", sum.Failed),
		zap.Int64("bytes", sum.Bytes),
		zap.Duration("duration", sum.Duration))
	return nil
}
