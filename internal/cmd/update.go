package cmd

import (
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/internal/observability"
	"github.com/XRay205/tarkov-data/internal/runstate"
	"github.com/XRay205/tarkov-data/pkg/extractor"
	"github.com/XRay205/tarkov-data/pkg/updater"
	"github.com/XRay205/tarkov-data/pkg/vcs"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the full game data update pipeline",
	Long: `Run the full update pipeline against the data repository.

The pipeline pulls the repository, logs in to the container registry,
extracts and decrypts game data with the extractor image, then commits
and pushes whatever changed. A clean tree skips the commit but the
push still runs so earlier unpushed commits land.

Example:
  tarkovsync update
  tarkovsync update --output update.jsonl`,
	RunE: runUpdate,
}

var updateOutput string

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVarP(&updateOutput, "output", "o", "", "Override output destination")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := acquireLock("update"); err != nil {
		return err
	}

	if cfg.Update.Image == "" {
		observability.CLILogger.Error("No extractor image configured")
		return exitError(foundry.ExitInvalidArgument, "No extractor image configured", nil)
	}

	jobID := uuid.New().String()

	writer, cleanup, err := createWriter(updateOutput, jobID, "update")
	if err != nil {
		observability.CLILogger.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	git := vcs.NewShellClient(cfg.Update.RepoDir)
	ext := extractor.NewDockerExtractor(cfg.Update.Image, cfg.Update.Registry)

	pipeline := updater.New(updater.Config{
		RepoDir:       cfg.Update.RepoDir,
		CacheDir:      cfg.Update.CacheDir,
		SecretsPath:   cfg.Update.SecretsPath,
		KeyPath:       cfg.Update.KeyPath,
		DecryptInput:  cfg.Update.DecryptInput,
		DecryptOutput: cfg.Update.DecryptOutput,
		DataPatterns:  cfg.Update.DataPatterns,
	}, git, ext, ext, writer, observability.CLILogger)

	observability.CLILogger.Info("Starting update",
		zap.String("job_id", jobID),
		zap.String("repo_dir", cfg.Update.RepoDir),
		zap.String("image", cfg.Update.Image))

	started := time.Now().UTC()
	result, runErr := pipeline.Run(ctx)

	run := &runstate.Run{
		Job:        "update",
		JobID:      jobID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Success:    runErr == nil,
	}
	if result != nil {
		run.CommitMessage = result.CommitMessage
		run.FilesChanged = result.FilesChanged
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	saveRunState(run)

	if runErr != nil {
		if ctx.Err() != nil {
			observability.CLILogger.Warn("Update cancelled", zap.String("job_id", jobID))
			return exitError(foundry.ExitSignalInt, "Update cancelled", runErr)
		}
		observability.CLILogger.Error("Update failed",
			zap.String("job_id", jobID),
			zap.Error(runErr))
		return exitError(foundry.ExitExternalServiceUnavailable, "Update failed", runErr)
	}

	observability.CLILogger.Info("Update completed",
		zap.String("job_id", jobID),
		zap.Int("files_changed", result.FilesChanged),
		zap.Bool("committed", result.Committed),
		zap.String("commit_message", result.CommitMessage),
		zap.Duration("duration", result.Duration))
	return nil
}
