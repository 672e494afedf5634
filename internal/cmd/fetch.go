package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/internal/observability"
	"github.com/XRay205/tarkov-data/internal/runstate"
	"github.com/XRay205/tarkov-data/pkg/fetch"
	"github.com/XRay205/tarkov-data/pkg/manifest"
	"github.com/XRay205/tarkov-data/pkg/mirror"
	"github.com/XRay205/tarkov-data/pkg/output"
	"github.com/XRay205/tarkov-data/pkg/provider"
	filestore "github.com/XRay205/tarkov-data/pkg/provider/file"
	"github.com/XRay205/tarkov-data/pkg/provider/s3"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download client binaries from the distribution CDN",
	Long: `Download the current client binaries into the local cache.

The version manifest names the unpacked client path on the CDN; the
configured assets are downloaded from there and overwrite the cached
copies atomically.

Example:
  tarkovsync fetch
  tarkovsync fetch --manifest current_version.json
  tarkovsync fetch --output fetch.jsonl`,
	RunE: runFetch,
}

var (
	fetchManifestPath string
	fetchOutput       string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchManifestPath, "manifest", "m", "", "Override version manifest path")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Override output destination")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := acquireLock("fetch"); err != nil {
		return err
	}

	manifestPath := cfg.CDN.ManifestPath
	if fetchManifestPath != "" {
		manifestPath = fetchManifestPath
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		observability.CLILogger.Error("Failed to load version manifest",
			zap.String("path", manifestPath),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid version manifest", err)
	}

	jobID := uuid.New().String()

	writer, cleanup, err := createWriter(fetchOutput, jobID, "fetch")
	if err != nil {
		observability.CLILogger.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	fetcher := fetch.New(fetch.Config{
		CDNHost:   cfg.CDN.Host,
		CacheDir:  cfg.CDN.CacheDir,
		Assets:    cfg.CDN.Assets,
		RateLimit: cfg.CDN.RateLimit,
	})

	observability.CLILogger.Info("Starting fetch",
		zap.String("job_id", jobID),
		zap.String("unpacked_uri", m.UnpackedURI))

	started := time.Now().UTC()
	sum, fetchErr := fetcher.Fetch(ctx, m)
	if sum == nil {
		sum = &fetch.Summary{}
	}

	for _, file := range sum.Files {
		if werr := writer.WriteAsset(ctx, &output.AssetRecord{
			Name:  file.Name,
			URL:   file.URL,
			Bytes: file.Bytes,
		}); werr != nil {
			observability.CLILogger.Warn("Failed to write asset record", zap.Error(werr))
		}
	}
	if fetchErr != nil {
		if werr := writer.WriteError(ctx, &output.ErrorRecord{
			Code:    output.ErrCodeTransfer,
			Message: fetchErr.Error(),
		}); werr != nil {
			observability.CLILogger.Warn("Failed to write error record", zap.Error(werr))
		}
	}
	if werr := writer.WriteSummary(ctx, &output.SummaryRecord{
		StepsRun:      len(sum.Files),
		Bytes:         sum.Bytes,
		Duration:      sum.Duration,
		DurationHuman: sum.Duration.Round(time.Millisecond).String(),
	}); werr != nil {
		observability.CLILogger.Warn("Failed to write summary record", zap.Error(werr))
	}

	run := &runstate.Run{
		Job:        "fetch",
		JobID:      jobID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Success:    fetchErr == nil,
		Bytes:      sum.Bytes,
	}
	if fetchErr != nil {
		run.Error = fetchErr.Error()
	}
	saveRunState(run)

	if fetchErr != nil {
		if ctx.Err() != nil {
			observability.CLILogger.Warn("Fetch cancelled", zap.String("job_id", jobID))
			return exitError(foundry.ExitSignalInt, "Fetch cancelled", fetchErr)
		}
		observability.CLILogger.Error("Fetch failed",
			zap.String("job_id", jobID),
			zap.Error(fetchErr))
		return exitError(foundry.ExitExternalServiceUnavailable, "Fetch failed", fetchErr)
	}

	observability.CLILogger.Info("Fetch completed",
		zap.String("job_id", jobID),
		zap.Int("files", len(sum.Files)),
		zap.Int64("bytes", sum.Bytes),
		zap.Duration("duration", sum.Duration))

	if cfg.Mirror.Enabled {
		if err := mirrorAssets(ctx, sum); err != nil {
			observability.CLILogger.Error("Mirror upload failed", zap.Error(err))
			return exitError(foundry.ExitExternalServiceUnavailable, "Mirror upload failed", err)
		}
	}

	return nil
}

// mirrorAssets republishes the fetched files to the configured store.
func mirrorAssets(ctx context.Context, sum *fetch.Summary) error {
	store, err := createStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	names := make([]string, 0, len(sum.Files))
	for _, file := range sum.Files {
		names = append(names, file.Name)
	}

	m := mirror.New(store, cfg.Mirror.Prefix, observability.CLILogger)
	mirrorSum, err := m.Upload(ctx, cfg.CDN.CacheDir, names)
	if err != nil {
		return err
	}

	observability.CLILogger.Info("Mirror upload completed",
		zap.Int("uploaded", mirrorSum.Uploaded),
		zap.Int("skipped", mirrorSum.Skipped),
		zap.Int64("bytes", mirrorSum.Bytes))
	return nil
}

// createStore builds the mirror store from configuration.
func createStore(ctx context.Context) (provider.Store, error) {
	switch cfg.Mirror.Target {
	case "file":
		return filestore.New(filestore.Config{BaseDir: cfg.Mirror.BaseDir})
	default:
		return s3.New(ctx, s3.Config{
			Bucket:   cfg.Mirror.Bucket,
			Region:   cfg.Mirror.Region,
			Endpoint: cfg.Mirror.Endpoint,
			Profile:  cfg.Mirror.Profile,
			// Force path-style URLs when custom endpoint is set.
			// S3-compatible services (MinIO, etc.) require this.
			ForcePathStyle: cfg.Mirror.ForcePathStyle || cfg.Mirror.Endpoint != "",
		})
	}
}
