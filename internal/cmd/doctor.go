package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/internal/observability"
	"github.com/XRay205/tarkov-data/pkg/preflight"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Check that the host can actually run sync jobs.

Verifies the external binaries, directories, and credential files that
the update pipeline depends on, without starting a job.

Example:
  tarkovsync doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	observability.CLILogger.Info("=== tarkovsync doctor ===")
	observability.CLILogger.Info("")
	observability.CLILogger.Info("Running diagnostic checks...")
	observability.CLILogger.Info("")

	observability.CLILogger.Info(fmt.Sprintf("Environment: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
		zap.String("go_version", runtime.Version()),
		zap.String("os", runtime.GOOS),
		zap.String("arch", runtime.GOARCH))

	results := preflight.Run(preflight.Spec{
		LockDir:     cfg.Lock.Dir,
		CacheDir:    cfg.CDN.CacheDir,
		RepoDir:     cfg.Update.RepoDir,
		SecretsPath: cfg.Update.SecretsPath,
		KeyPath:     cfg.Update.KeyPath,
	})

	for i, r := range results {
		label := fmt.Sprintf("[%d/%d] %s %s", i+1, len(results), r.Check, r.Target)
		if r.OK {
			detail := ""
			if r.Detail != "" {
				detail = " (" + r.Detail + ")"
			}
			observability.CLILogger.Info(label+"... ok"+detail,
				zap.String("check", r.Check),
				zap.String("target", r.Target))
		} else {
			observability.CLILogger.Warn(label+"... failed: "+r.Detail,
				zap.String("check", r.Check),
				zap.String("target", r.Target),
				zap.String("detail", r.Detail))
		}
	}

	observability.CLILogger.Info("")
	if !preflight.AllOK(results) {
		observability.CLILogger.Warn("Some checks failed. Review the output above for details.")
		return exitError(foundry.ExitExternalServiceUnavailable, "Environment checks failed", nil)
	}
	observability.CLILogger.Info("All checks passed.")
	observability.CLILogger.Info("=== End Diagnostics ===")
	return nil
}
