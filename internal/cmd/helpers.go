package cmd

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/internal/observability"
	"github.com/XRay205/tarkov-data/internal/runstate"
	"github.com/XRay205/tarkov-data/pkg/output"
)

// createWriter creates an output writer for the given destination.
// Returns the writer, a cleanup function, and any error.
func createWriter(dest, jobID, job string) (output.Writer, func(), error) {
	if dest == "" || dest == "stdout" {
		w := output.NewJSONLWriter(os.Stdout, jobID, job)
		return w, func() { _ = w.Close() }, nil
	}

	// Handle file: prefix
	path := dest
	if strings.HasPrefix(dest, "file:") {
		path = strings.TrimPrefix(dest, "file:")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := output.NewJSONLWriter(f, jobID, job)
	cleanup := func() {
		_ = w.Close()
		_ = f.Close()
	}
	return w, cleanup, nil
}

// saveRunState persists the last-run summary. State is advisory, so a
// save failure is logged rather than failing the job.
func saveRunState(run *runstate.Run) {
	if err := runstate.Save(cfg.StateFile, run); err != nil {
		observability.CLILogger.Warn("Failed to save run state",
			zap.String("path", cfg.StateFile),
			zap.Error(err))
	}
}
