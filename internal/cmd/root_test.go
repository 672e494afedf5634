package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
)

func TestSetVersionInfo(t *testing.T) {
	// Save original values
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2026-08-30",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
		})
	}
}

func TestExitError(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := exitError(foundry.ExitInvalidArgument, "Invalid input", cause)

		assert.EqualError(t, err, "Invalid input: boom")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("without cause", func(t *testing.T) {
		err := exitError(foundry.ExitInvalidArgument, "No extractor image configured", nil)
		assert.EqualError(t, err, "No extractor image configured")
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "coded error",
			err:  exitError(foundry.ExitExternalServiceUnavailable, "Fetch failed", errors.New("timeout")),
			want: foundry.ExitExternalServiceUnavailable,
		},
		{
			name: "wrapped coded error",
			err:  fmt.Errorf("run: %w", exitError(foundry.ExitFileWriteError, "Failed to create output", errors.New("denied"))),
			want: foundry.ExitFileWriteError,
		},
		{
			name: "plain error defaults to 1",
			err:  errors.New("boom"),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
