package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/internal/observability"
	"github.com/XRay205/tarkov-data/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the status HTTP server",
	Long: `Run the HTTP server exposing health, version, and last-run status.

The server reads the run state file written by the job commands; it
never runs jobs itself.

Example:
  tarkovsync serve
  tarkovsync serve --port 9090`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override listen host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	srv := server.New(server.Config{
		Host:            host,
		Port:            port,
		StateFile:       cfg.StateFile,
		Version:         server.VersionInfo{Version: versionInfo.Version, Commit: versionInfo.Commit, BuildDate: versionInfo.BuildDate},
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, observability.CLILogger)

	if err := srv.Start(cmd.Context()); err != nil {
		observability.CLILogger.Error("Server failed", zap.Error(err))
		return exitError(1, "Server failed", err)
	}
	return nil
}
