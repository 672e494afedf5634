package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/XRay205/tarkov-data/internal/cmd"
)

// Set by the linker at release time.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := cmd.Execute(ctx)
	stop()
	os.Exit(code)
}
