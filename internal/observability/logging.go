// Package observability wires structured logging for the CLI and server.
package observability

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// CLILogger is the process-wide logger. It defaults to a no-op logger
// until InitLogging runs, so packages can log unconditionally.
var CLILogger = zap.NewNop()

// LogConfig controls logger construction.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Profile selects the encoder: "structured" (JSON) or "console".
	Profile string

	// File, when set, additionally writes JSON logs to a rotating file.
	File string

	// MaxSizeMB caps a single log file before rotation. Zero means 100.
	MaxSizeMB int

	// MaxBackups is how many rotated files to keep. Zero means 3.
	MaxBackups int
}

// InitLogging builds the process logger and installs it as CLILogger.
func InitLogging(cfg LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEnc zapcore.Encoder
	switch strings.ToLower(cfg.Profile) {
	case "", "structured":
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEnc = zapcore.NewConsoleEncoder(devCfg)
	default:
		return nil, fmt.Errorf("unknown logging profile %q", cfg.Profile)
	}

	// Logs go to stderr; stdout is reserved for JSONL run records.
	cores = append(cores, zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level))

	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		maxBackups := cfg.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		rotating := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), rotating, level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	CLILogger = logger
	return logger, nil
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Sync flushes buffered log entries. Errors from stderr syncing are
// ignored; they are expected on some platforms.
func Sync() {
	_ = CLILogger.Sync()
}
