package commands

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/diogo/compliancegen/internal/config"
)

// newLogger writes JSON logs to the log file in the config directory.
// Verbose adds debug entries, mirrored to stderr unless the TUI owns the terminal.
func newLogger(verbose, interactive bool) (*zap.Logger, error) {
	if _, err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	logPath, err := config.GetLogPath()
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		if !interactive {
			cfg.OutputPaths = append(cfg.OutputPaths, "stderr")
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
