// Package telemetry wires up the run's structured logger, grounded on
// the zap.NewProductionConfig()/zap.NewAtomicLevelAt() pattern the
// teacher's CLI entrypoint uses for its --verbose flag.
package telemetry

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production zap logger, dropping to debug level when
// verbose is set.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
