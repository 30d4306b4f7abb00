// Package logging sets up the optional file-based debug logger. Nothing is
// ever written to the terminal: it belongs to the rendering surface.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup returns the application logger and a close function. With debug
// disabled the logger is a no-op. With debug enabled log lines go to
// <cwd>/logs/parallely-<date>.log, one file per day.
func Setup(debug bool) (*zap.Logger, func() error, error) {
	if !debug {
		return zap.NewNop(), func() error { return nil }, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("logging setup: %w", err)
	}
	dir := filepath.Join(cwd, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging setup: %w", err)
	}
	name := fmt.Sprintf("parallely-%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging setup: %w", err)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(file),
		zap.DebugLevel,
	)
	logger := zap.New(core)
	closeFn := func() error {
		_ = logger.Sync()
		return file.Close()
	}
	return logger, closeFn, nil
}
