package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/notification-sync/internal/model"
)

// ParseLevel maps a config level name to a zap level, defaulting to info.
func ParseLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// encoder returns a JSON encoder for "json" and a console encoder otherwise.
func encoder(format string) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
}

// NewFile builds a logger that writes to a size-rotated file. The
// terminal client uses it because stdout belongs to the UI.
func NewFile(cfg model.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("log.file is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	})

	core := zapcore.NewCore(encoder(cfg.Format), sink, ParseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller()), nil
}

// NewConsole builds a logger writing to stderr, for the development
// service and one-shot commands.
func NewConsole(levelStr, format string) *zap.Logger {
	core := zapcore.NewCore(
		encoder(format),
		zapcore.Lock(os.Stderr),
		ParseLevel(levelStr),
	)
	return zap.New(core, zap.AddCaller())
}
