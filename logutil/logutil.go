// Package logutil provides the process-wide structured logger used across
// the engine: a zap logger with an optional lumberjack-rotated file sink,
// reachable from every package via a global accessor.
package logutil

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newStderr() *os.File {
	return os.Stderr
}

// Config controls where and how the engine logs.
type Config struct {
	// File is the path of the log file. Empty means stderr only.
	File string
	// MaxSizeMB is the rotation threshold for File.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to retain.
	MaxBackups int
	// Debug enables debug-level logging.
	Debug bool
}

var (
	mu     sync.Mutex
	global *zap.Logger = zap.NewNop()
)

// InitLogger (re)configures the global logger. Safe to call once at process
// start; fit/transform calls that don't configure a logger get a no-op one.
func InitLogger(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	var core zapcore.Core
	if cfg.File == "" {
		core = zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(newStderr())), level)
	} else {
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxOrDefault(cfg.MaxSizeMB, 300),
			MaxBackups: maxOrDefault(cfg.MaxBackups, 7),
		}
		core = zapcore.NewCore(encoder, zapcore.AddSync(writer), level)
	}

	mu.Lock()
	defer mu.Unlock()
	global = zap.New(core)
	return nil
}

func maxOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Logger returns the current global logger. It is always non-nil.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

// With attaches fields (e.g. a fit-run UUID) to every subsequent line.
func With(fields ...zap.Field) *zap.Logger {
	return Logger().With(fields...)
}
