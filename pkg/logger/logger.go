// Package logger provides a process-wide structured logger for opscore,
// backed by go.uber.org/zap. It follows the teacher's singleton pattern: a
// single sugared logger installed at startup and read by every package that
// needs to log, so handlers and adapters never have to carry a logger value
// through every call.
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	singleton.Store(mustBuild(false))
}

func mustBuild(unstructured bool) *zap.SugaredLogger {
	var cfg zap.Config
	if unstructured {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		// Logging cannot be relied on yet; fall back to a no-op core rather
		// than panic during package init.
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Initialize installs the process logger. unstructuredLogs selects a
// human-readable console encoder (matching UNSTRUCTURED_LOGS=true in the
// teacher) instead of JSON.
func Initialize(unstructuredLogs bool) {
	singleton.Store(mustBuild(unstructuredLogs))
}

// InitializeWithEnv reads OPSCORE_UNSTRUCTURED_LOGS from the environment to
// decide encoding, defaulting to human-readable console output, matching the
// teacher's UNSTRUCTURED_LOGS default-true behavior.
func InitializeWithEnv() {
	v := os.Getenv("OPSCORE_UNSTRUCTURED_LOGS")
	unstructured := v != "false"
	Initialize(unstructured)
}

// Get returns the current process logger.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

func Debug(args ...any)                  { Get().Debug(args...) }
func Debugf(template string, args ...any) { Get().Debugf(template, args...) }
func Debugw(msg string, kv ...any)        { Get().Debugw(msg, kv...) }

func Info(args ...any)                  { Get().Info(args...) }
func Infof(template string, args ...any) { Get().Infof(template, args...) }
func Infow(msg string, kv ...any)        { Get().Infow(msg, kv...) }

func Warn(args ...any)                  { Get().Warn(args...) }
func Warnf(template string, args ...any) { Get().Warnf(template, args...) }
func Warnw(msg string, kv ...any)        { Get().Warnw(msg, kv...) }

func Error(args ...any)                  { Get().Error(args...) }
func Errorf(template string, args ...any) { Get().Errorf(template, args...) }
func Errorw(msg string, kv ...any)        { Get().Errorw(msg, kv...) }

// Sync flushes any buffered log entries; called on clean process shutdown.
func Sync() {
	_ = Get().Sync()
}
