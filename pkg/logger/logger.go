// Package logger initializes the purpose-scoped zap loggers the service
// writes to. Each concern gets its own JSON log file so audit and security
// events can be shipped and retained independently.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrorLogger    *zap.Logger
	AuditLogger    *zap.Logger
	RequestLogger  *zap.Logger
	SecurityLogger *zap.Logger
	SystemLogger   *zap.Logger
)

func newFileLogger(path string, level zapcore.Level) (*zap.Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(file),
		level,
	)
	return zap.New(core), nil
}

// Init creates the log directory and all loggers. It must be called before
// anything else logs.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	targets := []struct {
		logger **zap.Logger
		file   string
		level  zapcore.Level
	}{
		{&ErrorLogger, "errors.log", zapcore.ErrorLevel},
		{&AuditLogger, "audit.log", zapcore.InfoLevel},
		{&RequestLogger, "request.log", zapcore.InfoLevel},
		{&SecurityLogger, "security.log", zapcore.WarnLevel},
		{&SystemLogger, "system.log", zapcore.InfoLevel},
	}
	for _, t := range targets {
		l, err := newFileLogger(filepath.Join(dir, t.file), t.level)
		if err != nil {
			return err
		}
		*t.logger = l
	}
	return nil
}

// InitDiscard points every logger at a no-op core, for tests.
func InitDiscard() {
	nop := zap.NewNop()
	ErrorLogger = nop
	AuditLogger = nop
	RequestLogger = nop
	SecurityLogger = nop
	SystemLogger = nop
}

func Sync() {
	for _, l := range []*zap.Logger{ErrorLogger, AuditLogger, RequestLogger, SecurityLogger, SystemLogger} {
		if l != nil {
			_ = l.Sync()
		}
	}
}
