// Package obslog wraps zap for the optimizer's structured logging, grounded
// in DimaJoyti-go-coffee/dao/pkg/logger.
package obslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger; ForRun and ForCookie attach the run_id and
// cookie fields the team driver threads through its cookies' entries.
type Logger struct {
	*zap.Logger
}

// New builds a Logger at the given level ("debug", "info", "warn", "error")
// and format ("console" or "json").
func New(level, format string) *Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapLevel)
	return &Logger{Logger: zap.New(core, zap.AddCaller())}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger { return &Logger{Logger: zap.NewNop()} }

// ForCookie returns a child logger scoped to one cookie's search.
func (l *Logger) ForCookie(name string) *Logger {
	return &Logger{Logger: l.With(zap.String("cookie", name))}
}

// ForRun returns a child logger scoped to one team-solve run, carrying its
// correlation ID through every subsequent cookie's log lines.
func (l *Logger) ForRun(runID string) *Logger {
	return &Logger{Logger: l.With(zap.String("run_id", runID))}
}
