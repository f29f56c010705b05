// Package logging provides the zap-backed implementation of
// optimade.Logger used by the command line.
package logging

import (
	"io"
	"sort"

	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger adapts a *zap.Logger to optimade.Logger.
type Logger struct {
	zl *zap.Logger
}

// New creates a console logger named "validator" writing to w. The level
// follows verbosity: silent suppresses everything below DPanic, info and
// debug map onto the zap levels of the same name.
func New(verbosity optimade.Verbosity, w io.Writer) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " | ",
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		LevelFor(verbosity),
	)

	return &Logger{zl: zap.New(core).Named("validator")}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// LevelFor returns the minimum enabled zap level for verbosity.
func LevelFor(verbosity optimade.Verbosity) zapcore.Level {
	switch verbosity {
	case optimade.VerbositySilent:
		return zapcore.DPanicLevel
	case optimade.VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Debug implements optimade.Logger.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.zl.Debug(msg, toZapFields(fields)...)
}

// Info implements optimade.Logger.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.zl.Info(msg, toZapFields(fields)...)
}

// Warn implements optimade.Logger.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.zl.Warn(msg, toZapFields(fields)...)
}

// Error implements optimade.Logger.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.zl.Error(msg, toZapFields(fields)...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zl.Sync() //nolint:wrapcheck // passthrough
}

// toZapFields converts fields in key order so log lines are stable.
func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	zapFields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		zapFields = append(zapFields, zap.Any(key, fields[key]))
	}

	return zapFields
}
