// Package logging wraps zap with the fields and levels every aggregator
// command shares.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every entry written by a logger from New.
const ServiceName = "filplus-aggregator"

// Logger is the structured logger handed to schedulers, runners and handlers.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	// Zap returns the underlying *zap.Logger for gin-contrib/zap and kafka-go.
	Zap() *zap.Logger
	Sync() error
}

// Options selects the encoder and level. Command names the cobra subcommand
// (serve, run-once) so entries from one-shot runs can be told apart.
type Options struct {
	Environment string
	Level       string
	Command     string
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a logger. "development" gets a colored console encoder; anything
// else gets sampled JSON with ISO8601 timestamps. An unparsable level means info.
func New(opts Options) (Logger, error) {
	var cfg zap.Config
	if opts.Environment == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	fields := []zap.Field{zap.String("service", ServiceName)}
	if opts.Command != "" {
		fields = append(fields, zap.String("command", opts.Command))
	}

	z, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(fields...),
	)
	if err != nil {
		return nil, err
	}
	return &zapLogger{z: z}, nil
}

// Wrap adapts an existing *zap.Logger, typically an observer core in tests.
func Wrap(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

func (l *zapLogger) Zap() *zap.Logger { return l.z }

// Sync flushes buffered entries; commands defer it before exiting.
func (l *zapLogger) Sync() error { return l.z.Sync() }

// NoOpLogger drops everything.
type NoOpLogger struct{}

func (*NoOpLogger) Debug(string, ...zap.Field) {}
func (*NoOpLogger) Info(string, ...zap.Field)  {}
func (*NoOpLogger) Warn(string, ...zap.Field)  {}
func (*NoOpLogger) Error(string, ...zap.Field) {}
func (l *NoOpLogger) With(...zap.Field) Logger { return l }
func (*NoOpLogger) Zap() *zap.Logger           { return zap.NewNop() }
func (*NoOpLogger) Sync() error                { return nil }

// NewNoOpLogger returns a logger that discards all entries.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}
