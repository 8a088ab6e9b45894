package logger

import (
	"os"

	"github.com/Adda-Baaj/gink-client/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface shared by the packages of this
// module. It matches the Logger interfaces of pkg/gink, pkg/httpclient and
// pkg/publishers.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// Init initializes a zap logger using settings from config. Output goes to
// stderr so the tables printed by the commands stay clean on stdout.
func Init(cfg *config.Config) (Logger, error) {
	level := ""
	if cfg != nil {
		level = cfg.LogLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(zapcore.Lock(os.Stderr)),
		parseLevel(level),
	)

	log := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	S = log.Sugar()
	return &zapLogger{l: log}, nil
}

// New wraps an existing zap logger, mostly for tests using zaptest/observer.
func New(l *zap.Logger) Logger {
	if l == nil {
		return &NopLogger{}
	}
	return &zapLogger{l: l}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// zapLogger logs the given object as a structured field named `key`.
type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) InfoObj(msg, key string, obj interface{}) {
	z.l.Info(msg, zap.Any(key, obj))
}

func (z *zapLogger) DebugObj(msg, key string, obj interface{}) {
	z.l.Debug(msg, zap.Any(key, obj))
}

func (z *zapLogger) WarnObj(msg, key string, obj interface{}) {
	z.l.Warn(msg, zap.Any(key, obj))
}

func (z *zapLogger) ErrorObj(msg, key string, obj interface{}) {
	z.l.Error(msg, zap.Any(key, obj))
}

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, interface{})  {}
func (*NopLogger) DebugObj(string, string, interface{}) {}
func (*NopLogger) WarnObj(string, string, interface{})  {}
func (*NopLogger) ErrorObj(string, string, interface{}) {}
