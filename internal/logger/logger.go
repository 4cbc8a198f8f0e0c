package logger

import (
	"io"
	"os"

	"github.com/Adda-Baaj/vpic-harvester/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface shared by the application packages.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) InfoObj(string, string, interface{})  {}
func (NopLogger) DebugObj(string, string, interface{}) {}
func (NopLogger) WarnObj(string, string, interface{})  {}
func (NopLogger) ErrorObj(string, string, interface{}) {}

// Package-level logger to be used across packages after Init.
var S *zap.SugaredLogger

// ZapLogger adapts a zap logger to Logger.
type ZapLogger struct {
	base *zap.Logger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{base: l}
}

func (z *ZapLogger) InfoObj(msg, key string, obj interface{})  { z.base.Info(msg, zap.Any(key, obj)) }
func (z *ZapLogger) DebugObj(msg, key string, obj interface{}) { z.base.Debug(msg, zap.Any(key, obj)) }
func (z *ZapLogger) WarnObj(msg, key string, obj interface{})  { z.base.Warn(msg, zap.Any(key, obj)) }
func (z *ZapLogger) ErrorObj(msg, key string, obj interface{}) { z.base.Error(msg, zap.Any(key, obj)) }

// ParseLevel maps a config level name to a zap level, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	switch name {
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

// Init initializes a zap logger writing to stdout and installs it as S.
func Init(cfg *config.Config) (*ZapLogger, error) {
	return InitWriter(cfg, os.Stdout)
}

// InitWriter is Init with a custom destination, e.g. stderr for CLIs whose
// stdout carries data.
func InitWriter(cfg *config.Config, w io.Writer) (*ZapLogger, error) {
	level := zapcore.InfoLevel
	if cfg != nil {
		level = ParseLevel(cfg.LogLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if cfg != nil && cfg.AppName != "" {
		logger = logger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Env))
	}
	S = logger.Sugar()
	return NewZapLogger(logger), nil
}

// Close flushes any buffered loggers.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}

// Minimal object logging helpers -------------------------------------------------
// These are tiny wrappers that log the given object as a structured field named
// `key` and do not attempt to parse arbitrary kv arrays.
func InfoObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Info(msg, zap.Any(key, obj))
}

func DebugObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Debug(msg, zap.Any(key, obj))
}

func WarnObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Warn(msg, zap.Any(key, obj))
}

func ErrorObj(msg, key string, obj interface{}) {
	if S == nil {
		return
	}
	S.Desugar().Error(msg, zap.Any(key, obj))
}
