package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/config"
)

var (
	mu          sync.RWMutex
	base        *zap.Logger
	log         *zap.Logger
	baseCore    zapcore.Core
	atomicLevel zap.AtomicLevel
)

func init() {
	level := getLogLevel()
	atomicLevel = zap.NewAtomicLevelAt(level)
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	baseCore = zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		atomicLevel,
	)

	base = zap.New(baseCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	log = base
}

func getLogLevel() zapcore.Level {
	levelStr := os.Getenv("ALERTSUB_LOG_LEVEL")
	if levelStr == "" {
		levelStr = config.DefaultLogLevel
	}
	return parseLogLevel(levelStr)
}

// Attach tees extra cores, such as an alert pipeline core, onto the
// application logger. Diagnostics() is unaffected.
func Attach(cores ...zapcore.Core) {
	mu.Lock()
	defer mu.Unlock()
	all := append([]zapcore.Core{baseCore}, cores...)
	log = zap.New(zapcore.NewTee(all...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Detach drops every core added by Attach.
func Detach() {
	mu.Lock()
	defer mu.Unlock()
	log = base
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(msg string, fields ...zap.Field) {
	current().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	current().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	current().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	current().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	current().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// Logger returns the application logger, including attached cores.
func Logger() *zap.Logger {
	return current()
}

// Diagnostics returns the logger without attached cores. The alert pipeline
// logs its own warnings here so they cannot re-enter it.
func Diagnostics() *zap.Logger {
	return base
}

func Sync() {
	_ = current().Sync()
}

func SetLevel(levelStr string) {
	level := parseLogLevel(levelStr)
	atomicLevel.SetLevel(level)
}

func parseLogLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
