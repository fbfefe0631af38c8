// Package logger holds the process-wide zap logger. Entries logged before
// Init or Set are dropped.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ServiceName is attached to every entry as the "service" field.
const ServiceName = "chat-log-server"

// log file rotation
const (
	maxSizeMB  = 100
	maxBackups = 3
	maxAgeDays = 28
)

var (
	log      *zap.Logger
	testMode bool
)

// SetTestMode makes Fatal log at error level instead of exiting.
func SetTestMode(enabled bool) {
	testMode = enabled
}

// Init writes JSON lines to a rotated file at logPath. An empty level means info.
func Init(logPath string, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	Set(zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(writer), lvl)))
	return nil
}

// Set installs l as the process logger and as zap's global logger. A nil
// l turns logging off.
func Set(l *zap.Logger) {
	if l == nil {
		log = nil
		zap.ReplaceGlobals(zap.NewNop())
		return
	}
	log = l.With(zap.String("service", ServiceName))
	zap.ReplaceGlobals(log)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLevel(level string) (zap.AtomicLevel, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	return zap.ParseAtomicLevel(level)
}

func write(lvl zapcore.Level, msg string, fields []zap.Field) {
	if log == nil {
		return
	}
	if ce := log.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}

func Debug(msg string, fields ...zap.Field) { write(zapcore.DebugLevel, msg, fields) }

func Info(msg string, fields ...zap.Field) { write(zapcore.InfoLevel, msg, fields) }

func Warn(msg string, fields ...zap.Field) { write(zapcore.WarnLevel, msg, fields) }

func Error(msg string, fields ...zap.Field) { write(zapcore.ErrorLevel, msg, fields) }

// Fatal logs msg and exits, unless test mode is on.
func Fatal(msg string, fields ...zap.Field) {
	if testMode {
		write(zapcore.ErrorLevel, msg, fields)
		return
	}
	write(zapcore.FatalLevel, msg, fields)
}

// Sync flushes buffered entries.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
