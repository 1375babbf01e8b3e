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

// Logger is a no-op logger until InitLogger is called, so library code can log
// unconditionally in tests and embedded use.
var Logger = zap.NewNop()

// callerWidth pads the caller column so messages line up in console output.
const callerWidth = 20

// ParseLevel maps a config level name onto a zap level, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// InitLogger replaces the global logger. Development mode logs colored console output
// to stderr; otherwise NewProductionLogger is used.
func InitLogger(isDevelopment bool, logPath string, logLevel ...string) error {
	level := zap.InfoLevel
	if len(logLevel) > 0 && logLevel[0] != "" {
		level = ParseLevel(logLevel[0])
	}

	var (
		l   *zap.Logger
		err error
	)
	if isDevelopment {
		l = newDevelopmentLogger(level)
	} else {
		l, err = NewProductionLogger(logPath, level)
		if err != nil {
			return err
		}
	}

	Logger = l
	zap.ReplaceGlobals(l)
	return nil
}

func newDevelopmentLogger(level zapcore.Level) *zap.Logger {
	enc := encoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Development())
}

// NewProductionLogger writes JSON to a rotated file at logPath and mirrors every entry
// to stdout in console format.
func NewProductionLogger(logPath string, level zapcore.Level) (*zap.Logger, error) {
	if logPath == "" {
		logPath = "./logs/picksheet.log"
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	})

	enc := encoderConfig()
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), file, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level),
	)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

func encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(fmt.Sprintf("%-5s", l.CapitalString()))
	}
	enc.EncodeDuration = zapcore.MillisDurationEncoder
	enc.EncodeCaller = func(c zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(shortCaller(c))
	}
	return enc
}

// shortCaller renders file:line without the directory, padded to callerWidth.
func shortCaller(c zapcore.EntryCaller) string {
	s := fmt.Sprintf("%s:%d", filepath.Base(c.File), c.Line)
	if len(s) > callerWidth {
		s = "…" + s[len(s)-callerWidth+1:]
	}
	return fmt.Sprintf("%-*s", callerWidth, s)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return Logger.With(fields...)
}

// Info logs a message at InfoLevel
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

// Error logs a message at ErrorLevel
func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

// Warn logs a message at WarnLevel
func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

// Debug logs a message at DebugLevel
func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

// Fatal logs a message at FatalLevel
func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return Logger.Sync()
}
