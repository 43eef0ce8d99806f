package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.SugaredLogger

// Init initializes the global logger. Development mode uses console-friendly
// output; anything else logs JSON.
func Init(env string) error {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	globalLogger = logger.Sugar()
	return nil
}

// L returns the global SugaredLogger, falling back to a production logger if
// Init was never called.
func L() *zap.SugaredLogger {
	if globalLogger == nil {
		logger, _ := zap.NewProduction()
		globalLogger = logger.Sugar()
	}
	return globalLogger
}

// Sync flushes any buffered log entries.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// Info logs an info message with structured fields.
func Info(msg string, fields ...any) { L().Infow(msg, fields...) }

// Warn logs a warning with structured fields.
func Warn(msg string, fields ...any) { L().Warnw(msg, fields...) }

// Error logs an error with structured fields.
func Error(msg string, fields ...any) { L().Errorw(msg, fields...) }

// Debug logs a debug message with structured fields.
func Debug(msg string, fields ...any) { L().Debugw(msg, fields...) }
