// Package logging provides structured logging for audit runs using zap.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log output format.
type Format string

const (
	// FormatText emits human-readable console lines.
	FormatText Format = "text"
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
)

// Config configures a Logger.
type Config struct {
	// Output receives the log lines, os.Stderr when nil.
	Output zapcore.WriteSyncer
	// Format is FormatText or FormatJSON, FormatText when empty.
	Format Format
	// Debug lowers the level threshold to debug.
	Debug bool
}

// Logger wraps a zap logger configured for audit runs.
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

// NewLogger builds a Logger from cfg.
func NewLogger(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = zapcore.AddSync(os.Stderr)
	}

	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if cfg.Format == FormatJSON {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "time"
		encCfg.MessageKey = "message"
		encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	zl := zap.New(zapcore.NewCore(encoder, output, level))
	return &Logger{zap: zl, sugar: zl.Sugar()}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewLogger(Config{})
)

// SetDefault replaces the package default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the package default logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Debug logs msg with fields at debug level.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zap.Debug(msg, fields...) }

// Info logs msg with fields at info level.
func (l *Logger) Info(msg string, fields ...zap.Field) { l.zap.Info(msg, fields...) }

// Warn logs msg with fields at warn level.
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.zap.Warn(msg, fields...) }

// Error logs msg with fields at error level.
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zap.Error(msg, fields...) }

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Sync flushes buffered log entries.
func (l *Logger) Sync() error { return l.zap.Sync() }

// Debug logs msg through the default logger.
func Debug(msg string, fields ...zap.Field) { Default().Debug(msg, fields...) }

// Info logs msg through the default logger.
func Info(msg string, fields ...zap.Field) { Default().Info(msg, fields...) }

// Warn logs msg through the default logger.
func Warn(msg string, fields ...zap.Field) { Default().Warn(msg, fields...) }

// Error logs msg through the default logger.
func Error(msg string, fields ...zap.Field) { Default().Error(msg, fields...) }

// Debugf logs a formatted message through the default logger.
func Debugf(format string, args ...interface{}) { Default().Debugf(format, args...) }

// Infof logs a formatted message through the default logger.
func Infof(format string, args ...interface{}) { Default().Infof(format, args...) }

// Warnf logs a formatted message through the default logger.
func Warnf(format string, args ...interface{}) { Default().Warnf(format, args...) }

// Errorf logs a formatted message through the default logger.
func Errorf(format string, args ...interface{}) { Default().Errorf(format, args...) }

// Sync flushes the default logger.
func Sync() error { return Default().Sync() }

// QueryEvent describes one outbound DNS exchange.
type QueryEvent struct {
	Server     string
	Protocol   string
	Type       string
	Name       string
	Rcode      string
	Answers    int
	DurationMs float64
}

// LogQuery logs a completed DNS exchange at debug level.
func (l *Logger) LogQuery(ev QueryEvent) {
	l.zap.Debug("dns query exchanged",
		zap.String("server", ev.Server),
		zap.String("protocol", ev.Protocol),
		zap.String("type", ev.Type),
		zap.String("name", ev.Name),
		zap.String("rcode", ev.Rcode),
		zap.Int("answers", ev.Answers),
		zap.Float64("duration_ms", ev.DurationMs),
	)
}

// LogQueryError logs a failed DNS exchange at warn level.
func (l *Logger) LogQueryError(server, qtype, name string, err error) {
	l.zap.Warn("dns query failed",
		zap.String("server", server),
		zap.String("type", qtype),
		zap.String("name", name),
		zap.Error(err),
	)
}

// ProbeEvent describes one resolver health probe.
type ProbeEvent struct {
	Resolver   string
	Healthy    bool
	DurationMs float64
}

// LogProbe logs a resolver probe outcome, unhealthy ones at warn level.
func (l *Logger) LogProbe(ev ProbeEvent) {
	fields := []zap.Field{
		zap.String("resolver", ev.Resolver),
		zap.Bool("healthy", ev.Healthy),
		zap.Float64("duration_ms", ev.DurationMs),
	}
	if ev.Healthy {
		l.zap.Debug("resolver probe succeeded", fields...)
	} else {
		l.zap.Warn("resolver probe failed", fields...)
	}
}
