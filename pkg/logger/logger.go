package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"connprobe/pkg/config"
)

// Logger wraps zap with the output plumbing configured from LoggingConfig.
type Logger struct {
	*zap.Logger
	config *config.LoggingConfig
}

func NewLogger(cfg *config.LoggingConfig) (*Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config is nil")
	}

	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoder, err := createEncoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	cores := make([]zapcore.Core, 0, len(cfg.Output))

	for _, output := range cfg.Output {
		var writer zapcore.WriteSyncer

		switch output {
		case "stdout":
			writer = zapcore.AddSync(os.Stdout)
		case "stderr":
			writer = zapcore.AddSync(os.Stderr)
		case "file":
			if cfg.FilePath == "" {
				return nil, fmt.Errorf("file_path is required when using file output")
			}

			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}

			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
			writer = zapcore.AddSync(fileWriter)
		default:
			return nil, fmt.Errorf("unsupported output type: %s", output)
		}

		core := zapcore.NewCore(encoder, writer, level)
		cores = append(cores, core)
	}

	combinedCore := zapcore.NewTee(cores...)

	zapLogger := zap.New(combinedCore, zap.AddCaller())

	return &Logger{
		Logger: zapLogger,
		config: cfg,
	}, nil
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.Logger.Debug(msg, interfacesToZapFields(fields...)...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.Logger.Info(msg, interfacesToZapFields(fields...)...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.Logger.Warn(msg, interfacesToZapFields(fields...)...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.Logger.Error(msg, interfacesToZapFields(fields...)...)
}

// WithComponent returns a child logger tagged with a component name, used to
// distinguish the engine, pool, scheduler and reporting stages in output.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With(zap.String("component", name)),
		config: l.config,
	}
}

func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
		config: l.config,
	}
}

// NewNop returns a logger that discards everything. Used by tests and as the
// fallback when callers pass a nil logger.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func createEncoder(cfg *config.LoggingConfig) (zapcore.Encoder, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch strings.ToLower(cfg.Format) {
	case "json":
		return zapcore.NewJSONEncoder(encoderConfig), nil
	case "console":
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

func interfacesToZapFields(fields ...interface{}) []zap.Field {
	if len(fields)%2 != 0 {
		return []zap.Field{zap.String("error", "odd number of fields provided")}
	}

	zapFields := make([]zap.Field, 0, len(fields)/2)

	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			zapFields = append(zapFields, zap.String("error", fmt.Sprintf("non-string key at index %d", i)))
			continue
		}

		zapFields = append(zapFields, zap.Any(key, fields[i+1]))
	}

	return zapFields
}
