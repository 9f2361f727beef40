package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hatlonely/fmxml/log/writer"
	"github.com/hatlonely/fmxml/ref"
)

// Logger 日志接口
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// Options 日志配置
type Options struct {
	Level  string `cfg:"level" def:"info" validate:"omitempty,oneof=debug info warn error"`
	Format string `cfg:"format" def:"text" validate:"omitempty,oneof=text json"`

	// Output 输出器，默认输出到 stderr
	Output *ref.TypeOptions `cfg:"output"`

	AddSource bool `cfg:"addSource"`

	// Redact 这些 key 的值输出为 ******，默认隐藏 password
	Redact []string `cfg:"redact"`

	// Fields 附加到每条日志的字段
	Fields map[string]string `cfg:"fields"`
}

const redacted = "******"

// SLog 基于 log/slog 的实现
type SLog struct {
	logger *slog.Logger
	closer writer.Writer
}

func NewLoggerWithOptions(options *Options) (*SLog, error) {
	level, err := parseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	output := options.Output
	if output == nil {
		output = &ref.TypeOptions{Type: "console"}
	}
	w, err := writer.NewWriterWithOptions(output)
	if err != nil {
		return nil, fmt.Errorf("create log writer: %w", err)
	}

	redact := map[string]bool{"password": true}
	for _, key := range options.Redact {
		redact[strings.ToLower(key)] = true
	}
	handlerOptions := &slog.HandlerOptions{
		Level:     level,
		AddSource: options.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if redact[strings.ToLower(a.Key)] {
				return slog.String(a.Key, redacted)
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(options.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOptions)
	case "text", "":
		handler = slog.NewTextHandler(w, handlerOptions)
	default:
		_ = w.Close()
		return nil, fmt.Errorf("unsupported log format %q", options.Format)
	}

	logger := slog.New(handler)
	for k, v := range options.Fields {
		logger = logger.With(k, v)
	}
	return &SLog{logger: logger, closer: w}, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

func (l *SLog) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SLog) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SLog) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SLog) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *SLog) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *SLog) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *SLog) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *SLog) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *SLog) With(args ...any) Logger {
	return &SLog{logger: l.logger.With(args...), closer: l.closer}
}

func (l *SLog) WithGroup(name string) Logger {
	return &SLog{logger: l.logger.WithGroup(name), closer: l.closer}
}

// Close 关闭底层输出器
func (l *SLog) Close() error {
	return l.closer.Close()
}
