package log

import (
	"context"
	"sync/atomic"
)

var defaultLogger atomic.Value

func init() {
	l, err := NewLoggerWithOptions(&Options{Level: "info", Format: "text"})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	SetDefault(l)
}

type holder struct {
	Logger
}

// Default 进程级默认日志
func Default() Logger {
	return defaultLogger.Load().(holder).Logger
}

func SetDefault(l Logger) {
	defaultLogger.Store(holder{l})
}

// Discard 丢弃所有日志
var Discard Logger = discard{}

type discard struct{}

func (discard) Debug(string, ...any)                         {}
func (discard) Info(string, ...any)                          {}
func (discard) Warn(string, ...any)                          {}
func (discard) Error(string, ...any)                         {}
func (discard) DebugContext(context.Context, string, ...any) {}
func (discard) InfoContext(context.Context, string, ...any)  {}
func (discard) WarnContext(context.Context, string, ...any)  {}
func (discard) ErrorContext(context.Context, string, ...any) {}
func (d discard) With(...any) Logger                         { return d }
func (d discard) WithGroup(string) Logger                    { return d }
