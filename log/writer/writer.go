package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/hatlonely/fmxml/ref"
)

// Writer 日志输出器
type Writer interface {
	io.Writer
	io.Closer
}

var registry = ref.NewRegistry[Writer]("log writer")

func init() {
	registry.MustRegister("console", NewConsoleWriterWithOptions)
	registry.MustRegister("file", NewFileWriterWithOptions)
	registry.MustRegister("multi", NewMultiWriterWithOptions)
}

// NewWriterWithOptions 按 type 创建输出器：console、file、multi
func NewWriterWithOptions(options *ref.TypeOptions) (Writer, error) {
	return registry.New(options)
}

// ConsoleWriterOptions 控制台输出配置
type ConsoleWriterOptions struct {
	// Target stdout 或 stderr
	Target string `cfg:"target" def:"stderr" validate:"omitempty,oneof=stdout stderr"`
}

type ConsoleWriter struct {
	out *os.File
}

func NewConsoleWriterWithOptions(options *ConsoleWriterOptions) (*ConsoleWriter, error) {
	switch options.Target {
	case "stdout":
		return &ConsoleWriter{out: os.Stdout}, nil
	case "stderr", "":
		return &ConsoleWriter{out: os.Stderr}, nil
	}
	return nil, fmt.Errorf("unknown console target %q", options.Target)
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

// Close 不关闭标准输出
func (w *ConsoleWriter) Close() error {
	return nil
}

// MultiWriterOptions 同时写入多个输出器
type MultiWriterOptions struct {
	Writers []*ref.TypeOptions `cfg:"writers" validate:"required,min=1"`
}

type MultiWriter struct {
	writers []Writer
}

func NewMultiWriterWithOptions(options *MultiWriterOptions) (*MultiWriter, error) {
	if len(options.Writers) == 0 {
		return nil, fmt.Errorf("at least one writer is required")
	}
	m := &MultiWriter{}
	for i, opts := range options.Writers {
		w, err := NewWriterWithOptions(opts)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("writer %d: %w", i, err)
		}
		m.writers = append(m.writers, w)
	}
	return m, nil
}

func (m *MultiWriter) Write(p []byte) (int, error) {
	for i, w := range m.writers {
		if _, err := w.Write(p); err != nil {
			return 0, fmt.Errorf("writer %d: %w", i, err)
		}
	}
	return len(p), nil
}

func (m *MultiWriter) Close() error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
