package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileWriterOptions 文件输出配置
type FileWriterOptions struct {
	Path string `cfg:"path" validate:"required"`

	// MaxSize 单个文件的最大字节数，超过后重命名为 <path>.1 并重新创建，0 表示不限制
	MaxSize int64 `cfg:"maxSize"`
}

type FileWriter struct {
	path    string
	maxSize int64

	mu   sync.Mutex
	file *os.File
	size int64
}

func NewFileWriterWithOptions(options *FileWriterOptions) (*FileWriter, error) {
	if options.Path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(options.Path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	w := &FileWriter{path: options.Path, maxSize: options.MaxSize}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", w.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file %s: %w", w.path, err)
	}
	w.file, w.size = f, info.Size()
	return nil
}

func (w *FileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(w.path, w.path+".1"); err != nil {
		return fmt.Errorf("rotate log file %s: %w", w.path, err)
	}
	return w.open()
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, fmt.Errorf("log file %s is closed", w.path)
	}
	if w.maxSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
