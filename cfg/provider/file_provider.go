package provider

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// FileProvider 读取配置文件，Watch 之后在文件被写入时回调
type FileProvider struct {
	filePath string
	watcher  *fsnotify.Watcher
	mu       sync.RWMutex
	onChange []func(data []byte)
	onError  func(err error)
	once     sync.Once
}

type FileProviderOptions struct {
	FilePath string `cfg:"filePath" validate:"required"`
}

func NewFileProviderWithOptions(options *FileProviderOptions) (*FileProvider, error) {
	if options == nil || options.FilePath == "" {
		return nil, errors.New("file path is required")
	}
	absPath, err := filepath.Abs(options.FilePath)
	if err != nil {
		return nil, errors.Wrap(err, "invalid file path")
	}
	return &FileProvider{filePath: absPath}, nil
}

func (p *FileProvider) Path() string {
	return p.filePath
}

func (p *FileProvider) Load() ([]byte, error) {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return data, nil
}

func (p *FileProvider) OnChange(fn func(data []byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// OnError 监听过程中的错误，未设置时忽略
func (p *FileProvider) OnError(fn func(err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// Watch 监听文件所在目录，编辑器先写临时文件再重命名的情况也能感知
func (p *FileProvider) Watch() error {
	var initErr error
	p.once.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			initErr = errors.Wrap(err, "failed to create file watcher")
			return
		}
		if err := watcher.Add(filepath.Dir(p.filePath)); err != nil {
			_ = watcher.Close()
			initErr = errors.Wrap(err, "failed to add directory to watcher")
			return
		}

		p.mu.Lock()
		p.watcher = watcher
		p.mu.Unlock()

		go p.loop(watcher)
	})
	return initErr
}

func (p *FileProvider) loop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.filePath || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(p.filePath)
			if err != nil {
				p.reportError(errors.Wrap(err, "failed to read file"))
				continue
			}
			p.mu.RLock()
			handlers := append([]func([]byte){}, p.onChange...)
			p.mu.RUnlock()
			for _, handler := range handlers {
				handler(data)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.reportError(err)
		}
	}
}

func (p *FileProvider) reportError(err error) {
	p.mu.RLock()
	fn := p.onError
	p.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func (p *FileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher != nil {
		err := p.watcher.Close()
		p.watcher = nil
		return err
	}
	return nil
}
