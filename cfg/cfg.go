package cfg

import (
	"sync"

	"github.com/hatlonely/fmxml/cfg/decoder"
	"github.com/hatlonely/fmxml/cfg/provider"
	"github.com/hatlonely/fmxml/cfg/storage"
	"github.com/hatlonely/fmxml/log"
	"github.com/pkg/errors"
)

type Options struct {
	// Path 配置文件路径，扩展名决定解码方式
	Path string `cfg:"path" validate:"required"`

	// EnvPrefix 环境变量前缀，FMXML_SESSION_DATABASE 覆盖 session.database
	EnvPrefix string `cfg:"envPrefix" def:"FMXML"`

	// DisableEnv 不读取环境变量
	DisableEnv bool `cfg:"disableEnv"`
}

// Config 文件加环境变量组成的配置
//
// Sub 返回的子配置与根配置共享数据，Watch 重新加载之后子配置读到的也是新数据
type Config struct {
	state *state
	key   string
}

type state struct {
	mu       sync.RWMutex
	provider *provider.FileProvider
	decoder  decoder.Decoder
	env      *provider.EnvProvider
	storage  *storage.MapStorage
	handlers []handler
	logger   log.Logger

	closeOnce sync.Once
	closeErr  error
}

type handler struct {
	key string
	fn  func(*Config) error
}

func NewConfig(path string) (*Config, error) {
	return NewConfigWithOptions(&Options{Path: path, EnvPrefix: "FMXML"})
}

func NewConfigWithOptions(options *Options) (*Config, error) {
	if options == nil || options.Path == "" {
		return nil, errors.New("config path is required")
	}
	dec, err := decoder.NewDecoderByExtension(options.Path)
	if err != nil {
		return nil, err
	}
	fp, err := provider.NewFileProviderWithOptions(&provider.FileProviderOptions{FilePath: options.Path})
	if err != nil {
		return nil, err
	}

	s := &state{
		provider: fp,
		decoder:  dec,
		logger:   log.Default().WithGroup("cfg"),
	}
	if !options.DisableEnv {
		s.env = provider.NewEnvProviderWithOptions(&provider.EnvProviderOptions{Prefix: options.EnvPrefix})
	}

	data, err := fp.Load()
	if err != nil {
		return nil, err
	}
	ms, err := s.decode(data)
	if err != nil {
		return nil, err
	}
	s.storage = ms
	return &Config{state: s}, nil
}

// Load 读取 path 并转换为 object
func Load(path string, object any) error {
	c, err := NewConfig(path)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.ConvertTo(object)
}

func (s *state) decode(data []byte) (*storage.MapStorage, error) {
	m, err := s.decoder.Decode(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to decode %s", s.provider.Path())
	}
	if s.env != nil {
		m = s.env.Apply(m)
	}
	return storage.NewMapStorage(m), nil
}

func (c *Config) current() *storage.MapStorage {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	return c.state.storage.Sub(c.key)
}

// Sub 返回子配置，key 的写法同 storage.MapStorage.Sub
func (c *Config) Sub(key string) *Config {
	if key == "" {
		return c
	}
	if c.key != "" {
		key = c.key + "." + key
	}
	return &Config{state: c.state, key: key}
}

// ConvertTo 实现 ref.Convertable，可以直接作为 ref.TypeOptions.Options
func (c *Config) ConvertTo(object any) error {
	return c.current().ConvertTo(object)
}

// Data 返回当前配置的原始数据
func (c *Config) Data() any {
	return c.current().Data()
}

// SetLogger 设置重新加载时使用的日志
func (c *Config) SetLogger(logger log.Logger) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.logger = logger
}

// OnChange 配置文件变化后调用 fn，fn 收到的是注册时 key 对应的子配置
func (c *Config) OnChange(fn func(*Config) error) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	c.state.handlers = append(c.state.handlers, handler{key: c.key, fn: fn})
}

// Watch 开始监听配置文件，解码失败时保留旧配置
func (c *Config) Watch() error {
	s := c.state
	s.provider.OnChange(s.reload)
	s.provider.OnError(func(err error) {
		s.loggerOf().Warn("config watcher error", "path", s.provider.Path(), "error", err)
	})
	return s.provider.Watch()
}

func (s *state) loggerOf() log.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

func (s *state) reload(data []byte) {
	logger := s.loggerOf()
	ms, err := s.decode(data)
	if err != nil {
		logger.Warn("failed to reload config", "path", s.provider.Path(), "error", err)
		return
	}

	s.mu.Lock()
	s.storage = ms
	handlers := append([]handler{}, s.handlers...)
	s.mu.Unlock()

	logger.Info("config reloaded", "path", s.provider.Path())
	for _, h := range handlers {
		if err := h.fn(&Config{state: s, key: h.key}); err != nil {
			logger.Error("config change handler failed", "key", h.key, "error", err)
		}
	}
}

// Close 停止监听，子配置调用等同于根配置调用
func (c *Config) Close() error {
	c.state.closeOnce.Do(func() {
		c.state.closeErr = c.state.provider.Close()
	})
	return c.state.closeErr
}
