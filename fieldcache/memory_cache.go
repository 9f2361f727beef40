package fieldcache

import (
	"context"
	"sync"

	"github.com/hatlonely/fmxml/dataset"
)

// MemoryCache 进程内缓存，session 默认使用
type MemoryCache struct {
	mu     sync.RWMutex
	fields map[Key][]dataset.FieldDefinition
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{fields: map[Key][]dataset.FieldDefinition{}}
}

func (c *MemoryCache) Put(_ context.Context, key Key, fields []dataset.FieldDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[key] = append([]dataset.FieldDefinition(nil), fields...)
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]dataset.FieldDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields, ok := c.fields[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]dataset.FieldDefinition(nil), fields...), nil
}

func (c *MemoryCache) Close() error {
	return nil
}
