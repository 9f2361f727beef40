package fieldcache

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/hatlonely/fmxml/dataset"
	"github.com/pkg/errors"
)

type FreeCacheOptions struct {
	// Size 缓存字节数，freecache 最小 512KB
	Size int           `cfg:"size" def:"1048576"`
	TTL  time.Duration `cfg:"ttl"`

	Codec string `cfg:"codec" def:"msgpack" validate:"omitempty,oneof=msgpack json bson protobuf"`
}

// FreeCache 固定内存上限，超出后按 LRU 淘汰
type FreeCache struct {
	cache *freecache.Cache
	codec Codec
	ttl   time.Duration
}

func NewFreeCacheWithOptions(options *FreeCacheOptions) (*FreeCache, error) {
	codec, err := NewCodec(options.Codec)
	if err != nil {
		return nil, err
	}
	size := options.Size
	if size <= 0 {
		size = 1024 * 1024
	}
	return &FreeCache{cache: freecache.NewCache(size), codec: codec, ttl: options.TTL}, nil
}

func (c *FreeCache) Put(_ context.Context, key Key, fields []dataset.FieldDefinition) error {
	data, err := c.codec.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal fields failed")
	}
	return c.cache.Set([]byte(key.String()), data, int(c.ttl.Seconds()))
}

func (c *FreeCache) Get(_ context.Context, key Key) ([]dataset.FieldDefinition, error) {
	data, err := c.cache.Get([]byte(key.String()))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "freecache.Get failed")
	}
	return c.codec.Unmarshal(data)
}

func (c *FreeCache) Close() error {
	c.cache.Clear()
	return nil
}
