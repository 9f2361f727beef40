package fieldcache

import (
	"context"

	"github.com/cockroachdb/fifo"
	"github.com/cockroachdb/pebble"
	"github.com/hatlonely/fmxml/dataset"
	"github.com/pkg/errors"
)

type PebbleCacheOptions struct {
	Path string `cfg:"path" validate:"required"`

	// Sync 每次写入后 fsync
	Sync bool `cfg:"sync"`

	// CacheSize block cache 字节数，0 使用 pebble 默认值
	CacheSize int64 `cfg:"cacheSize"`

	// LoadBlockConcurrency 限制同时从文件读取的块数，0 不限制
	LoadBlockConcurrency int64 `cfg:"loadBlockConcurrency" validate:"gte=0"`

	Codec string `cfg:"codec" def:"msgpack" validate:"omitempty,oneof=msgpack json bson protobuf"`
}

type PebbleCache struct {
	db           *pebble.DB
	codec        Codec
	writeOptions *pebble.WriteOptions
}

func NewPebbleCacheWithOptions(options *PebbleCacheOptions) (*PebbleCache, error) {
	if options.Path == "" {
		return nil, errors.New("path is required")
	}
	codec, err := NewCodec(options.Codec)
	if err != nil {
		return nil, err
	}

	pebbleOptions := &pebble.Options{}
	if options.CacheSize > 0 {
		cache := pebble.NewCache(options.CacheSize)
		defer cache.Unref()
		pebbleOptions.Cache = cache
	}
	if options.LoadBlockConcurrency > 0 {
		pebbleOptions.LoadBlockSema = fifo.NewSemaphore(options.LoadBlockConcurrency)
	}
	db, err := pebble.Open(options.Path, pebbleOptions)
	if err != nil {
		return nil, errors.Wrap(err, "pebble.Open failed")
	}

	writeOptions := pebble.NoSync
	if options.Sync {
		writeOptions = pebble.Sync
	}
	return &PebbleCache{db: db, codec: codec, writeOptions: writeOptions}, nil
}

func (c *PebbleCache) Put(_ context.Context, key Key, fields []dataset.FieldDefinition) error {
	data, err := c.codec.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal fields failed")
	}
	return c.db.Set([]byte(key.String()), data, c.writeOptions)
}

func (c *PebbleCache) Get(_ context.Context, key Key) ([]dataset.FieldDefinition, error) {
	value, closer, err := c.db.Get([]byte(key.String()))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "pebble.Get failed")
	}
	defer closer.Close()
	return c.codec.Unmarshal(value)
}

func (c *PebbleCache) Close() error {
	return c.db.Close()
}
