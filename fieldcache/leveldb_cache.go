package fieldcache

import (
	"context"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type LevelDBCacheOptions struct {
	Path   string `cfg:"path" validate:"required"`
	NoSync bool   `cfg:"noSync"`

	// Compression none 或 snappy
	Compression string `cfg:"compression" def:"snappy" validate:"omitempty,oneof=none snappy"`

	Codec string `cfg:"codec" def:"msgpack" validate:"omitempty,oneof=msgpack json bson protobuf"`
}

type LevelDBCache struct {
	db    *leveldb.DB
	codec Codec
}

func NewLevelDBCacheWithOptions(options *LevelDBCacheOptions) (*LevelDBCache, error) {
	if options.Path == "" {
		return nil, errors.New("path is required")
	}
	codec, err := NewCodec(options.Codec)
	if err != nil {
		return nil, err
	}

	compression := opt.SnappyCompression
	if options.Compression == "none" {
		compression = opt.NoCompression
	}
	db, err := leveldb.OpenFile(options.Path, &opt.Options{Compression: compression, NoSync: options.NoSync})
	if err != nil {
		return nil, errors.Wrap(err, "leveldb.OpenFile failed. path: "+options.Path)
	}
	return &LevelDBCache{db: db, codec: codec}, nil
}

func (c *LevelDBCache) Put(_ context.Context, key Key, fields []dataset.FieldDefinition) error {
	data, err := c.codec.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal fields failed")
	}
	return c.db.Put([]byte(key.String()), data, nil)
}

func (c *LevelDBCache) Get(_ context.Context, key Key) ([]dataset.FieldDefinition, error) {
	data, err := c.db.Get([]byte(key.String()), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "leveldb.Get failed")
	}
	return c.codec.Unmarshal(data)
}

func (c *LevelDBCache) Close() error {
	return c.db.Close()
}
