package fieldcache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

type BoltCacheOptions struct {
	Path    string        `cfg:"path" validate:"required"`
	Bucket  string        `cfg:"bucket" def:"fields"`
	Timeout time.Duration `cfg:"timeout" def:"1s"`
	NoSync  bool          `cfg:"noSync"`

	Codec string `cfg:"codec" def:"msgpack" validate:"omitempty,oneof=msgpack json bson protobuf"`
}

// BoltCache 持久化到本地 bbolt 文件，重启后仍可命中
type BoltCache struct {
	db     *bolt.DB
	codec  Codec
	bucket []byte
}

func NewBoltCacheWithOptions(options *BoltCacheOptions) (*BoltCache, error) {
	if options.Path == "" {
		return nil, errors.New("path is required")
	}
	codec, err := NewCodec(options.Codec)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(options.Path), 0755); err != nil {
		return nil, errors.Wrapf(err, "os.MkdirAll failed. path: %s", options.Path)
	}

	db, err := bolt.Open(options.Path, 0600, &bolt.Options{Timeout: options.Timeout, NoSync: options.NoSync})
	if err != nil {
		return nil, errors.Wrapf(err, "bolt.Open failed. path: %s", options.Path)
	}

	bucket := options.Bucket
	if bucket == "" {
		bucket = "fields"
	}
	c := &BoltCache{db: db, codec: codec, bucket: []byte(bucket)}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(c.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create bucket failed")
	}
	return c, nil
}

func (c *BoltCache) Put(_ context.Context, key Key, fields []dataset.FieldDefinition) error {
	data, err := c.codec.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal fields failed")
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(c.bucket).Put([]byte(key.String()), data)
	})
}

func (c *BoltCache) Get(_ context.Context, key Key) ([]dataset.FieldDefinition, error) {
	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(c.bucket).Get([]byte(key.String()))
		if v == nil {
			return ErrNotFound
		}
		// v 只在事务内有效
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.codec.Unmarshal(data)
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}
