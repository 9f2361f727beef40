package fieldcache

import (
	"context"
	"time"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisCacheOptions struct {
	// Endpoint host:port 地址
	Endpoint string `cfg:"endpoint" validate:"required"`

	Username string `cfg:"username"`
	Password string `cfg:"password"`
	DB       int    `cfg:"db"`

	// Prefix 键前缀，完整的键为 prefix + database/layout
	Prefix string        `cfg:"prefix" def:"fmxml:fields:"`
	TTL    time.Duration `cfg:"ttl"`

	DialTimeout  time.Duration `cfg:"dialTimeout" def:"5s"`
	ReadTimeout  time.Duration `cfg:"readTimeout" def:"3s"`
	WriteTimeout time.Duration `cfg:"writeTimeout" def:"3s"`
	PoolSize     int           `cfg:"poolSize" def:"10"`

	Codec string `cfg:"codec" def:"msgpack" validate:"omitempty,oneof=msgpack json bson protobuf"`
}

// RedisCache 多个进程共享同一份字段定义
type RedisCache struct {
	client redis.Cmdable
	codec  Codec
	prefix string
	ttl    time.Duration
}

func NewRedisCacheWithOptions(options *RedisCacheOptions) (*RedisCache, error) {
	if options.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	codec, err := NewCodec(options.Codec)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         options.Endpoint,
		Username:     options.Username,
		Password:     options.Password,
		DB:           options.DB,
		DialTimeout:  options.DialTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
		PoolSize:     options.PoolSize,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithMessage(err, "redis.client.Ping failed")
	}

	return &RedisCache{client: client, codec: codec, prefix: options.Prefix, ttl: options.TTL}, nil
}

func (c *RedisCache) Put(ctx context.Context, key Key, fields []dataset.FieldDefinition) error {
	data, err := c.codec.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal fields failed")
	}
	if err := c.client.Set(ctx, c.prefix+key.String(), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis.Set failed")
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]dataset.FieldDefinition, error) {
	data, err := c.client.Get(ctx, c.prefix+key.String()).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis.Get failed")
	}
	return c.codec.Unmarshal(data)
}

func (c *RedisCache) Close() error {
	if closer, ok := c.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
