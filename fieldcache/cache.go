package fieldcache

import (
	"context"
	"net/url"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/ref"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("field definitions not cached")

// Key 字段定义按数据库和布局缓存
type Key struct {
	Database string
	Layout   string
}

// String 后端存储使用的键，名称中的 / 和 % 会被转义
func (k Key) String() string {
	return url.PathEscape(k.Database) + "/" + url.PathEscape(k.Layout)
}

// Cache 最近一次解码得到的字段定义
//
// 实现需要支持并发调用，Get 未命中时返回 ErrNotFound
type Cache interface {
	Put(ctx context.Context, key Key, fields []dataset.FieldDefinition) error
	Get(ctx context.Context, key Key) ([]dataset.FieldDefinition, error)
	Close() error
}

var registry = ref.NewRegistry[Cache]("field cache")

func init() {
	registry.MustRegister("memory", NewMemoryCache)
	registry.MustRegister("freecache", NewFreeCacheWithOptions)
	registry.MustRegister("redis", NewRedisCacheWithOptions)
	registry.MustRegister("bolt", NewBoltCacheWithOptions)
	registry.MustRegister("leveldb", NewLevelDBCacheWithOptions)
	registry.MustRegister("pebble", NewPebbleCacheWithOptions)
}

// NewCacheWithOptions 按 type 创建：memory、freecache、redis、bolt、leveldb、pebble
//
// options 为 nil 时使用内存缓存
func NewCacheWithOptions(options *ref.TypeOptions) (Cache, error) {
	if options == nil {
		return NewMemoryCache(), nil
	}
	return registry.New(options)
}
