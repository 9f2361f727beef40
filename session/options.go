package session

import (
	"github.com/hatlonely/fmxml/log"
	"github.com/hatlonely/fmxml/ref"
	"github.com/hatlonely/fmxml/resultset"
	"github.com/pkg/errors"
)

// Options 会话配置
type Options struct {
	Database string `cfg:"database"`
	Layout   string `cfg:"layout"`

	// ResponseLayout 写操作与查找按该布局返回记录
	ResponseLayout string `cfg:"responseLayout"`

	// Transport 默认 http，参见 transport.NewTransportWithOptions
	Transport *ref.TypeOptions `cfg:"transport" validate:"required"`

	// FieldCache 为空时使用内存缓存
	FieldCache *ref.TypeOptions `cfg:"fieldCache"`

	// Logger 为空时使用 log.Default()
	Logger *log.Options `cfg:"logger"`

	// NumberPolicy lenient 解析失败记为 0，strict 返回错误
	NumberPolicy string `cfg:"numberPolicy" def:"lenient" validate:"omitempty,oneof=lenient strict"`

	// DatePolicy template 按服务端模板截取，generic 尝试常见格式
	DatePolicy string `cfg:"datePolicy" def:"template" validate:"omitempty,oneof=template generic"`
}

func coercionOf(options *Options) (resultset.Coercion, error) {
	c := resultset.DefaultCoercion
	switch options.NumberPolicy {
	case "", "lenient":
	case "strict":
		c.Number = resultset.StrictNumber
	default:
		return c, errors.Errorf("unknown number policy %q", options.NumberPolicy)
	}
	switch options.DatePolicy {
	case "", "template":
	case "generic":
		c.Date = resultset.GenericTime
		c.Timestamp = resultset.GenericTime
	default:
		return c, errors.Errorf("unknown date policy %q", options.DatePolicy)
	}
	return c, nil
}
