package transport

import (
	"context"

	"github.com/hatlonely/fmxml/ref"
)

// Transport 发送一次 POST 请求并将 XML 响应解码到 out
//
// 所有网络错误都视为不可重试，由调用方直接返回
type Transport interface {
	Post(ctx context.Context, path string, body string, out any) error

	// BaseURL 形如 https://host:443
	BaseURL() string
}

var registry = ref.NewRegistry[Transport]("transport")

func init() {
	registry.MustRegister("http", NewHTTPTransportWithOptions)
	registry.MustRegister("observable", NewObservableTransportWithOptions)
}

// NewTransportWithOptions 按 type 创建：http、observable
func NewTransportWithOptions(options *ref.TypeOptions) (Transport, error) {
	return registry.New(options)
}
