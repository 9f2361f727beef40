package transport

import (
	"context"
	"time"

	"github.com/hatlonely/fmxml/fmerr"
	"github.com/hatlonely/fmxml/log"
	"github.com/hatlonely/fmxml/ref"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableTransportOptions struct {
	// Transport 被包装的底层实现
	Transport *ref.TypeOptions `cfg:"transport" validate:"required"`

	// Logger 为空时使用 log.Default()
	Logger *log.Options `cfg:"logger"`

	EnableMetrics bool `cfg:"enableMetrics" def:"true"`
	EnableLogging bool `cfg:"enableLogging" def:"true"`
	EnableTracing bool `cfg:"enableTracing" def:"false"`

	// Name 指标前缀与 span 的 component 属性
	Name string `cfg:"name" def:"fmxml_transport"`

	// Registerer 为空时注册到 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer `cfg:"-"`
}

// TransportMetrics 请求计数、耗时与进行中的请求数
type TransportMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

func NewTransportMetrics(name string, registerer prometheus.Registerer) (*TransportMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &TransportMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name + "_requests_total",
			Help: "Total number of XML requests sent to the server",
		}, []string{"path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name + "_request_duration_seconds",
			Help:    "Duration of XML requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 100},
		}, []string{"path"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name + "_inflight_requests",
			Help: "Number of XML requests in flight",
		}, []string{"path"}),
	}

	var err error
	if m.requests, err = register(registerer, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(registerer, m.duration); err != nil {
		return nil, err
	}
	if m.inflight, err = register(registerer, m.inflight); err != nil {
		return nil, err
	}
	return m, nil
}

// register 同名指标已注册时复用已有的 collector
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "register metric")
	}
	return c, nil
}

// ObservableTransport 为任意 Transport 添加指标、追踪和日志
type ObservableTransport struct {
	transport Transport
	logger    log.Logger
	metrics   *TransportMetrics
	tracer    trace.Tracer
	name      string
}

func NewObservableTransportWithOptions(options *ObservableTransportOptions) (*ObservableTransport, error) {
	if options == nil {
		return nil, errors.New("options is required")
	}
	inner, err := NewTransportWithOptions(options.Transport)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create underlying transport")
	}
	return NewObservableTransport(inner, options)
}

// NewObservableTransport 包装已创建的 Transport
func NewObservableTransport(inner Transport, options *ObservableTransportOptions) (*ObservableTransport, error) {
	name := options.Name
	if name == "" {
		name = "fmxml_transport"
	}
	obs := &ObservableTransport{transport: inner, name: name}

	if options.EnableLogging {
		obs.logger = log.Default()
		if options.Logger != nil {
			l, err := log.NewLoggerWithOptions(options.Logger)
			if err != nil {
				return nil, errors.WithMessage(err, "failed to create logger")
			}
			obs.logger = l
		}
		obs.logger = obs.logger.WithGroup("transport")
	}
	if options.EnableMetrics {
		metrics, err := NewTransportMetrics(name, options.Registerer)
		if err != nil {
			return nil, err
		}
		obs.metrics = metrics
	}
	if options.EnableTracing {
		obs.tracer = otel.Tracer("fmxml/" + name)
	}
	return obs, nil
}

func (obs *ObservableTransport) BaseURL() string {
	return obs.transport.BaseURL()
}

func (obs *ObservableTransport) Post(ctx context.Context, path string, body string, out any) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, "POST "+path, trace.WithAttributes(
			attribute.String("component", obs.name),
			attribute.String("fmxml.path", path),
		))
		defer span.End()
	}
	if obs.metrics != nil {
		obs.metrics.inflight.WithLabelValues(path).Inc()
		defer obs.metrics.inflight.WithLabelValues(path).Dec()
	}

	err := obs.transport.Post(ctx, path, body, out)
	elapsed := time.Since(start)

	if span != nil {
		span.SetAttributes(attribute.Int64("duration_ms", elapsed.Milliseconds()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	if obs.metrics != nil {
		obs.metrics.requests.WithLabelValues(path, status(err)).Inc()
		obs.metrics.duration.WithLabelValues(path).Observe(elapsed.Seconds())
	}
	if obs.logger != nil {
		if err != nil {
			obs.logger.ErrorContext(ctx, "request failed", "path", path, "elapsed", elapsed, "error", err)
		} else {
			obs.logger.DebugContext(ctx, "request done", "path", path, "elapsed", elapsed, "bytes", len(body))
		}
	}
	return err
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, fmerr.ErrTransport):
		return "transport_error"
	case errors.Is(err, fmerr.ErrDecode):
		return "decode_error"
	}
	return "error"
}
