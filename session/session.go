package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/fieldcache"
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/hatlonely/fmxml/log"
	"github.com/hatlonely/fmxml/query"
	"github.com/hatlonely/fmxml/resultset"
	"github.com/hatlonely/fmxml/transport"
	"github.com/hatlonely/fmxml/wire"
	"github.com/pkg/errors"
)

// Session 绑定数据库与布局，执行请求并解码响应
//
// Session 可以并发使用，WithLayout 派生的会话共享 transport、字段缓存和日志
type Session struct {
	transport transport.Transport
	cache     fieldcache.Cache
	logger    log.Logger
	coercion  resultset.Coercion
	target    query.Target
}

func NewSessionWithOptions(options *Options) (*Session, error) {
	if options == nil {
		return nil, errors.New("options is required")
	}
	tr, err := transport.NewTransportWithOptions(options.Transport)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create transport")
	}
	cache, err := fieldcache.NewCacheWithOptions(options.FieldCache)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create field cache")
	}
	logger := log.Default()
	if options.Logger != nil {
		if logger, err = log.NewLoggerWithOptions(options.Logger); err != nil {
			return nil, errors.WithMessage(err, "failed to create logger")
		}
	}
	coercion, err := coercionOf(options)
	if err != nil {
		return nil, err
	}

	s := NewSession(tr, cache, logger)
	s.coercion = coercion
	s.target = query.Target{
		Database:       options.Database,
		Layout:         options.Layout,
		ResponseLayout: options.ResponseLayout,
	}
	return s, nil
}

// NewSession cache 为 nil 时使用内存缓存，logger 为 nil 时使用 log.Default()
func NewSession(tr transport.Transport, cache fieldcache.Cache, logger log.Logger) *Session {
	if cache == nil {
		cache = fieldcache.NewMemoryCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		transport: tr,
		cache:     cache,
		logger:    logger.WithGroup("session"),
		coercion:  resultset.DefaultCoercion,
	}
}

// WithLayout 返回指向另一个数据库与布局的会话
func (s *Session) WithLayout(database, layout string) *Session {
	derived := *s
	derived.target = query.Target{Database: database, Layout: layout}
	return &derived
}

// WithResponseLayout 返回按指定布局返回记录的会话
func (s *Session) WithResponseLayout(layout string) *Session {
	derived := *s
	derived.target.ResponseLayout = layout
	return &derived
}

func (s *Session) Target() query.Target {
	return s.target
}

// Close 关闭字段缓存
func (s *Session) Close() error {
	return s.cache.Close()
}

// Execute 发送请求并将响应解码为 DataSet，字段定义同时写入缓存
func (s *Session) Execute(ctx context.Context, req query.Request) (*dataset.DataSet, error) {
	var doc wire.ResultSetDocument
	if err := s.post(ctx, wire.ResultSetPath, s.target, req, &doc); err != nil {
		return nil, err
	}

	ds, err := resultset.Decode(&doc, req.Operation(), resultset.WithCoercion(s.coercion))
	if err != nil {
		if code, ok := fmerr.CodeOf(err); ok {
			s.logger.ErrorContext(ctx, "server rejected request", "command", req.Command(), "code", code, "error", err)
		}
		return nil, err
	}
	if ds.Empty() {
		s.logger.DebugContext(ctx, "no records match", "command", req.Command())
	}

	if len(ds.Fields) > 0 {
		if err := s.cache.Put(ctx, s.cacheKey(), ds.Fields); err != nil {
			s.logger.WarnContext(ctx, "failed to cache field definitions", "key", s.cacheKey().String(), "error", err)
		}
	}
	return ds, nil
}

func (s *Session) post(ctx context.Context, path string, target query.Target, req query.Request, out any) error {
	params, err := req.Params()
	if err != nil {
		return err
	}
	body := query.Body(target, params)

	requestID := uuid.NewString()
	logger := s.logger.With("requestID", requestID)
	start := time.Now()
	logger.DebugContext(ctx, "send request", "path", path, "command", req.Command(), "database", target.Database, "layout", target.Layout)

	if err := s.transport.Post(ctx, path, body, out); err != nil {
		logger.ErrorContext(ctx, "request failed", "path", path, "command", req.Command(), "error", err)
		return err
	}
	logger.DebugContext(ctx, "receive response", "path", path, "elapsed", time.Since(start))
	return nil
}

// cacheKey 响应中的 metadata 描述返回布局，指定了 -lay.response 时按返回布局缓存
func (s *Session) cacheKey() fieldcache.Key {
	layout := s.target.Layout
	if s.target.ResponseLayout != "" {
		layout = s.target.ResponseLayout
	}
	return fieldcache.Key{Database: s.target.Database, Layout: layout}
}

func (s *Session) Find(ctx context.Context, find *query.Find) (*dataset.DataSet, error) {
	return s.Execute(ctx, find)
}

func (s *Session) CompoundFind(ctx context.Context, find *query.CompoundFind) (*dataset.DataSet, error) {
	return s.Execute(ctx, find)
}

// NewRecord 创建记录，返回新记录的 record id
func (s *Session) NewRecord(ctx context.Context, req *query.NewRecord) (string, error) {
	row, err := s.first(ctx, req)
	if err != nil {
		return "", err
	}
	return row.String(dataset.RecordIDColumn), nil
}

// Edit 修改记录，返回修改后的 mod id
func (s *Session) Edit(ctx context.Context, req *query.Edit) (string, error) {
	row, err := s.first(ctx, req)
	if err != nil {
		return "", err
	}
	return row.String(dataset.ModIDColumn), nil
}

func (s *Session) Delete(ctx context.Context, req *query.Delete) error {
	_, err := s.Execute(ctx, req)
	return err
}

// Duplicate 复制记录，返回副本的 record id
func (s *Session) Duplicate(ctx context.Context, req *query.Duplicate) (string, error) {
	row, err := s.first(ctx, req)
	if err != nil {
		return "", err
	}
	return row.String(dataset.RecordIDColumn), nil
}

func (s *Session) first(ctx context.Context, req query.Request) (dataset.Row, error) {
	ds, err := s.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if ds.Main == nil || ds.Main.Len() == 0 {
		return nil, errors.Wrapf(fmerr.ErrDecode, "%s response contains no record", req.Command())
	}
	return ds.Main.Rows[0], nil
}
