package session

import (
	"context"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/fieldcache"
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/hatlonely/fmxml/query"
	"github.com/hatlonely/fmxml/wire"
	"github.com/pkg/errors"
)

// Fields 当前布局的字段定义
func (s *Session) Fields(ctx context.Context) ([]dataset.FieldDefinition, error) {
	ds, err := s.Execute(ctx, query.View{})
	if err != nil {
		return nil, err
	}
	return ds.Fields, nil
}

// RecordCount 当前布局的记录总数
func (s *Session) RecordCount(ctx context.Context) (int, error) {
	ds, err := s.Execute(ctx, query.View{})
	if err != nil {
		return 0, err
	}
	return ds.TotalCount, nil
}

// cachedFields 优先使用缓存，未命中时请求一次 -view
func (s *Session) cachedFields(ctx context.Context) ([]dataset.FieldDefinition, error) {
	fields, err := s.cache.Get(ctx, s.cacheKey())
	if err == nil {
		return fields, nil
	}
	if !errors.Is(err, fieldcache.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to read field cache", "key", s.cacheKey().String(), "error", err)
	}
	return s.Fields(ctx)
}

// Repetitions 字段的重复次数
func (s *Session) Repetitions(ctx context.Context, field string) (int, error) {
	fields, err := s.cachedFields(ctx)
	if err != nil {
		return 0, err
	}
	f, ok := dataset.LookupField(fields, field)
	if !ok {
		return 0, errors.Wrapf(fmerr.ErrFieldNotFound, "%s on layout %s", field, s.target.Layout)
	}
	return f.RepetitionCount, nil
}

// ContainerURL 容器字段内容的下载地址
func (s *Session) ContainerURL(ctx context.Context, field, recordID string) (string, error) {
	if recordID == "" {
		return "", fmerr.ErrMissingRecordID
	}
	fields, err := s.cachedFields(ctx)
	if err != nil {
		return "", err
	}
	f, ok := dataset.LookupField(fields, field)
	if !ok {
		return "", errors.Wrapf(fmerr.ErrFieldNotFound, "%s on layout %s", field, s.target.Layout)
	}
	if f.Result != dataset.Container {
		return "", errors.Wrapf(fmerr.ErrNotContainer, "%s is %s", field, f.Result)
	}

	values := query.Params{}.
		Add("-db", s.target.Database).
		Add("-lay", s.target.Layout).
		Add("-recid", recordID).
		Add("-field", field)
	return s.transport.BaseURL() + wire.ContainerPath + "?" + values.Encode(), nil
}

// ValueListItem 值列表中的一项，Display 为界面上显示的文本
type ValueListItem struct {
	Value   string `json:"value" yaml:"value"`
	Display string `json:"display" yaml:"display"`
}

func (s *Session) layout(ctx context.Context) (*wire.LayoutDocument, error) {
	var doc wire.LayoutDocument
	if err := s.post(ctx, wire.LayoutPath, query.Target{Database: s.target.Database, Layout: s.target.Layout}, query.View{}, &doc); err != nil {
		return nil, err
	}
	code, err := doc.Code()
	if err != nil {
		return nil, errors.Wrap(fmerr.ErrDecode, err.Error())
	}
	if _, err := fmerr.Classify(code, fmerr.OpView); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ValueList 按名称返回值列表，重复的值只保留第一次出现
func (s *Session) ValueList(ctx context.Context, name string) ([]ValueListItem, error) {
	doc, err := s.layout(ctx)
	if err != nil {
		return nil, err
	}
	for _, vl := range doc.ValueLists {
		if vl.Name != name {
			continue
		}
		seen := map[string]bool{}
		items := make([]ValueListItem, 0, len(vl.Values))
		for _, v := range vl.Values {
			if seen[v.Value] {
				continue
			}
			seen[v.Value] = true
			items = append(items, ValueListItem{Value: v.Value, Display: v.Display})
		}
		return items, nil
	}
	return nil, errors.Errorf("value list %q not found on layout %s", name, s.target.Layout)
}

// ValueLists 当前布局上的值列表名称
func (s *Session) ValueLists(ctx context.Context) ([]string, error) {
	doc, err := s.layout(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.ValueLists))
	for _, vl := range doc.ValueLists {
		names = append(names, vl.Name)
	}
	return names, nil
}

// Databases 服务端上可访问的数据库
func (s *Session) Databases(ctx context.Context) ([]string, error) {
	doc, err := s.names(ctx, query.Target{}, query.DatabaseNames)
	if err != nil {
		return nil, err
	}
	return firstValues(doc), nil
}

// Layouts 当前数据库的布局
func (s *Session) Layouts(ctx context.Context) ([]string, error) {
	doc, err := s.names(ctx, query.Target{Database: s.target.Database}, query.LayoutNames)
	if err != nil {
		return nil, err
	}
	return firstValues(doc), nil
}

// Scripts 当前数据库的脚本
func (s *Session) Scripts(ctx context.Context) ([]string, error) {
	doc, err := s.names(ctx, query.Target{Database: s.target.Database}, query.ScriptNames)
	if err != nil {
		return nil, err
	}
	return firstValues(doc), nil
}

// ServerInfo 服务端产品名称与版本
func (s *Session) ServerInfo(ctx context.Context) (wire.Product, error) {
	doc, err := s.names(ctx, query.Target{}, query.DatabaseNames)
	if err != nil {
		return wire.Product{}, err
	}
	return doc.Product, nil
}

func (s *Session) names(ctx context.Context, target query.Target, req query.Names) (*wire.ResultSetDocument, error) {
	var doc wire.ResultSetDocument
	if err := s.post(ctx, wire.ResultSetPath, target, req, &doc); err != nil {
		return nil, err
	}
	code, err := doc.ErrorCode()
	if err != nil {
		return nil, errors.Wrap(fmerr.ErrDecode, err.Error())
	}
	if _, err := fmerr.Classify(code, req.Operation()); err != nil {
		return nil, err
	}
	return &doc, nil
}

func firstValues(doc *wire.ResultSetDocument) []string {
	if doc.ResultSet == nil {
		return nil
	}
	names := make([]string, 0, len(doc.ResultSet.Records))
	for _, record := range doc.ResultSet.Records {
		if len(record.Fields) == 0 {
			continue
		}
		names = append(names, record.Fields[0].Value())
	}
	return names
}
