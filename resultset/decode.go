package resultset

import (
	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/hatlonely/fmxml/wire"
	"github.com/pkg/errors"
)

type decodeOptions struct {
	coercion Coercion
}

type DecodeOption func(*decodeOptions)

// WithCoercion 替换默认的转换策略
func WithCoercion(c Coercion) DecodeOption {
	return func(o *decodeOptions) {
		o.coercion = c
	}
}

// Decode 校验错误码，推断表结构并写入全部记录
//
// 查找类请求遇到 401 时返回 0 行但结构完整的结果；
// 其余非 0 错误码返回 *fmerr.ServerError
func Decode(doc *wire.ResultSetDocument, op fmerr.Operation, opts ...DecodeOption) (*dataset.DataSet, error) {
	options := &decodeOptions{coercion: DefaultCoercion}
	for _, opt := range opts {
		opt(options)
	}

	code, err := doc.ErrorCode()
	if err != nil {
		return nil, errors.Wrap(fmerr.ErrDecode, err.Error())
	}
	outcome, err := fmerr.Classify(code, op)
	if err != nil {
		return nil, err
	}

	meta := doc.Metadata
	if meta == nil && outcome == fmerr.Empty {
		meta = &wire.Metadata{}
	}
	schema, err := InferSchema(meta)
	if err != nil {
		return nil, err
	}

	formats := formatsOf(doc.Datasource)
	projector := NewProjector(schema, formats, options.coercion)
	if outcome == fmerr.Proceed && doc.ResultSet != nil {
		if err := projector.Project(doc.ResultSet.Records); err != nil {
			return nil, err
		}
	}

	mainTable, related := projector.Tables()
	ds := &dataset.DataSet{
		Main:        mainTable,
		Related:     related,
		Relations:   schema.Relations,
		Fields:      schema.Fields,
		FieldsFound: schema.FieldsFound,
	}
	if doc.Datasource != nil {
		if ds.TotalCount, err = wire.Atoi(doc.Datasource.TotalCount); err != nil {
			return nil, errors.Wrapf(fmerr.ErrDecode, "invalid total-count %q", doc.Datasource.TotalCount)
		}
	}
	if doc.ResultSet != nil && outcome == fmerr.Proceed {
		if ds.FetchSize, err = wire.Atoi(doc.ResultSet.FetchSize); err != nil {
			return nil, errors.Wrapf(fmerr.ErrDecode, "invalid fetch-size %q", doc.ResultSet.FetchSize)
		}
	}
	return ds, nil
}

func formatsOf(ds *wire.Datasource) Formats {
	formats := DefaultFormats
	if ds == nil {
		return formats
	}
	if ds.DateFormat != "" {
		formats.Date = ds.DateFormat
	}
	if ds.TimeFormat != "" {
		formats.Time = ds.TimeFormat
	}
	if ds.TimestampFormat != "" {
		formats.Timestamp = ds.TimestampFormat
	}
	return formats
}
