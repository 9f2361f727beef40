package resultset

import (
	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/wire"
)

// Projector 将记录流写入推断出的表结构
type Projector struct {
	schema   *Schema
	formats  Formats
	coercion Coercion

	main    *dataset.Table
	related map[string]*dataset.Table
	ordered []*dataset.Table
}

func NewProjector(schema *Schema, formats Formats, coercion Coercion) *Projector {
	p := &Projector{
		schema:   schema,
		formats:  formats,
		coercion: coercion.withDefaults(),
		main:     &dataset.Table{Schema: schema.Main},
		related:  make(map[string]*dataset.Table, len(schema.Related)),
	}
	for _, s := range schema.Related {
		t := &dataset.Table{Schema: s}
		p.related[s.Name] = t
		p.ordered = append(p.ordered, t)
	}
	return p
}

// Project 处理全部顶层记录，任何字段转换失败都会丢弃已构建的结果
func (p *Projector) Project(records []wire.Record) error {
	for i := range records {
		if err := p.projectRecord(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) projectRecord(record *wire.Record) error {
	if record.Empty() {
		return nil
	}

	row, err := p.newRow(p.main.Schema, record)
	if err != nil {
		return err
	}
	// 先写入主表，再处理 portal 记录
	p.main.Rows = append(p.main.Rows, row)

	for _, set := range record.RelatedSets {
		table, ok := p.related[set.Table]
		if !ok {
			continue
		}
		for j := range set.Records {
			child := &set.Records[j]
			if child.Empty() {
				continue
			}
			childRow, err := p.newRow(table.Schema, child)
			if err != nil {
				return err
			}
			childRow[dataset.ParentRecordIDColumn] = record.RecordID
			table.Rows = append(table.Rows, childRow)
		}
	}
	return nil
}

func (p *Projector) newRow(schema *dataset.TableSchema, record *wire.Record) (dataset.Row, error) {
	row := dataset.Row{
		dataset.RecordIDColumn: record.RecordID,
		dataset.ModIDColumn:    record.ModID,
	}

	// 同名字段在一条记录中重复出现时，依次写入 _dup 列
	used := map[string]int{}
	for _, field := range record.Fields {
		columns := schema.ColumnsOf(field.Name)
		if len(columns) == 0 {
			continue
		}
		n := used[field.Name]
		used[field.Name] = n + 1
		if n >= len(columns) {
			n = len(columns) - 1
		}
		column, _ := schema.Column(columns[n])

		text := field.Value()
		if text == "" {
			continue
		}
		v, err := p.coercion.Coerce(field.Name, column.Result, text, p.formats)
		if err != nil {
			return nil, err
		}
		row[column.Name] = v
	}
	return row, nil
}

// Tables 返回主表与 portal 子表
func (p *Projector) Tables() (*dataset.Table, []*dataset.Table) {
	return p.main, p.ordered
}
