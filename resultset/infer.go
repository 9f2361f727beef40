package resultset

import (
	"strconv"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/hatlonely/fmxml/wire"
	"github.com/pkg/errors"
)

// Schema 从一次响应的 metadata 推断出的表结构
type Schema struct {
	Main      *dataset.TableSchema
	Related   []*dataset.TableSchema
	Relations []dataset.Relation
	Fields    []dataset.FieldDefinition

	// FieldsFound 字段计数，仅用于诊断
	FieldsFound int
}

// Table 按名称返回表结构
func (s *Schema) Table(name string) (*dataset.TableSchema, bool) {
	if name == dataset.MainTable {
		return s.Main, true
	}
	for _, t := range s.Related {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// CountFields field-definition 计 1，relatedset-definition 按子字段数计
func CountFields(meta *wire.Metadata) int {
	n := 0
	for _, entry := range meta.Entries {
		switch {
		case entry.Field != nil:
			n++
		case entry.RelatedSet != nil:
			n += len(entry.RelatedSet.Fields)
		}
	}
	return n
}

// InferSchema 按 metadata 的声明顺序构建主表、portal 子表和关联
//
// 任意字段缺少 name、type、result、max-repeat、global 属性时整体失败
func InferSchema(meta *wire.Metadata) (*Schema, error) {
	if meta == nil {
		return nil, errors.Wrap(fmerr.ErrDecode, "response has no metadata")
	}

	found := CountFields(meta)
	s := &Schema{
		Main:        dataset.NewMainSchema(),
		Fields:      make([]dataset.FieldDefinition, 0, found),
		FieldsFound: found,
	}

	for _, entry := range meta.Entries {
		switch {
		case entry.Field != nil:
			def, err := parseFieldDefinition(entry.Field, "")
			if err != nil {
				return nil, err
			}
			s.Main.AddField(def.Name, def.Result)
			s.Fields = append(s.Fields, def)
		case entry.RelatedSet != nil:
			table := entry.RelatedSet.Table
			if table == "" {
				return nil, errors.Wrap(fmerr.ErrDecode, "relatedset-definition is missing attribute \"table\"")
			}
			related, ok := s.Table(table)
			if !ok || related == s.Main {
				related = dataset.NewRelatedSchema(table)
				s.Related = append(s.Related, related)
				s.Relations = append(s.Relations, dataset.NewRelation(table))
			}
			for i := range entry.RelatedSet.Fields {
				def, err := parseFieldDefinition(&entry.RelatedSet.Fields[i], table)
				if err != nil {
					return nil, err
				}
				related.AddField(def.Name, def.Result)
				s.Fields = append(s.Fields, def)
			}
		default:
			return nil, errors.Wrapf(fmerr.ErrDecode, "unexpected metadata node %q", entry.Unknown)
		}
	}

	return s, nil
}

func parseFieldDefinition(node *wire.FieldDefinitionNode, portal string) (dataset.FieldDefinition, error) {
	var attrs [5]string
	for i, name := range []string{"name", "type", "result", "max-repeat", "global"} {
		v, err := node.RequireAttr(name)
		if err != nil {
			return dataset.FieldDefinition{}, errors.Wrap(fmerr.ErrDecode, err.Error())
		}
		attrs[i] = v
	}

	repeat, err := strconv.Atoi(attrs[3])
	if err != nil || repeat < 1 {
		return dataset.FieldDefinition{}, errors.Wrapf(fmerr.ErrDecode, "field-definition %q has invalid max-repeat %q", attrs[0], attrs[3])
	}

	return dataset.FieldDefinition{
		Name:            attrs[0],
		Type:            attrs[1],
		Result:          dataset.ParseResultType(attrs[2]),
		RepetitionCount: repeat,
		Global:          attrs[4] == "yes",
		Portal:          portal,
	}, nil
}
