package query

import (
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/pkg/errors"
)

// SearchType 简单查找的类型
type SearchType int

const (
	Subset SearchType = iota
	AllRecords
	RandomRecord
)

func (t SearchType) Command() Command {
	switch t {
	case AllRecords:
		return CmdFindAll
	case RandomRecord:
		return CmdFindAny
	}
	return CmdFind
}

// SearchOption 字段匹配方式
type SearchOption string

const (
	Equals            SearchOption = "eq"
	Contains          SearchOption = "cn"
	BeginsWith        SearchOption = "bw"
	EndsWith          SearchOption = "ew"
	GreaterThan       SearchOption = "gt"
	GreaterOrEqual    SearchOption = "gte"
	LessThan          SearchOption = "lt"
	LessOrEqual       SearchOption = "lte"
	NotEqual          SearchOption = "neq"
	DefaultSearchMode SearchOption = ""
)

// SearchField 简单查找的一个字段条件
type SearchField struct {
	Name  string
	Value string
	Op    SearchOption
}

// Find 简单查找，所有字段条件由同一个 AND/OR 开关连接
//
// 设置 RecordID 后按记录 ID 查找，此时不能再有字段条件、排序或分页，
// 否则 Params 返回 ErrRecordIDConflict
type Find struct {
	searchType SearchType
	fields     []SearchField
	or         bool
	recordID   string
	window
	scripts Scripts
}

func NewFind(t SearchType) *Find {
	return &Find{searchType: t}
}

func (f *Find) AddField(name, value string) *Find {
	return f.AddFieldOp(name, value, DefaultSearchMode)
}

func (f *Find) AddFieldOp(name, value string, op SearchOption) *Find {
	f.fields = append(f.fields, SearchField{Name: name, Value: value, Op: op})
	return f
}

// SetOr 字段条件之间使用 OR 连接
func (f *Find) SetOr() *Find {
	f.or = true
	return f
}

func (f *Find) SetRecordID(id string) *Find {
	f.recordID = id
	return f
}

func (f *Find) AddSort(field string, order SortOrder) *Find {
	f.sorts = append(f.sorts, Sort{Field: field, Order: order})
	return f
}

func (f *Find) SetSkip(n int) *Find {
	f.skip = n
	return f
}

func (f *Find) SetMax(n int) *Find {
	f.max, f.hasMax = n, true
	return f
}

func (f *Find) SetScripts(s Scripts) *Find {
	f.scripts = s
	return f
}

func (f *Find) Command() Command {
	if f.recordID != "" {
		return CmdFind
	}
	return f.searchType.Command()
}

func (f *Find) Operation() fmerr.Operation {
	return fmerr.OpFind
}

// Params 随机查找忽略字段条件、排序和分页
func (f *Find) Params() (Params, error) {
	if f.recordID != "" {
		if len(f.fields) > 0 || !f.window.empty() {
			return nil, errors.Wrapf(fmerr.ErrRecordIDConflict, "record id %s", f.recordID)
		}
		p := Params{}.Add("-recid", f.recordID)
		p = f.scripts.params(p)
		return p.AddCommand(CmdFind), nil
	}

	if f.searchType == RandomRecord {
		return f.scripts.params(nil).AddCommand(CmdFindAny), nil
	}

	p := f.window.params(nil)
	p = f.scripts.params(p)
	if len(f.fields) > 1 {
		if f.or {
			p = p.Add("-lop", "or")
		} else {
			p = p.Add("-lop", "and")
		}
	}
	for _, field := range f.fields {
		p = p.Add(field.Name, field.Value)
		if field.Op != DefaultSearchMode {
			p = p.Add(field.Name+".op", string(field.Op))
		}
	}
	return p.AddCommand(f.searchType.Command()), nil
}
