package query

import (
	"strconv"
	"strings"

	"github.com/hatlonely/fmxml/fmerr"
)

// CompoundFind 复合查找，支持 AND、OR、OMIT 的组合
//
// 构造器只累积条件，Compile 与 Params 不修改内部状态，可以重复调用
type CompoundFind struct {
	criteria []SearchCriterion
	window
	scripts Scripts
}

func NewCompoundFind() *CompoundFind {
	return &CompoundFind{}
}

// AddCriterion 追加一个条件，or 与 omit 同时为 true 时按 omit 处理
func (f *CompoundFind) AddCriterion(field, value string, or, omit bool) *CompoundFind {
	f.criteria = append(f.criteria, SearchCriterion{Field: field, Value: value, Or: or, Omit: omit})
	return f
}

func (f *CompoundFind) And(field, value string) *CompoundFind {
	return f.AddCriterion(field, value, false, false)
}

func (f *CompoundFind) Or(field, value string) *CompoundFind {
	return f.AddCriterion(field, value, true, false)
}

func (f *CompoundFind) Omit(field, value string) *CompoundFind {
	return f.AddCriterion(field, value, false, true)
}

func (f *CompoundFind) AddSort(field string, order SortOrder) *CompoundFind {
	f.sorts = append(f.sorts, Sort{Field: field, Order: order})
	return f
}

func (f *CompoundFind) SetSkip(n int) *CompoundFind {
	f.skip = n
	return f
}

func (f *CompoundFind) SetMax(n int) *CompoundFind {
	f.max, f.hasMax = n, true
	return f
}

func (f *CompoundFind) SetScripts(s Scripts) *CompoundFind {
	f.scripts = s
	return f
}

// Criteria 返回已添加条件的副本
func (f *CompoundFind) Criteria() []SearchCriterion {
	return append([]SearchCriterion(nil), f.criteria...)
}

// CompiledQuery 编译结果：布尔分组表达式与标签绑定
type CompiledQuery struct {
	Expression string
	Bindings   []Binding
}

// String 按 q1=field&q1.value=value 的形式输出绑定
func (q *CompiledQuery) String() string {
	parts := make([]string, 0, len(q.Bindings)*2)
	for _, b := range q.Bindings {
		parts = append(parts, b.Tag+"="+b.Field, b.Tag+".value="+b.Value)
	}
	return strings.Join(parts, "&")
}

// Compile 生成布尔分组表达式
//
// 标签 qN 取条件的插入位置(从 1 开始)，与条件类别无关；
// AND 条件合并为一个分组，每个 OR 条件单独成组，每个 OMIT 条件生成 !(qN);
func (f *CompoundFind) Compile() (*CompiledQuery, error) {
	if len(f.criteria) == 0 {
		return nil, fmerr.ErrEmptyQuery
	}

	var and, or, omit []string
	bindings := make([]Binding, 0, len(f.criteria))
	for i, c := range f.criteria {
		tag := "q" + strconv.Itoa(i+1)
		switch c.Class() {
		case Conjunctive:
			and = append(and, tag)
		case Disjunctive:
			or = append(or, tag)
		case Exclusionary:
			omit = append(omit, tag)
		}
		bindings = append(bindings, Binding{Tag: tag, Field: c.Field, Value: c.Value})
	}

	var sb strings.Builder
	if len(and) > 0 {
		sb.WriteString("(" + strings.Join(and, ", ") + ");")
	}
	for _, tag := range or {
		sb.WriteString("(" + tag + ");")
	}
	for _, tag := range omit {
		sb.WriteString("!(" + tag + ");")
	}

	return &CompiledQuery{Expression: sb.String(), Bindings: bindings}, nil
}

func (f *CompoundFind) Command() Command {
	return CmdFindQuery
}

func (f *CompoundFind) Operation() fmerr.Operation {
	return fmerr.OpFind
}

// Params 依次输出排序分页、脚本、-query、标签绑定和 -findquery
func (f *CompoundFind) Params() (Params, error) {
	compiled, err := f.Compile()
	if err != nil {
		return nil, err
	}

	p := f.window.params(nil)
	p = f.scripts.params(p)
	p = p.Add("-query", compiled.Expression)
	for _, b := range compiled.Bindings {
		p = b.params(p)
	}
	return p.AddCommand(CmdFindQuery), nil
}
