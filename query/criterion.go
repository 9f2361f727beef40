package query

// SearchCriterion 复合查找中的一个条件，位置决定其标签 qN
type SearchCriterion struct {
	Field string
	Value string
	Or    bool
	Omit  bool
}

// Class 条件分组
type Class int

const (
	Conjunctive Class = iota
	Disjunctive
	Exclusionary
)

// Class 同时设置 Or 与 Omit 时按 Omit 处理
func (c SearchCriterion) Class() Class {
	switch {
	case c.Omit:
		return Exclusionary
	case c.Or:
		return Disjunctive
	}
	return Conjunctive
}

// Binding 标签与字段、值的绑定
type Binding struct {
	Tag   string
	Field string
	Value string
}

func (b Binding) params(p Params) Params {
	return p.Add("-"+b.Tag, b.Field).Add("-"+b.Tag+".value", b.Value)
}
