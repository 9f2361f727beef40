package query

import "strconv"

// SortOrder 排序方式，除 ascend、descend 外也可以是值列表名称
type SortOrder string

const (
	Ascend  SortOrder = "ascend"
	Descend SortOrder = "descend"
)

// ValueListOrder 按值列表的顺序排序
func ValueListOrder(valueList string) SortOrder {
	return SortOrder(valueList)
}

// Sort 排序字段，Order 为空时使用服务端默认顺序
type Sort struct {
	Field string
	Order SortOrder
}

// Script 脚本名称与可选参数
type Script struct {
	Name  string
	Param string
}

// Scripts 查找前、排序前以及完成后执行的脚本
type Scripts struct {
	After   *Script
	Presort *Script
	Prefind *Script
}

func (s Scripts) params(p Params) Params {
	p = addScript(p, "-script", s.After)
	p = addScript(p, "-script.presort", s.Presort)
	p = addScript(p, "-script.prefind", s.Prefind)
	return p
}

func addScript(p Params, key string, script *Script) Params {
	if script == nil || script.Name == "" {
		return p
	}
	p = p.Add(key, script.Name)
	if script.Param != "" {
		p = p.Add(key+".param", script.Param)
	}
	return p
}

// window 排序与分页选项
type window struct {
	sorts  []Sort
	skip   int
	max    int
	hasMax bool
}

func (w *window) empty() bool {
	return len(w.sorts) == 0 && w.skip == 0 && !w.hasMax
}

func (w *window) params(p Params) Params {
	for i, s := range w.sorts {
		n := strconv.Itoa(i + 1)
		p = p.Add("-sortfield."+n, s.Field)
		if s.Order != "" {
			p = p.Add("-sortorder."+n, string(s.Order))
		}
	}
	if w.skip > 0 {
		p = p.Add("-skip", strconv.Itoa(w.skip))
	}
	if w.hasMax {
		p = p.Add("-max", strconv.Itoa(w.max))
	}
	return p
}
