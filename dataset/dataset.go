package dataset

// DataSet 一次响应解码后的多表结果
type DataSet struct {
	Main      *Table
	Related   []*Table
	Relations []Relation

	// Fields metadata 中声明的字段，按服务端顺序
	Fields []FieldDefinition

	// FieldsFound metadata 中字段数量，portal 按其子字段数计
	FieldsFound int

	// TotalCount 布局中的记录总数
	TotalCount int
	// FetchSize 本次返回的记录数
	FetchSize int
}

// Table 按名称返回表，main 返回主表
func (ds *DataSet) Table(name string) (*Table, bool) {
	if name == MainTable {
		return ds.Main, ds.Main != nil
	}
	for _, t := range ds.Related {
		if t.Schema.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Tables 返回全部表，主表在前
func (ds *DataSet) Tables() []*Table {
	tables := make([]*Table, 0, len(ds.Related)+1)
	if ds.Main != nil {
		tables = append(tables, ds.Main)
	}
	return append(tables, ds.Related...)
}

// Empty 主表没有任何记录
func (ds *DataSet) Empty() bool {
	return ds.Main == nil || len(ds.Main.Rows) == 0
}
