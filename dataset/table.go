package dataset

import "fmt"

const (
	MainTable = "main"

	RecordIDColumn       = "recordID"
	ModIDColumn          = "modID"
	ParentRecordIDColumn = "parentRecordID"

	dupSuffix = "_dup"
)

// ColumnKind 区分合成列与字段列
type ColumnKind int

const (
	FieldColumn ColumnKind = iota
	KeyColumn
)

// Column 表中的一列
type Column struct {
	Name   string
	Kind   ColumnKind
	Result ResultType

	// Field 列对应的字段名，合成列为空
	Field string
}

// TableSchema 一次响应推断出的表结构
type TableSchema struct {
	Name    string
	Columns []Column

	index map[string]int
}

// NewMainSchema 创建主表结构，包含 recordID 和 modID
func NewMainSchema() *TableSchema {
	s := &TableSchema{Name: MainTable}
	s.addKey(RecordIDColumn)
	s.addKey(ModIDColumn)
	return s
}

// NewRelatedSchema 创建 portal 子表结构，包含 parentRecordID, recordID 和 modID
func NewRelatedSchema(name string) *TableSchema {
	s := &TableSchema{Name: name}
	s.addKey(ParentRecordIDColumn)
	s.addKey(RecordIDColumn)
	s.addKey(ModIDColumn)
	return s
}

func (s *TableSchema) addKey(name string) {
	s.append(Column{Name: name, Kind: KeyColumn, Result: Text})
}

func (s *TableSchema) append(c Column) {
	if s.index == nil {
		s.index = map[string]int{}
	}
	s.index[c.Name] = len(s.Columns)
	s.Columns = append(s.Columns, c)
}

// AddField 为字段添加一列，列名冲突时追加 _dup 后缀，返回实际列名
func (s *TableSchema) AddField(field string, result ResultType) string {
	name := field
	for s.HasColumn(name) {
		name += dupSuffix
	}
	s.append(Column{Name: name, Kind: FieldColumn, Result: result, Field: field})
	return name
}

func (s *TableSchema) HasColumn(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *TableSchema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.Columns[i], true
}

// ColumnsOf 返回字段对应的全部列名，按声明顺序，第一个为原名，其余为 _dup 别名
func (s *TableSchema) ColumnsOf(field string) []string {
	var names []string
	for _, c := range s.Columns {
		if c.Kind == FieldColumn && c.Field == field {
			names = append(names, c.Name)
		}
	}
	return names
}

func (s *TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Relation 主表到子表的关联，main.recordID -> <table>.parentRecordID
type Relation struct {
	Name         string
	ParentTable  string
	ParentColumn string
	ChildTable   string
	ChildColumn  string
}

func NewRelation(child string) Relation {
	return Relation{
		Name:         MainTable + "_" + child,
		ParentTable:  MainTable,
		ParentColumn: RecordIDColumn,
		ChildTable:   child,
		ChildColumn:  ParentRecordIDColumn,
	}
}

func (r Relation) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", r.ParentTable, r.ParentColumn, r.ChildTable, r.ChildColumn)
}

// Row 一行数据，key 为列名
type Row map[string]any

func (r Row) String(column string) string {
	if v, ok := r[column].(string); ok {
		return v
	}
	return ""
}

// Table 表结构与行
type Table struct {
	Schema *TableSchema
	Rows   []Row
}

func (t *Table) Name() string {
	return t.Schema.Name
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Children 返回子表中属于 parent 的行
func (t *Table) Children(recordID string) []Row {
	var rows []Row
	for _, row := range t.Rows {
		if row.String(ParentRecordIDColumn) == recordID {
			rows = append(rows, row)
		}
	}
	return rows
}
