package wire

import (
	"encoding/xml"
	"strconv"

	"github.com/pkg/errors"
)

// 请求路径
const (
	ResultSetPath = "/fmi/xml/fmresultset.xml"
	LayoutPath    = "/fmi/xml/FMPXMLLAYOUT.xml"
	ContainerPath = "/fmi/xml/cnt/data.jpg"
)

// Grammar 响应使用的 XML 语法
type Grammar string

const (
	GrammarResultSet Grammar = "fmresultset"
	GrammarLayout    Grammar = "FMPXMLLAYOUT"
)

// ResultSetDocument fmresultset 语法的根节点
type ResultSetDocument struct {
	XMLName    xml.Name    `xml:"fmresultset"`
	Error      ErrorNode   `xml:"error"`
	Product    Product     `xml:"product"`
	Datasource *Datasource `xml:"datasource"`
	Metadata   *Metadata   `xml:"metadata"`
	ResultSet  *ResultSet  `xml:"resultset"`
}

type ErrorNode struct {
	Code string `xml:"code,attr"`
}

// Product 服务端产品信息
type Product struct {
	Name    string `xml:"name,attr" json:"name"`
	Build   string `xml:"build,attr" json:"build"`
	Version string `xml:"version,attr" json:"version"`
}

// Datasource 数据源描述，包含日期时间模板
type Datasource struct {
	Database        string `xml:"database,attr"`
	Layout          string `xml:"layout,attr"`
	Table           string `xml:"table,attr"`
	DateFormat      string `xml:"date-format,attr"`
	TimeFormat      string `xml:"time-format,attr"`
	TimestampFormat string `xml:"timestamp-format,attr"`
	TotalCount      string `xml:"total-count,attr"`
}

// Metadata 字段声明，保留 field-definition 与 relatedset-definition 的文档顺序
type Metadata struct {
	Entries []MetadataEntry
}

// MetadataEntry 二选一：Field 或 RelatedSet
type MetadataEntry struct {
	Field      *FieldDefinitionNode
	RelatedSet *RelatedSetDefinition

	// Unknown 无法识别的子节点名称
	Unknown string
}

type FieldDefinitionNode struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type RelatedSetDefinition struct {
	Table  string                `xml:"table,attr"`
	Fields []FieldDefinitionNode `xml:"field-definition"`
}

func (m *Metadata) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "field-definition":
				var node FieldDefinitionNode
				if err := d.DecodeElement(&node, &t); err != nil {
					return err
				}
				m.Entries = append(m.Entries, MetadataEntry{Field: &node})
			case "relatedset-definition":
				var node RelatedSetDefinition
				if err := d.DecodeElement(&node, &t); err != nil {
					return err
				}
				m.Entries = append(m.Entries, MetadataEntry{RelatedSet: &node})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
				m.Entries = append(m.Entries, MetadataEntry{Unknown: t.Name.Local})
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Attr 查找属性
func (n *FieldDefinitionNode) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// RequireAttr 查找必需属性，缺失时返回错误
func (n *FieldDefinitionNode) RequireAttr(name string) (string, error) {
	v, ok := n.Attr(name)
	if !ok {
		field, _ := n.Attr("name")
		return "", errors.Errorf("field-definition %q is missing attribute %q", field, name)
	}
	return v, nil
}

type ResultSet struct {
	Count     string   `xml:"count,attr"`
	FetchSize string   `xml:"fetch-size,attr"`
	Records   []Record `xml:"record"`
}

// Record 一条记录，portal 记录嵌套在 RelatedSets 中
type Record struct {
	RecordID    string       `xml:"record-id,attr"`
	ModID       string       `xml:"mod-id,attr"`
	Fields      []Field      `xml:"field"`
	RelatedSets []RelatedSet `xml:"relatedset"`
}

// Empty 记录没有任何子节点
func (r *Record) Empty() bool {
	return len(r.Fields) == 0 && len(r.RelatedSets) == 0
}

type Field struct {
	Name string   `xml:"name,attr"`
	Data []string `xml:"data"`
}

// Value 返回第一个 data 节点的文本
func (f *Field) Value() string {
	if len(f.Data) == 0 {
		return ""
	}
	return f.Data[0]
}

type RelatedSet struct {
	Table   string   `xml:"table,attr"`
	Count   string   `xml:"count,attr"`
	Records []Record `xml:"record"`
}

// ErrorCode 解析错误码，缺失的 error 节点视为 0
func (doc *ResultSetDocument) ErrorCode() (int, error) {
	return parseCode(doc.Error.Code)
}

func parseCode(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("invalid error code %q", s)
	}
	return code, nil
}

// Atoi 解析可选的整数属性，空字符串返回 0
func Atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
