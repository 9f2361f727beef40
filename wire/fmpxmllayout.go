package wire

import (
	"encoding/xml"
	"strings"
)

// LayoutDocument FMPXMLLAYOUT 语法的根节点
type LayoutDocument struct {
	XMLName    xml.Name    `xml:"FMPXMLLAYOUT"`
	ErrorCode  string      `xml:"ERRORCODE"`
	Product    Product     `xml:"PRODUCT"`
	Layout     LayoutNode  `xml:"LAYOUT"`
	ValueLists []ValueList `xml:"VALUELISTS>VALUELIST"`
}

type LayoutNode struct {
	Database string            `xml:"DATABASE,attr"`
	Name     string            `xml:"NAME,attr"`
	Fields   []LayoutFieldNode `xml:"FIELD"`
}

type LayoutFieldNode struct {
	Name  string `xml:"NAME,attr"`
	Style struct {
		Type      string `xml:"TYPE,attr"`
		ValueList string `xml:"VALUELIST,attr"`
	} `xml:"STYLE"`
}

type ValueList struct {
	Name   string           `xml:"NAME,attr"`
	Values []ValueListValue `xml:"VALUE"`
}

type ValueListValue struct {
	Display string `xml:"DISPLAY,attr"`
	Value   string `xml:",chardata"`
}

func (doc *LayoutDocument) Code() (int, error) {
	return parseCode(strings.TrimSpace(doc.ErrorCode))
}
