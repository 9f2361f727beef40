package dataset

import "strings"

// ResultType 字段结果类型
type ResultType int

const (
	Text ResultType = iota
	Number
	Date
	Time
	Timestamp
	Container
)

var resultTypeNames = [...]string{
	Text:      "text",
	Number:    "number",
	Date:      "date",
	Time:      "time",
	Timestamp: "timestamp",
	Container: "container",
}

func (t ResultType) String() string {
	if int(t) < len(resultTypeNames) {
		return resultTypeNames[t]
	}
	return "text"
}

// ParseResultType 解析 result 属性，无法识别的类型按 text 处理
func ParseResultType(s string) ResultType {
	for i, name := range resultTypeNames {
		if strings.EqualFold(s, name) {
			return ResultType(i)
		}
	}
	return Text
}

func (t ResultType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ResultType) UnmarshalText(b []byte) error {
	*t = ParseResultType(string(b))
	return nil
}

// FieldDefinition 响应 metadata 中声明的字段
type FieldDefinition struct {
	Name            string     `json:"name" yaml:"name" msgpack:"name" bson:"name"`
	Type            string     `json:"type" yaml:"type" msgpack:"type" bson:"type"`
	Result          ResultType `json:"result" yaml:"result" msgpack:"result" bson:"result"`
	Global          bool       `json:"global" yaml:"global" msgpack:"global" bson:"global"`
	RepetitionCount int        `json:"repetitionCount" yaml:"repetitionCount" msgpack:"repetitionCount" bson:"repetitionCount"`

	// Portal 为空表示主表字段
	Portal string `json:"portal,omitempty" yaml:"portal,omitempty" msgpack:"portal,omitempty" bson:"portal,omitempty"`
}

// FindField 按名称查找字段，portal 为空时只匹配主表字段
func FindField(fields []FieldDefinition, portal, name string) (FieldDefinition, bool) {
	for _, f := range fields {
		if f.Portal == portal && f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// LookupField 按名称查找字段，优先主表，其次任意 portal
func LookupField(fields []FieldDefinition, name string) (FieldDefinition, bool) {
	if f, ok := FindField(fields, "", name); ok {
		return f, true
	}
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}
