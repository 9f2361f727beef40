package query

import (
	"net/url"
	"strings"
)

// Command 请求的命令动词
type Command string

const (
	CmdFind        Command = "-find"
	CmdFindAll     Command = "-findall"
	CmdFindAny     Command = "-findany"
	CmdFindQuery   Command = "-findquery"
	CmdNew         Command = "-new"
	CmdEdit        Command = "-edit"
	CmdDelete      Command = "-delete"
	CmdDuplicate   Command = "-dup"
	CmdView        Command = "-view"
	CmdDBNames     Command = "-dbnames"
	CmdLayoutNames Command = "-layoutnames"
	CmdScriptNames Command = "-scriptnames"
)

// Param 请求体中的一个 key=value，Bare 为 true 时只输出 key
type Param struct {
	Key   string
	Value string
	Bare  bool
}

// Params 有序的请求参数，顺序对服务端有意义
type Params []Param

func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

func (p Params) AddCommand(cmd Command) Params {
	return append(p, Param{Key: string(cmd), Bare: true})
}

// Get 返回第一个匹配 key 的值
func (p Params) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// Encode 以 & 连接各参数，key 与 value 都做表单转义
func (p Params) Encode() string {
	var sb strings.Builder
	for i, param := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(param.Key))
		if param.Bare {
			continue
		}
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(param.Value))
	}
	return sb.String()
}

// Target 数据库与布局，所有请求都以 -db、-lay 开头
type Target struct {
	Database string
	Layout   string

	// ResponseLayout 不为空时服务端按该布局返回数据
	ResponseLayout string
}

func (t Target) Params() Params {
	var p Params
	if t.Database != "" {
		p = p.Add("-db", t.Database)
	}
	if t.Layout != "" {
		p = p.Add("-lay", t.Layout)
	}
	if t.ResponseLayout != "" {
		p = p.Add("-lay.response", t.ResponseLayout)
	}
	return p
}

// Body 组装完整的请求体
func Body(target Target, params Params) string {
	return append(target.Params(), params...).Encode()
}
