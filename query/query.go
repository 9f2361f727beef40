package query

import "github.com/hatlonely/fmxml/fmerr"

// Request 可以编译为请求参数的操作
type Request interface {
	Command() Command
	Operation() fmerr.Operation
	Params() (Params, error)
}

// View 只返回布局的 metadata，不返回记录
type View struct{}

func (View) Command() Command           { return CmdView }
func (View) Operation() fmerr.Operation { return fmerr.OpView }
func (View) Params() (Params, error)    { return Params{}.AddCommand(CmdView), nil }

// Names 列出数据库、布局或脚本名称
type Names struct {
	cmd Command
}

var (
	DatabaseNames = Names{cmd: CmdDBNames}
	LayoutNames   = Names{cmd: CmdLayoutNames}
	ScriptNames   = Names{cmd: CmdScriptNames}
)

func (n Names) Command() Command           { return n.cmd }
func (n Names) Operation() fmerr.Operation { return fmerr.OpList }
func (n Names) Params() (Params, error)    { return Params{}.AddCommand(n.cmd), nil }

var (
	_ Request = (*CompoundFind)(nil)
	_ Request = (*Find)(nil)
	_ Request = (*NewRecord)(nil)
	_ Request = (*Edit)(nil)
	_ Request = (*Delete)(nil)
	_ Request = (*Duplicate)(nil)
	_ Request = View{}
	_ Request = Names{}
)
