package fmerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// 错误类型，调用方通过 errors.Is 区分
var (
	ErrTransport        = errors.New("transport failure")
	ErrDecode           = errors.New("malformed response")
	ErrInvalidFieldData = errors.New("invalid field data")
	ErrServerRejected   = errors.New("operation rejected by server")

	ErrEmptyQuery       = errors.New("compound find requires at least one criterion")
	ErrRecordIDConflict = errors.New("record id cannot be combined with field criteria, sort, skip or max")
	ErrMissingRecordID  = errors.New("record id is required")
	ErrFieldNotFound    = errors.New("field not found")
	ErrNotContainer     = errors.New("field is not a container field")
)

const (
	CodeOK        = 0
	CodeNoRecords = 401
)

// Operation 请求的类别，决定 401 的处理方式
type Operation int

const (
	OpFind Operation = iota
	OpNew
	OpEdit
	OpDelete
	OpDuplicate
	OpView
	OpList
)

func (o Operation) String() string {
	switch o {
	case OpFind:
		return "find"
	case OpNew:
		return "new"
	case OpEdit:
		return "edit"
	case OpDelete:
		return "delete"
	case OpDuplicate:
		return "duplicate"
	case OpView:
		return "view"
	case OpList:
		return "list"
	}
	return "unknown"
}

// Outcome 错误码分类结果
type Outcome int

const (
	Proceed Outcome = iota
	Empty
	Rejected
)

// ServerError 服务端返回非零错误码
type ServerError struct {
	Code        int
	Description string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("FileMaker Server returned error %d, %s", e.Code, e.Description)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServerRejected
}

// TransportError 网络或 HTTP 层面的失败，保留原始错误
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewServerError 根据错误码构造 ServerError
func NewServerError(code int) *ServerError {
	return &ServerError{Code: code, Description: Description(code)}
}

// Description 返回错误码的描述，未收录的错误码返回 "Unknown error"
func Description(code int) string {
	if desc, ok := descriptions[code]; ok {
		return desc
	}
	return descriptions[-1]
}

// Classify 将错误码映射为继续、空结果或失败
//
// 0 表示成功；查找类请求返回 401 表示没有匹配的记录，不视为错误；
// 其余错误码一律终止当前调用，不做重试
func Classify(code int, op Operation) (Outcome, error) {
	switch {
	case code == CodeOK:
		return Proceed, nil
	case code == CodeNoRecords && op == OpFind:
		return Empty, nil
	}
	return Rejected, NewServerError(code)
}

// CodeOf 提取错误中的服务端错误码
func CodeOf(err error) (int, bool) {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Code, true
	}
	return 0, false
}
