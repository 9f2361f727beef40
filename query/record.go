package query

import (
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/pkg/errors"
)

// FieldValue 新建或编辑时写入的字段值，空值表示清空字段
type FieldValue struct {
	Name  string
	Value string
}

type fieldValues []FieldValue

func (fv fieldValues) params(p Params) Params {
	for _, f := range fv {
		p = p.Add(f.Name, f.Value)
	}
	return p
}

// NewRecord 新建记录
type NewRecord struct {
	fields  fieldValues
	scripts Scripts
}

func NewNewRecord() *NewRecord {
	return &NewRecord{}
}

func (r *NewRecord) AddField(name, value string) *NewRecord {
	r.fields = append(r.fields, FieldValue{Name: name, Value: value})
	return r
}

func (r *NewRecord) SetScript(name, param string) *NewRecord {
	r.scripts.After = &Script{Name: name, Param: param}
	return r
}

func (r *NewRecord) Command() Command           { return CmdNew }
func (r *NewRecord) Operation() fmerr.Operation { return fmerr.OpNew }

func (r *NewRecord) Params() (Params, error) {
	p := r.scripts.params(nil)
	p = r.fields.params(p)
	return p.AddCommand(CmdNew), nil
}

// Edit 编辑记录，设置 ModID 时服务端会校验记录版本
type Edit struct {
	recordID string
	modID    string
	fields   fieldValues
	scripts  Scripts
}

func NewEdit(recordID string) *Edit {
	return &Edit{recordID: recordID}
}

func (e *Edit) SetModID(modID string) *Edit {
	e.modID = modID
	return e
}

func (e *Edit) AddField(name, value string) *Edit {
	e.fields = append(e.fields, FieldValue{Name: name, Value: value})
	return e
}

func (e *Edit) SetScript(name, param string) *Edit {
	e.scripts.After = &Script{Name: name, Param: param}
	return e
}

func (e *Edit) Command() Command           { return CmdEdit }
func (e *Edit) Operation() fmerr.Operation { return fmerr.OpEdit }

func (e *Edit) Params() (Params, error) {
	if e.recordID == "" {
		return nil, errors.Wrap(fmerr.ErrMissingRecordID, "edit")
	}
	p := Params{}.Add("-recid", e.recordID)
	if e.modID != "" {
		p = p.Add("-modid", e.modID)
	}
	p = e.scripts.params(p)
	p = e.fields.params(p)
	return p.AddCommand(CmdEdit), nil
}

// Delete 删除记录
type Delete struct {
	recordID string
	scripts  Scripts
}

func NewDelete(recordID string) *Delete {
	return &Delete{recordID: recordID}
}

func (d *Delete) SetScript(name, param string) *Delete {
	d.scripts.After = &Script{Name: name, Param: param}
	return d
}

func (d *Delete) Command() Command           { return CmdDelete }
func (d *Delete) Operation() fmerr.Operation { return fmerr.OpDelete }

func (d *Delete) Params() (Params, error) {
	if d.recordID == "" {
		return nil, errors.Wrap(fmerr.ErrMissingRecordID, "delete")
	}
	p := Params{}.Add("-recid", d.recordID)
	p = d.scripts.params(p)
	return p.AddCommand(CmdDelete), nil
}

// Duplicate 复制记录
type Duplicate struct {
	recordID string
	scripts  Scripts
}

func NewDuplicate(recordID string) *Duplicate {
	return &Duplicate{recordID: recordID}
}

func (d *Duplicate) SetScript(name, param string) *Duplicate {
	d.scripts.After = &Script{Name: name, Param: param}
	return d
}

func (d *Duplicate) Command() Command           { return CmdDuplicate }
func (d *Duplicate) Operation() fmerr.Operation { return fmerr.OpDuplicate }

func (d *Duplicate) Params() (Params, error) {
	if d.recordID == "" {
		return nil, errors.Wrap(fmerr.ErrMissingRecordID, "duplicate")
	}
	p := Params{}.Add("-recid", d.recordID)
	p = d.scripts.params(p)
	return p.AddCommand(CmdDuplicate), nil
}
