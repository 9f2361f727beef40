package resultset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/pkg/errors"
)

// Formats datasource 节点给出的日期时间模板
type Formats struct {
	Date      string
	Time      string
	Timestamp string
}

// DefaultFormats 服务端未给出模板时使用
var DefaultFormats = Formats{
	Date:      "MM/dd/yyyy",
	Time:      "HH:mm:ss",
	Timestamp: "MM/dd/yyyy HH:mm:ss",
}

// NumberPolicy 数值字段的解析策略
type NumberPolicy func(text string) (float64, error)

// TemporalPolicy 日期时间字段的解析策略，template 为服务端给出的模板
type TemporalPolicy func(template, text string) (time.Time, error)

// LenientNumber 解析失败时返回 0，不返回错误
func LenientNumber(text string) (float64, error) {
	v, err := parseNumber(text)
	if err != nil {
		return 0, nil
	}
	return v, nil
}

// StrictNumber 解析失败时返回错误
func StrictNumber(text string) (float64, error) {
	return parseNumber(text)
}

// parseNumber 只接受十进制的有限值，十六进制、Inf 和 NaN 都视为无法解析
func parseNumber(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if strings.ContainsAny(s, "xX") {
		return 0, errors.Errorf("invalid number %q", text)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("invalid number %q", text)
	}
	return v, nil
}

// TemplateDate 按模板中 M、d、y 的位置截取月(2)、日(2)、年(4)
func TemplateDate(template, text string) (time.Time, error) {
	year, month, day, err := templateDate(template, text)
	if err != nil {
		return time.Time{}, err
	}
	return makeTime(year, month, day, 0, 0, 0)
}

// TemplateTimestamp 在 TemplateDate 的基础上按 H、m、s 的位置截取时分秒(各 2 位)
func TemplateTimestamp(template, text string) (time.Time, error) {
	year, month, day, err := templateDate(template, text)
	if err != nil {
		return time.Time{}, err
	}
	hour, err := slice(template, text, 'H', 2)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := slice(template, text, 'm', 2)
	if err != nil {
		return time.Time{}, err
	}
	second, err := slice(template, text, 's', 2)
	if err != nil {
		return time.Time{}, err
	}
	return makeTime(year, month, day, hour, minute, second)
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"2006-01-02",
	time.RFC3339,
}

// GenericTime 不使用模板，依次尝试常见的时间格式
//
// 只有时间部分的文本得到的日期为 0000-01-01
func GenericTime(_ string, text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized time %q", text)
}

func templateDate(template, text string) (int, int, int, error) {
	month, err := slice(template, text, 'M', 2)
	if err != nil {
		return 0, 0, 0, err
	}
	day, err := slice(template, text, 'd', 2)
	if err != nil {
		return 0, 0, 0, err
	}
	year, err := slice(template, text, 'y', 4)
	if err != nil {
		return 0, 0, 0, err
	}
	return year, month, day, nil
}

func slice(template, text string, token byte, width int) (int, error) {
	pos := strings.IndexByte(template, token)
	if pos < 0 {
		return 0, errors.Errorf("template %q has no %q token", template, token)
	}
	if pos+width > len(text) {
		return 0, errors.Errorf("%q is too short for template %q", text, template)
	}
	v, err := strconv.Atoi(text[pos : pos+width])
	if err != nil {
		return 0, errors.Wrapf(err, "%q does not match template %q", text, template)
	}
	return v, nil
}

func makeTime(year, month, day, hour, minute, second int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, errors.Errorf("month %d out of range", month)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
	// time.Date 会把越界的值进位，这里要求原样还原
	if t.Day() != day || t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, errors.Errorf("invalid date %04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, minute, second)
	}
	return t, nil
}

// CoercionError 单个字段的值无法转换为声明的类型
type CoercionError struct {
	Field string
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("invalid data in %s: %v", e.Field, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

func (e *CoercionError) Is(target error) bool {
	return target == fmerr.ErrInvalidFieldData
}

// Coercion 各类型的转换策略
type Coercion struct {
	Number    NumberPolicy
	Date      TemporalPolicy
	Time      TemporalPolicy
	Timestamp TemporalPolicy
}

// DefaultCoercion 数值宽松、日期严格
var DefaultCoercion = Coercion{
	Number:    LenientNumber,
	Date:      TemplateDate,
	Time:      GenericTime,
	Timestamp: TemplateTimestamp,
}

// Coerce 将字段文本转换为声明类型的值，text 与 container 原样返回
func (c Coercion) Coerce(field string, result dataset.ResultType, text string, formats Formats) (any, error) {
	var (
		v   any
		err error
	)
	switch result {
	case dataset.Number:
		v, err = c.Number(text)
	case dataset.Date:
		v, err = c.Date(formats.Date, text)
	case dataset.Time:
		v, err = c.Time(formats.Time, text)
	case dataset.Timestamp:
		v, err = c.Timestamp(formats.Timestamp, text)
	default:
		return text, nil
	}
	if err != nil {
		return nil, &CoercionError{Field: field, Err: err}
	}
	return v, nil
}

func (c Coercion) withDefaults() Coercion {
	if c.Number == nil {
		c.Number = DefaultCoercion.Number
	}
	if c.Date == nil {
		c.Date = DefaultCoercion.Date
	}
	if c.Time == nil {
		c.Time = DefaultCoercion.Time
	}
	if c.Timestamp == nil {
		c.Timestamp = DefaultCoercion.Timestamp
	}
	return c
}
