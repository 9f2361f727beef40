package storage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hatlonely/fmxml/cfg/def"
	"github.com/hatlonely/fmxml/cfg/validator"
)

// MapStorage 解码后的配置数据，由 map、slice 和标量组成
type MapStorage struct {
	data any
}

func NewMapStorage(data any) *MapStorage {
	return &MapStorage{data: data}
}

func (ms *MapStorage) Data() any {
	return ms.data
}

// Sub 获取子配置，key 用点号分隔层级，[] 表示数组索引
// 例如 "session.transport.options" 或 "writers[0].type"
func (ms *MapStorage) Sub(key string) *MapStorage {
	if key == "" {
		return ms
	}
	current := ms.data
	for _, k := range parseKey(key) {
		current = valueByKey(current, k)
		if current == nil {
			return NewMapStorage(nil)
		}
	}
	return NewMapStorage(current)
}

// ConvertTo 将配置转换为 object，随后按 def tag 填充默认值并按 validate tag 校验
//
// 类型为 any 的字段保存为 *MapStorage，由使用方在确定具体类型后再次转换
func (ms *MapStorage) ConvertTo(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer, got %T", object)
	}
	if err := convertValue(ms.data, rv.Elem()); err != nil {
		return err
	}
	if isStruct(rv.Type()) {
		if err := def.SetDefaults(object); err != nil {
			return err
		}
		if err := validator.ValidateStruct(object); err != nil {
			return fmt.Errorf("validate %v: %w", rv.Type().Elem(), err)
		}
	}
	return nil
}

func isStruct(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func parseKey(key string) []string {
	var keys []string
	for _, part := range strings.Split(key, ".") {
		for part != "" {
			i := strings.IndexByte(part, '[')
			if i < 0 {
				keys = append(keys, part)
				break
			}
			if i > 0 {
				keys = append(keys, part[:i])
			}
			j := strings.IndexByte(part[i:], ']')
			if j < 0 {
				keys = append(keys, part[i+1:])
				break
			}
			keys = append(keys, part[i+1:i+j])
			part = part[i+j+1:]
		}
	}
	return keys
}

func valueByKey(data any, key string) any {
	switch v := data.(type) {
	case map[string]any:
		if value, ok := v[key]; ok {
			return value
		}
		for k, value := range v {
			if strings.EqualFold(k, key) {
				return value
			}
		}
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(v) {
			return nil
		}
		return v[i]
	}
	return nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

func convertValue(src any, dst reflect.Value) error {
	if src == nil {
		return nil
	}
	if s, ok := src.(*MapStorage); ok {
		return convertValue(s.data, dst)
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convertValue(src, dst.Elem())
	}
	if dst.Kind() == reflect.Interface {
		if dst.NumMethod() == 0 {
			// 具体类型由构造函数决定
			switch src.(type) {
			case map[string]any, []any:
				dst.Set(reflect.ValueOf(NewMapStorage(src)))
			default:
				dst.Set(reflect.ValueOf(src))
			}
			return nil
		}
		return fmt.Errorf("cannot convert %T to %v", src, dst.Type())
	}

	sv := reflect.ValueOf(src)
	switch {
	case dst.Type() == durationType:
		return convertToDuration(sv, dst)
	case dst.Type() == timeType:
		return convertToTime(sv, dst)
	}

	switch dst.Kind() {
	case reflect.Struct:
		m, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot convert %T to %v", src, dst.Type())
		}
		return convertToStruct(m, dst)
	case reflect.Map:
		m, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot convert %T to %v", src, dst.Type())
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		for k, v := range m {
			key := reflect.New(dst.Type().Key()).Elem()
			if err := convertScalar(reflect.ValueOf(k), key); err != nil {
				return err
			}
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := convertValue(v, elem); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			dst.SetMapIndex(key, elem)
		}
		return nil
	case reflect.Slice:
		var items []any
		switch {
		case sv.Kind() == reflect.Slice:
			for i := 0; i < sv.Len(); i++ {
				items = append(items, sv.Index(i).Interface())
			}
		case sv.Kind() == reflect.String:
			// 环境变量只能给出逗号分隔的字符串
			for _, part := range strings.Split(sv.String(), ",") {
				items = append(items, strings.TrimSpace(part))
			}
		default:
			return fmt.Errorf("cannot convert %T to %v", src, dst.Type())
		}
		slice := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := convertValue(item, slice.Index(i)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(slice)
		return nil
	}
	return convertScalar(sv, dst)
}

func convertScalar(sv, dst reflect.Value) error {
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}

	if sv.Kind() == reflect.String {
		s := strings.TrimSpace(sv.String())
		switch dst.Kind() {
		case reflect.String:
			dst.SetString(sv.String())
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			dst.SetBool(b)
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(s, 0, dst.Type().Bits())
			if err != nil {
				return err
			}
			dst.SetInt(n)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(s, 0, dst.Type().Bits())
			if err != nil {
				return err
			}
			dst.SetUint(n)
			return nil
		case reflect.Float32, reflect.Float64:
			f, err := strconv.ParseFloat(s, dst.Type().Bits())
			if err != nil {
				return err
			}
			dst.SetFloat(f)
			return nil
		}
	}

	// 数字与布尔值写入字符串字段时按文本处理，避免 int 被转换为 rune
	if dst.Kind() == reflect.String {
		dst.SetString(fmt.Sprint(sv.Interface()))
		return nil
	}
	if isNumber(sv.Kind()) && isNumber(dst.Kind()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot convert %v to %v", sv.Type(), dst.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convertToDuration(sv, dst reflect.Value) error {
	switch sv.Kind() {
	case reflect.String:
		d, err := time.ParseDuration(strings.TrimSpace(sv.String()))
		if err != nil {
			return fmt.Errorf("failed to parse duration %q: %w", sv.String(), err)
		}
		dst.SetInt(int64(d))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 整数按纳秒
		dst.SetInt(sv.Int())
		return nil
	case reflect.Float32, reflect.Float64:
		// 浮点数按秒
		dst.SetInt(int64(sv.Float() * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("cannot convert %v to time.Duration", sv.Type())
}

func convertToTime(sv, dst reflect.Value) error {
	if t, ok := sv.Interface().(time.Time); ok {
		dst.Set(reflect.ValueOf(t))
		return nil
	}
	if sv.Kind() != reflect.String {
		return fmt.Errorf("cannot convert %v to time.Time", sv.Type())
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, sv.String()); err == nil {
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}
	return fmt.Errorf("failed to parse time %q", sv.String())
}

// convertToStruct 按 cfg tag 匹配字段，找不到时忽略大小写再匹配一次
func convertToStruct(src map[string]any, dst reflect.Value) error {
	rt := dst.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := dst.Field(i)
		if !fv.CanSet() {
			continue
		}
		name := field.Tag.Get("cfg")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		value, ok := src[name]
		if !ok {
			for k, v := range src {
				if strings.EqualFold(k, name) {
					value, ok = v, true
					break
				}
			}
		}
		if !ok {
			continue
		}
		if err := convertValue(value, fv); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
