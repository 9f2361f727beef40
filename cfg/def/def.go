package def

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// SetDefaults 按 def tag 填充零值字段
//
// 只递归进入非 nil 的指针，nil 表示该组件未配置
func SetDefaults(object any) error {
	if object == nil {
		return fmt.Errorf("object cannot be nil")
	}
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer")
	}
	return setDefaults(rv.Elem())
}

func setDefaults(rv reflect.Value) error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return setDefaults(rv.Elem())
	}
	if rv.Kind() != reflect.Struct || rv.Type() == reflect.TypeOf(time.Time{}) {
		return nil
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := rv.Field(i)
		if !fv.CanSet() || field.Tag.Get("cfg") == "-" {
			continue
		}

		switch fv.Kind() {
		case reflect.Struct, reflect.Ptr:
			if err := setDefaults(fv); err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
		case reflect.Slice:
			if fv.Type().Elem().Kind() == reflect.Struct || fv.Type().Elem().Kind() == reflect.Ptr {
				for j := 0; j < fv.Len(); j++ {
					if err := setDefaults(fv.Index(j)); err != nil {
						return fmt.Errorf("field %s[%d]: %w", field.Name, j, err)
					}
				}
			}
		}

		tag := field.Tag.Get("def")
		if tag == "" || !fv.IsZero() {
			continue
		}
		if err := setValue(fv, tag); err != nil {
			return fmt.Errorf("default value of field %s: %w", field.Name, err)
		}
	}
	return nil
}

func setValue(rv reflect.Value, value string) error {
	if rv.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		rv.SetInt(int64(d))
		return nil
	}

	switch rv.Kind() {
	case reflect.String:
		rv.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 0, rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 0, rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.Slice:
		parts := strings.Split(value, ",")
		slice := reflect.MakeSlice(rv.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := setValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
				return err
			}
		}
		rv.Set(slice)
	default:
		return fmt.Errorf("unsupported type %v", rv.Type())
	}
	return nil
}
