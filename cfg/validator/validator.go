package validator

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := field.Tag.Get("cfg"); name != "" && name != "-" {
				return name
			}
			return field.Name
		})
	})
	return validate
}

// ValidateStruct 按 validate tag 校验结构体，非结构体与 nil 指针直接通过
func ValidateStruct(object any) error {
	rv := reflect.ValueOf(object)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return instance().Struct(rv.Interface())
}
