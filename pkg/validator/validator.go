// Package validator gin binding 使用的自定义验证器
package validator

import (
	"reflect"
	"sync"

	val "github.com/go-playground/validator/v10"
)

// CustomValidator 封装 validator/v10，供 binding.Validator 注入使用
type CustomValidator struct {
	once     sync.Once
	Validate *val.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

// ValidateStruct 实现 binding.StructValidator
func (v *CustomValidator) ValidateStruct(obj any) error {
	if reflect.ValueOf(obj).Kind() == reflect.Struct ||
		(reflect.ValueOf(obj).Kind() == reflect.Ptr && reflect.ValueOf(obj).Elem().Kind() == reflect.Struct) {
		v.lazyinit()
		if err := v.Validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

// Engine 返回底层验证引擎
func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.Validate = val.New()
		v.Validate.SetTagName("binding")
	})
}
