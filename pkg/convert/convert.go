// Package convert 提供结构体与序列化转换工具
package convert

import (
	"github.com/bytedance/sonic"
	"github.com/jinzhu/copier"
)

// StructAssign 按同名字段将 source 赋值到 target，返回 target
// 用于领域模型到 DTO 的转换
func StructAssign(source interface{}, target interface{}) interface{} {
	_ = copier.Copy(target, source)
	return target
}

// Marshal 统一的 JSON 序列化入口，使用 sonic
func Marshal(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal 统一的 JSON 反序列化入口
func Unmarshal(data []byte, v interface{}) error {
	return sonic.Unmarshal(data, v)
}

// DeepClone 通过序列化往返做深拷贝
// 持久层对外只交出快照，不暴露内部可变对象
func DeepClone[T any](v T) (T, error) {
	var out T
	data, err := sonic.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := sonic.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
