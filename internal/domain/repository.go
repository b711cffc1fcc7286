// Package domain 定义领域模型和接口
package domain

import "context"

// KeyspaceEntry 主存储中的一条键值记录
type KeyspaceEntry struct {
	Key   string
	Value []byte
}

// KeyspaceRepository 主键值存储仓储接口
// 键为用户名，值为序列化的 UserRecord
type KeyspaceRepository interface {
	// Get 读取一个键，不存在时返回 (nil, nil)
	Get(ctx context.Context, key string) ([]byte, error)

	// Put 写入一个键，已存在时覆盖
	Put(ctx context.Context, key string, value []byte) error

	// Delete 删除一个键，不存在不算错误
	Delete(ctx context.Context, key string) error

	// ListAll 列出全部键值记录，启动加载用
	ListAll(ctx context.Context) ([]*KeyspaceEntry, error)

	// Count 返回键数量
	Count(ctx context.Context) (int64, error)
}
