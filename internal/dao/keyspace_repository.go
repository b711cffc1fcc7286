package dao

import (
	"context"
	"errors"

	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/internal/model"
	"github.com/haierkeys/offline-note-vault/pkg/timex"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// keyspaceRepository 实现 domain.KeyspaceRepository 接口
type keyspaceRepository struct {
	dao *Dao
}

// NewKeyspaceRepository 创建 KeyspaceRepository 实例
func NewKeyspaceRepository(dao *Dao) domain.KeyspaceRepository {
	return &keyspaceRepository{dao: dao}
}

// keyspace 获取已迁移的连接
func (r *keyspaceRepository) keyspace() *gorm.DB {
	return r.dao.UseWithMigrate("Keyspace")
}

// Get 读取一个键，不存在时返回 (nil, nil)
func (r *keyspaceRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var m model.Keyspace
	err := r.keyspace().WithContext(ctx).Where("key = ?", key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m.Value, nil
}

// Put 写入一个键，已存在时覆盖
func (r *keyspaceRepository) Put(ctx context.Context, key string, value []byte) error {
	now := timex.Now()
	m := model.Keyspace{
		Key:       key,
		Value:     value,
		Size:      int64(len(value)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.keyspace().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "size", "updated_at"}),
	}).Create(&m).Error
}

// Delete 删除一个键，不存在不算错误
func (r *keyspaceRepository) Delete(ctx context.Context, key string) error {
	return r.keyspace().WithContext(ctx).Where("key = ?", key).Delete(&model.Keyspace{}).Error
}

// ListAll 列出全部键值记录，启动加载用
func (r *keyspaceRepository) ListAll(ctx context.Context) ([]*domain.KeyspaceEntry, error) {
	var ms []*model.Keyspace
	if err := r.keyspace().WithContext(ctx).Order("key asc").Find(&ms).Error; err != nil {
		return nil, err
	}
	entries := make([]*domain.KeyspaceEntry, 0, len(ms))
	for _, m := range ms {
		entries = append(entries, &domain.KeyspaceEntry{
			Key:   m.Key,
			Value: m.Value,
		})
	}
	return entries, nil
}

// Count 返回键数量
func (r *keyspaceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.keyspace().WithContext(ctx).Model(&model.Keyspace{}).Count(&count).Error
	return count, err
}
