package model

import (
	"github.com/haierkeys/offline-note-vault/pkg/timex"
)

// Keyspace 主键值存储表，一个用户一行
type Keyspace struct {
	Key       string     `gorm:"column:key;primaryKey" json:"key"`
	Value     []byte     `gorm:"column:value" json:"value"`
	Size      int64      `gorm:"column:size;not null;default:0" json:"size"`
	CreatedAt timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt"`
}

// TableName Keyspace 表名
func (Keyspace) TableName() string {
	return "keyspace"
}
