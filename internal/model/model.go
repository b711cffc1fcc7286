// Package model 数据库表模型
package model

import (
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Keyspace":
		return db.AutoMigrate(Keyspace{})
	}
	return nil
}
