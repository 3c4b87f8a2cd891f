package model

import (
	"time"

	"gorm.io/gorm"
)

// KVEntry 工作区键值记录
type KVEntry struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID       int64     `gorm:"column:uid;not null;uniqueIndex:idx_kv_entry_uid_key,priority:1" json:"uid"`
	StoreKey  string    `gorm:"column:store_key;type:varchar(191);not null;uniqueIndex:idx_kv_entry_uid_key,priority:2;index:idx_kv_entry_key" json:"storeKey"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// AutoMigrate 迁移全部模型
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&KVEntry{})
}
