package dto

import "time"

// StorageChangeDTO 推送给客户端的存储变更，不包含值
type StorageChangeDTO struct {
	Key     string    `json:"key"`
	Deleted bool      `json:"deleted"`
	At      time.Time `json:"at"`
}
