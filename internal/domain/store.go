// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"time"
)

// 工作区存储键，与浏览器版本的 localStorage 键保持一致
const (
	KeyAPIKey           = "mistral-api-key"
	KeyModel            = "mistral-model"
	KeyAPIKeyValid      = "mistral-api-key-valid"
	KeyNotes            = "miknow-notes"
	KeyGraphData        = "miknow-graph-data"
	KeyThemes           = "miknow-themes"
	KeyPlugins          = "miknow-plugins"
	KeyActiveTheme      = "miknow-active-theme"
	KeyInstalledPlugins = "miknow-installed-plugins"
)

// ChangeEvent 存储写入后发布的变更事件
type ChangeEvent struct {
	UID     int64     `json:"uid"`
	Key     string    `json:"key"`
	Value   string    `json:"-"`
	Deleted bool      `json:"deleted"`
	At      time.Time `json:"at"`
}

// Store 按工作区隔离的键值存储端口
type Store interface {
	// Get 读取键值，ok 为 false 表示键不存在
	Get(ctx context.Context, uid int64, key string) (value string, ok bool, err error)

	// Set 写入键值并通知订阅者
	Set(ctx context.Context, uid int64, key, value string) error

	// Update 读取当前值并写入 fn 的返回值，同一工作区的其他写入不会插入其间
	// fn 返回错误时不写入
	Update(ctx context.Context, uid int64, key string, fn func(cur string, ok bool) (string, error)) error

	// Delete 删除键并通知订阅者
	Delete(ctx context.Context, uid int64, key string) error

	// Subscribe 注册变更回调，返回取消函数
	Subscribe(fn func(ChangeEvent)) (cancel func())

	// UIDsWithKey 列出存在指定键的工作区
	UIDsWithKey(ctx context.Context, key string) ([]int64, error)
}
