package upgrade

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/dao"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dao.NewDBEngineWithConfig(dao.DatabaseConfig{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "upgrade.sqlite3"),
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type recordMigrate struct {
	version string
	calls   *[]string
	err     error
}

func (m recordMigrate) Version() string     { return m.version }
func (m recordMigrate) Description() string { return "record " + m.version }
func (m recordMigrate) Up(context.Context, *gorm.DB) error {
	*m.calls = append(*m.calls, m.version)
	return m.err
}

func TestRun_OrderAndOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	var calls []string
	mgr := NewMigrationManager(db, nil,
		recordMigrate{version: "0.3.0", calls: &calls},
		recordMigrate{version: "0.1.0", calls: &calls},
		recordMigrate{version: "9.0.0", calls: &calls},
	)

	require.NoError(t, mgr.Run(ctx, "0.3.0"))
	assert.Equal(t, []string{"0.1.0", "0.3.0"}, calls)

	// 再次执行不重复
	require.NoError(t, mgr.Run(ctx, "0.3.0"))
	assert.Len(t, calls, 2)

	var count int64
	require.NoError(t, db.Model(&SchemaVersion{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// 升级到新版本后执行剩余脚本
	require.NoError(t, mgr.Run(ctx, "v9.0.0"))
	assert.Equal(t, []string{"0.1.0", "0.3.0", "9.0.0"}, calls)
}

func TestRun_FailedMigrationNotRecorded(t *testing.T) {
	db := newTestDB(t)
	var calls []string
	mgr := NewMigrationManager(db, nil, recordMigrate{version: "0.1.0", calls: &calls, err: errors.New("boom")})

	require.Error(t, mgr.Run(context.Background(), "0.1.0"))

	var count int64
	require.NoError(t, db.Model(&SchemaVersion{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRun_InvalidVersion(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, NewMigrationManager(db, nil).Run(context.Background(), "latest"))
}

func TestKeyValidFlagMigrate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, model.AutoMigrate(db))

	now := time.Now()
	rows := []model.KVEntry{
		{UID: 1, StoreKey: domain.KeyAPIKeyValid, Value: " True ", CreatedAt: now, UpdatedAt: now},
		{UID: 2, StoreKey: domain.KeyAPIKeyValid, Value: "0", CreatedAt: now, UpdatedAt: now},
		{UID: 3, StoreKey: domain.KeyAPIKeyValid, Value: "false", CreatedAt: now, UpdatedAt: now},
		{UID: 4, StoreKey: domain.KeyNotes, Value: "True", CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.Create(&rows).Error)

	require.NoError(t, Execute(ctx, db, nil, "0.3.0"))

	var left []model.KVEntry
	require.NoError(t, db.Order("uid").Find(&left).Error)
	values := make([]string, 0, len(left))
	for _, e := range left {
		values = append(values, e.Value)
	}
	// 其它键不受影响
	assert.Equal(t, []string{"true", "false", "false", "True"}, values)
}
