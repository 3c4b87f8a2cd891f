// Package upgrade 启动时迁移表结构并执行版本化的数据升级脚本
package upgrade

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/model"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// SchemaVersion 已执行的升级记录
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"appliedAt"`
}

// Migration 升级脚本
type Migration interface {
	Version() string
	Description() string
	Up(ctx context.Context, tx *gorm.DB) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	migrations []Migration
}

// NewMigrationManager 创建升级管理器，migrations 为空时使用内置脚本
func NewMigrationManager(db *gorm.DB, logger *zap.Logger, migrations ...Migration) *MigrationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(migrations) == 0 {
		migrations = []Migration{
			&KeyValidFlagMigrate{},
		}
	}
	return &MigrationManager{db: db, logger: logger, migrations: migrations}
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Run 迁移表结构后按版本号顺序执行未记录的脚本
// 版本号高于 runningVersion 的脚本留给后续版本
func (m *MigrationManager) Run(ctx context.Context, runningVersion string) error {
	if err := model.AutoMigrate(m.db); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	if err := m.db.AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied versions: %w", err)
	}

	running := canonical(runningVersion)
	if !semver.IsValid(running) {
		return fmt.Errorf("running version %q is not a valid semver", runningVersion)
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, mg := range m.migrations {
		v := canonical(mg.Version())
		if !semver.IsValid(v) {
			return fmt.Errorf("migration version %q is not a valid semver", mg.Version())
		}
		if applied[mg.Version()] || semver.Compare(v, running) > 0 {
			continue
		}
		pending = append(pending, mg)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return semver.Compare(canonical(pending[i].Version()), canonical(pending[j].Version())) < 0
	})

	for _, mg := range pending {
		m.logger.Info("applying migration",
			zap.String("scriptVersion", mg.Version()),
			zap.String("desc", mg.Description()))

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := mg.Up(ctx, tx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return tx.Create(&SchemaVersion{
				Version:     mg.Version(),
				Description: mg.Description(),
				AppliedAt:   time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", mg.Version(), err)
		}
	}

	if len(pending) == 0 {
		m.logger.Info("database is already up to date", zap.String("runningVersion", running))
	} else {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", len(pending)))
	}
	return nil
}

func (m *MigrationManager) appliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []SchemaVersion
	if err := m.db.WithContext(ctx).Find(&versions).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v.Version] = true
	}
	return applied, nil
}

// Execute 使用内置脚本执行升级
func Execute(ctx context.Context, db *gorm.DB, logger *zap.Logger, runningVersion string) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, logger).Run(ctx, runningVersion)
}
