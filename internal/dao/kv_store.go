package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/model"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVStore 基于 gorm 的 domain.Store 实现
type KVStore struct {
	dao *Dao
	publisher
}

var _ domain.Store = (*KVStore)(nil)

// NewKVStore 创建存储并迁移表结构
func NewKVStore(d *Dao) (*KVStore, error) {
	if err := model.AutoMigrate(d.db); err != nil {
		return nil, err
	}
	return &KVStore{dao: d, publisher: publisher{logger: d.logger}}, nil
}

func (s *KVStore) Get(ctx context.Context, uid int64, key string) (string, bool, error) {
	var m model.KVEntry
	err := s.dao.DB(ctx).Where("uid = ? AND store_key = ?", uid, key).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		s.dao.Logger().Error("KVStore.Get",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldKey, key),
			zap.Error(err))
		return "", false, err
	}
	return m.Value, true, nil
}

func upsertEntry(db *gorm.DB, uid int64, key, value string, now time.Time) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}, {Name: "store_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.KVEntry{
		UID:       uid,
		StoreKey:  key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func (s *KVStore) Set(ctx context.Context, uid int64, key, value string) error {
	now := time.Now()
	err := s.dao.ExecuteWrite(ctx, uid, func(db *gorm.DB) error {
		return upsertEntry(db, uid, key, value, now)
	})
	if err != nil {
		s.dao.Logger().Error("KVStore.Set",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldKey, key),
			zap.Error(err))
		return err
	}
	s.publish(domain.ChangeEvent{UID: uid, Key: key, Value: value, At: now})
	return nil
}

// Update 读改写在工作区写队列内的同一事务中完成
func (s *KVStore) Update(ctx context.Context, uid int64, key string, fn func(cur string, ok bool) (string, error)) error {
	var next string
	now := time.Now()
	err := s.dao.ExecuteWrite(ctx, uid, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			var m model.KVEntry
			cur, ok := "", false
			switch err := tx.Where("uid = ? AND store_key = ?", uid, key).Take(&m).Error; {
			case err == nil:
				cur, ok = m.Value, true
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}

			v, err := fn(cur, ok)
			if err != nil {
				return err
			}
			next = v
			return upsertEntry(tx, uid, key, v, now)
		})
	})
	if err != nil {
		return err
	}
	s.publish(domain.ChangeEvent{UID: uid, Key: key, Value: next, At: now})
	return nil
}

func (s *KVStore) Delete(ctx context.Context, uid int64, key string) error {
	err := s.dao.ExecuteWrite(ctx, uid, func(db *gorm.DB) error {
		return db.Where("uid = ? AND store_key = ?", uid, key).Delete(&model.KVEntry{}).Error
	})
	if err != nil {
		return err
	}
	s.publish(domain.ChangeEvent{UID: uid, Key: key, Deleted: true, At: time.Now()})
	return nil
}

func (s *KVStore) UIDsWithKey(ctx context.Context, key string) ([]int64, error) {
	var uids []int64
	err := s.dao.DB(ctx).Model(&model.KVEntry{}).
		Where("store_key = ?", key).
		Distinct("uid").
		Order("uid").
		Pluck("uid", &uids).Error
	return uids, err
}
