package upgrade

import (
	"context"
	"strings"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/model"

	"gorm.io/gorm"
)

// KeyValidFlagMigrate 将密钥校验状态统一为小写的 "true" / "false"
// 其它取值按无效处理，写成 "false" 后由定时校验任务重新校验
type KeyValidFlagMigrate struct{}

func (m *KeyValidFlagMigrate) Version() string {
	return "0.2.0"
}

func (m *KeyValidFlagMigrate) Description() string {
	return "Normalize mistral-api-key-valid values to true/false"
}

func (m *KeyValidFlagMigrate) Up(ctx context.Context, tx *gorm.DB) error {
	var rows []model.KVEntry
	err := tx.WithContext(ctx).
		Where("store_key = ? AND value NOT IN ?", domain.KeyAPIKeyValid, []string{"true", "false"}).
		Find(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		value := "false"
		if strings.EqualFold(strings.TrimSpace(row.Value), "true") {
			value = "true"
		}
		err := tx.WithContext(ctx).Model(&model.KVEntry{}).
			Where("id = ?", row.ID).
			Update("value", value).Error
		if err != nil {
			return err
		}
	}
	return nil
}
