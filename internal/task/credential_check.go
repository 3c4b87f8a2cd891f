package task

import (
	"context"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/app"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/internal/service"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"

	"go.uber.org/zap"
)

// CredentialCheckTask 定时重新校验被判定无效的密钥
type CredentialCheckTask struct {
	store    domain.Store
	creds    service.CredentialService
	interval time.Duration
	logger   *zap.Logger
}

// NewCredentialCheckTask 创建密钥校验任务
func NewCredentialCheckTask(store domain.Store, creds service.CredentialService, interval time.Duration, lg *zap.Logger) *CredentialCheckTask {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &CredentialCheckTask{store: store, creds: creds, interval: interval, logger: lg}
}

func (t *CredentialCheckTask) Name() string {
	return "CredentialCheck"
}

func (t *CredentialCheckTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *CredentialCheckTask) IsStartupRun() bool {
	return false
}

// Run 只处理已保存 "false" 的工作区，未校验过的密钥留给下次 Status 调用
func (t *CredentialCheckTask) Run(ctx context.Context) error {
	uids, err := t.store.UIDsWithKey(ctx, domain.KeyAPIKey)
	if err != nil {
		return err
	}

	var checked, recovered int
	for _, uid := range uids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		flag, ok, err := t.store.Get(ctx, uid, domain.KeyAPIKeyValid)
		if err != nil {
			t.logger.Warn("task log", zap.String("task", t.Name()), zap.Int64(logger.FieldUID, uid), zap.Error(err))
			continue
		}
		if !ok || flag != "false" {
			continue
		}
		checked++
		valid, err := t.creds.Revalidate(ctx, uid)
		if err != nil {
			t.logger.Warn("task log", zap.String("task", t.Name()), zap.Int64(logger.FieldUID, uid), zap.Error(err))
			continue
		}
		if valid {
			recovered++
		}
	}

	t.logger.Info("task log",
		zap.String("task", t.Name()),
		zap.Int("workspaces", len(uids)),
		zap.Int("checked", checked),
		zap.Int("recovered", recovered))
	return nil
}

func init() {
	Register(func(a *app.App) (Task, error) {
		return NewCredentialCheckTask(a.Store, a.CredentialService, a.Config().GetCredentialCheckInterval(), a.Logger()), nil
	})
}
