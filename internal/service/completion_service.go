package service

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"
	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
	"go.uber.org/zap"
)

// CompletionService 读取工作区凭证并调用补全接口
type CompletionService interface {
	// Complete 发送一次补全请求，system 为空时使用默认系统提示词
	// 401 时记录密钥无效，收到 2xx 时记录密钥有效
	Complete(ctx context.Context, uid int64, prompt, system string) (string, error)
}

type completionService struct {
	store  domain.Store
	client Completer
	logger *zap.Logger
}

// NewCompletionService 创建 CompletionService 实例
func NewCompletionService(store domain.Store, client Completer, lg *zap.Logger) CompletionService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &completionService{store: store, client: client, logger: lg}
}

func (s *completionService) Complete(ctx context.Context, uid int64, prompt, system string) (string, error) {
	key, _, err := s.store.Get(ctx, uid, domain.KeyAPIKey)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", &mistral.Error{Kind: mistral.KindMissingKey, Message: mistral.MsgMissingKey}
	}

	model, _, err := s.store.Get(ctx, uid, domain.KeyModel)
	if err != nil {
		return "", err
	}
	if model == "" {
		model = domain.DefaultModel
	}
	if system == "" {
		system = mistral.DefaultSystemPrompt
	}

	start := time.Now()
	out, err := s.client.Complete(ctx, key, model, system, prompt)
	if err != nil {
		var me *mistral.Error
		if errors.As(err, &me) {
			switch {
			case me.Kind == mistral.KindAuth:
				s.markValid(ctx, uid, false)
			case me.Accepted():
				// 2xx 说明密钥可用，响应体是否可解析不影响
				s.markValid(ctx, uid, true)
			}
		}
		s.logger.Info("completion failed",
			zap.Int64(logger.FieldUID, uid),
			zap.String(logger.FieldModel, model),
			zap.Duration(logger.FieldDuration, time.Since(start)),
			zap.Error(err))
		return "", err
	}

	s.markValid(ctx, uid, true)
	return out, nil
}

// markValid 状态不变时不重复写入
func (s *completionService) markValid(ctx context.Context, uid int64, valid bool) {
	want := "false"
	if valid {
		want = "true"
	}
	if cur, ok, err := s.store.Get(ctx, uid, domain.KeyAPIKeyValid); err == nil && ok && cur == want {
		return
	}
	if err := s.store.Set(context.WithoutCancel(ctx), uid, domain.KeyAPIKeyValid, want); err != nil {
		s.logger.Warn("persist key validity failed", zap.Int64(logger.FieldUID, uid), zap.Error(err))
	}
}
