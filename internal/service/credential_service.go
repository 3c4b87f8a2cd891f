package service

import (
	"context"
	"strconv"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/logger"
	"github.com/haierkeys/miknow-notebook-service/pkg/workerpool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CredentialService 定义凭证业务服务接口
type CredentialService interface {
	// Get 读取凭证，模型为空时使用默认模型
	Get(ctx context.Context, uid int64) (*domain.Credential, error)

	// Models 可选模型列表
	Models() []domain.ModelOption

	// Validate 校验密钥并保存校验结果
	Validate(ctx context.Context, uid int64, key string) (bool, error)

	// Save 保存密钥与模型，非空密钥需先通过校验
	Save(ctx context.Context, uid int64, key, model string) error

	// Status 返回密钥状态，必要时触发校验
	Status(ctx context.Context, uid int64) (*domain.CredentialStatus, error)

	// Revalidate 使用已保存的密钥重新校验
	Revalidate(ctx context.Context, uid int64) (bool, error)
}

type credentialService struct {
	store     domain.Store
	validator KeyValidator
	pool      *workerpool.Pool
	sf        singleflight.Group
	logger    *zap.Logger
	// revalidateTimeout 后台重新校验的超时时间
	revalidateTimeout time.Duration
}

// NewCredentialService 创建 CredentialService 实例
// pool 为 nil 时后台重新校验在独立 goroutine 中执行
func NewCredentialService(store domain.Store, validator KeyValidator, pool *workerpool.Pool, lg *zap.Logger) CredentialService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &credentialService{
		store:             store,
		validator:         validator,
		pool:              pool,
		logger:            lg,
		revalidateTimeout: 30 * time.Second,
	}
}

func (s *credentialService) Get(ctx context.Context, uid int64) (*domain.Credential, error) {
	key, _, err := s.store.Get(ctx, uid, domain.KeyAPIKey)
	if err != nil {
		return nil, err
	}
	model, _, err := s.store.Get(ctx, uid, domain.KeyModel)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = domain.DefaultModel
	}

	cred := &domain.Credential{APIKey: key, Model: model}
	flag, ok, err := s.store.Get(ctx, uid, domain.KeyAPIKeyValid)
	if err != nil {
		return nil, err
	}
	if ok {
		valid := flag == "true"
		cred.Valid = &valid
	}
	return cred, nil
}

func (s *credentialService) Models() []domain.ModelOption {
	out := make([]domain.ModelOption, len(domain.Models))
	copy(out, domain.Models)
	return out
}

// check 同一密钥的并发校验只发起一次请求
func (s *credentialService) check(ctx context.Context, key string) bool {
	v, _, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.validator.ValidateKey(ctx, key), nil
	})
	return v.(bool)
}

func (s *credentialService) setValid(ctx context.Context, uid int64, valid bool) error {
	return s.store.Set(ctx, uid, domain.KeyAPIKeyValid, strconv.FormatBool(valid))
}

func (s *credentialService) Validate(ctx context.Context, uid int64, key string) (bool, error) {
	if key == "" {
		return false, s.setValid(ctx, uid, false)
	}
	valid := s.check(ctx, key)
	if err := s.setValid(ctx, uid, valid); err != nil {
		return valid, err
	}
	return valid, nil
}

func (s *credentialService) Save(ctx context.Context, uid int64, key, model string) error {
	if model == "" {
		model = domain.DefaultModel
	}
	if !domain.IsKnownModel(model) {
		return code.ErrorModelUnknown.WithDetails(model)
	}

	if key != "" {
		if !s.check(ctx, key) {
			return code.ErrorAPIKeyRejected
		}
		if err := s.setValid(ctx, uid, true); err != nil {
			return err
		}
	} else if err := s.setValid(ctx, uid, false); err != nil {
		return err
	}

	if err := s.store.Set(ctx, uid, domain.KeyAPIKey, key); err != nil {
		return err
	}
	return s.store.Set(ctx, uid, domain.KeyModel, model)
}

func (s *credentialService) Status(ctx context.Context, uid int64) (*domain.CredentialStatus, error) {
	cred, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	status := &domain.CredentialStatus{Model: cred.Model, Checked: true}
	if cred.APIKey == "" {
		return status, nil
	}
	status.HasKey = true

	if cred.Valid != nil {
		status.Valid = *cred.Valid
		if !status.Valid {
			status.Revalidating = s.revalidateAsync(uid, cred.APIKey)
		}
		return status, nil
	}

	status.Valid, err = s.Validate(ctx, uid, cred.APIKey)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (s *credentialService) Revalidate(ctx context.Context, uid int64) (bool, error) {
	key, _, err := s.store.Get(ctx, uid, domain.KeyAPIKey)
	if err != nil {
		return false, err
	}
	return s.Validate(ctx, uid, key)
}

// revalidateAsync 在后台重新校验，返回是否成功提交
func (s *credentialService) revalidateAsync(uid int64, key string) bool {
	job := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.revalidateTimeout)
		defer cancel()

		valid := s.check(ctx, key)
		if !valid {
			return nil
		}
		// 密钥在校验期间被替换时不覆盖新的状态
		current, _, err := s.store.Get(ctx, uid, domain.KeyAPIKey)
		if err != nil || current != key {
			return err
		}
		return s.setValid(ctx, uid, true)
	}

	if s.pool == nil {
		go func() {
			if err := job(context.Background()); err != nil {
				s.logger.Warn("credential revalidate failed", zap.Int64(logger.FieldUID, uid), zap.Error(err))
			}
		}()
		return true
	}

	err := s.pool.SubmitAsync(context.Background(), func(ctx context.Context) error {
		if err := job(ctx); err != nil {
			s.logger.Warn("credential revalidate failed", zap.Int64(logger.FieldUID, uid), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("credential revalidate not scheduled", zap.Int64(logger.FieldUID, uid), zap.Error(err))
		return false
	}
	return true
}
