package service

import "context"

// KeyValidator 校验 API 密钥，实现为 *mistral.Client
type KeyValidator interface {
	ValidateKey(ctx context.Context, key string) bool
}

// Completer 发送一次对话补全，实现为 *mistral.Client
type Completer interface {
	Complete(ctx context.Context, key, model, system, user string) (string, error)
}
