package service

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeValidator 按密钥返回预设结果
type fakeValidator struct {
	mu    sync.Mutex
	valid map[string]bool
	calls atomic.Int32
}

func newFakeValidator(valid map[string]bool) *fakeValidator {
	return &fakeValidator{valid: valid}
}

func (f *fakeValidator) ValidateKey(_ context.Context, key string) bool {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid[key]
}

func (f *fakeValidator) set(key string, ok bool) {
	f.mu.Lock()
	f.valid[key] = ok
	f.mu.Unlock()
}

// fakeCompletion 记录请求并返回预设回复
type fakeCompletion struct {
	mu      sync.Mutex
	reply   func(prompt, system string) (string, error)
	prompts []string
	systems []string
}

func (f *fakeCompletion) Complete(_ context.Context, _ int64, prompt, system string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, system)
	f.mu.Unlock()
	return f.reply(prompt, system)
}

func replyWith(s string) *fakeCompletion {
	return &fakeCompletion{reply: func(string, string) (string, error) { return s, nil }}
}
