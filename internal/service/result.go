package service

import (
	"errors"

	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
)

// FailureKind 失败分类，与 mistral.Kind 取值一致
type FailureKind = mistral.Kind

const (
	FailureNetwork    = mistral.KindNetwork
	FailureAuth       = mistral.KindAuth
	FailureMissingKey = mistral.KindMissingKey
	FailureProvider   = mistral.KindProvider
	FailureMalformed  = mistral.KindMalformed
)

// Failure 统一的调用失败描述
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Result AI 调用结果，Failure 为 nil 表示成功
type Result[T any] struct {
	Value   T
	Failure *Failure
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail 根据错误构造失败结果，非 mistral 错误（含 context 取消）归为 network
func Fail[T any](err error) Result[T] {
	return Result[T]{Failure: toFailure(err)}
}

func toFailure(err error) *Failure {
	var me *mistral.Error
	if errors.As(err, &me) {
		return &Failure{Kind: me.Kind, Message: me.Message, Cause: err}
	}
	return &Failure{Kind: FailureNetwork, Message: err.Error(), Cause: err}
}

func malformed[T any](reason string, cause error) Result[T] {
	return Result[T]{Failure: &Failure{
		Kind:    FailureMalformed,
		Message: reason,
		Cause:   &mistral.Error{Kind: mistral.KindMalformed, Message: reason, Err: cause},
	}}
}

func (r Result[T]) OK() bool {
	return r.Failure == nil
}

// Err 返回失败对应的 error，成功时为 nil
func (r Result[T]) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// OrFallback 仅在回复无法解析时返回 fb，其余失败保持原值
func (r Result[T]) OrFallback(fb T) T {
	if r.Failure != nil && r.Failure.Kind == FailureMalformed {
		return fb
	}
	return r.Value
}

// Recover 将可回退的失败替换为 fb，其余失败原样保留
func (r Result[T]) Recover(fb T) Result[T] {
	if r.Failure != nil && r.Failure.Kind == FailureMalformed {
		return Ok(fb)
	}
	return r
}
