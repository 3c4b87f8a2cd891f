package errors

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/haierkeys/miknow-notebook-service/internal/middleware"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/mistral"
)

// AppError 统一应用错误结构体
// 包含错误码、消息、详情、追踪ID和时间戳
type AppError struct {
	// Code 错误码
	Code int `json:"code"`
	// Status 始终为 false，与成功响应结构保持一致
	Status bool `json:"status"`
	// Message 错误消息
	Message string `json:"message"`
	// Details 错误详情（可选）
	Details []string `json:"details,omitempty"`
	// Data 附带数据（可选，例如解析失败时的回退结果）
	Data any `json:"data,omitempty"`
	// TraceID 请求追踪ID
	TraceID string `json:"traceId,omitempty"`
	// Cause 原始错误（不序列化到JSON）
	Cause error `json:"-"`
	// Timestamp 错误发生时间
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap 支持错误链路追踪
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError 从 Code 对象创建 AppError
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:      c.Code(),
		Message:   c.Msg(),
		Details:   c.Details(),
		Data:      c.Data(),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// FromError 将任意错误转换为 AppError
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var codeErr *code.Code
	if errors.As(err, &codeErr) {
		return NewAppError(codeErr, err)
	}

	if errors.Is(err, context.Canceled) {
		return NewAppError(code.ErrorRequestCanceled, err)
	}

	var provErr *mistral.Error
	if errors.As(err, &provErr) {
		return NewAppError(providerCode(provErr), err)
	}

	return &AppError{
		Code:      code.ErrorServerInternal.Code(),
		Message:   "Internal Server Error",
		Cause:     err,
		Timestamp: time.Now(),
	}
}

// providerCode 模型调用失败类型到错误码的映射，服务商原始消息放入详情
func providerCode(e *mistral.Error) *code.Code {
	var c *code.Code
	switch e.Kind {
	case mistral.KindMissingKey:
		return code.ErrorAPIKeyMissing
	case mistral.KindAuth:
		return code.ErrorAPIKeyInvalid
	case mistral.KindProvider:
		c = code.ErrorProvider
	case mistral.KindMalformed:
		c = code.ErrorMalformedResponse
	default:
		c = code.ErrorProviderNetwork
	}
	if e.Message == "" || e.Message == mistral.MsgProvider {
		return c
	}
	return c.WithDetails(e.Message)
}

// ErrorResponse 统一错误响应处理
// 从 gin.Context 获取 TraceID，将错误转换为 AppError 并返回 JSON 响应
func ErrorResponse(c *gin.Context, err error) {
	appErr := FromError(err)
	resp := *appErr
	resp.TraceID = middleware.GetTraceIDFromGin(c)
	c.Set("status_code", http.StatusOK)
	c.JSON(http.StatusOK, &resp)
}

// IsAppError 检查错误是否为 AppError 类型
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
