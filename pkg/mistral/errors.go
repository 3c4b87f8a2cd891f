package mistral

import "fmt"

// Kind classifies a failed provider call
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindMissingKey Kind = "missing_key"
	KindProvider   Kind = "provider"
	// KindMalformed 模型回复内容无法按约定格式解析，HTTP 层面的响应体异常归为 KindProvider
	KindMalformed Kind = "malformed_response"
)

const (
	MsgMissingKey  = "API key not found. Please set your Mistral API key in the settings."
	MsgInvalidKey  = "Invalid API key. Please check your Mistral API key in the settings."
	MsgProvider    = "Failed to get response from Mistral AI"
	MsgUnknown     = "Unknown error occurred"
	MsgBreakerOpen = "Mistral AI is temporarily unavailable"
)

// Error is returned by every failed Client call
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("mistral %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("mistral %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// tripsBreaker reports whether the failure says something about provider health
func (e *Error) tripsBreaker() bool {
	return e.Kind == KindNetwork || (e.Kind == KindProvider && e.Status >= 500)
}

// Accepted reports whether the provider answered with a 2xx status
func (e *Error) Accepted() bool {
	return e.Status >= 200 && e.Status < 300
}
