// Package mistral is a small client for the Mistral chat-completion API
package mistral

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://api.mistral.ai"
	DefaultSystemPrompt = "You are a helpful AI assistant."

	maxBodyBytes = 8 << 20
)

// BreakerConfig circuit breaker settings around completion calls
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithLogger(lg *zap.Logger) Option {
	return func(c *Client) {
		c.logger = lg
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	b := cfg.Breaker
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = 0.6
	}
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}
	if b.MaxRequests == 0 {
		b.MaxRequests = 1
	}
	if b.Timeout <= 0 {
		b.Timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mistral",
		MaxRequests: b.MaxRequests,
		Interval:    b.Interval,
		Timeout:     b.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= b.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			breakerState.Set(float64(to))
		},
		IsSuccessful: func(err error) bool {
			// 调用方取消不计入服务商故障
			if errors.Is(err, context.Canceled) {
				return true
			}
			var me *Error
			if errors.As(err, &me) {
				return !me.tripsBreaker()
			}
			return err == nil
		},
	})
	return c
}

// ValidateKey reports whether the provider accepts key. Any failure means false.
func (c *Client) ValidateKey(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "mistral.validate_key")
	defer span.Finish()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("mistral validate key transport error", zap.Error(err))
		observe("validate", "network", 0)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	outcome := "success"
	if !ok {
		outcome = "rejected"
	}
	observe("validate", outcome, 0)
	return ok
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system and one user message and returns the first choice text
func (c *Client) Complete(ctx context.Context, key, model, system, user string) (string, error) {
	if key == "" {
		return "", &Error{Kind: KindMissingKey, Message: MsgMissingKey}
	}
	if system == "" {
		system = DefaultSystemPrompt
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "mistral.complete")
	span.SetTag("model", model)
	defer span.Finish()

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, key, model, system, user)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &Error{Kind: KindNetwork, Message: MsgBreakerOpen, Err: err}
	}

	if err != nil {
		ext.Error.Set(span, true)
		kind := "unknown"
		var me *Error
		if errors.As(err, &me) {
			kind = string(me.Kind)
		}
		observe("complete", kind, time.Since(start))
		return "", err
	}

	observe("complete", "success", time.Since(start))
	return out.(string), nil
}

func (c *Client) complete(ctx context.Context, key, model, system, user string) (string, error) {
	body, err := sonic.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", &Error{Kind: KindProvider, Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = MsgUnknown
		}
		return "", &Error{Kind: KindNetwork, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return "", &Error{Kind: KindAuth, Status: resp.StatusCode, Message: MsgInvalidKey}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := MsgProvider
		var er errorResponse
		if sonic.Unmarshal(raw, &er) == nil && er.Error != nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Message: msg}
	}

	var cr chatResponse
	if err := sonic.Unmarshal(raw, &cr); err != nil {
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Message: "response is not valid JSON", Err: err}
	}
	if len(cr.Choices) == 0 {
		return "", &Error{Kind: KindProvider, Status: resp.StatusCode, Message: "response has no choices"}
	}
	return cr.Choices[0].Message.Content, nil
}
