// Package limiter token-bucket rate limiting keyed by request route
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
// Key 为路由前缀 FillInterval 间隔内补充 Quantum 个令牌 最多 Capacity 个
type BucketRule struct {
	Key          string
	FillInterval time.Duration
	Capacity     int64
	Quantum      int64
}

type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

func (l *Limiter) getBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.buckets[key]
	return b, ok
}

func (l *Limiter) addBuckets(rules ...BucketRule) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; ok {
			continue
		}
		if rule.Capacity <= 0 || rule.FillInterval <= 0 {
			continue
		}
		quantum := rule.Quantum
		if quantum <= 0 {
			quantum = 1
		}
		l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, quantum)
	}
}

// MethodLimiter 按请求路径（不含查询串）限流
type MethodLimiter struct {
	*Limiter
}

func NewMethodLimiter() *MethodLimiter {
	return &MethodLimiter{Limiter: &Limiter{buckets: make(map[string]*ratelimit.Bucket)}}
}

// Key 返回请求路径
func (l *MethodLimiter) Key(c *gin.Context) string {
	uri := c.Request.RequestURI
	if i := strings.Index(uri, "?"); i >= 0 {
		return uri[:i]
	}
	return uri
}

// GetBucket 精确匹配优先 其次最长前缀匹配
func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	if b, ok := l.getBucket(key); ok {
		return b, true
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	var (
		best    *ratelimit.Bucket
		bestLen int
	)
	for prefix, b := range l.buckets {
		if strings.HasSuffix(prefix, "/") && strings.HasPrefix(key, prefix) && len(prefix) > bestLen {
			best, bestLen = b, len(prefix)
		}
	}
	return best, best != nil
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.addBuckets(rules...)
	return l
}
