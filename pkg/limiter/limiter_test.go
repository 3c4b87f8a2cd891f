package limiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodLimiter_Key(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/graph/search?q=x", nil)

	l := NewMethodLimiter()
	assert.Equal(t, "/api/graph/search", l.Key(c))
}

func TestMethodLimiter_GetBucket(t *testing.T) {
	l := NewMethodLimiter()
	l.AddBuckets(
		BucketRule{Key: "/api/ai/", FillInterval: time.Second, Capacity: 2, Quantum: 2},
		BucketRule{Key: "/api/ai/analyze", FillInterval: time.Hour, Capacity: 1, Quantum: 1},
		BucketRule{Key: "/bad", FillInterval: 0, Capacity: 1},
	)

	exact, ok := l.GetBucket("/api/ai/analyze")
	require.True(t, ok)
	assert.Equal(t, int64(1), exact.Capacity())

	prefix, ok := l.GetBucket("/api/ai/answer")
	require.True(t, ok)
	assert.Equal(t, int64(2), prefix.Capacity())

	_, ok = l.GetBucket("/api/themes")
	assert.False(t, ok)
	_, ok = l.GetBucket("/bad")
	assert.False(t, ok)
}

func TestMethodLimiter_Exhausts(t *testing.T) {
	l := NewMethodLimiter()
	l.AddBuckets(BucketRule{Key: "/x", FillInterval: time.Hour, Capacity: 1, Quantum: 1})

	b, ok := l.GetBucket("/x")
	require.True(t, ok)
	assert.Equal(t, int64(1), b.TakeAvailable(1))
	assert.Equal(t, int64(0), b.TakeAvailable(1))
}
