package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/dao"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseConfig_Defaults(t *testing.T) {
	c, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "release", c.Server.RunMode)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, "https://api.mistral.ai", c.Mistral.BaseURL)
	assert.Empty(t, c.Security.AuthTokenKey)
	assert.False(t, c.Export.IsEnable)
	assert.Equal(t, 30*time.Minute, c.GetCredentialCheckInterval())

	mc := c.GetMistralConfig()
	assert.Equal(t, 60*time.Second, mc.Timeout)
	assert.Equal(t, 0.6, mc.Breaker.FailureRatio)
	assert.Equal(t, uint32(5), mc.Breaker.MinRequests)

	rule, ok := c.GetAIRateLimitRule()
	require.True(t, ok)
	assert.Equal(t, "/api/ai/", rule.Key)
	assert.Equal(t, int64(30), rule.Capacity)
}

func TestParseConfig_ExplicitFalseKept(t *testing.T) {
	c, err := ParseConfig([]byte("log:\n  production: false\ntracer:\n  enabled: false\nrate-limit:\n  ai-capacity: 0\n"))
	require.NoError(t, err)
	assert.False(t, c.Log.Production)
	assert.False(t, c.Tracer.Enabled)
	_, ok := c.GetAIRateLimitRule()
	assert.False(t, ok)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "server: ["},
		{"bad cron", "export:\n  cron: \"every day\"\n"},
		{"bad storage", "export:\n  is-enable: true\n  storage:\n    type: ftp\n"},
		{"bad interval", "app:\n  credential-check-interval: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http-port: \":7000\"\nexport:\n  cron: \"0 3 * * *\"\n"), 0o644))

	c, real, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, real)
	assert.Equal(t, ":7000", c.Server.HttpPort)
	assert.Equal(t, "0 3 * * *", c.Export.Cron)

	_, _, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewApp_WithMemoryStore(t *testing.T) {
	c, err := ParseConfig([]byte("security:\n  auth-token-key: k\n"))
	require.NoError(t, err)

	a, err := NewApp(c, zap.NewNop(), nil, WithStore(dao.NewMemoryStore()))
	require.NoError(t, err)
	assert.True(t, a.TokenManager.Enabled())
	assert.False(t, a.ExportService.Enabled())
	assert.NoError(t, a.Ping(t.Context()))
	assert.Equal(t, 20, a.ServiceConfig().App.BatchLimit())

	require.NoError(t, a.Shutdown(nil))
	assert.True(t, a.IsShuttingDown())
	assert.NoError(t, a.Shutdown(nil))
}

func TestNewApp_RequiresStoreOrDatabase(t *testing.T) {
	c, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)
	_, err = NewApp(c, zap.NewNop(), nil)
	assert.Error(t, err)
}
