package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("2d")
	assert.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)

	d, err = ParseDuration("90")
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = ParseDuration("30m")
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)

	assert.Equal(t, time.Minute, DurationOr("bogus", time.Minute))
	assert.Equal(t, time.Minute, DurationOr("", time.Minute))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "my-dark-theme", Slugify("My  Dark\tTheme"))
	assert.Equal(t, "nord", Slugify("Nord"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 30, "..."))
	assert.Equal(t, "abc...", Truncate("abcdef", 3, "..."))
	assert.Equal(t, "日本語...", Truncate("日本語のノート", 3, "..."))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "sk-...wxyz", MaskSecret("sk-abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "****", MaskSecret("abcd"))
}
