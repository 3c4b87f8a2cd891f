package fileurl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeJoin(t *testing.T) {
	base := t.TempDir()

	p, err := SafeJoin(base, "u_0/theme/nord.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "u_0", "theme", "nord.json"), p)

	_, err = SafeJoin(base, "../../etc/passwd")
	assert.Error(t, err)
}

func TestCreatePathAndExist(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "a", "b", "c.txt")
	require.NoError(t, CreatePath(dst, 0o755))
	assert.True(t, IsExist(filepath.Dir(dst)))
	assert.False(t, IsExist(dst))

	require.NoError(t, os.WriteFile(dst, []byte("x"), 0o644))
	abs, err := GetAbsPath(dst, "")
	require.NoError(t, err)
	assert.Equal(t, dst, abs)
}

func TestPathSuffixCheckAdd(t *testing.T) {
	assert.Equal(t, "exports/", PathSuffixCheckAdd("exports", "/"))
	assert.Equal(t, "exports/", PathSuffixCheckAdd("exports/", "/"))
	assert.Equal(t, "", PathSuffixCheckAdd("", "/"))
}
