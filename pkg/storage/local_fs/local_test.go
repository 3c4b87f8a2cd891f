package local_fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_SendContentAndDelete(t *testing.T) {
	root := t.TempDir()
	fs, err := NewClient(&Config{SavePath: root, CustomPath: "miknow"})
	require.NoError(t, err)

	key, err := fs.SendContent(context.Background(), "u_0/theme/nord.json", []byte(`{"name":"Nord"}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "miknow/u_0/theme/nord.json", key)

	data, err := os.ReadFile(filepath.Join(root, "miknow", "u_0", "theme", "nord.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Nord"}`, string(data))

	require.NoError(t, fs.Delete(context.Background(), "u_0/theme/nord.json"))
	require.NoError(t, fs.Delete(context.Background(), "u_0/theme/nord.json"))
	_, err = os.Stat(filepath.Join(root, "miknow", "u_0", "theme", "nord.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalFS_RejectsEscape(t *testing.T) {
	fs, err := NewClient(&Config{SavePath: t.TempDir()})
	require.NoError(t, err)

	_, err = fs.SendContent(context.Background(), "../../outside.json", []byte("x"), "")
	assert.Error(t, err)
}

func TestLocalFS_RequiresSavePath(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.Error(t, err)
}
