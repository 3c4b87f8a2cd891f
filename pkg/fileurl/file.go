package fileurl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// IsExist reports whether the path exists
// IsExist 判断路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	return err == nil
}

// CreatePath creates the parent directory of dst
// CreatePath 创建 dst 的父目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// PathSuffixCheckAdd appends suffix when path does not end with it
// PathSuffixCheckAdd 检查路径后缀，如果没有则添加
func PathSuffixCheckAdd(path string, suffix string) string {
	if path == "" || strings.HasSuffix(path, suffix) {
		return path
	}
	return path + suffix
}

// GetAbsPath resolves path under root (or the working directory) and requires it to exist
// GetAbsPath 基于 root 或当前目录解析绝对路径，路径必须存在
func GetAbsPath(path string, root string) (string, error) {
	realPath := path
	if !filepath.IsAbs(realPath) {
		if root == "" {
			root, _ = os.Getwd()
		}
		realPath = filepath.Join(root, path)
	}
	if !IsExist(realPath) {
		return "", errors.New("file not exists")
	}
	return realPath, nil
}

// SafeJoin joins key under base and rejects keys escaping base
// SafeJoin 拼接路径并拒绝越出 base 的 key
func SafeJoin(base, key string) (string, error) {
	p := filepath.Join(base, filepath.FromSlash(key))
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes storage root")
	}
	return p, nil
}
