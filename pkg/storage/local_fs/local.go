package local_fs

import (
	"context"
	"os"
	"path"

	"github.com/haierkeys/miknow-notebook-service/pkg/fileurl"
	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path"`
	CustomPath string `yaml:"custom-path"`
}

type LocalFS struct {
	Config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf.SavePath == "" {
		return nil, errors.New("local_fs: save path is required")
	}
	return &LocalFS{Config: conf}, nil
}

func (p *LocalFS) objectKey(fileKey string) string {
	return path.Join(p.Config.CustomPath, fileKey)
}

// SendContent 写入文件，目录不存在时自动创建
func (p *LocalFS) SendContent(_ context.Context, fileKey string, content []byte, _ string) (string, error) {
	key := p.objectKey(fileKey)
	dst, err := fileurl.SafeJoin(p.Config.SavePath, key)
	if err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	if err := fileurl.CreatePath(dst, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	if err := os.WriteFile(dst, content, 0o644); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	return key, nil
}

func (p *LocalFS) Delete(_ context.Context, fileKey string) error {
	dst, err := fileurl.SafeJoin(p.Config.SavePath, p.objectKey(fileKey))
	if err != nil {
		return errors.Wrap(err, "local_fs")
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "local_fs")
	}
	return nil
}
