package webdav

import (
	"context"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

// Config 结构体用于存储 WebDAV 连接信息。
type Config struct {
	Endpoint   string `yaml:"endpoint"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	CustomPath string `yaml:"custom-path"`
}

// WebDAV 结构体表示 WebDAV 客户端。
type WebDAV struct {
	Client *gowebdav.Client
	Config *Config
}

// NewClient 创建一个新的 WebDAV 客户端实例。
func NewClient(conf *Config) (*WebDAV, error) {
	c := gowebdav.NewClient(conf.Endpoint, conf.User, conf.Password)
	if err := c.Connect(); err != nil {
		return nil, errors.Wrap(err, "webdav")
	}
	return &WebDAV{Client: c, Config: conf}, nil
}

func (w *WebDAV) SendContent(_ context.Context, fileKey string, content []byte, _ string) (string, error) {
	key := path.Join("/", w.Config.CustomPath, fileKey)
	if err := w.Client.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	if err := w.Client.Write(key, content, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	return key, nil
}

func (w *WebDAV) Delete(_ context.Context, fileKey string) error {
	return errors.Wrap(w.Client.Remove(path.Join("/", w.Config.CustomPath, fileKey)), "webdav")
}
