package aliyun_oss

import (
	"bytes"
	"context"
	"path"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

type Config struct {
	Endpoint        string `yaml:"endpoint"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
}

type OSS struct {
	Bucket *oss.Bucket
	Config *Config
}

func NewClient(conf *Config) (*OSS, error) {
	client, err := oss.New(conf.Endpoint, conf.AccessKeyID, conf.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "aliyun_oss")
	}
	bucket, err := client.Bucket(conf.BucketName)
	if err != nil {
		return nil, errors.Wrap(err, "aliyun_oss")
	}
	return &OSS{Bucket: bucket, Config: conf}, nil
}

func (p *OSS) SendContent(ctx context.Context, fileKey string, content []byte, contentType string) (string, error) {
	key := path.Join(p.Config.CustomPath, fileKey)
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := p.Bucket.PutObject(key, bytes.NewReader(content), opts...); err != nil {
		return "", errors.Wrap(err, "aliyun_oss")
	}
	return key, nil
}

func (p *OSS) Delete(ctx context.Context, fileKey string) error {
	err := p.Bucket.DeleteObject(path.Join(p.Config.CustomPath, fileKey), oss.WithContext(ctx))
	return errors.Wrap(err, "aliyun_oss")
}
