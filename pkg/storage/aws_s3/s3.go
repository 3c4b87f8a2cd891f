package aws_s3

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// Config S3 兼容存储配置，MinIO 与 Cloudflare R2 通过 Endpoint 接入
type Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	CustomPath      string `yaml:"custom-path"`
	PathStyle       bool   `yaml:"path-style"`
}

type S3 struct {
	S3Client *s3.Client
	Config   *Config
}

// R2Endpoint Cloudflare R2 账户的 S3 端点
func R2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewClient 创建 S3 存储实例
func NewClient(conf *Config) (*S3, error) {
	if conf.BucketName == "" {
		return nil, errors.New("aws_s3: bucket name is required")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.AccessKeySecret, "")),
		config.WithRegion(conf.Region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "aws_s3")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.PathStyle
	})

	return &S3{S3Client: client, Config: conf}, nil
}

func (p *S3) objectKey(fileKey string) string {
	return path.Join(p.Config.CustomPath, fileKey)
}

func (p *S3) SendContent(ctx context.Context, fileKey string, content []byte, contentType string) (string, error) {
	key := p.objectKey(fileKey)
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := p.S3Client.PutObject(ctx, input); err != nil {
		return "", errors.Wrap(err, "aws_s3")
	}
	return key, nil
}

func (p *S3) Delete(ctx context.Context, fileKey string) error {
	_, err := p.S3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(p.objectKey(fileKey)),
	})
	return errors.Wrap(err, "aws_s3")
}
