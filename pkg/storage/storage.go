package storage

import (
	"context"

	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage/aliyun_oss"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage/aws_s3"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage/local_fs"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage/webdav"
)

type Type = string

const OSS Type = "oss"
const R2 Type = "r2"
const S3 Type = "s3"
const LOCAL Type = "localfs"
const MinIO Type = "minio"
const WebDAV Type = "webdav"

var StorageTypeMap = map[Type]bool{
	OSS:    true,
	R2:     true,
	S3:     true,
	LOCAL:  true,
	MinIO:  true,
	WebDAV: true,
}

// Config Unified storage configuration
type Config struct {
	Type Type `yaml:"type" default:"localfs"`

	// Common settings
	CustomPath string `yaml:"custom-path"`

	// Cloud Storage (S3/OSS/MinIO/R2)
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket-name"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	AccountID       string `yaml:"account-id"` // Cloudflare R2 specific

	// WebDAV
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Local FS
	SavePath string `yaml:"save-path" default:"storage/exports"`
}

// Storager writes export objects to a backend and returns the final object key
type Storager interface {
	SendContent(ctx context.Context, pathKey string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, pathKey string) error
}

func NewClient(config *Config) (Storager, error) {
	if config == nil {
		return nil, code.ErrorInvalidStorageType
	}

	switch config.Type {
	case LOCAL:
		return local_fs.NewClient(&local_fs.Config{
			SavePath:   config.SavePath,
			CustomPath: config.CustomPath,
		})
	case OSS:
		return aliyun_oss.NewClient(&aliyun_oss.Config{
			Endpoint:        config.Endpoint,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		})
	case S3, MinIO, R2:
		cfg := &aws_s3.Config{
			Region:          config.Region,
			BucketName:      config.BucketName,
			AccessKeyID:     config.AccessKeyID,
			AccessKeySecret: config.AccessKeySecret,
			CustomPath:      config.CustomPath,
		}
		switch config.Type {
		case MinIO:
			cfg.Endpoint = config.Endpoint
			cfg.PathStyle = true
		case R2:
			cfg.Endpoint = aws_s3.R2Endpoint(config.AccountID)
			cfg.Region = "auto"
		}
		return aws_s3.NewClient(cfg)
	case WebDAV:
		return webdav.NewClient(&webdav.Config{
			Endpoint:   config.Endpoint,
			User:       config.User,
			Password:   config.Password,
			CustomPath: config.CustomPath,
		})
	}
	return nil, code.ErrorInvalidStorageType
}
