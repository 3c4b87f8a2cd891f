package storage_test

import (
	"testing"

	"github.com/haierkeys/miknow-notebook-service/pkg/storage"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage/aws_s3"
	"github.com/haierkeys/miknow-notebook-service/pkg/storage/local_fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Local(t *testing.T) {
	client, err := storage.NewClient(&storage.Config{Type: storage.LOCAL, SavePath: t.TempDir()})
	require.NoError(t, err)

	_, ok := client.(*local_fs.LocalFS)
	assert.True(t, ok)
}

func TestNewClient_MinIOUsesS3Backend(t *testing.T) {
	client, err := storage.NewClient(&storage.Config{
		Type:            storage.MinIO,
		Endpoint:        "http://127.0.0.1:9000",
		BucketName:      "exports",
		AccessKeyID:     "minio",
		AccessKeySecret: "minio123",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	s3c, ok := client.(*aws_s3.S3)
	require.True(t, ok)
	assert.True(t, s3c.Config.PathStyle)
}

func TestNewClient_Invalid(t *testing.T) {
	_, err := storage.NewClient(&storage.Config{Type: "invalid"})
	assert.Error(t, err)

	_, err = storage.NewClient(nil)
	assert.Error(t, err)
}
