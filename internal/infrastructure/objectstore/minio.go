package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"adboard/internal/infrastructure/imagefile"
	"adboard/pkg/logger"
	"adboard/pkg/utils"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) error
}

type minioPutter struct {
	client *minio.Client
}

func (p minioPutter) PutObject(ctx context.Context, bucketName, objectName string, reader *bytes.Reader, size int64, opts minio.PutObjectOptions) error {
	_, err := p.client.PutObject(ctx, bucketName, objectName, reader, size, opts)
	return err
}

// MinioReader uploads image files to a bucket and returns the object URL instead of embedding them.
type MinioReader struct {
	putter   objectPutter
	baseURL  string
	bucket   string
	maxBytes int64
	logger   *logger.Loggers
}

func NewMinioReader(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, maxBytes int64, loggers *logger.Loggers) (*MinioReader, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to make bucket %s: %w", bucket, err)
		}
		loggers.InfoLogger.Info("Created image bucket", "bucket", bucket)
	}

	return &MinioReader{
		putter:   minioPutter{client: client},
		baseURL:  client.EndpointURL().String(),
		bucket:   bucket,
		maxBytes: maxBytes,
		logger:   loggers,
	}, nil
}

func (m *MinioReader) Read(ctx context.Context, f imagefile.File) (string, error) {
	data, err := imagefile.ReadAll(ctx, f, m.maxBytes)
	if err != nil {
		return "", err
	}

	contentType := imagefile.DetectMIME(f.ContentType, data)
	objectKey := "images/" + uuid.NewString() + extension(f.Name, contentType)

	err = m.putter.PutObject(ctx, m.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		m.logger.ErrorLogger.Error("Failed to upload image", "bucket", m.bucket, "key", objectKey, utils.Err(err))
		return "", fmt.Errorf("%w: upload %s: %w", imagefile.ErrRead, objectKey, err)
	}

	m.logger.InfoLogger.Info("Uploaded image", "bucket", m.bucket, "key", objectKey, "size_bytes", len(data))
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(m.baseURL, "/"), m.bucket, objectKey), nil
}

func extension(name, contentType string) string {
	if ext := filepath.Ext(name); ext != "" {
		return strings.ToLower(ext)
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
