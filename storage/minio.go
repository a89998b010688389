package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Hungichi/melodies-BE/config"
	"github.com/Hungichi/melodies-BE/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements ObjectStorage on a MinIO (or S3-compatible) bucket.
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStorage connects to MinIO, ensures the bucket exists, and returns
// the storage client.
func NewMinioStorage(cfg *config.Config) (*MinioStorage, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	scheme := "http"
	if cfg.MinioUseSSL {
		scheme = "https"
	}

	return &MinioStorage{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: fmt.Sprintf("%s://%s/%s/", scheme, cfg.MinioEndpoint, cfg.MinioBucket),
	}, nil
}

// Upload stores an object and returns its public URL.
func (s *MinioStorage) Upload(ctx context.Context, reader io.Reader, size int64, objectKey, contentType string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	logger.Debug("Object uploaded",
		logger.String("key", objectKey),
		logger.Int64("size", size),
		logger.String("contentType", contentType))

	return s.baseURL + objectKey, nil
}

// Remove deletes the object behind a URL previously returned by Upload.
// URLs pointing outside our bucket are ignored.
func (s *MinioStorage) Remove(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}
	if !strings.HasPrefix(fileURL, s.baseURL) {
		logger.Warn("Skipping removal of foreign object URL", logger.String("url", fileURL))
		return nil
	}
	objectKey := strings.TrimPrefix(fileURL, s.baseURL)

	err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectKey, err)
	}
	return nil
}

// Stats returns object count and total size for the bucket, used by the
// storage inspection command.
func (s *MinioStorage) Stats(ctx context.Context, prefix string) (int64, int64, error) {
	var count, total int64
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return 0, 0, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		count++
		total += object.Size
	}
	return count, total, nil
}
