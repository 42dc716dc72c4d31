package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"image-labeler/internal/config"
	"image-labeler/internal/repository/output"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// FileRepository stores outputs as objects. The output directory of a job is
// used as the object key prefix.
type FileRepository struct {
	client  *minio.Client
	bucket  string
	region  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewMinIORepository(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	mc := cfg.Storage.MinIO

	client, err := minio.New(mc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.UseSSL,
		Region: mc.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &FileRepository{
		client:  client,
		bucket:  mc.Bucket,
		region:  mc.Region,
		retries: retries,
		logger:  logger,
	}, nil
}

func objectKey(dir, name string) string {
	prefix := strings.Trim(strings.ReplaceAll(dir, "\\", "/"), "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// EnsureLocation creates the bucket when it does not exist yet.
func (r *FileRepository) EnsureLocation(ctx context.Context, dir string) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", output.ErrStorageError, err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{Region: r.region}); err != nil {
		return fmt.Errorf("%w: create bucket %s: %v", output.ErrInvalidLocation, r.bucket, err)
	}
	r.logger.Info().Str("bucket", r.bucket).Msg("Bucket created")
	return nil
}

func (r *FileRepository) Save(ctx context.Context, dir, name string, data io.Reader, size int64, contentType string) (string, error) {
	key := objectKey(dir, name)
	location := r.bucket + "/" + key

	payload, err := io.ReadAll(data)
	if err != nil {
		return location, fmt.Errorf("%w: %v", output.ErrStorageError, err)
	}

	err = retry.Do(func() error {
		_, putErr := r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		return putErr
	}, r.retries)
	if err != nil {
		r.logger.Error().Err(err).Str("bucket", r.bucket).Str("key", key).Msg("Failed to upload object")
		return location, fmt.Errorf("%w: %v", output.ErrStorageError, err)
	}

	return location, nil
}

func (r *FileRepository) Open(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	key := objectKey(dir, name)
	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", output.ErrStorageError, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, output.ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: %v", output.ErrStorageError, err)
	}
	return obj, nil
}
