package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Musga/config"
	"Musga/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and ensures the preview bucket
// exists. Only called when the mirror is enabled in configuration.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// GetMinioClient returns the MinIO client, or nil when the mirror is disabled.
func GetMinioClient() *minio.Client {
	return minioClient
}

// MirrorPreview uploads a preview clip to the bucket under its base name.
// Best effort: the local file stays canonical either way.
func MirrorPreview(ctx context.Context, bucket, previewPath string) error {
	if minioClient == nil {
		return nil
	}

	f, err := os.Open(previewPath)
	if err != nil {
		return fmt.Errorf("failed to open preview %s: %w", previewPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat preview %s: %w", previewPath, err)
	}

	objectName := "previews/" + filepath.Base(previewPath)
	_, err = minioClient.PutObject(ctx, bucket, objectName, f, info.Size(), minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return fmt.Errorf("failed to upload preview %s: %w", objectName, err)
	}
	return nil
}
