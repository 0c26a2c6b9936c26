package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/ports/storage"
	"github.com/minio/minio-go/v7"
)

const defaultPresignTTL = 15 * time.Minute

// Client обёртка над minio.Client для хранения фото нянь
type Client struct {
	client *minio.Client
	bucket string
	log    *slog.Logger
}

// NewClient создаёт новый S3 клиент
func NewClient(client *minio.Client, bucket string, log *slog.Logger) storage.IS3Client {
	return &Client{
		client: client,
		bucket: bucket,
		log:    log,
	}
}

// PutFile загружает объект целиком
func (c *Client) PutFile(ctx context.Context, path string, data []byte, contentType string) error {
	info, err := c.client.PutObject(ctx, c.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		c.log.Error("failed to put object", "error", err, "path", path, "bucket", c.bucket)
		return fmt.Errorf("failed to put object %s: %w", path, err)
	}

	c.log.Debug("object uploaded", "path", path, "size", info.Size)
	return nil
}

// GetPresignedURL генерирует presigned URL для файла
func (c *Client) GetPresignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = defaultPresignTTL
	}

	url, err := c.client.PresignedGetObject(ctx, c.bucket, path, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s: %w", path, err)
	}

	return url.String(), nil
}
