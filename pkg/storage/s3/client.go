package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/swapmarket/backend/pkg/config"
)

const pingTimeout = 5 * time.Second

// Client wraps an S3-compatible object store used for listing media blobs.
type Client struct {
	raw           *minio.Client
	bucket        string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient connects to the object store and makes sure the media bucket exists.
func NewClient(ctx context.Context, cfg config.StorageConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	raw, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}

	if err := ensureBucket(ctx, raw, cfg.Bucket); err != nil {
		return nil, err
	}

	publicBase := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimRight(raw.EndpointURL().String(), "/")
	}

	return &Client{
		raw:           raw,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase,
	}, nil
}

func ensureBucket(ctx context.Context, raw *minio.Client, bucket string) error {
	exists, err := raw.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := raw.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %q: %w", bucket, err)
	}
	return nil
}

// Put writes a blob under the given storage key.
func (c *Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := c.raw.PutObject(ctx, c.bucket, key, body, size, opts); err != nil {
		return fmt.Errorf("putting object %q: %w", key, err)
	}
	return nil
}

// Remove deletes a blob. Removing a missing key is not an error.
func (c *Client) Remove(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if err := c.raw.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing object %q: %w", key, err)
	}
	return nil
}

// PublicURL builds the client-facing URL for a storage key.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, key)
}

// Ping verifies the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	exists, err := c.raw.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("pinging object store: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", c.bucket)
	}
	return nil
}
