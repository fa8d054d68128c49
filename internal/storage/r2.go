package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"plate-service/internal/config"
)

var (
	ErrNotConfigured = errors.New("r2 storage is not configured")
	ErrTooLarge      = errors.New("object exceeds size limit")
)

type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// R2Client reads objects from an S3-compatible bucket (Cloudflare R2, MinIO, S3).
type R2Client struct {
	client   objectAPI
	bucket   string
	maxBytes int64
}

func NewR2Client(cfg config.StorageConfig) (*R2Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(strings.TrimRight(cfg.Endpoint, "/"))
		o.UsePathStyle = true
	})

	return newR2Client(client, cfg.Bucket, cfg.MaxObjectBytes), nil
}

func newR2Client(client objectAPI, bucket string, maxBytes int64) *R2Client {
	return &R2Client{client: client, bucket: bucket, maxBytes: maxBytes}
}

// Download reads a whole object. Objects above the configured limit are rejected.
func (r *R2Client) Download(ctx context.Context, key string) ([]byte, error) {
	if r == nil || r.client == nil {
		return nil, ErrNotConfigured
	}
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return nil, fmt.Errorf("empty object key")
	}

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("r2 download failed: %w", err)
	}
	defer out.Body.Close()

	if r.maxBytes > 0 && out.ContentLength != nil && *out.ContentLength > r.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, key, *out.ContentLength)
	}

	var body io.Reader = out.Body
	if r.maxBytes > 0 {
		body = io.LimitReader(out.Body, r.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("r2 read failed: %w", err)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, key)
	}
	return data, nil
}
