package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Config holds S3-compatible object storage configuration.
type Config struct {
	// Bucket is the bucket name (required).
	Bucket string

	// Region is the bucket region. Default: us-east-1.
	Region string

	// AccessKey and SecretKey are the static credentials (required).
	AccessKey string
	SecretKey string

	// Endpoint is a custom endpoint URL for S3-compatible services
	// (MinIO, R2). Empty means AWS S3.
	Endpoint string

	// PathStyle forces path-style addressing, required by most
	// S3-compatible services.
	PathStyle bool

	// CacheControl is set on every published object. Default:
	// "public, max-age=86400, immutable" — artifact keys are
	// content-derived, so objects never change under a key.
	CacheControl string
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.CacheControl == "" {
		c.CacheControl = "public, max-age=86400, immutable"
	}
}

func (c Config) validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.AccessKey == "" {
		missing = append(missing, "access key")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Store publishes rendered artifacts to S3-compatible object storage so
// a CDN can serve repeat traffic without touching the render engine.
type Store struct {
	client *s3.Client
	cfg    Config
}

// New creates a Store with the given configuration.
func New(cfg Config) (*Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		},
	}

	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &Store{
		client: s3.New(s3.Options{}, opts...),
		cfg:    cfg,
	}, nil
}

// Put uploads an artifact under key. An empty contentType is sniffed
// from the data.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String(s.cfg.CacheControl),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s: %w", ErrPut, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("%w: %w", ErrPut, err)
	}

	return nil
}

// URL returns the public URL for a published key. For custom endpoints
// the path-style form is used; for AWS S3 the virtual-hosted form.
func (s *Store) URL(key string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
