package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/config"
)

const captureKeyPrefix = "captures"

// R2Client archives capture images in a Cloudflare R2 bucket
type R2Client struct {
	s3Client   *s3.Client
	bucketName string
	publicURL  string
	endpoint   string
	logger     *zap.Logger
}

// R2Option customises an R2Client.
type R2Option func(*s3.Options)

// WithR2Endpoint overrides the account endpoint, using path-style addressing.
func WithR2Endpoint(endpoint string) R2Option {
	return func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}

// NewR2Client creates a new R2 storage client
func NewR2Client(cfg *config.R2Config, logger *zap.Logger, opts ...R2Option) (*R2Client, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, apperr.Wrap(apperr.ErrConfig, "R2 configuration incomplete")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrConfig, "failed to load AWS config: %v", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		for _, opt := range opts {
			opt(o)
		}
	})

	return &R2Client{
		s3Client:   s3Client,
		bucketName: cfg.BucketName,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		endpoint:   endpoint,
		logger:     logger,
	}, nil
}

// ArchiveCapture stores a capture image under captures/<uuid>/<filename>
// and returns its public URL.
func (c *R2Client) ArchiveCapture(ctx context.Context, filename string, image []byte) (string, error) {
	name := path.Base(filename)
	if name == "." || name == "/" || name == "" {
		name = "capture"
	}
	key := path.Join(captureKeyPrefix, uuid.New().String(), name)
	return c.Upload(ctx, key, bytes.NewReader(image), http.DetectContentType(image))
}

// Upload uploads a file to R2 and returns the public URL
func (c *R2Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return "", apperr.Wrap(apperr.ErrRemote, "failed to upload %s to R2: %v", key, err)
	}

	c.logger.Debug("uploaded object", zap.String("key", key), zap.String("content_type", contentType))
	return c.PublicURL(key), nil
}

// PublicURL returns the public CDN URL for a key
func (c *R2Client) PublicURL(key string) string {
	if c.publicURL != "" {
		return fmt.Sprintf("%s/%s", c.publicURL, key)
	}
	return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucketName, key)
}
