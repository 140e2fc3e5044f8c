package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Storage keeps uploads in an S3 bucket.
type S3Storage struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Storage loads AWS credentials from the default chain.
func NewS3Storage(ctx context.Context, bucket, region, prefix, baseURL string) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *S3Storage) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Storage) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   r,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s: %w", name, err)
	}
	return nil
}

func (s *S3Storage) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", name, err)
	}
	return nil
}

func (s *S3Storage) URL(name string) string {
	return s.baseURL + "/" + s.key(name)
}
