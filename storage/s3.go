package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ByLCY/labelsheet/config"
)

// PutObjectAPI is the part of *s3.Client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads documents to an S3-compatible bucket (AWS S3, MinIO, RustFS ...).
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// S3Option configures an S3Sink.
type S3Option func(*S3Sink)

// WithLogger sets a custom logger for S3Sink
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClient replaces the SDK client; tests pass a fake.
func WithClient(client PutObjectAPI) S3Option {
	return func(s *S3Sink) { s.client = client }
}

// NewS3Sink creates a sink from configuration. Without static keys the default AWS credential chain is used.
func NewS3Sink(ctx context.Context, cfg config.S3Config, opts ...S3Option) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	sink := &S3Sink{
		bucket: cfg.Bucket,
		prefix: strings.TrimPrefix(cfg.Prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(sink)
	}
	if sink.client != nil {
		return sink, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	sink.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return sink, nil
}

// Key 生成对象键：prefix/<uuid>/<name>，同名文件互不覆盖。
func (s *S3Sink) Key(name string) string {
	return path.Join(s.prefix, uuid.NewString(), objectName(name))
}

// Save uploads r and returns the s3:// URI of the new object.
func (s *S3Sink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("读取文档失败: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}
	key := s.Key(name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	s.logger.Debug("document uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return "s3://" + s.bucket + "/" + key, nil
}

// FromConfig picks the sink named by cfg.Driver.
func FromConfig(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Sink, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileSink(cfg.Dir)
	case "s3":
		return NewS3Sink(ctx, cfg.S3, WithLogger(logger))
	default:
		return nil, fmt.Errorf("未知存储驱动: %s", cfg.Driver)
	}
}
