// Package s3sink stores archive chunks in an S3-compatible bucket (AWS S3 or
// MinIO).
package s3sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds explicit construction parameters. OpenFromEnv fills it from
// the environment.
type Config struct {
	Bucket          string
	Prefix          string // key prefix, e.g. "renders/2024"
	Region          string // default us-east-1
	Endpoint        string // optional; custom endpoint such as MinIO
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// Environment variables read by OpenFromEnv:
//
//	EDITION_S3_BUCKET=<bucket> (required)
//	EDITION_S3_PREFIX=<key prefix>
//	EDITION_S3_REGION=<region> (default us-east-1)
//	EDITION_S3_ENDPOINT=<url> (optional, for MinIO)
//	EDITION_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// Sink writes each chunk as one object.
type Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates a sink from cfg.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket, prefix string) *Sink {
	return &Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// OpenFromEnv constructs a sink from process environment.
func OpenFromEnv(ctx context.Context) (*Sink, error) {
	bucket := os.Getenv("EDITION_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("EDITION_S3_BUCKET required for s3 sink")
	}
	return New(ctx, Config{
		Bucket:    bucket,
		Prefix:    os.Getenv("EDITION_S3_PREFIX"),
		Region:    os.Getenv("EDITION_S3_REGION"),
		Endpoint:  os.Getenv("EDITION_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("EDITION_S3_PATH_STYLE"), "true"),
	})
}

// Key returns the object key a chunk is stored under.
func (s *Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// WriteChunk uploads data as one object. Existing objects are overwritten.
func (s *Sink) WriteChunk(ctx context.Context, name string, data []byte) error {
	key := s.Key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/x-tar"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}
