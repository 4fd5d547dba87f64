package rkio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
)

// BackendS3 labels S3 I/O in metrics.
const BackendS3 = "s3"

// S3Config locates the bucket models are written to. Endpoint, AccessKey
// and SecretKey are optional; without keys the default AWS credential
// chain is used.
type S3Config struct {
	Bucket       string `yaml:"bucket" validate:"required"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKey    string `yaml:"accessKey"`
	SecretKey    string `yaml:"secretKey" validate:"required_with=AccessKey"`
	UsePathStyle bool   `yaml:"usePathStyle"`
}

// objectPutter is the subset of *s3.Client used by S3Writer.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3Writer stores each model as a JSON object named
// "{prefix}{model id}.json".
type S3Writer struct {
	client objectPutter
	bucket string
	prefix string
	opts   options
}

// NewS3Writer creates a writer that puts objects through client.
func NewS3Writer(client objectPutter, bucket, prefix string, opts ...Option) *S3Writer {
	return &S3Writer{
		client: client,
		bucket: bucket,
		prefix: prefix,
		opts:   buildOptions(opts),
	}
}

// Key returns the object key for m.
func (w *S3Writer) Key(m *pipeline.Model) string {
	return w.prefix + m.ID.String() + ".json"
}

// Write implements Writer.
func (w *S3Writer) Write(ctx context.Context, m *pipeline.Model) (bool, error) {
	if m == nil || !m.Complete() {
		w.opts.logger.Warn("skipping incomplete model", logging.Component("rkio"), logging.String("bucket", w.bucket))
		return false, nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		return false, fmt.Errorf("encode model %s: %w", m.ID, err)
	}

	key := w.Key(m)
	out, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(w.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if w.opts.metrics != nil {
		w.opts.metrics.RecordWrite(BackendS3, len(data), err)
	}
	if err != nil {
		w.opts.logger.Error("failed to upload model",
			logging.Component("rkio"),
			logging.ModelID(m.ID.String()),
			logging.String("key", key),
			logging.Error(err),
		)
		return false, fmt.Errorf("upload model %s: %w", m.ID, err)
	}

	etag := ""
	if out != nil && out.ETag != nil {
		etag = strings.Trim(*out.ETag, "\"")
	}
	w.opts.logger.Debug("model uploaded",
		logging.Component("rkio"),
		logging.ModelID(m.ID.String()),
		logging.String("key", key),
		logging.String("etag", etag),
	)
	return true, nil
}

// Close implements Writer. S3 writes are unbuffered.
func (w *S3Writer) Close() error {
	return nil
}
