package publish

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// PutObjectAPI is the subset of the S3 client used for mirroring.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Settings struct {
	Bucket string
	Prefix string
	Region string
}

// S3Publisher mirrors artifacts to a bucket. Each object is replaced whole by PutObject,
// so readers see either the previous or the new artifact.
type S3Publisher struct {
	client   PutObjectAPI
	settings S3Settings
}

func NewS3Publisher(client PutObjectAPI, settings S3Settings) (*S3Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}
	if settings.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is empty")
	}
	return &S3Publisher{client: client, settings: settings}, nil
}

// NewS3PublisherFromEnv builds the S3 client from the default AWS credential chain.
func NewS3PublisherFromEnv(ctx context.Context, settings S3Settings) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if settings.Region != "" {
		opts = append(opts, awsconfig.WithRegion(settings.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3Publisher(s3.NewFromConfig(cfg), settings)
}

func (p *S3Publisher) Publish(ctx context.Context, artifacts []Artifact) error {
	logger := zerolog.Ctx(ctx)

	for _, a := range artifacts {
		key := path.Join(p.settings.Prefix, a.Name)
		input := &s3.PutObjectInput{
			Bucket: aws.String(p.settings.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(a.Data),
		}
		if a.ContentType != "" {
			input.ContentType = aws.String(a.ContentType)
		}

		if _, err := p.client.PutObject(ctx, input); err != nil {
			return fmt.Errorf("failed to upload %s to s3://%s/%s: %w", a.Name, p.settings.Bucket, key, err)
		}
		logger.Debug().Str("bucket", p.settings.Bucket).Str("key", key).Msg("artifact mirrored")
	}
	return nil
}
