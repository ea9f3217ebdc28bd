// pantry/storage/s3.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// maxDeleteBatch is the DeleteObjects limit.
const maxDeleteBatch = 1000

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket string // required

	// Region falls back to AWS_REGION / shared config.
	Region string

	// Static credentials; empty uses the default credential chain.
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint targets S3-compatible services (MinIO, R2, ...).
	Endpoint     string
	UsePathStyle bool
}

// S3 stores objects in an S3 bucket.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 loads the AWS configuration and creates the client.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3) Backend() string { return "s3" }

func (s *S3) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	ct := opts.ContentType
	if ct == "" {
		ct = ContentType(key)
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(ct),
	}
	if opts.CacheControl != "" {
		in.CacheControl = aws.String(opts.CacheControl)
	}
	if opts.ContentEncoding != "" {
		in.ContentEncoding = aws.String(opts.ContentEncoding)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return translateError(err)
	}
	return nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]Object, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}

	var out []Object
	pages := s3.NewListObjectsV2Paginator(s.client, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, translateError(err)
		}
		for _, obj := range page.Contents {
			out = append(out, Object{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
				ETag: strings.Trim(aws.ToString(obj.ETag), `"`),
			})
		}
	}
	return out, nil
}

func (s *S3) Delete(ctx context.Context, keys ...string) error {
	for len(keys) > 0 {
		n := min(len(keys), maxDeleteBatch)
		batch := make([]types.ObjectIdentifier, n)
		for i, key := range keys[:n] {
			batch[i] = types.ObjectIdentifier{Key: aws.String(key)}
		}
		keys = keys[n:]

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return translateError(err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("storage: delete %s: %s (%d failed)",
				aws.ToString(e.Key), aws.ToString(e.Message), len(out.Errors))
		}
	}
	return nil
}

// translateError maps S3 API errors onto the package's sentinel errors.
func translateError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.ErrorMessage())
		case "NoSuchBucket":
			return fmt.Errorf("%w: %s", ErrBucketNotFound, apiErr.ErrorMessage())
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %s", ErrPermissionDenied, apiErr.ErrorMessage())
		}
	}
	return fmt.Errorf("storage: S3 error: %w", err)
}
