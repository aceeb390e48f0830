package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"vodsmith/internal/services"
)

// S3API is the subset of the S3 client the store calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store serves one bucket through the AWS SDK.
type S3Store struct {
	client S3API
	bucket string
}

// NewS3Store builds an S3-backed store for the named bucket using the default
// AWS credential chain.
func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, services.Wrap(services.ErrValidation, "blobstore", "new", "bucket name is required", nil)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "new", "load aws config", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// NewS3StoreWithClient wires an existing client, mostly for tests.
func NewS3StoreWithClient(client S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "put", fmt.Sprintf("s3://%s/%s", s.bucket, key), err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrapGetError("get", key, err)
	}
	return out.Body, nil
}

func (s *S3Store) GetRange(ctx context.Context, key string, length int64) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", length-1)),
	})
	if err != nil {
		return nil, s.wrapGetError("get_range", key, err)
	}
	return out.Body, nil
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "blobstore", "list", fmt.Sprintf("s3://%s/%s", s.bucket, prefix), err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

func (s *S3Store) wrapGetError(op, key string, err error) error {
	marker := services.ErrStorage
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		marker = services.ErrNotFound
	}
	return services.Wrap(marker, "blobstore", op, fmt.Sprintf("s3://%s/%s", s.bucket, key), err)
}

var _ Store = (*S3Store)(nil)
