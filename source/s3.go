package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the part of *s3.Client the fetcher uses.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads the dataset from an S3 object. Credentials, region and
// endpoint come from the default AWS configuration chain.
type S3Fetcher struct {
	bucket  string
	key     string
	timeout time.Duration
	client  s3API
}

func NewS3(bucket, key string, timeout time.Duration) *S3Fetcher {
	return &S3Fetcher{bucket: bucket, key: key, timeout: timeout}
}

func (f *S3Fetcher) Name() string { return fmt.Sprintf("s3://%s/%s", f.bucket, f.key) }

func (f *S3Fetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	client, err := f.getClient(ctx)
	if err != nil {
		cancel()
		return nil, NewFetchError(f.Name(), "unable to load AWS SDK config", err)
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key),
	})
	if err != nil {
		cancel()
		return nil, NewFetchError(f.Name(), "failed to get object from S3", err)
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

func (f *S3Fetcher) getClient(ctx context.Context) (s3API, error) {
	if f.client != nil {
		return f.client, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	f.client = s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	})
	return f.client, nil
}
