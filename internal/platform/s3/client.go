package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// BucketResult reports what EnsureBucket did.
type BucketResult string

// Bucket outcomes.
const (
	BucketCreated      BucketResult = "created"
	BucketAlreadyOwned BucketResult = "already owned"
)

// ErrBucketTaken is returned when the bucket name belongs to another account.
var ErrBucketTaken = errors.New("bucket exists and is owned by another account")

// Options configures the client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// Client wraps the S3 API for snapshot bucket management.
type Client struct {
	s3     *s3.Client
	region string
}

// NewClient creates a path-style S3 client. An endpoint without a scheme is
// treated as HTTPS, matching the K3s etcd-s3-endpoint flag.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(regionOrDefault(opts.Region)),
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(opts.Endpoint))
		}
		o.UsePathStyle = true
	})

	return &Client{s3: client, region: regionOrDefault(opts.Region)}, nil
}

func regionOrDefault(region string) string {
	if region == "" {
		return "us-east-1"
	}
	return region
}

func endpointURL(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}

// EnsureBucket creates bucket unless it already exists and is ours.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) (BucketResult, error) {
	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return "", err
	}
	if exists {
		return BucketAlreadyOwned, nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}
	if _, err := c.s3.CreateBucket(ctx, input); err != nil {
		switch {
		case isBucketAlreadyOwnedByYou(err):
			return BucketAlreadyOwned, nil
		case isBucketTaken(err):
			return "", fmt.Errorf("%w: %s", ErrBucketTaken, bucket)
		}
		return "", fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return BucketCreated, nil
}

// BucketExists checks if a bucket exists and is accessible.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	return true, nil
}

// isBucketAlreadyOwnedByYou checks if the error indicates the bucket exists and is owned by us.
func isBucketAlreadyOwnedByYou(err error) bool {
	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}
	return apiErrorCode(err) == "BucketAlreadyOwnedByYou"
}

func isBucketTaken(err error) bool {
	var bae *types.BucketAlreadyExists
	if errors.As(err, &bae) {
		return true
	}
	return apiErrorCode(err) == "BucketAlreadyExists"
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	switch apiErrorCode(err) {
	case "NotFound", "NoSuchBucket", "404":
		return true
	}
	return false
}

// apiErrorCode extracts the code of S3-compatible services that do not
// return the exact SDK error types.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
