// Package s3 implements storage.Provider on S3-compatible object stores.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/storage"
)

const defaultPartSize = 16 * 1024 * 1024

type objectAPI interface {
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

type uploader interface {
	Upload(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Client stores media objects in a single bucket.
type Client struct {
	api      objectAPI
	uploader uploader
	bucket   string
	baseURL  string
	logg     *logger.Logger
}

var _ storage.Provider = (*Client)(nil)

// New builds an S3 client from static credentials. Large bodies go through
// the multipart upload manager.
func New(ctx context.Context, cfg config.S3Config, logg *logger.Logger) (*Client, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, errors.New("s3 credentials are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	partSize := cfg.PartSizeMB * 1024 * 1024
	if partSize < manager.MinUploadPartSize {
		partSize = defaultPartSize
	}
	up := manager.NewUploader(api, func(u *manager.Uploader) {
		u.PartSize = partSize
	})

	if logg == nil {
		logg = logger.Nop()
	}
	client := &Client{
		api:      api,
		uploader: up,
		bucket:   bucket,
		baseURL:  publicBaseURL(cfg, bucket),
		logg:     logg,
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"bucket": bucket, "region": cfg.Region}), "s3 client initialized")
	return client, nil
}

func (c *Client) Name() string { return "s3" }

// Put uploads obj and returns its public URL.
func (c *Client) Put(ctx context.Context, obj storage.Object) (string, error) {
	if obj.Key == "" {
		return "", errors.New("object key is required")
	}
	if obj.Body == nil {
		return "", errors.New("object body is required")
	}
	input := &awss3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(obj.Key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", obj.Key, err)
	}
	return c.ObjectURL(obj.Key), nil
}

// Delete removes key. S3 deletes are silent for missing keys, so existence is
// checked first to report storage.ErrObjectNotFound.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrObjectNotFound
	}
	_, err := c.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return storage.ErrObjectNotFound
		}
		return fmt.Errorf("s3 head %s: %w", key, err)
	}
	if _, err := c.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return storage.ErrObjectNotFound
		}
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// Ping checks the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	return err
}

// ObjectURL returns the public address of key.
func (c *Client) ObjectURL(key string) string {
	return c.baseURL + "/" + escapeKey(key)
}

func publicBaseURL(cfg config.S3Config, bucket string) string {
	if base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"); base != "" {
		return base
	}
	if endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"); endpoint != "" {
		if cfg.UsePathStyle {
			return endpoint + "/" + bucket
		}
		if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
			return fmt.Sprintf("%s://%s.%s", u.Scheme, bucket, u.Host)
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
