// Package s3store implements the preferred photo backend on any
// S3-compatible object store (MinIO included). Uploads overwrite: the
// synthesized key is deterministic, so retrying a submission replaces the
// same object instead of accumulating duplicates.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/pathx"
	"github.com/fieldops/fieldlog/internal/storage"
)

const checkTimeout = 3 * time.Second

// Uploader is a PhotoUploader backed by an S3 bucket.
type Uploader struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

// NewUploader builds an S3 client with static credentials and a custom
// endpoint, path-style addressed so bucket names never have to resolve as
// DNS labels on a LAN MinIO.
func NewUploader(ctx context.Context, cfg *config.S3Config) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.User,
			cfg.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &Uploader{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: strings.TrimRight(cfg.BaseEndpoint, "/"),
	}, nil
}

// Name reports the backend name used in metadata and diagnostics.
func (u *Uploader) Name() string {
	return storage.BackendS3
}

// Upload puts data at the synthesized key and returns the object's
// path-style URL.
func (u *Uploader) Upload(ctx context.Context, data []byte, key pathx.Key) (string, error) {
	objectKey := key.Path()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}

	return u.ObjectURL(objectKey), nil
}

// Check reports whether the bucket answers a HeadBucket within a short
// deadline.
func (u *Uploader) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	return err == nil
}

// Exists reports whether an object is present at key. Used by diagnostics
// to verify that persisted references still resolve.
func (u *Uploader) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s: %w", objectKey, err)
	}
	return true, nil
}

// ObjectURL builds the path-style URL for an object key, escaping each
// segment while keeping the hierarchy visible.
func (u *Uploader) ObjectURL(objectKey string) string {
	segments := strings.Split(objectKey, "/")
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, strings.Join(escaped, "/"))
}

// KeyFromURL reverses ObjectURL for references that point at this bucket.
// It returns ok=false for URLs outside the configured endpoint and bucket.
func (u *Uploader) KeyFromURL(ref string) (string, bool) {
	prefix := u.endpoint + "/" + u.bucket + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(ref, prefix)
	segments := strings.Split(rest, "/")
	for i, s := range segments {
		unescaped, err := url.PathUnescape(s)
		if err != nil {
			return "", false
		}
		segments[i] = unescaped
	}
	return strings.Join(segments, "/"), true
}
