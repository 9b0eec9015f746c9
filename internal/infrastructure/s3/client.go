package s3infra

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/localtourx-api/internal/config"
	"github.com/localtourx-api/internal/infrastructure/awsconf"
)

// Store wraps S3 operations for post media.
type Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewClient creates an S3 client. Against LocalStack it also switches to
// path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := awsconf.Endpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
			o.UsePathStyle = true
		}
	}), nil
}

// NewStore creates a Store for bucket. publicBase is the URL prefix under
// which objects are publicly readable.
func NewStore(client *s3.Client, bucket, publicBase string) *Store {
	return &Store{client: client, bucket: bucket, publicBase: strings.TrimRight(publicBase, "/")}
}

// Upload streams a file to S3 under key and returns its public URL.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = detectContentType(key)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.PublicURL(key), nil
}

// Delete removes the object identified by ref, which may be a public URL,
// an s3:// URI or a bare key.
func (s *Store) Delete(ctx context.Context, ref string) error {
	key, err := s.Key(ref)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// Key resolves ref, which may be a public URL, an s3:// URI or a bare key,
// to an object key in the bucket.
func (s *Store) Key(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty media reference")
	}
	if s.publicBase != "" && strings.HasPrefix(ref, s.publicBase+"/") {
		return unescapeKey(strings.TrimPrefix(ref, s.publicBase+"/"))
	}
	if prefix := "s3://" + s.bucket + "/"; strings.HasPrefix(ref, prefix) {
		return strings.TrimPrefix(ref, prefix), nil
	}
	if !strings.Contains(ref, "://") {
		return strings.TrimPrefix(ref, "/"), nil
	}
	return "", fmt.Errorf("media reference %q is not in bucket %s", ref, s.bucket)
}

func unescapeKey(k string) (string, error) {
	key, err := url.PathUnescape(k)
	if err != nil {
		return "", fmt.Errorf("media reference key: %w", err)
	}
	return key, nil
}

func detectContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
