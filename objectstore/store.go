package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sagarc03/cabinet"
)

// Store implements cabinet.ObjectStorage against an S3-compatible backend.
// Safe for concurrent use.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewStore wraps an S3 client for the given bucket. The bucket is not
// required to exist yet; call EnsureBucket at startup.
func NewStore(client *s3.Client, bucket string) (*Store, error) {
	if client == nil {
		return nil, errors.New("new store: s3 client is required")
	}
	if bucket == "" {
		return nil, errors.New("new store: bucket is required")
	}

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// Bucket returns the name of the backing bucket.
func (s *Store) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket if it does not already exist. A bucket that
// exists, owned by us or not, is not an error.
func (s *Store) EnsureBucket(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}

	return nil
}

// Put stores content under key with the given content type. Size is passed as
// the content length when known (>= 0 with a non-nil reader); S3 requires it
// for unseekable streams.
func (s *Store) Put(ctx context.Context, key, contentType string, content io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

// Get returns a reader for the object's bytes. A missing key yields
// cabinet.ErrObjectMissing. The caller must close the returned reader.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("get %s: %w", key, cabinet.ErrObjectMissing)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	return result.Body, nil
}

// Delete removes the object under key. S3 delete is idempotent; an absent key
// is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// PresignPut returns a signed URL allowing one PUT of the given content type
// to key, valid for ttl.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}

	return req.URL, nil
}

// PresignGet returns a signed download URL for key, valid for ttl. The
// response Content-Type and Content-Disposition headers are forced to the
// given values, overriding whatever the store would natively report.
func (s *Store) PresignGet(ctx context.Context, key, responseContentType, responseDisposition string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if responseContentType != "" {
		input.ResponseContentType = aws.String(responseContentType)
	}
	if responseDisposition != "" {
		input.ResponseContentDisposition = aws.String(responseDisposition)
	}

	req, err := s.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}

	return req.URL, nil
}
