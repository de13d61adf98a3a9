// Package s3ds reads source extracts from an S3 bucket.
package s3ds

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"warehouse/internal/awss3"
	"warehouse/internal/table"
)

// Source opens s3://Bucket/Prefix/<fileID>.
type Source struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// New connects to the bucket described by cfg.
func New(cfg awss3.Config) (*Source, error) {
	sess, err := awss3.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client s3iface.S3API, bucket, prefix string) *Source {
	return &Source{client: client, bucket: bucket, prefix: prefix}
}

// Open streams the object body. The caller closes it.
func (s *Source) Open(ctx context.Context, fileID string) (io.ReadCloser, error) {
	key := awss3.Key(s.prefix, fileID)
	op := "get s3://" + s.bucket + "/" + key
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if awss3.IsNotFound(err) {
			return nil, table.Wrap(table.ErrNotFound, op, err)
		}
		return nil, table.Wrap(table.ErrIO, op, err)
	}
	return out.Body, nil
}
