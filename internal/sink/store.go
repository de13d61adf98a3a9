package sink

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"

	"warehouse/internal/awss3"
	"warehouse/internal/table"
)

// ObjectStore stores an artifact under a slash-separated key.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, meta map[string]string) error
}

// FileStore writes artifacts below a local directory. Files are written to a
// temporary name and renamed so readers never see partial output.
type FileStore struct{ Dir string }

// Put implements ObjectStore. Metadata is not persisted.
func (s FileStore) Put(ctx context.Context, key string, body []byte, _ map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := filepath.Join(s.Dir, filepath.FromSlash(key))
	op := "put " + dst
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return table.Wrap(table.ErrIO, op, err)
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return table.Wrap(table.ErrIO, op, err)
	}
	tmp := f.Name()
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(tmp)
		return table.Wrap(table.ErrIO, op, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return table.Wrap(table.ErrIO, op, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return table.Wrap(table.ErrIO, op, err)
	}
	return nil
}

// S3Store uploads artifacts to s3://bucket/prefix/<key>.
type S3Store struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
}

// NewS3Store connects to the bucket in cfg.
func NewS3Store(cfg awss3.Config) (*S3Store, error) {
	sess, err := awss3.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return NewS3StoreWithUploader(s3manager.NewUploader(sess), cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreWithUploader wraps an existing uploader.
func NewS3StoreWithUploader(u s3manageriface.UploaderAPI, bucket, prefix string) *S3Store {
	return &S3Store{uploader: u, bucket: bucket, prefix: prefix}
}

// Put implements ObjectStore. meta becomes S3 user metadata.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, meta map[string]string) error {
	full := awss3.Key(s.prefix, key)
	md := make(map[string]*string, len(meta))
	for k, v := range meta {
		md[k] = aws.String(v)
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(full),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/vnd.apache.parquet"),
		Metadata:    md,
	})
	if err != nil {
		return table.Wrap(table.ErrIO, "put s3://"+s.bucket+"/"+full, err)
	}
	return nil
}
