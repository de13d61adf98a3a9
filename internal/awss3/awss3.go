// Package awss3 holds the S3 session setup shared by the s3 datasource and
// the s3 object store.
package awss3

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Config locates a bucket. Endpoint and PathStyle serve S3-compatible stores
// such as MinIO; credentials come from the default AWS chain.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// NewSession builds a session for cfg. Region defaults to eu-west-2.
func NewSession(cfg Config) (*session.Session, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket must not be empty")
	}
	region := cfg.Region
	if region == "" {
		region = "eu-west-2"
	}
	ac := &aws.Config{Region: aws.String(region)}
	if cfg.Endpoint != "" {
		ac.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.PathStyle {
		ac.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(ac)
	if err != nil {
		return nil, fmt.Errorf("s3: new session: %w", err)
	}
	return sess, nil
}

// Key joins prefix and name with a single slash.
func Key(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.TrimLeft(name, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// IsNotFound reports whether err is a missing bucket or key.
func IsNotFound(err error) bool {
	var rf awserr.RequestFailure
	if errors.As(err, &rf) && rf.StatusCode() == http.StatusNotFound {
		return true
	}
	var ae awserr.Error
	if errors.As(err, &ae) {
		switch ae.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}
