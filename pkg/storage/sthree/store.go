// Copyright © 2018 One Concern

// Package sthree implements a read-only storage.Store over an S3 bucket.
package sthree

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/status"
	"go.uber.org/zap"
)

// PageSize is the number of keys fetched per listing request
const PageSize = 1000

// Option is a functor to pass optional parameters to the s3 store
type Option func(*s3FS)

// Bucket to read objects from
func Bucket(bucket string) Option {
	return func(fs *s3FS) {
		fs.bucket = bucket
	}
}

// Prefix locates objects within the bucket
func Prefix(prefix string) Option {
	return func(fs *s3FS) {
		fs.prefix = strings.Trim(prefix, "/")
	}
}

// AWSConfig overrides the default aws configuration, e.g. to set some endpoint or credentials
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(fs *s3FS) {
		if logger != nil {
			fs.l = logger
		}
	}
}

// New builds a read-only S3 store
func New(option Option, options ...Option) (storage.Store, error) {
	fs := &s3FS{l: zap.NewNop()}
	option(fs)
	for _, apply := range options {
		apply(fs)
	}
	if fs.bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("s3 store requires a bucket")
	}

	sess, err := session.NewSession(fs.awsConfig)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	fs.s3 = s3.New(sess)
	return fs, nil
}

type s3FS struct {
	bucket    string
	prefix    string
	awsConfig *aws.Config
	s3        *s3.S3
	l         *zap.Logger
}

func (s *s3FS) objectKey(key string) string {
	if s.prefix == "" {
		return strings.TrimPrefix(key, "/")
	}
	return path.Join(s.prefix, key)
}

func (s *s3FS) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if err = toSentinelErrors(err); status.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *s3FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj.Body, nil
}

func (s *s3FS) Put(context.Context, string, io.Reader, bool) error {
	return status.ErrNotSupported.WrapMessage("put on %s", s)
}

func (s *s3FS) Delete(context.Context, string) error {
	return status.ErrNotSupported.WrapMessage("delete on %s", s)
}

func (s *s3FS) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	trim := ""
	if s.prefix != "" {
		trim = s.prefix + "/"
	}
	eachPage := func(page *s3.ListObjectsOutput, more bool) bool {
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.StringValue(obj.Key), trim)
			if key != "" {
				keys = append(keys, key)
			}
		}
		return true
	}
	params := &s3.ListObjectsInput{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int64(PageSize),
	}
	if trim != "" {
		params.Prefix = aws.String(trim)
	}

	if err := s.s3.ListObjectsPagesWithContext(ctx, params, eachPage); err != nil {
		return nil, toSentinelErrors(err)
	}
	s.l.Debug("listed s3 keys", zap.String("bucket", s.bucket), zap.Int("count", len(keys)))
	return keys, nil
}

func (s *s3FS) Clear(context.Context) error {
	return status.ErrNotSupported.WrapMessage("clear on %s", s)
}

func (s *s3FS) String() string {
	if s.prefix == "" {
		return "s3@" + s.bucket
	}
	return "s3@" + s.bucket + "/" + s.prefix
}
