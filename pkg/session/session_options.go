// Copyright © 2018 One Concern

package session

import (
	"github.com/aws/aws-sdk-go/aws"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Option to configure a session
type Option func(*Session)

// Logger sets a logger for the session and all its components
func Logger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.l = l
		}
	}
}

// Fs sets the file system hosting local tiers. Defaults to the OS file system.
func Fs(fs afero.Fs) Option {
	return func(s *Session) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// Tracer sets the tracer used to instrument remote fetches. Defaults to the global tracer.
func Tracer(tr opentracing.Tracer) Option {
	return func(s *Session) {
		s.tracer = tr
	}
}

// GCSOptions passes client options (e.g. credentials) to a gs:// remote
func GCSOptions(opts ...option.ClientOption) Option {
	return func(s *Session) {
		s.gcsOptions = append(s.gcsOptions, opts...)
	}
}

// AWSConfig configures a s3:// remote
func AWSConfig(cfg *aws.Config) Option {
	return func(s *Session) {
		s.awsConfig = cfg
	}
}
