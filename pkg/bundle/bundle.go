// Copyright © 2018 One Concern

package bundle

import (
	"context"
	"encoding/hex"
	"strings"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/oneconcern/assetsync/pkg/errors"
)

// ErrClosed is returned when loading from a bundle which has been released
var ErrClosed = errors.New("bundle closed")

// Asset is the content of one named asset, loaded from a bundle
type Asset struct {
	Path string
	Data []byte
}

// Bundle is a loaded container of assets
type Bundle interface {
	Name() string
	Assets() []string
	Load(context.Context, string) (*Asset, error)
	Close() error
}

// Opener knows how to decode a bundle from its raw content
type Opener interface {
	Open(name string, data []byte) (Bundle, error)
}

// OpenerFunc adapts a function as an Opener
type OpenerFunc func(string, []byte) (Bundle, error)

// Open a bundle
func (f OpenerFunc) Open(name string, data []byte) (Bundle, error) {
	return f(name, data)
}

// NormalizePath yields the canonical form of an asset path
func NormalizePath(pth string) string {
	return strings.ToLower(strings.TrimPrefix(pth, "/"))
}

// Hash computes the hex representation of the blake2b-256 digest of some bundle content
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
