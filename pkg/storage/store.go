// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

// MaxObjectSizeInMemory bounds the size of objects which are read in full
const MaxObjectSizeInMemory = 2 * 1024 * 1024 * 1024 // 2 gigs

const (
	// OverWrite allows Put to replace an existing object
	OverWrite = false

	// NoOverWrite makes Put fail when the object exists already
	NoOverWrite = true
)

// Store implementations know how to read and write objects on some storage tier.
//
// Typically this is something file system-like. Examples are S3, local FS, an HTTP origin, ...
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	Clear(context.Context) error
}
