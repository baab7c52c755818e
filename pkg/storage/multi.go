// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"

	"github.com/oneconcern/assetsync/pkg/storage/status"
)

// ReadAll reads an object in memory
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	object, err := io.ReadAll(io.LimitReader(reader, MaxObjectSizeInMemory+1))
	if err != nil {
		return nil, err
	}
	if len(object) > MaxObjectSizeInMemory {
		return nil, status.ErrObjectTooBig.WrapMessage("%s/%s", store, key)
	}
	return object, nil
}

// CountingReader counts the bytes read from some reader
type CountingReader struct {
	io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.Reader.Read(p)
	c.N += int64(n)
	return n, err
}

// ContextReader interrupts a read as soon as its context is done
type ContextReader struct {
	Ctx context.Context
	io.Reader
}

func (c ContextReader) Read(p []byte) (int, error) {
	if err := c.Ctx.Err(); err != nil {
		return 0, err
	}
	return c.Reader.Read(p)
}
