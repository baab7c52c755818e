// Copyright © 2018 One Concern

package bundle

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru"
	"github.com/klauspost/compress/zip"
	"github.com/oneconcern/assetsync/pkg/status"
)

// ZipOpener decodes bundles packed as zip archives.
//
// When CacheSize is positive, each opened bundle keeps that many decoded assets in an LRU cache.
type ZipOpener struct {
	CacheSize int
}

// Open a zip bundle
func (o ZipOpener) Open(name string, data []byte) (Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, status.ErrDecode.WrapMessage("bundle %q", name).Wrap(err)
	}

	b := &zipBundle{
		name:  name,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		b.files[NormalizePath(f.Name)] = f
	}
	if o.CacheSize > 0 {
		b.cache, err = lru.New(o.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

type zipBundle struct {
	name  string
	files map[string]*zip.File
	cache *lru.Cache

	mx     sync.RWMutex
	closed bool
}

func (b *zipBundle) Name() string {
	return b.name
}

func (b *zipBundle) Assets() []string {
	names := make([]string, 0, len(b.files))
	for k := range b.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (b *zipBundle) Load(ctx context.Context, pth string) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.Cancelled(err)
	}
	b.mx.RLock()
	defer b.mx.RUnlock()
	if b.closed {
		return nil, ErrClosed.WrapMessage("bundle %q", b.name)
	}

	key := NormalizePath(pth)
	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			return &Asset{Path: key, Data: cached.([]byte)}, nil
		}
	}

	f, ok := b.files[key]
	if !ok {
		return nil, status.ErrNotFound.WrapMessage("asset %q in bundle %q", key, b.name)
	}
	rdr, err := f.Open()
	if err != nil {
		return nil, status.ErrDecode.WrapMessage("asset %q in bundle %q", key, b.name).Wrap(err)
	}
	defer rdr.Close()

	data, err := io.ReadAll(rdr)
	if err != nil {
		return nil, status.ErrDecode.WrapMessage("asset %q in bundle %q", key, b.name).Wrap(err)
	}
	if b.cache != nil {
		b.cache.Add(key, data)
	}
	return &Asset{Path: key, Data: data}, nil
}

func (b *zipBundle) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.cache != nil {
		b.cache.Purge()
	}
	return nil
}

var packTime = time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)

// Pack writes a zip bundle with the given assets.
//
// The output only depends on the content of files: entries are sorted and timestamps are fixed,
// so packing the same assets always yields the same hash.
func Pack(w io.Writer, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for k := range files {
		names = append(names, k)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     NormalizePath(name),
			Method:   zip.Deflate,
			Modified: packTime,
		})
		if err != nil {
			return err
		}
		if _, err = fw.Write(files[name]); err != nil {
			return err
		}
	}
	return zw.Close()
}
