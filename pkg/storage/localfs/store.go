// Copyright © 2018 One Concern

// Package localfs implements a storage.Store on top of an afero file system.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/assetsync/pkg/storage"
	"github.com/oneconcern/assetsync/pkg/storage/status"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
)

// New creates a new local file system backed storage model
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".assetsync", "objects"))
	}
	return &localFS{
		fs:   fs,
		name: "localfs",
	}
}

// NewReadOnly creates a local file system store which rejects any mutation
func NewReadOnly(fs afero.Fs) storage.Store {
	name := describe("localfs-ro", fs)
	if _, isReadOnly := fs.(*afero.ReadOnlyFs); !isReadOnly {
		fs = afero.NewReadOnlyFs(fs)
	}
	return &localFS{
		fs:   fs,
		name: name,
	}
}

type localFS struct {
	fs   afero.Fs
	name string
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotExists.WrapMessage("%s/%s", l, key)
	}
	return l.fs.Open(key)
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	if dir := filepath.Dir(key); dir != "." {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			return mapWriteErr(fmt.Errorf("ensuring directories for %q: %w", key, err))
		}
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC | os.O_SYNC
	if exclusive {
		flag |= os.O_EXCL
	}
	target, err := l.fs.OpenFile(key, flag, 0600)
	if err != nil {
		if os.IsExist(err) {
			return status.ErrExists.WrapMessage("%s/%s", l, key)
		}
		return mapWriteErr(fmt.Errorf("create record for %q: %w", key, err))
	}

	_, err = io.Copy(target, storage.ContextReader{Ctx: ctx, Reader: source})
	if err != nil {
		_ = target.Close()
		return fmt.Errorf("write record for %q: %w", key, err)
	}

	return target.Close()
}

func mapWriteErr(err error) error {
	if errors.Is(err, os.ErrPermission) {
		return status.ErrForbidden.Wrap(err)
	}
	return err
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	if err := l.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return mapWriteErr(fmt.Errorf("removing %q: %w", key, err))
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	const root = "."
	var res []string
	e := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root && os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if path == root || info.IsDir() {
			return nil
		}
		res = append(res, filepath.ToSlash(path))
		return nil
	})
	if e != nil {
		return nil, e
	}
	return res, nil
}

// Clear removes all objects, but retains the root of the store
func (l *localFS) Clear(ctx context.Context) error {
	entries, err := afero.ReadDir(l.fs, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return mapWriteErr(err)
	}
	for _, entry := range entries {
		if err := l.fs.RemoveAll(entry.Name()); err != nil {
			return mapWriteErr(fmt.Errorf("clearing %q: %w", entry.Name(), err))
		}
	}
	return nil
}

func (l *localFS) String() string {
	return describe(l.name, l.fs)
}

func describe(name string, fs afero.Fs) string {
	if bfs, ok := fs.(*afero.BasePathFs); ok {
		pp, err := bfs.RealPath("")
		if err == nil {
			return name + "@" + pp
		}
	}
	return name
}

/* thread-safe local storage implementation.
 * use a decorator pattern to implement atomic Put()s via atomicity of afero.Fs.Rename()
 * for those filesystems where Rename() is thread-safe:  files are placed in a staging area,
 * then Rename()d into place.
 */

/* staging area key prefix and helper functions */
const (
	nestedPutStageName = ".put-stage"
)

func maybeInvalidKey(key string) error {
	const pathSepString = "/"
	pathComponents := strings.Split(strings.TrimLeft(filepath.ToSlash(key), pathSepString), pathSepString)
	if len(pathComponents) == 0 {
		return nil
	}
	if pathComponents[0] == nestedPutStageName {
		return status.ErrInvalidResource.WrapMessage("key '%v' conflicts with put staging area name '%v'", key, nestedPutStageName)
	}
	return nil
}

func filterInvalidKeys(ks []string) []string {
	/* https://github.com/golang/go/wiki/SliceTricks#filtering-without-allocating */
	ksFiltered := ks[:0]
	for _, key := range ks {
		if err := maybeInvalidKey(key); err == nil {
			ksFiltered = append(ksFiltered, key)
		}
	}
	for i := len(ksFiltered); i < len(ks); i++ {
		ks[i] = ""
	}
	return ksFiltered
}

// NewAtomic creates a local file system store where objects are first written to a staging area,
// then renamed into place. Partially written objects never show up under their final key.
func NewAtomic(fs afero.Fs) (storage.Store, error) {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".assetsync", "objects"))
	}
	/* the staging area exists within the afero.Fs itself */
	if err := fs.MkdirAll(nestedPutStageName, 0700); err != nil {
		return nil, fmt.Errorf("ensuring put staging directory for %q: %w", nestedPutStageName, err)
	}
	return &localFSAtomic{
		storeImpl: localFS{fs: fs, name: "localfs-atomic"},
	}, nil
}

type localFSAtomic struct {
	storeImpl localFS
}

/* implementing the Store interface is mostly a matter of wrapping the decorated localFs's
 * interface with helper functions.
 */

func (l *localFSAtomic) Has(ctx context.Context, key string) (bool, error) {
	if err := maybeInvalidKey(key); err != nil {
		return false, err
	}
	return l.storeImpl.Has(ctx, key)
}

func (l *localFSAtomic) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := maybeInvalidKey(key); err != nil {
		return nil, err
	}
	return l.storeImpl.Get(ctx, key)
}

func (l *localFSAtomic) Delete(ctx context.Context, key string) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	return l.storeImpl.Delete(ctx, key)
}

func (l *localFSAtomic) Keys(ctx context.Context) ([]string, error) {
	ks, err := l.storeImpl.Keys(ctx)
	if err != nil {
		return ks, err
	}
	return filterInvalidKeys(ks), nil
}

func (l *localFSAtomic) Clear(ctx context.Context) error {
	if err := l.storeImpl.Clear(ctx); err != nil {
		return err
	}
	return l.storeImpl.fs.MkdirAll(nestedPutStageName, 0700)
}

/* the Put() implementation is the only part of the Store interface implemented
 * outside of the functional wrap design pattern
 */
func (l *localFSAtomic) Put(ctx context.Context, key string, source io.Reader, exclusive bool) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	if exclusive {
		has, err := l.storeImpl.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.WrapMessage("%s/%s", l, key)
		}
	}

	putStageKey := filepath.Join(nestedPutStageName, ksuid.New().String())
	if err := l.storeImpl.Put(ctx, putStageKey, source, storage.OverWrite); err != nil {
		_ = l.storeImpl.fs.Remove(putStageKey)
		return err
	}
	/* Rename() doesn't create directories automatically */
	if dir := filepath.Dir(key); dir != "." {
		if err := l.storeImpl.fs.MkdirAll(dir, 0700); err != nil {
			_ = l.storeImpl.fs.Remove(putStageKey)
			return fmt.Errorf("ensuring directories for %q: %w", key, err)
		}
	}
	if err := l.storeImpl.fs.Rename(putStageKey, key); err != nil {
		_ = l.storeImpl.fs.Remove(putStageKey)
		return fmt.Errorf("moving staged record into %q: %w", key, err)
	}
	return nil
}

func (l *localFSAtomic) String() string {
	return l.storeImpl.String()
}
