// Copyright © 2018 One Concern

// Package status declares the error kinds surfaced by asset loading
// and package synchronization.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between the packages that produce
// them and the ones which inspect them.
package status

import (
	"context"

	"github.com/oneconcern/assetsync/pkg/errors"
)

var (
	// ErrNotFound indicates that an asset or bundle is unknown to the in-memory index
	ErrNotFound = errors.New("not found")

	// ErrTierAbsent indicates that a manifest or contents table does not exist on a storage tier
	ErrTierAbsent = errors.New("tier absent")

	// ErrFetchFailed indicates a non-recoverable I/O failure while fetching some content
	ErrFetchFailed = errors.New("download failed")

	// ErrCancelled signals a cooperative cancellation. It is not a failure.
	ErrCancelled = errors.New("cancelled")

	// ErrInconsistent indicates that package metadata does not describe a known bundle
	ErrInconsistent = errors.New("package metadata inconsistent")

	// ErrNotLoaded indicates an attempt to release a bundle which is not loaded
	ErrNotLoaded = errors.New("bundle not loaded")

	// ErrDecode indicates that a manifest or contents table could not be decoded
	ErrDecode = errors.New("invalid package metadata")
)

// Cancelled qualifies a context error as a cancellation. Other errors are returned unchanged.
func Cancelled(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCancelled) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled.Wrap(err)
	}
	return err
}

// IsCancelled tells if an error is a cancellation signal rather than a failure
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
