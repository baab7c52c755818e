// Copyright © 2018 One Concern

// Package status declares the errors returned by stores.
//
// Backends map their own errors onto these, so callers only ever check
// for the sentinels of this package.
package status

import (
	"net/http"

	"github.com/oneconcern/assetsync/pkg/errors"
)

var (
	// ErrNotExists indicates that the fetched object does not exist on storage
	ErrNotExists = errors.New("object doesn't exist")

	// ErrNotFound indicates that the backend API call did not find the target resource
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or incorrect credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates that the backend forbids access to the target resource
	ErrForbidden = errors.New("forbidden")

	// ErrNotSupported indicates that the store does not support this call, e.g. writing to a remote tier
	ErrNotSupported = errors.New("not supported")

	// ErrExists indicates that the object already exists and may not be overwritten
	ErrExists = errors.New("exists already")

	// ErrObjectTooBig indicates that the object is too big to be read into memory
	ErrObjectTooBig = errors.New("object too big to be read into memory")

	// ErrInvalidResource indicates an invalid bucket, URL or key
	ErrInvalidResource = errors.New("invalid storage resource name")

	// ErrStorageAPI indicates any other storage API error
	ErrStorageAPI = errors.New("storage API error")
)

// IsNotExist tells if an error reports a missing object, whatever the backend
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExists) || errors.Is(err, ErrNotFound)
}

// FromHTTPStatus maps the HTTP status code of a failed API call onto a sentinel, wrapping err.
// 2xx codes are not failures: the error is returned unchanged.
func FromHTTPStatus(code int, err error) error {
	switch {
	case code >= 200 && code < 300:
		return err
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound.Wrap(err)
	case code == http.StatusUnauthorized:
		return ErrUnauthorized.Wrap(err)
	case code == http.StatusForbidden:
		return ErrForbidden.Wrap(err)
	default:
		return ErrStorageAPI.Wrap(err)
	}
}
