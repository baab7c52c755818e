// Copyright © 2018 One Concern

package gcs

import (
	"strings"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/storage/status"
	"google.golang.org/api/googleapi"
)

// toSentinelErrors maps GCS client errors onto the sentinels of the status package
func toSentinelErrors(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gcsStorage.ErrObjectNotExist) || errors.Is(err, gcsStorage.ErrBucketNotExist) {
		return status.ErrNotExists.Wrap(err)
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Code == 400 && strings.Contains(apiErr.Body, "bucket is not valid") {
		return status.ErrInvalidResource.Wrap(err)
	}
	return status.FromHTTPStatus(apiErr.Code, err)
}
