// Copyright © 2018 One Concern

package sthree

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/oneconcern/assetsync/pkg/storage/status"
)

// toSentinelErrors maps S3 API errors onto the sentinels of the status package.
// See: https://docs.aws.amazon.com/AmazonS3/latest/API/ErrorResponses.html#ErrorCodeList
func toSentinelErrors(err error) error {
	var failure awserr.RequestFailure
	if err == nil || !errors.As(err, &failure) {
		return err
	}
	switch failure.Code() {
	case "NoSuchKey", "NoSuchBucket", "NotFound": // NotFound is produced by minio
		return status.ErrNotExists.Wrap(err)
	case "InvalidBucketName":
		return status.ErrInvalidResource.Wrap(err)
	}
	return status.FromHTTPStatus(failure.StatusCode(), err)
}
