// Copyright © 2018 One Concern

package status

import (
	"fmt"
	"testing"

	"github.com/oneconcern/assetsync/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFromHTTPStatus(t *testing.T) {
	cause := fmt.Errorf("key: failed")
	for code, expected := range map[int]error{
		404: ErrNotFound,
		410: ErrNotFound,
		401: ErrUnauthorized,
		403: ErrForbidden,
		400: ErrStorageAPI,
		503: ErrStorageAPI,
	} {
		err := FromHTTPStatus(code, cause)
		assert.True(t, errors.Is(err, expected), "code %d", code)
		assert.True(t, errors.Is(err, cause), "code %d", code)
	}
	assert.Equal(t, cause, FromHTTPStatus(204, cause))
	assert.True(t, IsNotExist(FromHTTPStatus(404, cause)))
	assert.True(t, IsNotExist(ErrNotExists.WrapMessage("bundle a")))
	assert.False(t, IsNotExist(FromHTTPStatus(500, cause)))
}
