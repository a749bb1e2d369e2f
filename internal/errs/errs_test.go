package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ENOTFOUND, ErrorCode(Errorf(ENOTFOUND, "group %q not found", "cats")))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("boom")))
}

func TestErrorCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("list posts: %w", Errorf(EUNAUTHORIZED, "login required"))

	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "login required", ErrorMessage(err))
}

func TestErrorMessage_Foreign(t *testing.T) {
	assert.Equal(t, "Internal error.", ErrorMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "", ErrorMessage(nil))
}

func TestError_String(t *testing.T) {
	err := Errorf(ECONFLICT, "already following %s", "anna")
	assert.Equal(t, "conflict: already following anna", err.Error())
	assert.True(t, IsConflict(err))
	assert.True(t, IsInvalid(Errorf(EINVALID, "empty text")))
}
