package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{302, ErrorTypeUnknown},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := FromStatus(tt.code)
			assert.Equal(t, tt.want, err.Type)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := &Error{Type: ErrorTypeRateLimit, Message: "slow down", Code: 429}
	err := error(&FetchError{Op: "profile", Key: "u1", Attempts: 3, Cause: cause})

	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(err))
	assert.Contains(t, err.Error(), `profile "u1" failed after 3 attempts`)
}

func TestTypeOfUnclassified(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrDiscoveryTimeout))
	assert.True(t, IsFatal(fmt.Errorf("bridge: %w", ErrNoCredentials)))
	assert.True(t, IsFatal(ErrLoginTimeout))
	assert.False(t, IsFatal(&FetchError{Op: "detail", Key: "A", Attempts: 3, Cause: errors.New("x")}))
}
