package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient_ExplicitAndWrapped(t *testing.T) {
	te := NewTransientError(errors.New("wikipedia: status 503"), 503)
	assert.True(t, IsTransient(te))
	assert.True(t, IsTransient(fmt.Errorf("search: %w", te)))
}

func TestIsTransient_Nil(t *testing.T) {
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_ContentErrorNotRetryable(t *testing.T) {
	assert.False(t, IsTransient(errors.New("wikipedia: unmarshal response")))
}

func TestIsTransient_Syscalls(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("write tcp: %w", syscall.ECONNRESET)))
	assert.True(t, IsTransient(fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)))
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	assert.True(t, IsTransient(&net.DNSError{IsTimeout: true, Err: "timeout"}))
}

func TestIsTransient_StringPatterns(t *testing.T) {
	for _, msg := range []string{
		"read: connection reset by peer",
		"TLS handshake timeout",
		"dial tcp: lookup en.wikipedia.org: no such host",
		"unexpected EOF",
	} {
		assert.True(t, IsTransient(errors.New(msg)), msg)
	}
}

func TestIsServerError(t *testing.T) {
	for _, code := range []int{500, 502, 503, 504, 599} {
		assert.True(t, IsServerError(code), code)
	}
	for _, code := range []int{200, 400, 404, 429, 499, 600} {
		assert.False(t, IsServerError(code), code)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := NewTransientError(inner, 502)

	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 502, te.StatusCode)
	assert.Equal(t, "root cause", te.Error())
}
