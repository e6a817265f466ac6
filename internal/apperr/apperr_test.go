package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfClassifiedAndWrapped(t *testing.T) {
	err := New(KindInvalidInput, "message is required")
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "message is required", MessageOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindInvalidInput, KindOf(wrapped))
	assert.Equal(t, "message is required", MessageOf(wrapped))
}

func TestKindOfUnclassified(t *testing.T) {
	err := errors.New("something leaked")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal error", MessageOf(err), "internal detail must not reach the caller")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(KindUnavailable, "knowledge base unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "dial tcp")
	assert.Equal(t, "knowledge base unavailable", MessageOf(err))
}
