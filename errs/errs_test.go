package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindTravelsThroughWrapping(t *testing.T) {
	base := E(NotFound, "vocal not found")
	wrapped := fmt.Errorf("loading catalog entry: %w", base)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, Conflict))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("plain error")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "vocal not found", MessageOf(E(NotFound, "vocal not found")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("sql: connection refused")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Internal, "failed to store vocal", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "failed to store vocal", MessageOf(err))
}
