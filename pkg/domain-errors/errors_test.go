package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct code matches", func(t *testing.T) {
		err := New(CodeConflict, "version moved")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("wrapped code is found through the chain", func(t *testing.T) {
		inner := New(CodeNotFound, "retreat missing")
		outer := Wrap(inner, CodeInternal, "load retreat")
		assert.True(t, HasCode(outer, CodeNotFound))
		assert.True(t, HasCode(outer, CodeInternal))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "database unreachable")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCodeOfFallsBackToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("untyped")))
	assert.Equal(t, "internal error", MessageOf(fmt.Errorf("untyped")))
}
