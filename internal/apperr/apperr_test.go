package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksChain(t *testing.T) {
	base := NotFound("order %s not found", "abc")
	wrapped := fmt.Errorf("load: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "order abc not found", MessageOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Empty(t, MessageOf(errors.New("boom")))
}

func TestSentinelsMatchByKind(t *testing.T) {
	err := fmt.Errorf("checkout: %w", New(KindInsufficientStock, "not enough stock for %q", "lamp"))

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("smtp down")
	err := Wrap(KindDeliveryFailed, cause, "email")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Contains(t, err.Error(), "smtp down")
}
