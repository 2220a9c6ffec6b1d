package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/event-seat-engine/internal/repository"
)

func TestErrorKinds(t *testing.T) {
	v := validationErr("hold", "bad seat (%d,%d)", 0, 1)
	s := stateErr("sell", "sold")
	cause := errors.New("dial tcp: refused")
	i := integrationErr("sell", cause, "submit")

	assert.True(t, IsValidation(v))
	assert.False(t, IsState(v))
	assert.True(t, IsState(s))
	assert.True(t, IsIntegration(i))
	assert.ErrorIs(t, i, cause)
	assert.Equal(t, "hold: validation: bad seat (0,1)", v.Error())
	assert.Equal(t, "sell: integration: submit: dial tcp: refused", i.Error())

	wrapped := fmt.Errorf("handler: %w", s)
	assert.True(t, IsState(wrapped))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestNotFoundWrapsSentinel(t *testing.T) {
	f := newFixture(t)
	_, err := f.holds.Hold(t.Context(), 42, 1, 1)
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}
