package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	a := NewID()
	b := NewID()

	assert.False(t, a.IsEmpty())
	assert.NotEqual(t, a, b)
	assert.Len(t, a.String(), 36)
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	assert.NotEmpty(t, id.String())
	assert.NotEqual(t, id, NewSessionID())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, ID("").IsEmpty())
	assert.False(t, ID("x").IsEmpty())
}
