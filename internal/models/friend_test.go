package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPairOrdersBothDirections(t *testing.T) {
	a1, b1 := CanonicalPair(2, 5)
	a2, b2 := CanonicalPair(5, 2)

	assert.Equal(t, 2, a1)
	assert.Equal(t, 5, b1)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestCanonicalPairEqualIDs(t *testing.T) {
	a, b := CanonicalPair(3, 3)
	assert.Equal(t, 3, a)
	assert.Equal(t, 3, b)
}
