package cpdtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixMul(t *testing.T) {
	a := newMatrix(2, 2)
	a.set(0, 0, 1)
	a.set(0, 1, 2)
	a.set(1, 0, 3)
	a.set(1, 1, 4)

	identity := newMatrix(2, 2)
	identity.set(0, 0, 1)
	identity.set(1, 1, 1)

	out := a.mul(identity)
	assert.Equal(t, 1.0, out.at(0, 0))
	assert.Equal(t, 2.0, out.at(0, 1))
	assert.Equal(t, 3.0, out.at(1, 0))
	assert.Equal(t, 4.0, out.at(1, 1))
}

func TestMatrixSolveIdentity(t *testing.T) {
	a := newMatrix(2, 2)
	a.set(0, 0, 1)
	a.set(1, 1, 1)

	b := newMatrix(2, 1)
	b.set(0, 0, 5)
	b.set(1, 0, 7)

	x, ok := a.solve(b)
	require.True(t, ok)
	assert.InDelta(t, 5.0, x.at(0, 0), 1e-9)
	assert.InDelta(t, 7.0, x.at(1, 0), 1e-9)
}

func TestMatrixSolveSingularReportsNotOK(t *testing.T) {
	a := newMatrix(2, 2) // all-zero, singular
	b := newMatrix(2, 1)
	b.set(0, 0, 1)
	b.set(1, 0, 1)

	_, ok := a.solve(b)
	assert.False(t, ok)
}
