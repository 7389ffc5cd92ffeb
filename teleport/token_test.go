package teleport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMutualExclusion(t *testing.T) {
	tok := NewToken(0.5, 5)

	a, ok := tok.Acquire(0, 0)
	require.True(t, ok)
	_, ok = tok.Acquire(0, 0.1)
	assert.False(t, ok, "teammate is blocked")

	_, ok = tok.Acquire(1, 0.1)
	assert.True(t, ok, "other team is independent")

	tok.Release(a, 1)
	assert.True(t, tok.Busy(0, 1.2), "busy during release delay")
	_, ok = tok.Acquire(0, 1.2)
	assert.False(t, ok)

	_, ok = tok.Acquire(0, 1.5)
	assert.True(t, ok, "free once the delay passes")
}

func TestTokenAutoRelease(t *testing.T) {
	tok := NewToken(0.5, 5)

	stale, ok := tok.Acquire(0, 0)
	require.True(t, ok)
	assert.True(t, tok.Busy(0, 4.9))
	assert.False(t, tok.Busy(0, 5), "holder never released")

	fresh, ok := tok.Acquire(0, 5)
	require.True(t, ok)

	// The abandoned holder releasing late must not free the new hold
	tok.Release(stale, 6)
	assert.True(t, tok.Held(fresh, 6))
	assert.False(t, tok.Held(stale, 6))
	assert.True(t, tok.Busy(0, 6))
}

func TestTokenReleaseTwice(t *testing.T) {
	tok := NewToken(0.5, 0)

	l, ok := tok.Acquire(2, 0)
	require.True(t, ok)
	assert.True(t, tok.Busy(2, 1000), "no max hold")

	tok.Release(l, 1000)
	tok.Release(l, 1000.4)
	assert.False(t, tok.Busy(2, 1000.5), "second release does not extend the delay")
}
