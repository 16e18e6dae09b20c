package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := New(5, 3*time.Second)
	limiter.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("outer"), "hit %d", i+1)
	}
	assert.False(t, limiter.Allow("outer"), "sixth hit in the window")
}

func TestAllowNewWindowResets(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := New(5, 3*time.Second)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 6; i++ {
		limiter.Allow("outer")
	}
	assert.False(t, limiter.Allow("outer"))

	now = now.Add(3 * time.Second)
	assert.True(t, limiter.Allow("outer"))
}

func TestAllowKeysAreIndependent(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := New(1, time.Minute)
	limiter.now = func() time.Time { return base }

	assert.True(t, limiter.Allow("outer"))
	assert.False(t, limiter.Allow("outer"))
	assert.True(t, limiter.Allow("inner"))
}

func TestAccessors(t *testing.T) {
	limiter := New(5, 3*time.Second)
	assert.Equal(t, 5, limiter.Limit())
	assert.Equal(t, 3*time.Second, limiter.Period())
}
