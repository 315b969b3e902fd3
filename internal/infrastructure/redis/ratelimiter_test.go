package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return NewFixedWindowLimiter(c), mr
}

func TestFixedWindowLimiter_UnderLimit(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 1; i <= 3; i++ {
		d, err := l.Allow(context.Background(), "rl:test:u1", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		require.Equal(t, i, d.Count)
		require.Equal(t, 3-i, d.Remaining)
	}
}

func TestFixedWindowLimiter_OverLimit(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		_, err := l.Allow(context.Background(), "rl:test:u1", 3, time.Minute)
		require.NoError(t, err)
	}

	d, err := l.Allow(context.Background(), "rl:test:u1", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 4, d.Count)
	require.Zero(t, d.Remaining)
	require.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestFixedWindowLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)

	for i := 0; i < 2; i++ {
		_, err := l.Allow(context.Background(), "rl:login:u1", 1, time.Minute)
		require.NoError(t, err)
	}

	d, err := l.Allow(context.Background(), "rl:login:u2", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestFixedWindowLimiter_WindowExpiry(t *testing.T) {
	l, mr := newTestLimiter(t)

	for i := 0; i < 2; i++ {
		_, err := l.Allow(context.Background(), "rl:test:u1", 1, time.Minute)
		require.NoError(t, err)
	}

	mr.FastForward(61 * time.Second)

	d, err := l.Allow(context.Background(), "rl:test:u1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Count)
}

func TestFixedWindowLimiter_NoClientFailsOpen(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, err := l.Allow(context.Background(), "rl:test:u1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestFixedWindowLimiter_ZeroLimitAllowsAll(t *testing.T) {
	l, _ := newTestLimiter(t)

	d, err := l.Allow(context.Background(), "rl:test:u1", 0, time.Minute)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestFixedWindowLimiter_RedisDownReturnsError(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	l := NewFixedWindowLimiter(c)
	mr.Close()
	_ = c.Close()

	// The middleware decides what to do with the error (it fails open);
	// the limiter itself reports it.
	_, err := l.Allow(context.Background(), "rl:test:u1", 1, time.Minute)
	require.Error(t, err)
}
