package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

func newTestLock(t *testing.T, ttl time.Duration) (*PollLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return NewPollLock(c, "test:lock", ttl), mr
}

func TestPollLock_SingleHolder(t *testing.T) {
	l, mr := newTestLock(t, time.Minute)
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("test:lock"))

	_, ok, err = l.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	unlock()
	assert.False(t, mr.Exists("test:lock"))

	unlock2, ok, err := l.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	unlock2()
}

func TestPollLock_ExpiresAfterTTL(t *testing.T) {
	l, mr := newTestLock(t, 10*time.Second)
	ctx := context.Background()

	_, ok, err := l.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)

	_, ok, err = l.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPollLock_StaleUnlockKeepsNewHolder(t *testing.T) {
	l, mr := newTestLock(t, 10*time.Second)
	ctx := context.Background()

	staleUnlock, ok, err := l.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)
	_, ok, err = l.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	staleUnlock()
	assert.True(t, mr.Exists("test:lock"), "stale holder must not delete the new lease")
}

func TestPollLock_RedisDown(t *testing.T) {
	l, mr := newTestLock(t, time.Minute)
	mr.Close()

	_, ok, err := l.TryLock(context.Background())
	assert.False(t, ok)
	assert.True(t, domain.Is(err, "redis_unavailable"), "got %v", err)
}

func TestPollLock_NilClient(t *testing.T) {
	l := NewPollLock(nil, "", 0)

	_, ok, err := l.TryLock(context.Background())
	assert.False(t, ok)
	assert.True(t, domain.Is(err, "redis_unavailable"))
	assert.Equal(t, DefaultPollLockKey, l.key)
}

func TestPollLock_TTLMatchesLease(t *testing.T) {
	l, mr := newTestLock(t, 90*time.Second)
	assert.Equal(t, 90*time.Second, l.TTL())

	unlock, ok, err := l.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer unlock()
	assert.Equal(t, l.TTL(), mr.TTL("test:lock"))

	assert.Equal(t, 2*time.Minute, NewPollLock(nil, "", 0).TTL())
}
