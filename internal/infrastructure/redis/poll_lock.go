package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/logger"
)

const DefaultPollLockKey = "monitor:jobs:poll_lock"

// release only deletes the key when it still carries our token, so an expired
// lock taken over by another instance is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// PollLock is a single-holder lease: SET key token NX PX ttl.
type PollLock struct {
	rdb *goredis.Client
	key string
	ttl time.Duration
}

func NewPollLock(c *Client, key string, ttl time.Duration) *PollLock {
	if key == "" {
		key = DefaultPollLockKey
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	l := &PollLock{key: key, ttl: ttl}
	if c != nil {
		l.rdb = c.rdb
	}
	return l
}

// TTL is the lease length set on every acquire.
func (l *PollLock) TTL() time.Duration { return l.ttl }

// TryLock returns acquired=false without error when the lease is held elsewhere.
func (l *PollLock) TryLock(ctx context.Context) (func(), bool, error) {
	if l.rdb == nil {
		return nil, false, domain.ErrRedisUnavailable(errors.New("redis not configured"))
	}

	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, domain.ErrRedisUnavailable(err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// the poll ctx may already be cancelled on shutdown
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{l.key}, token).Err(); err != nil {
			logger.Logger.Warn().Err(err).Str("key", l.key).Msg("poll lock release failed; lease will expire")
		}
	}
	return unlock, true, nil
}
