package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
)

const (
	keyPrefix         = "kyc:lock:"
	defaultRetryDelay = 25 * time.Millisecond
	maxRetryDelay     = 250 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a token-checked release.
type RedisLocker struct {
	client     redis.UniversalClient
	retryDelay time.Duration
}

type RedisOption func(*RedisLocker)

// WithRetryDelay sets the initial delay between acquisition attempts.
func WithRetryDelay(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retryDelay = d
		}
	}
}

func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{client: client, retryDelay: defaultRetryDelay}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key
	delay := l.retryDelay
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock acquisition aborted")
			}
			return nil, errors.Join(sentinel.ErrUnavailable, err)
		}
		if ok {
			return &redisLease{client: l.client, key: redisKey, token: token}, nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, dErrors.Wrap(errors.Join(ctx.Err(), sentinel.ErrLockHeld), dErrors.CodeTimeout, "lock acquisition aborted")
		case <-timer.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Release returns sentinel.ErrLockHeld when the lease expired and another holder
// took the key.
func (r *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Int()
	if err != nil {
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	if n == 0 {
		return sentinel.ErrLockHeld
	}
	return nil
}
