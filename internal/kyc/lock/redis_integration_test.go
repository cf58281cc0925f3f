//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kycore/internal/kyc/lock"
	dErrors "kycore/pkg/domain-errors"
	"kycore/pkg/platform/sentinel"
	"kycore/pkg/testutil/containers"
)

type RedisLockerSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockerSuite) TestExclusiveAcrossClients() {
	ctx := context.Background()
	a := lock.NewRedisLocker(s.redis.NewClient(s.T()))
	b := lock.NewRedisLocker(s.redis.NewClient(s.T()), lock.WithRetryDelay(5*time.Millisecond))

	lease, err := a.Acquire(ctx, "SP_1", 5*time.Second)
	s.Require().NoError(err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = b.Acquire(short, "SP_1", 5*time.Second)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))

	s.Require().NoError(lease.Release(ctx))
	second, err := b.Acquire(ctx, "SP_1", 5*time.Second)
	s.Require().NoError(err)
	s.NoError(second.Release(ctx))
}

func (s *RedisLockerSuite) TestExpiredLeaseCannotReleaseNewHolder() {
	ctx := context.Background()
	l := lock.NewRedisLocker(s.redis.Client, lock.WithRetryDelay(5*time.Millisecond))

	stale, err := l.Acquire(ctx, "SP_2", 50*time.Millisecond)
	s.Require().NoError(err)
	time.Sleep(100 * time.Millisecond)

	fresh, err := l.Acquire(ctx, "SP_2", 5*time.Second)
	s.Require().NoError(err)

	s.ErrorIs(stale.Release(ctx), sentinel.ErrLockHeld)
	s.NoError(fresh.Release(ctx))
}
