package lock

import (
	"context"
	"time"

	dErrors "kycore/pkg/domain-errors"
)

const numShards = 128

// ShardedLocker spreads keys over a fixed set of mutexes by FNV-1a hash. Two keys
// on the same shard serialize against each other, which is safe but coarser.
type ShardedLocker struct {
	shards [numShards]chan struct{}
}

func NewShardedLocker() *ShardedLocker {
	l := &ShardedLocker{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

// Acquire ignores ttl; in-process holders cannot outlive the process.
func (l *ShardedLocker) Acquire(ctx context.Context, key string, _ time.Duration) (Lease, error) {
	shard := l.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
		return &shardLease{shard: shard}, nil
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock acquisition aborted")
	}
}

type shardLease struct {
	shard    chan struct{}
	released bool
}

func (s *shardLease) Release(context.Context) error {
	if s.released {
		return nil
	}
	s.released = true
	<-s.shard
	return nil
}

func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
