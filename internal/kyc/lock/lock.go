// Package lock serializes work on one verification reference across goroutines
// or, with Redis, across processes.
package lock

import (
	"context"
	"time"
)

// Locker acquires exclusive leases keyed by verification reference.
type Locker interface {
	// Acquire blocks until the lease is held or ctx is done. ttl bounds how long a
	// crashed holder can keep the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Noop is a Locker that never blocks. Used when the store's own transaction is the
// only serialization needed.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (Lease, error) {
	return noopLease{}, nil
}

type noopLease struct{}

func (noopLease) Release(context.Context) error { return nil }
