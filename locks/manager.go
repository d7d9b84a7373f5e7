// Package locks implements the lock storage engine: the lock record model,
// the storage contract every backend satisfies, an in-process sharded
// backend with optional snapshot persistence, and a Redis backend.
package locks

import (
	"context"
	"errors"
	"time"
)

// Common storage errors
var (
	ErrInvalidRecord = errors.New("invalid lock record")
)

// Store defines the lock lifecycle contract shared by all backends.
// A non-nil error always means the backend could not answer; a false
// result with a nil error is a definite negative outcome.
type Store interface {
	// TryAcquire establishes candidate as the holder of candidate.LockKey().
	// Reentrant acquisitions by the same owner keep the existing lock id, so
	// callers must re-read the record by key to learn the authoritative id.
	TryAcquire(ctx context.Context, candidate LockRecord) (bool, error)

	// GetLock returns the current record for lockKey, expired or not.
	// It returns nil and no error when no record exists.
	GetLock(ctx context.Context, lockKey string) (*LockRecord, error)

	// UpdateHeartbeat refreshes the record still carrying lockID.
	UpdateHeartbeat(ctx context.Context, lockID string) (bool, error)

	// Release removes the record still carrying lockID.
	Release(ctx context.Context, lockID string) (bool, error)

	// CleanupExpired removes expired records and returns how many were removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Close releases any resources held by the backend
	Close() error
}

// Snapshotter is implemented by backends that can externalize their live set.
type Snapshotter interface {
	Persist(ctx context.Context) (int, error)
}

// Clock returns the current time. Backends take one so tests can move time.
type Clock func() time.Time
