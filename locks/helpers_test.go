package locks

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func candidate(clock *fakeClock, businessID, ownerID string, timeout int64) LockRecord {
	return NewLockRecord("", businessID, ownerID, ownerID+"-name", timeout, clock.Now())
}

// requireIndexesAgree checks that every forward record has a matching
// reverse entry and that no reverse entry points at a missing record.
func requireIndexesAgree(t *testing.T, s *LocalStore) {
	t.Helper()

	forward := make(map[string]string)
	for i := range s.records {
		sh := &s.records[i]
		sh.mu.Lock()
		for key, rec := range sh.records {
			forward[rec.LockID] = key
		}
		sh.mu.Unlock()
	}

	reverse := make(map[string]string)
	for i := range s.ids {
		sh := &s.ids[i]
		sh.mu.Lock()
		for id, key := range sh.keys {
			reverse[id] = key
		}
		sh.mu.Unlock()
	}

	require.Equal(t, forward, reverse)
}
