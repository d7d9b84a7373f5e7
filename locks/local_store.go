package locks

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	seclog "github.com/ebogdum/lockservice/core/log"
)

const shardCount = 64

type recordShard struct {
	mu      sync.Mutex
	records map[string]LockRecord // lock key -> record
}

type idShard struct {
	mu   sync.Mutex
	keys map[string]string // lock id -> lock key
}

// LocalStore is the in-process Store backend. It keeps a forward index
// (lock key -> record) and a reverse index (lock id -> lock key), each split
// into independently locked shards so unrelated keys never contend.
//
// Lock order: a record shard may be held while taking an id shard, never
// the reverse. Every mutation of either index happens while holding the
// record shard of the affected lock key. Inserts write the forward index
// first; removals drop the reverse entry first. Reverse lookups are always
// re-validated against the forward record under its shard lock.
type LocalStore struct {
	records [shardCount]recordShard
	ids     [shardCount]idShard

	persistPath string
	persistMu   sync.Mutex

	now    Clock
	logger *zap.Logger
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithPersistPath enables snapshot persistence to path.
func WithPersistPath(path string) LocalOption {
	return func(s *LocalStore) {
		s.persistPath = path
	}
}

// WithClock overrides the time source used for expiry and heartbeats.
func WithClock(now Clock) LocalOption {
	return func(s *LocalStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLocalStore creates a new in-memory lock store.
func NewLocalStore(logger *zap.Logger, opts ...LocalOption) *LocalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LocalStore{
		now:    time.Now,
		logger: logger,
	}
	for i := range s.records {
		s.records[i].records = make(map[string]LockRecord)
		s.ids[i].keys = make(map[string]string)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}

func (s *LocalStore) recordShard(lockKey string) *recordShard {
	return &s.records[shardFor(lockKey)]
}

func (s *LocalStore) idShard(lockID string) *idShard {
	return &s.ids[shardFor(lockID)]
}

func (s *LocalStore) putID(lockID, lockKey string) {
	sh := s.idShard(lockID)
	sh.mu.Lock()
	sh.keys[lockID] = lockKey
	sh.mu.Unlock()
}

func (s *LocalStore) deleteID(lockID string) {
	sh := s.idShard(lockID)
	sh.mu.Lock()
	delete(sh.keys, lockID)
	sh.mu.Unlock()
}

func (s *LocalStore) lookupID(lockID string) (string, bool) {
	sh := s.idShard(lockID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	key, ok := sh.keys[lockID]
	return key, ok
}

// TryAcquire attempts to establish candidate as the holder of its lock key.
func (s *LocalStore) TryAcquire(ctx context.Context, candidate LockRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := candidate.validate(); err != nil {
		return false, err
	}

	lockKey := candidate.LockKey()
	sh := s.recordShard(lockKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	if existing, ok := sh.records[lockKey]; ok {
		switch {
		case existing.IsExpiredAt(now):
			s.deleteID(existing.LockID)
			delete(sh.records, lockKey)
			s.logger.Info("Expired lock taken over",
				zap.String("lock_id", existing.LockID),
				zap.String("lock_key", lockKey),
				zap.String("owner_id", seclog.SanitizeOwnerID(existing.OwnerID)))
		case existing.OwnerID == candidate.OwnerID:
			existing.LastHeartbeatAt = now
			sh.records[lockKey] = existing
			s.putID(existing.LockID, lockKey)
			s.logger.Info("Reentrant lock acquisition",
				zap.String("lock_id", existing.LockID),
				zap.String("lock_key", lockKey),
				zap.String("owner_id", seclog.SanitizeOwnerID(existing.OwnerID)))
			return true, nil
		default:
			return false, nil
		}
	}

	sh.records[lockKey] = candidate
	s.putID(candidate.LockID, lockKey)
	return true, nil
}

// GetLock returns a copy of the record stored for lockKey.
func (s *LocalStore) GetLock(ctx context.Context, lockKey string) (*LockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sh := s.recordShard(lockKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[lockKey]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// UpdateHeartbeat refreshes LastHeartbeatAt of the record carrying lockID.
func (s *LocalStore) UpdateHeartbeat(ctx context.Context, lockID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	lockKey, ok := s.lookupID(lockID)
	if !ok {
		return false, nil
	}

	sh := s.recordShard(lockKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[lockKey]
	if !ok || rec.LockID != lockID {
		return false, nil
	}
	rec.LastHeartbeatAt = s.now()
	sh.records[lockKey] = rec
	return true, nil
}

// Release removes the record carrying lockID. A lock id that was superseded
// only has its stale reverse entry dropped.
func (s *LocalStore) Release(ctx context.Context, lockID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	lockKey, ok := s.lookupID(lockID)
	if !ok {
		return false, nil
	}

	sh := s.recordShard(lockKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[lockKey]
	s.deleteID(lockID)
	if !ok || rec.LockID != lockID {
		s.logger.Debug("Dropped stale lock id",
			zap.String("lock_id", lockID),
			zap.String("lock_key", lockKey))
		return false, nil
	}
	delete(sh.records, lockKey)

	s.logger.Info("Lock released",
		zap.String("lock_id", lockID),
		zap.String("lock_key", lockKey),
		zap.String("owner_id", seclog.SanitizeOwnerID(rec.OwnerID)))
	return true, nil
}

// CleanupExpired removes every expired record from both indices.
func (s *LocalStore) CleanupExpired(ctx context.Context) (int, error) {
	removed := 0
	for i := range s.records {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		sh := &s.records[i]
		sh.mu.Lock()
		now := s.now()
		for lockKey, rec := range sh.records {
			if !rec.IsExpiredAt(now) {
				continue
			}
			s.deleteID(rec.LockID)
			delete(sh.records, lockKey)
			removed++
			s.logger.Debug("Removed expired lock",
				zap.String("lock_id", rec.LockID),
				zap.String("lock_key", lockKey),
				zap.String("owner_id", seclog.SanitizeOwnerID(rec.OwnerID)),
				zap.Time("acquired_at", rec.AcquiredAt))
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len returns the number of stored records, live or expired.
func (s *LocalStore) Len() int {
	n := 0
	for i := range s.records {
		sh := &s.records[i]
		sh.mu.Lock()
		n += len(sh.records)
		sh.mu.Unlock()
	}
	return n
}

// Records returns a copy of every stored record. Shards are visited one at
// a time, so the result is per-key consistent rather than a global cut.
func (s *LocalStore) Records() []LockRecord {
	out := make([]LockRecord, 0, s.Len())
	for i := range s.records {
		sh := &s.records[i]
		sh.mu.Lock()
		for _, rec := range sh.records {
			out = append(out, rec)
		}
		sh.mu.Unlock()
	}
	return out
}

// Close is a no-op. Records stay readable so a final snapshot can still
// be taken during shutdown.
func (s *LocalStore) Close() error {
	return nil
}
