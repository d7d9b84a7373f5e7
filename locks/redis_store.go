package locks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	seclog "github.com/ebogdum/lockservice/core/log"
)

const (
	defaultKeyPrefix = "lock:"
	maxTxAttempts    = 16
)

// RedisOptions holds connection settings for NewRedisStore.
type RedisOptions struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	KeyPrefix    string
}

// RedisStore implements Store on top of Redis. Each lock uses two keys:
// <prefix>data:<lock key> holds the JSON record and <prefix>id:<lock id>
// holds the lock key as a reverse index. Both carry the lock timeout as
// their native TTL. Mutations touching both keys run inside a WATCH/MULTI
// transaction on the data key, so the pair is always written, refreshed and
// removed together.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    Clock
	logger *zap.Logger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisClock overrides the time source used for the expiry predicate and heartbeats.
func WithRedisClock(now Clock) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore connects to Redis and returns a Redis-backed store
func NewRedisStore(opts RedisOptions, logger *zap.Logger, storeOpts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, opts.KeyPrefix, logger, storeOpts...), nil
}

// NewRedisStoreWithClient wraps an existing client. The store takes
// ownership of the client and closes it on Close.
func NewRedisStoreWithClient(client *redis.Client, prefix string, logger *zap.Logger, opts ...RedisOption) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) dataKey(lockKey string) string {
	return s.prefix + "data:" + lockKey
}

func (s *RedisStore) idKey(lockID string) string {
	return s.prefix + "id:" + lockID
}

// TryAcquire attempts to establish candidate as the holder of its lock key.
func (s *RedisStore) TryAcquire(ctx context.Context, candidate LockRecord) (bool, error) {
	if err := candidate.validate(); err != nil {
		return false, err
	}

	lockKey := candidate.LockKey()
	dataKey := s.dataKey(lockKey)
	fresh, err := json.Marshal(candidate)
	if err != nil {
		return false, fmt.Errorf("failed to encode lock record: %w", err)
	}

	var acquired bool
	err = s.watch(ctx, func(tx *redis.Tx) error {
		acquired = false

		existing, err := s.read(ctx, tx, dataKey)
		if err != nil {
			return err
		}

		if existing != nil {
			switch {
			case existing.IsExpiredAt(s.now()):
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, s.idKey(existing.LockID))
					pipe.Set(ctx, dataKey, fresh, candidate.TTL())
					pipe.Set(ctx, s.idKey(candidate.LockID), lockKey, candidate.TTL())
					return nil
				})
				if err != nil {
					return err
				}
				s.logger.Info("Expired lock taken over",
					zap.String("lock_id", existing.LockID),
					zap.String("lock_key", lockKey),
					zap.String("owner_id", seclog.SanitizeOwnerID(existing.OwnerID)))
				acquired = true
				return nil

			case existing.OwnerID == candidate.OwnerID:
				existing.LastHeartbeatAt = s.now()
				raw, err := json.Marshal(existing)
				if err != nil {
					return fmt.Errorf("failed to encode lock record: %w", err)
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, dataKey, raw, existing.TTL())
					pipe.Expire(ctx, s.idKey(existing.LockID), existing.TTL())
					return nil
				})
				if err != nil {
					return err
				}
				s.logger.Info("Reentrant lock acquisition",
					zap.String("lock_id", existing.LockID),
					zap.String("lock_key", lockKey),
					zap.String("owner_id", seclog.SanitizeOwnerID(existing.OwnerID)))
				acquired = true
				return nil

			default:
				return nil
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dataKey, fresh, candidate.TTL())
			pipe.Set(ctx, s.idKey(candidate.LockID), lockKey, candidate.TTL())
			return nil
		})
		if err != nil {
			return err
		}
		acquired = true
		return nil
	}, dataKey)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}
	return acquired, nil
}

// GetLock returns the record stored for lockKey. Expired entries have
// already been reclaimed by Redis, so only live records are returned.
func (s *RedisStore) GetLock(ctx context.Context, lockKey string) (*LockRecord, error) {
	rec, err := s.read(ctx, s.client, s.dataKey(lockKey))
	if err != nil {
		return nil, fmt.Errorf("failed to get lock %s: %w", lockKey, err)
	}
	return rec, nil
}

// UpdateHeartbeat refreshes the record carrying lockID along with the TTL of both keys.
func (s *RedisStore) UpdateHeartbeat(ctx context.Context, lockID string) (bool, error) {
	idKey := s.idKey(lockID)
	lockKey, err := s.resolve(ctx, idKey)
	if err != nil || lockKey == "" {
		return false, err
	}

	dataKey := s.dataKey(lockKey)
	var updated bool
	err = s.watch(ctx, func(tx *redis.Tx) error {
		updated = false

		rec, err := s.read(ctx, tx, dataKey)
		if err != nil {
			return err
		}
		if rec == nil || rec.LockID != lockID {
			return nil
		}

		rec.LastHeartbeatAt = s.now()
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode lock record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dataKey, raw, rec.TTL())
			pipe.Expire(ctx, idKey, rec.TTL())
			return nil
		})
		if err != nil {
			return err
		}
		updated = true
		return nil
	}, dataKey)
	if err != nil {
		return false, fmt.Errorf("failed to update heartbeat for %s: %w", lockID, err)
	}
	return updated, nil
}

// Release removes the record carrying lockID together with its id key. A
// superseded lock id only has its stale id key removed.
func (s *RedisStore) Release(ctx context.Context, lockID string) (bool, error) {
	idKey := s.idKey(lockID)
	lockKey, err := s.resolve(ctx, idKey)
	if err != nil || lockKey == "" {
		return false, err
	}

	dataKey := s.dataKey(lockKey)
	var released bool
	err = s.watch(ctx, func(tx *redis.Tx) error {
		released = false

		rec, err := s.read(ctx, tx, dataKey)
		if err != nil {
			return err
		}

		if rec == nil || rec.LockID != lockID {
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, idKey)
				return nil
			})
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, dataKey, idKey)
			return nil
		})
		if err != nil {
			return err
		}
		s.logger.Info("Lock released",
			zap.String("lock_id", lockID),
			zap.String("lock_key", lockKey),
			zap.String("owner_id", seclog.SanitizeOwnerID(rec.OwnerID)))
		released = true
		return nil
	}, dataKey)
	if err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", lockID, err)
	}
	return released, nil
}

// CleanupExpired is a no-op: Redis reclaims expired keys natively.
func (s *RedisStore) CleanupExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Close closes the Redis client connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// resolve maps an id key to its lock key. An empty result means the id is unknown.
func (s *RedisStore) resolve(ctx context.Context, idKey string) (string, error) {
	lockKey, err := s.client.Get(ctx, idKey).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve %s: %w", idKey, err)
	}
	return lockKey, nil
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, c stringGetter, dataKey string) (*LockRecord, error) {
	raw, err := c.Get(ctx, dataKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var rec LockRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode lock record at %s: %w", dataKey, err)
	}
	return &rec, nil
}

// watch runs fn as an optimistic transaction over keys, retrying when a
// concurrent writer touched a watched key before EXEC.
func (s *RedisStore) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug("Lock transaction conflict, retrying",
			zap.Strings("keys", keys),
			zap.Int("attempt", attempt))
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", maxTxAttempts, redis.TxFailedErr)
}
