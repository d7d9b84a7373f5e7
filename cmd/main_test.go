package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ebogdum/lockservice/config"
	"github.com/ebogdum/lockservice/locks"
)

func TestInitializeMemoryStoreRestoresAndFlushes(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Persistence.Path = filepath.Join(t.TempDir(), "locks.json")
	cfg.Persistence.Interval = time.Hour
	cfg.Sweep.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	store, workers, err := initializeStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	stopWorkers := func() {
		cancel()
		for _, w := range workers {
			w.Wait()
		}
	}
	t.Cleanup(stopWorkers)
	require.Len(t, workers, 2)

	rec := locks.NewLockRecord("", "order_1", "u1", "Alice", 600, time.Now())
	ok, err := store.TryAcquire(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, ok)

	stopWorkers()
	require.NoError(t, store.Close())

	restartCtx, restartCancel := context.WithCancel(context.Background())
	restarted, restartedWorkers, err := initializeStore(restartCtx, cfg, zap.NewNop())
	require.NoError(t, err)
	// Workers flush into the temp dir on cancel, so they must finish
	// before it is removed.
	t.Cleanup(func() {
		restartCancel()
		for _, w := range restartedWorkers {
			w.Wait()
		}
		_ = restarted.Close()
	})

	held, err := restarted.GetLock(context.Background(), rec.LockKey())
	require.NoError(t, err)
	require.NotNil(t, held, "final snapshot survives a restart")
	assert.Equal(t, rec.LockID, held.LockID)
}

func TestInitializeMemoryStoreWithoutPersistence(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Persistence.Enabled = false

	ctx, cancel := context.WithCancel(context.Background())
	store, workers, err := initializeStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		for _, w := range workers {
			w.Wait()
		}
		_ = store.Close()
	})
	assert.Len(t, workers, 1, "sweep only")
	assert.IsType(t, &locks.LocalStore{}, store)
}

func TestInitializeRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.DefaultAppConfig()
	cfg.Storage.Type = config.StorageRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.KeyPrefix = "test:"

	store, workers, err := initializeStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.Empty(t, workers)

	rec := locks.NewLockRecord("", "order_1", "u1", "Alice", 60, time.Now())
	ok, err := store.TryAcquire(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("test:data:default:order_1"))
}

func TestInitializeRedisStoreUnreachable(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Storage.Type = config.StorageRedis
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Redis.DialTimeout = 100 * time.Millisecond

	_, _, err := initializeStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestInitializeLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
			logger, err := initializeLogger(config.LogConfig{Level: level, Format: format})
			require.NoError(t, err)
			require.NotNil(t, logger)
		}
	}
}
