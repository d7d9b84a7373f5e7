// Package maintenance runs the periodic background tasks that keep a lock
// store healthy: the expired-record sweep and snapshot persistence.
package maintenance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/lockservice/locks"
	"github.com/ebogdum/lockservice/metrics"
)

const (
	// DefaultSweepInterval is used when a non-positive sweep interval is given.
	DefaultSweepInterval = 60 * time.Second
	// DefaultSnapshotInterval is used when a non-positive snapshot interval is given.
	DefaultSnapshotInterval = 30 * time.Second

	tickTimeout = 30 * time.Second
)

// Worker is a handle on a running background task.
type Worker struct {
	done chan struct{}
}

// Wait blocks until the worker has stopped.
func (w *Worker) Wait() {
	<-w.done
}

// Done is closed once the worker has stopped.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func stoppedWorker() *Worker {
	w := &Worker{done: make(chan struct{})}
	close(w.done)
	return w
}

// sizer is implemented by stores that can report how many records they hold.
type sizer interface {
	Len() int
}

// StartSweepWorker starts a background goroutine that periodically removes
// expired records from store. Failures are logged and retried on the next tick.
func StartSweepWorker(ctx context.Context, store locks.Store, interval time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		logger.Error("Cannot start sweep worker: lock store is nil")
		return stoppedWorker()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	w := &Worker{done: make(chan struct{})}
	go func() {
		defer close(w.done)
		logger.Info("Starting expired lock sweep worker",
			zap.Duration("interval", interval))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweep(ctx, store, logger)
			case <-ctx.Done():
				logger.Info("Sweep worker shutting down")
				return
			}
		}
	}()
	return w
}

func sweep(ctx context.Context, store locks.Store, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("sweep", "cleanup").Inc()
		logger.Error("Failed to cleanup expired locks", zap.Error(err))
		return
	}

	if removed > 0 {
		metrics.ExpiredLocksRemovedTotal.Add(float64(removed))
		logger.Info("Cleaned up expired locks", zap.Int("count", removed))
	}
	if s, ok := store.(sizer); ok {
		metrics.ActiveLocks.Set(float64(s.Len()))
	}
}

// StartSnapshotWorker starts a background goroutine that periodically
// persists snapshotter. One last snapshot is taken when ctx is cancelled.
func StartSnapshotWorker(ctx context.Context, snapshotter locks.Snapshotter, interval time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if snapshotter == nil {
		logger.Error("Cannot start snapshot worker: snapshotter is nil")
		return stoppedWorker()
	}
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}

	w := &Worker{done: make(chan struct{})}
	go func() {
		defer close(w.done)
		logger.Info("Starting lock snapshot worker",
			zap.Duration("interval", interval))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				persist(ctx, snapshotter, logger)
			case <-ctx.Done():
				// ctx is already done; the final flush gets its own deadline.
				persist(context.Background(), snapshotter, logger)
				logger.Info("Snapshot worker shutting down")
				return
			}
		}
	}()
	return w
}

func persist(ctx context.Context, snapshotter locks.Snapshotter, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	n, err := snapshotter.Persist(ctx)
	if err != nil {
		metrics.SnapshotPersistTotal.WithLabelValues("failure").Inc()
		metrics.ErrorsTotal.WithLabelValues("snapshot", "persist").Inc()
		logger.Error("Failed to persist lock snapshot", zap.Error(err))
		return
	}

	metrics.SnapshotPersistTotal.WithLabelValues("success").Inc()
	metrics.SnapshotRecords.Set(float64(n))
	if s, ok := snapshotter.(sizer); ok {
		metrics.ActiveLocks.Set(float64(s.Len()))
	}
	logger.Debug("Persisted lock snapshot", zap.Int("records", n))
}
