// Package core is the service facade that turns client requests into
// storage contract calls and shapes their outcomes.
package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	seclog "github.com/ebogdum/lockservice/core/log"
	"github.com/ebogdum/lockservice/internal/keyutil"
	"github.com/ebogdum/lockservice/locks"
	"github.com/ebogdum/lockservice/metrics"
)

// AcquireRequest carries the caller-supplied fields of an acquire.
type AcquireRequest struct {
	Namespace      string
	BusinessID     string
	OwnerID        string
	OwnerName      string
	TimeoutSeconds int64
}

// AcquireResult is the outcome of a successful acquire.
type AcquireResult struct {
	LockID    string
	Reentrant bool
	Record    locks.LockRecord
}

// Engine represents the lock service facade over a locks.Store
type Engine struct {
	store      locks.Store
	maxTimeout int64
	now        locks.Clock
	logger     *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxTimeout bounds the timeout a caller may request. Zero means unbounded.
func WithMaxTimeout(seconds int64) EngineOption {
	return func(e *Engine) {
		e.maxTimeout = seconds
	}
}

// WithEngineClock overrides the time source used for candidates and status checks.
func WithEngineClock(now locks.Clock) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new facade over store.
func NewEngine(store locks.Store, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Acquire attempts to take the lock described by req. A denial returns a
// *HeldError; reentrant acquisitions report the pre-existing lock id.
func (e *Engine) Acquire(ctx context.Context, req AcquireRequest) (*AcquireResult, error) {
	start := time.Now()

	namespace := keyutil.NormalizeNamespace(req.Namespace)
	ownerName := strings.TrimSpace(req.OwnerName)
	if ownerName == "" {
		ownerName = req.OwnerID
	}
	if err := e.validateAcquire(namespace, req, ownerName); err != nil {
		e.observe("acquire", "invalid", start)
		return nil, err
	}

	candidate := locks.NewLockRecord(namespace, req.BusinessID, req.OwnerID, ownerName, req.TimeoutSeconds, e.now())
	lockKey := candidate.LockKey()

	acquired, err := e.store.TryAcquire(ctx, candidate)
	if err != nil {
		e.observe("acquire", "error", start)
		metrics.ErrorsTotal.WithLabelValues("engine", "acquire").Inc()
		e.logger.Error("Failed to acquire lock", zap.String("lock_key", lockKey), zap.Error(err))
		return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}

	current, err := e.store.GetLock(ctx, lockKey)
	if err != nil {
		e.observe("acquire", "error", start)
		metrics.ErrorsTotal.WithLabelValues("engine", "get_lock").Inc()
		e.logger.Error("Failed to read lock after acquire", zap.String("lock_key", lockKey), zap.Error(err))
		return nil, fmt.Errorf("failed to read lock %s: %w", lockKey, err)
	}

	if !acquired {
		e.observe("acquire", "held", start)
		fields := []zap.Field{
			zap.String("lock_key", lockKey),
			zap.String("requested_by", seclog.SanitizeOwnerID(req.OwnerID)),
		}
		if current != nil {
			fields = append(fields,
				zap.String("current_holder", seclog.SanitizeOwnerName(current.OwnerName)),
				zap.Time("locked_at", current.AcquiredAt))
		}
		e.logger.Info("Lock already held", fields...)
		return nil, &HeldError{LockKey: lockKey, Holder: current}
	}

	// The holder may have changed between the two calls; only trust the
	// re-read when it still belongs to this owner.
	result := &AcquireResult{LockID: candidate.LockID, Record: candidate}
	if current != nil && current.OwnerID == candidate.OwnerID {
		result.LockID = current.LockID
		result.Record = *current
		result.Reentrant = current.LockID != candidate.LockID
	}

	outcome := "success"
	if result.Reentrant {
		outcome = "reentrant"
	}
	e.observe("acquire", outcome, start)
	e.logger.Info("Lock acquired",
		zap.String("lock_id", result.LockID),
		zap.String("lock_key", lockKey),
		zap.String("owner_id", seclog.SanitizeOwnerID(req.OwnerID)),
		zap.Int64("timeout_seconds", req.TimeoutSeconds),
		zap.Bool("reentrant", result.Reentrant))
	return result, nil
}

// Heartbeat refreshes the lock identified by lockID.
func (e *Engine) Heartbeat(ctx context.Context, lockID string) error {
	return e.byID(ctx, "heartbeat", lockID, e.store.UpdateHeartbeat)
}

// Release removes the lock identified by lockID.
func (e *Engine) Release(ctx context.Context, lockID string) error {
	return e.byID(ctx, "release", lockID, e.store.Release)
}

func (e *Engine) byID(ctx context.Context, operation, lockID string, op func(context.Context, string) (bool, error)) error {
	start := time.Now()
	if err := keyutil.ValidateComponent("lock_id", lockID); err != nil {
		e.observe(operation, "invalid", start)
		return err
	}

	ok, err := op(ctx, lockID)
	if err != nil {
		e.observe(operation, "error", start)
		metrics.ErrorsTotal.WithLabelValues("engine", operation).Inc()
		e.logger.Error("Lock operation failed",
			zap.String("operation", operation),
			zap.String("lock_id", lockID),
			zap.Error(err))
		return fmt.Errorf("failed to %s lock %s: %w", operation, lockID, err)
	}
	if !ok {
		e.observe(operation, "not_found", start)
		e.logger.Info("Lock not found or expired",
			zap.String("operation", operation),
			zap.String("lock_id", lockID))
		return ErrLockNotFound
	}

	e.observe(operation, "success", start)
	e.logger.Debug("Lock operation succeeded",
		zap.String("operation", operation),
		zap.String("lock_id", lockID))
	return nil
}

// Status returns the live record for a namespace and business id.
func (e *Engine) Status(ctx context.Context, namespace, businessID string) (*locks.LockRecord, error) {
	start := time.Now()
	namespace = keyutil.NormalizeNamespace(namespace)
	if err := keyutil.ValidateNamespace(namespace); err != nil {
		e.observe("status", "invalid", start)
		return nil, err
	}
	if err := keyutil.ValidateComponent("business_id", businessID); err != nil {
		e.observe("status", "invalid", start)
		return nil, err
	}

	lockKey := locks.BuildLockKey(namespace, businessID)
	rec, err := e.store.GetLock(ctx, lockKey)
	if err != nil {
		e.observe("status", "error", start)
		metrics.ErrorsTotal.WithLabelValues("engine", "status").Inc()
		return nil, fmt.Errorf("failed to read lock %s: %w", lockKey, err)
	}
	if rec == nil || rec.IsExpiredAt(e.now()) {
		e.observe("status", "not_found", start)
		return nil, ErrLockNotFound
	}

	e.observe("status", "success", start)
	return rec, nil
}

func (e *Engine) validateAcquire(namespace string, req AcquireRequest, ownerName string) error {
	if err := keyutil.ValidateNamespace(namespace); err != nil {
		return err
	}
	if err := keyutil.ValidateComponent("business_id", req.BusinessID); err != nil {
		return err
	}
	if err := keyutil.ValidateComponent("owner_id", req.OwnerID); err != nil {
		return err
	}
	if err := keyutil.ValidateComponent("owner_name", ownerName); err != nil {
		return err
	}
	return keyutil.ValidateTimeout(req.TimeoutSeconds, e.maxTimeout)
}

func (e *Engine) observe(operation, result string, start time.Time) {
	metrics.LockOperationsTotal.WithLabelValues(operation, result).Inc()
	metrics.LockOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
