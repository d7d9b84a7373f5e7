package locks

import (
	"time"

	"github.com/google/uuid"
)

// DefaultNamespace is used when a caller does not scope its lock.
const DefaultNamespace = "default"

// LockRecord represents one currently or recently held lock.
type LockRecord struct {
	LockID          string    `json:"lock_id"`
	Namespace       string    `json:"namespace"`
	BusinessID      string    `json:"business_id"`
	OwnerID         string    `json:"owner_id"`
	OwnerName       string    `json:"owner_name"`
	TimeoutSeconds  int64     `json:"timeout_seconds"`
	AcquiredAt      time.Time `json:"acquired_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}

// NewLockRecord builds a candidate record with a fresh lock id.
// AcquiredAt and LastHeartbeatAt are both set to now.
func NewLockRecord(namespace, businessID, ownerID, ownerName string, timeoutSeconds int64, now time.Time) LockRecord {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return LockRecord{
		LockID:          uuid.NewString(),
		Namespace:       namespace,
		BusinessID:      businessID,
		OwnerID:         ownerID,
		OwnerName:       ownerName,
		TimeoutSeconds:  timeoutSeconds,
		AcquiredAt:      now,
		LastHeartbeatAt: now,
	}
}

// BuildLockKey returns the mutual exclusion key for a namespace and business id.
func BuildLockKey(namespace, businessID string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":" + businessID
}

// LockKey returns the mutual exclusion key of the record.
func (r LockRecord) LockKey() string {
	return BuildLockKey(r.Namespace, r.BusinessID)
}

// IsExpiredAt reports whether the record is expired at the given instant.
// Elapsed time is truncated to whole seconds before the comparison, so a
// record with a 1 second timeout stays live for the full first second.
func (r LockRecord) IsExpiredAt(now time.Time) bool {
	elapsed := int64(now.Sub(r.LastHeartbeatAt) / time.Second)
	return elapsed >= r.TimeoutSeconds
}

// IsExpired reports whether the record is expired according to the wall clock.
func (r LockRecord) IsExpired() bool {
	return r.IsExpiredAt(time.Now())
}

// TTL returns the record timeout as a duration.
func (r LockRecord) TTL() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

func (r LockRecord) validate() error {
	if r.LockID == "" || r.BusinessID == "" || r.OwnerID == "" {
		return ErrInvalidRecord
	}
	if r.TimeoutSeconds <= 0 {
		return ErrInvalidRecord
	}
	return nil
}
