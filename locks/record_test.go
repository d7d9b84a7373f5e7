package locks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLockRecordDefaults(t *testing.T) {
	now := time.Now()
	rec := NewLockRecord("", "order_001", "user123", "Alice", 60, now)

	assert.Equal(t, DefaultNamespace, rec.Namespace)
	assert.Equal(t, "default:order_001", rec.LockKey())
	assert.Len(t, rec.LockID, 36)
	assert.Equal(t, now, rec.AcquiredAt)
	assert.Equal(t, now, rec.LastHeartbeatAt)

	other := NewLockRecord("billing", "order_001", "user123", "Alice", 60, now)
	assert.NotEqual(t, rec.LockID, other.LockID)
	assert.Equal(t, "billing:order_001", other.LockKey())
}

func TestIsExpiredAtTruncatesElapsedSeconds(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := LockRecord{TimeoutSeconds: 2, LastHeartbeatAt: base}

	tests := []struct {
		name    string
		elapsed time.Duration
		expired bool
	}{
		{name: "just acquired", elapsed: 0, expired: false},
		{name: "one second", elapsed: time.Second, expired: false},
		{name: "just under timeout", elapsed: 2*time.Second - time.Millisecond, expired: false},
		{name: "exactly timeout", elapsed: 2 * time.Second, expired: true},
		{name: "past timeout", elapsed: 5 * time.Second, expired: true},
		{name: "clock went backwards", elapsed: -3 * time.Second, expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, rec.IsExpiredAt(base.Add(tt.elapsed)))
		})
	}
}

func TestValidateRejectsIncompleteRecords(t *testing.T) {
	now := time.Now()
	valid := NewLockRecord("ns", "biz", "owner", "name", 10, now)
	assert.NoError(t, valid.validate())

	noOwner := valid
	noOwner.OwnerID = ""
	assert.ErrorIs(t, noOwner.validate(), ErrInvalidRecord)

	noTimeout := valid
	noTimeout.TimeoutSeconds = 0
	assert.ErrorIs(t, noTimeout.validate(), ErrInvalidRecord)

	noBusiness := valid
	noBusiness.BusinessID = ""
	assert.ErrorIs(t, noBusiness.validate(), ErrInvalidRecord)
}
