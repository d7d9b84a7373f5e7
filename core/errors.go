package core

import (
	"errors"
	"fmt"

	"github.com/ebogdum/lockservice/locks"
)

// Facade errors
var (
	ErrLockHeld     = errors.New("lock already held")
	ErrLockNotFound = errors.New("lock not found or expired")
)

// HeldError reports a denied acquire together with the current holder.
// Holder is nil when the holder vanished between the denial and the re-read.
type HeldError struct {
	LockKey string
	Holder  *locks.LockRecord
}

func (e *HeldError) Error() string {
	if e.Holder == nil {
		return fmt.Sprintf("lock %s already held", e.LockKey)
	}
	return fmt.Sprintf("lock %s already held by %s", e.LockKey, e.Holder.OwnerName)
}

// Is lets errors.Is(err, ErrLockHeld) match.
func (e *HeldError) Is(target error) bool {
	return target == ErrLockHeld
}
