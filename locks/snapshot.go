package locks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"
)

// PersistPath returns the configured snapshot path, or "" when persistence is off.
func (s *LocalStore) PersistPath() string {
	return s.persistPath
}

// Restore loads a snapshot written by Persist. Records that are already
// expired are discarded. A missing file restores zero records.
func (s *LocalStore) Restore(ctx context.Context) (int, error) {
	if s.persistPath == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(s.persistPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info("No snapshot file found", zap.String("path", s.persistPath))
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read snapshot %s: %w", s.persistPath, err)
	}

	var records []LockRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("failed to decode snapshot %s: %w", s.persistPath, err)
	}

	now := s.now()
	loaded := 0
	for _, rec := range records {
		if rec.validate() != nil {
			s.logger.Warn("Skipping invalid snapshot record", zap.String("lock_id", rec.LockID))
			continue
		}
		if rec.IsExpiredAt(now) {
			continue
		}

		lockKey := rec.LockKey()
		sh := s.recordShard(lockKey)
		sh.mu.Lock()
		if prev, ok := sh.records[lockKey]; ok {
			s.deleteID(prev.LockID)
		} else {
			loaded++
		}
		sh.records[lockKey] = rec
		s.putID(rec.LockID, lockKey)
		sh.mu.Unlock()
	}

	s.logger.Info("Restored locks from snapshot",
		zap.Int("count", loaded),
		zap.Int("discarded", len(records)-loaded),
		zap.String("path", s.persistPath))
	return loaded, nil
}

// Persist writes every stored record to the snapshot path. The file is
// replaced atomically so readers never observe a partial snapshot.
func (s *LocalStore) Persist(ctx context.Context) (int, error) {
	if s.persistPath == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	records := s.Records()
	sort.Slice(records, func(i, j int) bool {
		return records[i].LockKey() < records[j].LockKey()
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := writeFileAtomic(s.persistPath, data); err != nil {
		return 0, err
	}

	s.logger.Debug("Persisted locks to snapshot",
		zap.Int("count", len(records)),
		zap.String("path", s.persistPath))
	return len(records), nil
}

// snapshotFileMode is applied to new snapshot files, subject to the umask.
// An existing snapshot keeps its current mode.
const snapshotFileMode os.FileMode = 0o644

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}
	if err := renameio.WriteFile(path, data, snapshotFileMode); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}
