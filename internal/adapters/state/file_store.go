package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileStore keeps processed-message ids in a single JSON file. The file
// holds a map of message id to RFC3339 timestamp; every mutation is
// flushed with an atomic rename before returning. A legacy flat list of
// ids is migrated to the map shape on load and the migrated shape is
// persisted immediately; the list shape is never written again.
type FileStore struct {
	path          string
	retentionDays int
	logger        *zap.Logger
	mu            sync.Mutex
	entries       map[string]time.Time
}

// stateFile is the persisted shape. ProcessedEmails is kept as a raw
// message so both the current map form and the legacy list form decode.
type stateFile struct {
	ProcessedEmails json.RawMessage `json:"processed_emails"`
}

// NewFileStore opens or creates the state file at path. retentionDays of
// zero disables pruning.
func NewFileStore(path string, retentionDays int, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		path:          path,
		retentionDays: retentionDays,
		logger:        logger,
		entries:       make(map[string]time.Time),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("No state file found, starting fresh", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	var file stateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	if len(file.ProcessedEmails) == 0 {
		return nil
	}

	var byID map[string]string
	if err := json.Unmarshal(file.ProcessedEmails, &byID); err == nil {
		for id, ts := range byID {
			t, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				s.logger.Warn("Dropping state entry with invalid timestamp",
					zap.String("message_id", id),
					zap.String("timestamp", ts))
				continue
			}
			s.entries[id] = t
		}
		s.logger.Info("Loaded processed message state",
			zap.String("path", s.path),
			zap.Int("entries", len(s.entries)))
		return nil
	}

	// Legacy shape: a flat list of ids. Migrate with the load time as
	// each entry's timestamp and persist the new shape right away.
	var ids []string
	if err := json.Unmarshal(file.ProcessedEmails, &ids); err != nil {
		return fmt.Errorf("unrecognized state shape in %s: %w", s.path, err)
	}
	now := time.Now().UTC()
	for _, id := range ids {
		s.entries[id] = now
	}
	s.logger.Info("Migrated legacy state list to timestamped map",
		zap.String("path", s.path),
		zap.Int("entries", len(ids)))
	return s.save()
}

// save writes the current map atomically: a temp file in the same
// directory followed by a rename, so a crash mid-write leaves the previous
// state intact.
func (s *FileStore) save() error {
	byID := make(map[string]string, len(s.entries))
	for id, t := range s.entries {
		byID[id] = t.UTC().Format(time.RFC3339)
	}
	raw, err := json.Marshal(byID)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data, err := json.MarshalIndent(stateFile{ProcessedEmails: raw}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// IsProcessed reports whether id was processed within the retention window.
func (s *FileStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if s.retentionDays <= 0 {
		return true, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	return !t.Before(cutoff), nil
}

// MarkProcessed records id as processed at now and flushes to disk.
func (s *FileStore) MarkProcessed(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = now.UTC()
	return s.save()
}

// Prune drops entries older than the retention window.
func (s *FileStore) Prune(ctx context.Context, now time.Time) (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.UTC().AddDate(0, 0, -s.retentionDays)
	removed := 0
	for id, t := range s.entries {
		if t.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(); err != nil {
		return removed, err
	}
	s.logger.Info("Pruned expired state entries",
		zap.Int("removed", removed),
		zap.Int("retention_days", s.retentionDays))
	return removed, nil
}

// Close is a no-op; every mutation is already flushed.
func (s *FileStore) Close() error {
	return nil
}
