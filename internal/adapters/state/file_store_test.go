package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nalgeon/be"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, retentionDays int) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewFileStore(path, retentionDays, zap.NewNop())
	be.Err(t, err, nil)
	return s, path
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, 30)
	ctx := context.Background()
	now := time.Now().UTC()

	be.Err(t, s.MarkProcessed(ctx, "m1", now), nil)
	be.Err(t, s.MarkProcessed(ctx, "m1", now), nil)

	processed, err := s.IsProcessed(ctx, "m1")
	be.Err(t, err, nil)
	be.True(t, processed)
}

func TestDurabilityAcrossReload(t *testing.T) {
	s, path := newTestStore(t, 30)
	ctx := context.Background()

	be.Err(t, s.MarkProcessed(ctx, "m1", time.Now().UTC()), nil)

	// A fresh load from the same file must see the entry.
	reloaded, err := NewFileStore(path, 30, zap.NewNop())
	be.Err(t, err, nil)

	processed, err := reloaded.IsProcessed(ctx, "m1")
	be.Err(t, err, nil)
	be.True(t, processed)
}

func TestPruneRetention(t *testing.T) {
	s, _ := newTestStore(t, 30)
	ctx := context.Background()
	now := time.Now().UTC()

	be.Err(t, s.MarkProcessed(ctx, "old", now.AddDate(0, 0, -31)), nil)
	be.Err(t, s.MarkProcessed(ctx, "recent", now.AddDate(0, 0, -29)), nil)

	removed, err := s.Prune(ctx, now)
	be.Err(t, err, nil)
	be.Equal(t, removed, 1)

	oldProcessed, _ := s.IsProcessed(ctx, "old")
	be.True(t, !oldProcessed)
	recentProcessed, _ := s.IsProcessed(ctx, "recent")
	be.True(t, recentProcessed)
}

func TestPruneDisabledWithZeroRetention(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()
	now := time.Now().UTC()

	be.Err(t, s.MarkProcessed(ctx, "ancient", now.AddDate(-1, 0, 0)), nil)

	removed, err := s.Prune(ctx, now)
	be.Err(t, err, nil)
	be.Equal(t, removed, 0)

	processed, _ := s.IsProcessed(ctx, "ancient")
	be.True(t, processed)
}

func TestExpiredEntryNotProcessed(t *testing.T) {
	s, _ := newTestStore(t, 30)
	ctx := context.Background()

	be.Err(t, s.MarkProcessed(ctx, "stale", time.Now().UTC().AddDate(0, 0, -31)), nil)

	processed, err := s.IsProcessed(ctx, "stale")
	be.Err(t, err, nil)
	be.True(t, !processed)
}

func TestLegacyListMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	legacy := `{"processed_emails": ["id1", "id2"]}`
	be.Err(t, os.WriteFile(path, []byte(legacy), 0o644), nil)

	s, err := NewFileStore(path, 30, zap.NewNop())
	be.Err(t, err, nil)
	ctx := context.Background()

	for _, id := range []string{"id1", "id2"} {
		processed, err := s.IsProcessed(ctx, id)
		be.Err(t, err, nil)
		be.True(t, processed)
	}

	// The migrated shape is persisted immediately and a save never
	// re-emits the array shape.
	be.Err(t, s.MarkProcessed(ctx, "id3", time.Now().UTC()), nil)

	data, err := os.ReadFile(path)
	be.Err(t, err, nil)

	var file struct {
		ProcessedEmails map[string]string `json:"processed_emails"`
	}
	be.Err(t, json.Unmarshal(data, &file), nil)
	be.Equal(t, len(file.ProcessedEmails), 3)
	for _, ts := range file.ProcessedEmails {
		_, err := time.Parse(time.RFC3339, ts)
		be.Err(t, err, nil)
	}
}

func TestLoadDropsInvalidTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	content := `{"processed_emails": {"good": "2026-08-01T00:00:00Z", "bad": "not-a-time"}}`
	be.Err(t, os.WriteFile(path, []byte(content), 0o644), nil)

	s, err := NewFileStore(path, 0, zap.NewNop())
	be.Err(t, err, nil)

	ctx := context.Background()
	goodProcessed, _ := s.IsProcessed(ctx, "good")
	be.True(t, goodProcessed)
	badProcessed, _ := s.IsProcessed(ctx, "bad")
	be.True(t, !badProcessed)
}

func TestMissingFileStartsFresh(t *testing.T) {
	s, _ := newTestStore(t, 30)
	processed, err := s.IsProcessed(context.Background(), "anything")
	be.Err(t, err, nil)
	be.True(t, !processed)
}
