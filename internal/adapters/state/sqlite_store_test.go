package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nalgeon/be"
	"go.uber.org/zap"
)

func newTestSQLiteStore(t *testing.T, retentionDays int) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewSQLiteStore(path, retentionDays, zap.NewNop())
	be.Err(t, err, nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t, 30)
	ctx := context.Background()
	now := time.Now().UTC()

	processed, err := s.IsProcessed(ctx, "m1")
	be.Err(t, err, nil)
	be.True(t, !processed)

	be.Err(t, s.MarkProcessed(ctx, "m1", now), nil)
	be.Err(t, s.MarkProcessed(ctx, "m1", now), nil)

	processed, err = s.IsProcessed(ctx, "m1")
	be.Err(t, err, nil)
	be.True(t, processed)
}

func TestSQLitePrune(t *testing.T) {
	s := newTestSQLiteStore(t, 30)
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

func TestSQLitePruneDisabled(t *testing.T) {
	s := newTestSQLiteStore(t, 0)
	ctx := context.Background()
	now := time.Now().UTC()

	be.Err(t, s.MarkProcessed(ctx, "ancient", now.AddDate(-1, 0, 0)), nil)

	removed, err := s.Prune(ctx, now)
	be.Err(t, err, nil)
	be.Equal(t, removed, 0)

	processed, _ := s.IsProcessed(ctx, "ancient")
	be.True(t, processed)
}
