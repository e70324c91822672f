package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore persists processed-message ids in a SQLite database. Each
// mutation is committed before returning, so durability matches the file
// store without whole-file rewrites.
type SQLiteStore struct {
	db            *sql.DB
	retentionDays int
	logger        *zap.Logger
}

// NewSQLiteStore opens the database at dbPath and creates the schema when
// missing.
func NewSQLiteStore(dbPath string, retentionDays int, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_messages (
			message_id TEXT PRIMARY KEY,
			processed_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_processed_at ON processed_messages(processed_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{
		db:            db,
		retentionDays: retentionDays,
		logger:        logger,
	}, nil
}

// IsProcessed reports whether id was processed within the retention window.
func (s *SQLiteStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	var processedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT processed_at FROM processed_messages WHERE message_id = ?
	`, id).Scan(&processedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query state: %w", err)
	}
	if s.retentionDays <= 0 {
		return true, nil
	}

	t, err := time.Parse(time.RFC3339, processedAt)
	if err != nil {
		s.logger.Warn("Invalid processed_at timestamp in state",
			zap.String("message_id", id),
			zap.String("timestamp", processedAt))
		return false, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	return !t.Before(cutoff), nil
}

// MarkProcessed inserts or refreshes the record for id.
func (s *SQLiteStore) MarkProcessed(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO processed_messages (message_id, processed_at)
		VALUES (?, ?)
	`, id, now.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// Prune removes records older than the retention window.
func (s *SQLiteStore) Prune(ctx context.Context, now time.Time) (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := now.UTC().AddDate(0, 0, -s.retentionDays).Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM processed_messages WHERE processed_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune state: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to count pruned rows", zap.Error(err))
		return 0, nil
	}
	if removed > 0 {
		s.logger.Info("Pruned expired state entries",
			zap.Int64("removed", removed),
			zap.Int("retention_days", s.retentionDays))
	}
	return int(removed), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
