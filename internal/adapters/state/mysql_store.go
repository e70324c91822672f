package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStore persists processed-message ids in MySQL for deployments that
// already run one. Single active instance is still assumed; the database
// only provides durability, not coordination.
type MySQLStore struct {
	db            *sql.DB
	retentionDays int
	logger        *zap.Logger
}

// NewMySQLStore connects with the given DSN and creates the schema when
// missing.
func NewMySQLStore(dsn string, retentionDays int, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_messages (
			message_id VARCHAR(255) PRIMARY KEY,
			processed_at DATETIME NOT NULL,
			INDEX idx_processed_at (processed_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:            db,
		retentionDays: retentionDays,
		logger:        logger,
	}, nil
}

// IsProcessed reports whether id was processed within the retention window.
func (s *MySQLStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	var processedAt time.Time
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
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	return !processedAt.Before(cutoff), nil
}

// MarkProcessed inserts or refreshes the record for id.
func (s *MySQLStore) MarkProcessed(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_messages (message_id, processed_at)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE processed_at = VALUES(processed_at)
	`, id, now.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark message processed: %w", err)
	}
	return nil
}

// Prune removes records older than the retention window.
func (s *MySQLStore) Prune(ctx context.Context, now time.Time) (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := now.UTC().AddDate(0, 0, -s.retentionDays)
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

// Close closes the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
