package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/llm-mail-labeler/internal/adapters/state"
	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/mikey/llm-mail-labeler/internal/core"
	"go.uber.org/zap"
)

// StateFactory creates state stores based on configuration
type StateFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStateFactory creates a new state factory
func NewStateFactory(cfg *config.Config, logger *zap.Logger) *StateFactory {
	return &StateFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStateStore creates a state store based on the configuration
func (f *StateFactory) CreateStateStore() (core.StateStore, error) {
	stateCfg := f.cfg.GetState()

	switch stateCfg.Type {
	case "file":
		return state.NewFileStore(stateCfg.FilePath, stateCfg.RetentionDays, f.logger)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(stateCfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return state.NewSQLiteStore(stateCfg.SQLitePath, stateCfg.RetentionDays, f.logger)
	case "mysql":
		return state.NewMySQLStore(stateCfg.MySQLDSN, stateCfg.RetentionDays, f.logger)
	case "memory":
		return state.NewMemoryStore(stateCfg.RetentionDays), nil
	default:
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("unsupported state store type: %s", stateCfg.Type)}
	}
}
