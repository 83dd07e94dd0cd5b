package store

import (
	"fmt"
	"path/filepath"

	"holdfast/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the store
// config type.
func NewStoreFromConfig(cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "badger", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("badger store requires data_dir to be set")
		}
		return NewBadgerStore(cfg.DataDir)
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite store requires data_dir to be set")
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "highlights.db"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
