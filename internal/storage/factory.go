// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/pathkeeper/tracker/internal/config"
	"github.com/pathkeeper/tracker/internal/storage/memory"
	sqlitestorage "github.com/pathkeeper/tracker/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg config.StorageConfig, logger *slog.Logger, dbLog zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			FlushInterval: cfg.SQLite.FlushInterval,
			HistoryLimit:  cfg.HistoryLimit,
		}, logger, dbLog), nil
	case "memory", "":
		return memory.New(cfg.HistoryLimit), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
