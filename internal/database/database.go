// Package database opens the in-memory SQLite archive database.
package database

import (
	"database/sql"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pathkeeper/tracker/internal/model"
)

// Manager handles the database connection and schema.
type Manager struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Name   string
	Logger zerolog.Logger
}

// NewManager creates a manager for a private in-memory database.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		Name:   "tracker-" + uuid.NewString(),
		Logger: log,
	}
}

// DSN is the shared-cache URI of the in-memory database.
func (m *Manager) DSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", m.Name)
}

// Connect opens the database and applies the PRAGMAs. Nothing touches disk.
func (m *Manager) Connect() error {
	db, err := gorm.Open(sqlite.Open(m.DSN()), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open in-memory SQLite DB: %w", err)
	}

	m.SqlDB, err = db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	// one connection keeps the memory DB alive and avoids shared-cache locking
	m.SqlDB.SetMaxOpenConns(1)
	m.SqlDB.SetMaxIdleConns(1)

	if err := m.SqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	m.DB = db
	m.Logger.Info().Str("name", m.Name).Msg("Using in-memory SQLite DB")
	return nil
}

// Setup migrates the archive schema.
func (m *Manager) Setup() error {
	if m.DB == nil {
		return fmt.Errorf("database not connected")
	}
	m.Logger.Debug().Msg("Migrating schema")
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the connection, which also discards the database.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}
