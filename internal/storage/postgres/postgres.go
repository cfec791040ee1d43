// Package postgres implements storage.Store on PostgreSQL through the GORM
// backend.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/gridwars/engine/internal/database"
	gormstorage "github.com/gridwars/engine/internal/storage/gorm"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres backend.
type Dependencies struct {
	DB     *gorm.DB // opened from the db.* config keys when nil
	Logger *slog.Logger
}

// Backend embeds the GORM backend once the connection is up.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres backend. Nothing is opened until Init.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init connects when no DB was injected, then migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDBStandalone()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: b.deps.DB, Logger: b.deps.Logger})
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.Logger.Info("postgres storage ready")
	return nil
}

// Close closes the connection if Init got that far.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
