package main

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/gridwars/engine/internal/config"
	"github.com/gridwars/engine/internal/database"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/internal/storage/leveldb"
	"github.com/gridwars/engine/internal/storage/memory"
	pgstorage "github.com/gridwars/engine/internal/storage/postgres"
	sqlitestorage "github.com/gridwars/engine/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, log *slog.Logger, zlog zerolog.Logger) (storage.Store, error) {
	switch storageCfg.Type {
	case "postgres":
		// falls back to in-memory SQLite when Postgres is unreachable
		dbm := database.NewManager(zlog)
		if err := dbm.Connect(); err != nil {
			return nil, err
		}
		log.Info("Postgres storage backend initialized", "local", dbm.ShouldSaveLocal)
		return pgstorage.New(pgstorage.Dependencies{DB: dbm.DB, Logger: log}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.DumpPath,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		log.Info("SQLite storage backend initialized", "dumpPath", storageCfg.SQLite.DumpPath)
		return backend, nil

	case "leveldb":
		log.Info("LevelDB storage backend initialized", "path", storageCfg.LevelDB.Path)
		return leveldb.New(leveldb.Config{Path: storageCfg.LevelDB.Path}), nil

	case "memory", "":
		log.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(memory.Config{
			OutputDir:      storageCfg.Memory.OutputDir,
			CompressOutput: storageCfg.Memory.CompressOutput,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// setupDB migrates the configured database without starting the engine.
func setupDB(zlog zerolog.Logger) error {
	dbm := database.NewManager(zlog)
	if err := dbm.Connect(); err != nil {
		return err
	}
	if dbm.ShouldSaveLocal {
		return fmt.Errorf("postgres is unreachable, nothing migrated")
	}
	return database.Setup(dbm.DB)
}
