// Package gormstorage implements storage.Store on top of GORM. The SQLite
// and Postgres backends embed it and only differ in how the database is
// opened and maintained.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gridwars/engine/internal/database"
	"github.com/gridwars/engine/internal/model"
	"github.com/gridwars/engine/internal/model/convert"
	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds the collaborators of the GORM backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend stores the world in relational tables.
type Backend struct {
	db  *gorm.DB
	log *slog.Logger

	units      *repo[core.Unit, model.Unit]
	buildings  *repo[core.Building, model.Building]
	features   *repo[core.Feature, model.Feature]
	transports *repo[core.Transport, model.Transport]
	skills     *repo[core.Skill, model.Skill]
	players    *repo[core.Player, model.Player]
	locations  *repo[core.Location, model.Location]
}

var _ storage.Store = (*Backend)(nil)

// New creates a GORM backend. The database is migrated by Init.
func New(deps Dependencies) *Backend {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return bind(deps.DB, log)
}

func bind(db *gorm.DB, log *slog.Logger) *Backend {
	return &Backend{
		db:  db,
		log: log,
		units: &repo[core.Unit, model.Unit]{db: db, cols: unitColumns,
			toRow: convert.CoreToUnit, fromRow: convert.UnitToCore},
		buildings: &repo[core.Building, model.Building]{db: db, cols: buildingColumns,
			toRow: convert.CoreToBuilding, fromRow: convert.BuildingToCore},
		features: &repo[core.Feature, model.Feature]{db: db, cols: featureColumns,
			toRow: convert.CoreToFeature, fromRow: convert.FeatureToCore},
		transports: &repo[core.Transport, model.Transport]{db: db, cols: transportColumns,
			toRow: convert.CoreToTransport, fromRow: convert.TransportToCore},
		skills: &repo[core.Skill, model.Skill]{db: db, cols: skillColumns,
			toRow: convert.CoreToSkill, fromRow: convert.SkillToCore},
		players: &repo[core.Player, model.Player]{db: db, cols: playerColumns,
			toRow: convert.CoreToPlayer, fromRow: convert.PlayerToCore},
		locations: &repo[core.Location, model.Location]{db: db, cols: columns{},
			toRow: convert.CoreToLocation, fromRow: convert.LocationToCore},
	}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend has no database")
	}
	if err := database.Setup(b.db); err != nil {
		return err
	}
	b.log.Debug("schema migrated", "dialect", b.db.Dialector.Name())
	return nil
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// DB exposes the connection for maintenance tasks such as dumps.
func (b *Backend) DB() *gorm.DB { return b.db }

func (b *Backend) Units() storage.Repo[core.Unit]           { return b.units }
func (b *Backend) Buildings() storage.Repo[core.Building]   { return b.buildings }
func (b *Backend) Features() storage.Repo[core.Feature]     { return b.features }
func (b *Backend) Transports() storage.Repo[core.Transport] { return b.transports }
func (b *Backend) Skills() storage.Repo[core.Skill]         { return b.skills }
func (b *Backend) Players() storage.Repo[core.Player]       { return b.players }
func (b *Backend) Locations() storage.Repo[core.Location]   { return b.locations }

// Atomic runs fn inside a database transaction.
func (b *Backend) Atomic(fn func(storage.Store) error) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx, b.log))
	})
}

type repo[T any, M any] struct {
	db      *gorm.DB
	cols    columns
	toRow   func(*T) M
	fromRow func(M) (*T, error)
}

func (r *repo[T, M]) Save(v *T) error {
	row := r.toRow(v)
	q := r.db
	if storage.RecordID(v) != 0 {
		q = q.Clauses(clause.OnConflict{UpdateAll: true})
	}
	if err := q.Create(&row).Error; err != nil {
		return fmt.Errorf("save %T: %w", row, err)
	}
	if storage.RecordID(v) == 0 {
		saved, err := r.fromRow(row)
		if err != nil {
			return fmt.Errorf("save %T: %w", row, err)
		}
		storage.SetRecordID(v, storage.RecordID(saved))
	}
	return nil
}

func (r *repo[T, M]) Get(id core.ID) (*T, error) {
	var rows []M
	if err := r.db.Where("id = ?", uint(id)).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	v, err := r.fromRow(rows[0])
	if err != nil {
		return nil, fmt.Errorf("get %d: %w", id, err)
	}
	return v, nil
}

func (r *repo[T, M]) Delete(id core.ID) error {
	var row M
	if err := r.db.Where("id = ?", uint(id)).Delete(&row).Error; err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	return nil
}

func (r *repo[T, M]) Find(f storage.Filter) ([]*T, error) {
	var rows []M
	if err := r.cols.apply(r.db, f).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		v, err := r.fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
