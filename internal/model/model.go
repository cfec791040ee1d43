package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Location{},
	&Player{},
	&Feature{},
	&Building{},
	&Unit{},
	&Transport{},
	&Skill{},
}

// Location is one map.
type Location struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `json:"name" gorm:"size:64"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

func (*Location) TableName() string {
	return "locations"
}

// Player is a connected or known player and their standing.
type Player struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Name       string    `json:"name" gorm:"size:64;index:idx_player_name"`
	LocationID *uint     `json:"locationId" gorm:"index:idx_player_square"`
	X          int       `json:"x" gorm:"index:idx_player_square"`
	Y          int       `json:"y" gorm:"index:idx_player_square"`
	Wins       int       `json:"wins" gorm:"default:0"`
	Losses     int       `json:"losses" gorm:"default:0"`
}

func (*Player) TableName() string {
	return "players"
}

// Feature is an exploitable, unowned map object such as a mine or a tree.
type Feature struct {
	ID         uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	TypeID     uint           `json:"typeId" gorm:"index:idx_feature_type"`
	LocationID uint           `json:"locationId" gorm:"index:idx_feature_square"`
	X          int            `json:"x" gorm:"index:idx_feature_square"`
	Y          int            `json:"y" gorm:"index:idx_feature_square"`
	Health     *int           `json:"health" gorm:"default:NULL"` // NULL means at maximum
	Remaining  datatypes.JSON `json:"remaining"`                  // material -> quantity
}

func (*Feature) TableName() string {
	return "features"
}

// Building is an owned structure that stores resources and recruits units.
type Building struct {
	ID         uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	TypeID     uint           `json:"typeId" gorm:"index:idx_building_type"`
	LocationID uint           `json:"locationId" gorm:"index:idx_building_square"`
	X          int            `json:"x" gorm:"index:idx_building_square"`
	Y          int            `json:"y" gorm:"index:idx_building_square"`
	OwnerID    *uint          `json:"ownerId" gorm:"index:idx_building_owner;default:NULL"`
	Health     *int           `json:"health" gorm:"default:NULL"`
	Stored     datatypes.JSON `json:"stored"`
}

func (*Building) TableName() string {
	return "buildings"
}

// Unit is an entity driven by the action engine.
type Unit struct {
	ID             uint           `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	TypeID         uint           `json:"typeId" gorm:"index:idx_unit_type"`
	LocationID     *uint          `json:"locationId" gorm:"index:idx_unit_square;default:NULL"` // NULL while aboard or in flight
	X              int            `json:"x" gorm:"index:idx_unit_square"`
	Y              int            `json:"y" gorm:"index:idx_unit_square"`
	TargetX        int            `json:"targetX"`
	TargetY        int            `json:"targetY"`
	OwnerID        *uint          `json:"ownerId" gorm:"index:idx_unit_owner;default:NULL"`
	HomeID         *uint          `json:"homeId" gorm:"index:idx_unit_home;default:NULL"`
	Action         string         `json:"action" gorm:"size:16;default:idle"`
	ExploitingKind string         `json:"exploitingKind" gorm:"size:16"` // feature, building, unit or empty
	ExploitingID   uint           `json:"exploitingId"`
	Material       string         `json:"material" gorm:"size:16"`
	Carried        datatypes.JSON `json:"carried"`
	Health         *int           `json:"health" gorm:"default:NULL"`
	Selected       bool           `json:"selected" gorm:"default:false"`
	OnboardID      *uint          `json:"onboardId" gorm:"index:idx_unit_onboard;default:NULL"`
}

func (*Unit) TableName() string {
	return "units"
}

// Transport links a carrier unit to its destination building.
type Transport struct {
	ID            uint            `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	CarrierID     uint            `json:"carrierId" gorm:"index:idx_transport_carrier"`
	DestinationID uint            `json:"destinationId" gorm:"index:idx_transport_destination"`
	OriginID      uint            `json:"originId"`
	LandAt        *time.Time      `json:"landAt" gorm:"default:NULL"` // set while airborne
	Route         geom.LineString `json:"-"`                          // planned flight path
}

func (*Transport) TableName() string {
	return "transports"
}

// Skill is a purchased building upgrade. It applies once ActivatedAt has
// passed.
type Skill struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement"`
	CreatedAt   time.Time `json:"createdAt"`
	Kind        string    `json:"kind" gorm:"size:32"`
	BuildingID  uint      `json:"buildingId" gorm:"index:idx_skill_building"`
	ActivatedAt time.Time `json:"activatedAt"`
}

func (*Skill) TableName() string {
	return "skills"
}
