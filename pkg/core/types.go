// pkg/core/types.go
package core

import "fmt"

// UnitType is the template a unit is created from.
type UnitType struct {
	ID                ID        `mapstructure:"id" json:"id"`
	Name              string    `mapstructure:"name" json:"name"`
	Sound             string    `mapstructure:"sound" json:"sound"`
	Exploits          Resources `mapstructure:"exploits" json:"exploits"` // per-tick yield of each material the unit can gather
	MaxHealth         int       `mapstructure:"maxHealth" json:"maxHealth"`
	Speed             int       `mapstructure:"speed" json:"speed"`
	Strength          int       `mapstructure:"strength" json:"strength"`
	Resistance        int       `mapstructure:"resistance" json:"resistance"`
	AttackTypeID      *ID       `mapstructure:"attackType" json:"attackType,omitempty"`
	HealAmount        int       `mapstructure:"healAmount" json:"healAmount"`
	RepairAmount      int       `mapstructure:"repairAmount" json:"repairAmount"`
	AutoHeal          bool      `mapstructure:"autoHeal" json:"autoHeal"`
	AutoRepair        bool      `mapstructure:"autoRepair" json:"autoRepair"`
	TransportCapacity int       `mapstructure:"transportCapacity" json:"transportCapacity"`
	Builds            []ID      `mapstructure:"builds" json:"builds"`
}

// CanBuild reports whether units of this type may construct bt.
func (t *UnitType) CanBuild(bt ID) bool {
	for _, id := range t.Builds {
		if id == bt {
			return true
		}
	}
	return false
}

// Recruit is an entry on a building type's recruitment list.
type Recruit struct {
	UnitTypeID ID        `mapstructure:"unitType" json:"unitType"`
	Cost       Resources `mapstructure:"cost" json:"cost"`
	PopTime    int       `mapstructure:"popTime" json:"popTime"`
}

// BuildingType is the template a building is created from.
type BuildingType struct {
	ID         ID        `mapstructure:"id" json:"id"`
	Name       string    `mapstructure:"name" json:"name"`
	Cost       Resources `mapstructure:"cost" json:"cost"`
	MaxHealth  int       `mapstructure:"maxHealth" json:"maxHealth"`
	Resistance int       `mapstructure:"resistance" json:"resistance"`
	Homely     bool      `mapstructure:"homely" json:"homely"`
	Depends    *ID       `mapstructure:"depends" json:"depends,omitempty"`
	BuildTime  int       `mapstructure:"buildTime" json:"buildTime"`
	Recruits   []Recruit `mapstructure:"recruits" json:"recruits"`
}

// Recruitment returns the entry for ut, if this type recruits it.
func (t *BuildingType) Recruitment(ut ID) (Recruit, bool) {
	for _, r := range t.Recruits {
		if r.UnitTypeID == ut {
			return r, true
		}
	}
	return Recruit{}, false
}

// FeatureType is the template a feature is created from.
type FeatureType struct {
	ID        ID        `mapstructure:"id" json:"id"`
	Name      string    `mapstructure:"name" json:"name"`
	Resources Resources `mapstructure:"resources" json:"resources"`
	MaxHealth int       `mapstructure:"maxHealth" json:"maxHealth"`
}

// AttackType describes how an armed unit fights.
type AttackType struct {
	ID       ID     `mapstructure:"id" json:"id"`
	Name     string `mapstructure:"name" json:"name"`
	Strength int    `mapstructure:"strength" json:"strength"`
	Sound    string `mapstructure:"sound" json:"sound"`
}

// SkillKind enumerates what a skill does.
type SkillKind string

const (
	DoubleExploit     SkillKind = "double_exploit"
	TripleExploit     SkillKind = "triple_exploit"
	RandomResurrect   SkillKind = "random_resurrect"
	SpecificResurrect SkillKind = "specific_resurrect"
	SwitchSides       SkillKind = "switch_sides"
)

var skillDescriptions = map[SkillKind]string{
	DoubleExploit:     "Improved materials gathering",
	TripleExploit:     "Expert materials gathering",
	RandomResurrect:   "Basic resurrection",
	SpecificResurrect: "Advanced resurrection",
	SwitchSides:       "Turncoat spell",
}

// Description is the player facing name of the skill.
func (k SkillKind) Description() string {
	if d, ok := skillDescriptions[k]; ok {
		return d
	}
	return string(k)
}

// ParseSkillKind validates a skill kind.
func ParseSkillKind(s string) (SkillKind, error) {
	k := SkillKind(s)
	if _, ok := skillDescriptions[k]; !ok {
		return "", fmt.Errorf("unknown skill %q", s)
	}
	return k, nil
}

// SkillType is a skill a building type offers for purchase.
type SkillType struct {
	ID             ID        `mapstructure:"id" json:"id"`
	Kind           SkillKind `mapstructure:"kind" json:"kind"`
	Cost           Resources `mapstructure:"cost" json:"cost"`
	PopTime        int       `mapstructure:"popTime" json:"popTime"`
	BuildingTypeID ID        `mapstructure:"buildingType" json:"buildingType"`
}
