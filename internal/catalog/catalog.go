// Package catalog holds the immutable type templates units, buildings,
// features, attacks and skills are created from.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/gridwars/engine/pkg/core"
	"github.com/spf13/viper"
)

//go:embed default.json
var defaultCatalog []byte

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid catalog")
	// ErrUnknownType is returned by the lookup-by-name helpers.
	ErrUnknownType = errors.New("unknown type")
)

// Data is the on-disk shape of a catalog.
type Data struct {
	UnitTypes     []core.UnitType     `mapstructure:"unitTypes" json:"unitTypes"`
	BuildingTypes []core.BuildingType `mapstructure:"buildingTypes" json:"buildingTypes"`
	FeatureTypes  []core.FeatureType  `mapstructure:"featureTypes" json:"featureTypes"`
	AttackTypes   []core.AttackType   `mapstructure:"attackTypes" json:"attackTypes"`
	SkillTypes    []core.SkillType    `mapstructure:"skillTypes" json:"skillTypes"`
}

// Catalog answers template lookups. It is safe for concurrent reads.
type Catalog struct {
	units     map[core.ID]*core.UnitType
	buildings map[core.ID]*core.BuildingType
	features  map[core.ID]*core.FeatureType
	attacks   map[core.ID]*core.AttackType
	skills    map[core.ID]*core.SkillType

	unitNames     map[string]core.ID
	buildingNames map[string]core.ID
	featureNames  map[string]core.ID

	unitIDs []core.ID // sorted, for random picks

	// depends has an edge from every building type to the type it depends on.
	depends graph.Graph[core.ID, core.ID]
}

// Load reads a JSON or YAML catalog file through viper.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return decode(v)
}

// Default returns the catalog shipped with the engine.
func Default() (*Catalog, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaultCatalog)); err != nil {
		return nil, fmt.Errorf("failed to read default catalog: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Catalog, error) {
	var data Data
	if err := v.Unmarshal(&data); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(data)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// New validates data and indexes it.
func New(data Data) (*Catalog, error) {
	c := &Catalog{
		units:         make(map[core.ID]*core.UnitType),
		buildings:     make(map[core.ID]*core.BuildingType),
		features:      make(map[core.ID]*core.FeatureType),
		attacks:       make(map[core.ID]*core.AttackType),
		skills:        make(map[core.ID]*core.SkillType),
		unitNames:     make(map[string]core.ID),
		buildingNames: make(map[string]core.ID),
		featureNames:  make(map[string]core.ID),
		depends:       graph.New(func(id core.ID) core.ID { return id }, graph.Directed(), graph.PreventCycles()),
	}

	for i := range data.AttackTypes {
		at := &data.AttackTypes[i]
		if _, dup := c.attacks[at.ID]; dup || at.ID == 0 {
			return nil, invalid("attack type id %d", at.ID)
		}
		c.attacks[at.ID] = at
	}

	for i := range data.FeatureTypes {
		ft := &data.FeatureTypes[i]
		if err := index(c.features, c.featureNames, ft.ID, ft.Name, ft, "feature"); err != nil {
			return nil, err
		}
		if len(ft.Resources) == 0 {
			return nil, invalid("feature type %q has no resources", ft.Name)
		}
	}

	for i := range data.BuildingTypes {
		bt := &data.BuildingTypes[i]
		if err := index(c.buildings, c.buildingNames, bt.ID, bt.Name, bt, "building"); err != nil {
			return nil, err
		}
		if err := c.depends.AddVertex(bt.ID); err != nil {
			return nil, invalid("building type %q: %v", bt.Name, err)
		}
	}

	for i := range data.UnitTypes {
		ut := &data.UnitTypes[i]
		if err := index(c.units, c.unitNames, ut.ID, ut.Name, ut, "unit"); err != nil {
			return nil, err
		}
		if ut.Speed <= 0 {
			return nil, invalid("unit type %q has speed %d", ut.Name, ut.Speed)
		}
		if ut.AttackTypeID != nil {
			if _, ok := c.attacks[*ut.AttackTypeID]; !ok {
				return nil, invalid("unit type %q uses unknown attack type %d", ut.Name, *ut.AttackTypeID)
			}
		}
		for _, bt := range ut.Builds {
			if _, ok := c.buildings[bt]; !ok {
				return nil, invalid("unit type %q builds unknown building type %d", ut.Name, bt)
			}
		}
		c.unitIDs = append(c.unitIDs, ut.ID)
	}
	slices.Sort(c.unitIDs)

	for _, bt := range c.buildings {
		for _, r := range bt.Recruits {
			if _, ok := c.units[r.UnitTypeID]; !ok {
				return nil, invalid("building type %q recruits unknown unit type %d", bt.Name, r.UnitTypeID)
			}
		}
		if bt.Depends == nil {
			continue
		}
		if _, ok := c.buildings[*bt.Depends]; !ok {
			return nil, invalid("building type %q depends on unknown type %d", bt.Name, *bt.Depends)
		}
		if err := c.depends.AddEdge(bt.ID, *bt.Depends); err != nil {
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				return nil, invalid("building type %q: dependency cycle", bt.Name)
			}
			return nil, invalid("building type %q: %v", bt.Name, err)
		}
	}

	for i := range data.SkillTypes {
		st := &data.SkillTypes[i]
		if _, dup := c.skills[st.ID]; dup || st.ID == 0 {
			return nil, invalid("skill type id %d", st.ID)
		}
		if _, err := core.ParseSkillKind(string(st.Kind)); err != nil {
			return nil, invalid("skill type %d: %v", st.ID, err)
		}
		if _, ok := c.buildings[st.BuildingTypeID]; !ok {
			return nil, invalid("skill type %d belongs to unknown building type %d", st.ID, st.BuildingTypeID)
		}
		c.skills[st.ID] = st
	}

	return c, nil
}

func index[T any](byID map[core.ID]*T, byName map[string]core.ID, id core.ID, name string, v *T, kind string) error {
	if id == 0 {
		return invalid("%s type %q has no id", kind, name)
	}
	if _, dup := byID[id]; dup {
		return invalid("duplicate %s type id %d", kind, id)
	}
	key := strings.ToLower(name)
	if key == "" {
		return invalid("%s type %d has no name", kind, id)
	}
	if _, dup := byName[key]; dup {
		return invalid("duplicate %s type name %q", kind, name)
	}
	byID[id] = v
	byName[key] = id
	return nil
}

func (c *Catalog) UnitType(id core.ID) (*core.UnitType, bool) {
	t, ok := c.units[id]
	return t, ok
}

func (c *Catalog) BuildingType(id core.ID) (*core.BuildingType, bool) {
	t, ok := c.buildings[id]
	return t, ok
}

func (c *Catalog) FeatureType(id core.ID) (*core.FeatureType, bool) {
	t, ok := c.features[id]
	return t, ok
}

func (c *Catalog) AttackType(id core.ID) (*core.AttackType, bool) {
	t, ok := c.attacks[id]
	return t, ok
}

func (c *Catalog) SkillType(id core.ID) (*core.SkillType, bool) {
	t, ok := c.skills[id]
	return t, ok
}

// UnitTypeNamed looks a unit type up by case-insensitive name.
func (c *Catalog) UnitTypeNamed(name string) (*core.UnitType, error) {
	if id, ok := c.unitNames[strings.ToLower(name)]; ok {
		return c.units[id], nil
	}
	return nil, fmt.Errorf("%w: unit %q", ErrUnknownType, name)
}

// BuildingTypeNamed looks a building type up by case-insensitive name.
func (c *Catalog) BuildingTypeNamed(name string) (*core.BuildingType, error) {
	if id, ok := c.buildingNames[strings.ToLower(name)]; ok {
		return c.buildings[id], nil
	}
	return nil, fmt.Errorf("%w: building %q", ErrUnknownType, name)
}

// FeatureTypeNamed looks a feature type up by case-insensitive name.
func (c *Catalog) FeatureTypeNamed(name string) (*core.FeatureType, error) {
	if id, ok := c.featureNames[strings.ToLower(name)]; ok {
		return c.features[id], nil
	}
	return nil, fmt.Errorf("%w: feature %q", ErrUnknownType, name)
}

// UnitTypeIDs lists every unit type id in ascending order.
func (c *Catalog) UnitTypeIDs() []core.ID {
	return slices.Clone(c.unitIDs)
}

// SkillTypesFor lists the skills a building type offers, by id.
func (c *Catalog) SkillTypesFor(bt core.ID) []*core.SkillType {
	var out []*core.SkillType
	for _, st := range c.skills {
		if st.BuildingTypeID == bt {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b *core.SkillType) int { return int(a.ID) - int(b.ID) })
	return out
}

// Prerequisites returns the building types bt depends on, nearest first.
func (c *Catalog) Prerequisites(bt core.ID) ([]core.ID, error) {
	if _, ok := c.buildings[bt]; !ok {
		return nil, fmt.Errorf("%w: building %d", ErrUnknownType, bt)
	}
	var out []core.ID
	err := graph.DFS(c.depends, bt, func(id core.ID) bool {
		if id != bt {
			out = append(out, id)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BuildOrder lists every building type so that each comes after the types
// it depends on.
func (c *Catalog) BuildOrder() ([]core.ID, error) {
	order, err := graph.StableTopologicalSort(c.depends, func(a, b core.ID) bool { return a < b })
	if err != nil {
		return nil, err
	}
	slices.Reverse(order)
	return order, nil
}
