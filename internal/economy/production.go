package economy

import (
	"errors"
	"fmt"
	"time"

	"github.com/gridwars/engine/internal/storage"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"
)

func (r *Resolver) ticks(n int) time.Duration {
	return time.Duration(n) * r.world.TickUnit()
}

func (r *Resolver) later(n int, job func() error) {
	r.world.Scheduler().Clock().AfterFunc(r.ticks(n), job)
}

// Recruit spends b's stock on a unit of type ut, which appears at b once
// the recruit's pop time has passed. A building destroyed in the meantime
// recruits nothing.
func (r *Resolver) Recruit(b *core.Building, ut core.ID) error {
	if b.OwnerID == nil {
		return ErrUnowned
	}
	bt, ok := r.world.Catalog().BuildingType(b.TypeID)
	if !ok {
		return fmt.Errorf("building %d has unknown type %d", b.ID, b.TypeID)
	}
	rec, ok := bt.Recruitment(ut)
	if !ok {
		return fmt.Errorf("recruiting unit type %d: %w", ut, ErrNotOffered)
	}
	if !b.Stock().Take(rec.Cost) {
		return fmt.Errorf("recruiting needs %s: %w", rec.Cost, ErrInsufficient)
	}
	if err := r.world.Save(b); err != nil {
		return err
	}

	id := b.ID
	r.later(rec.PopTime, func() error {
		return r.completeRecruit(id, ut)
	})
	return nil
}

func (r *Resolver) completeRecruit(buildingID, ut core.ID) error {
	b, err := r.world.Store().Buildings().Get(buildingID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding recruiting building %d: %w", buildingID, err)
	}
	if b.OwnerID == nil {
		return nil
	}

	u := &core.Unit{
		TypeID:     ut,
		LocationID: core.Ptr(b.LocationID),
		Pos:        b.Pos,
		Target:     b.Pos,
		OwnerID:    core.Ptr(*b.OwnerID),
	}
	if bt, ok := r.world.Catalog().BuildingType(b.TypeID); ok && bt.Homely {
		u.HomeID = core.Ptr(b.ID)
		err = r.world.Save(u)
	} else {
		_, err = r.world.Rehome(u)
	}
	if err != nil {
		return err
	}
	return r.announce(*b.OwnerID, u)
}

func (r *Resolver) announce(player core.ID, e core.Entity) error {
	name, err := r.world.Name(e)
	if err != nil {
		return err
	}
	r.world.Message(player, name+" ready.")
	return nil
}

// Build spends u's home stock on a building of type bt, which appears on
// u's square once its build time has passed. New buildings start at 1 hit
// point and need repairing.
func (r *Resolver) Build(u *core.Unit, bt core.ID) error {
	if u.OwnerID == nil {
		return ErrUnowned
	}
	ut, ok := r.world.Catalog().UnitType(u.TypeID)
	if !ok || !ut.CanBuild(bt) {
		return fmt.Errorf("building type %d: %w", bt, ErrCannotBuild)
	}
	btype, ok := r.world.Catalog().BuildingType(bt)
	if !ok {
		return fmt.Errorf("building type %d: %w", bt, ErrCannotBuild)
	}
	if u.LocationID == nil {
		return fmt.Errorf("unit %d is not on a map: %w", u.ID, ErrCannotBuild)
	}

	pre, err := r.world.Catalog().Prerequisites(bt)
	if err != nil {
		return err
	}
	for _, need := range pre {
		owned, err := r.world.Store().Buildings().Find(storage.Filter{
			Location: u.LocationID, Owner: u.OwnerID, Type: core.Ptr(need),
		})
		if err != nil {
			return fmt.Errorf("finding prerequisite buildings: %w", err)
		}
		if len(owned) == 0 {
			name := fmt.Sprint(need)
			if t, ok := r.world.Catalog().BuildingType(need); ok {
				name = t.Name
			}
			return fmt.Errorf("%s requires %s: %w", btype.Name, name, ErrMissingPrerequisite)
		}
	}

	if u.HomeID == nil {
		return ErrHomeless
	}
	home, err := r.world.Store().Buildings().Get(*u.HomeID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrHomeless
	}
	if err != nil {
		return fmt.Errorf("finding home of unit %d: %w", u.ID, err)
	}
	if !home.Stock().Take(btype.Cost) {
		return fmt.Errorf("%s needs %s: %w", btype.Name, btype.Cost, ErrInsufficient)
	}
	if err := r.world.Save(home); err != nil {
		return err
	}

	owner, loc, pos := *u.OwnerID, *u.LocationID, u.Pos
	r.later(btype.BuildTime, func() error {
		b := &core.Building{
			TypeID:     bt,
			LocationID: loc,
			Pos:        pos,
			OwnerID:    core.Ptr(owner),
			Stored:     core.Resources{},
		}
		b.Health.Set(1, btype.MaxHealth)
		if err := r.world.Save(b); err != nil {
			return err
		}
		return r.announce(owner, b)
	})
	return nil
}

// BuySkill spends b's stock on a skill of type st. The skill counts once
// its pop time has passed.
func (r *Resolver) BuySkill(b *core.Building, st core.ID) (*core.Skill, error) {
	if b.OwnerID == nil {
		return nil, ErrUnowned
	}
	stype, ok := r.world.Catalog().SkillType(st)
	if !ok || stype.BuildingTypeID != b.TypeID {
		return nil, fmt.Errorf("skill type %d: %w", st, ErrNotOffered)
	}
	if !b.Stock().Take(stype.Cost) {
		return nil, fmt.Errorf("%s needs %s: %w", stype.Kind.Description(), stype.Cost, ErrInsufficient)
	}

	skill := &core.Skill{
		Kind:        stype.Kind,
		BuildingID:  b.ID,
		ActivatedAt: r.world.Now().Add(r.ticks(stype.PopTime)),
	}
	if err := r.world.Store().Atomic(func(s storage.Store) error {
		if err := world.SaveIn(s, b); err != nil {
			return err
		}
		if err := s.Skills().Save(skill); err != nil {
			return fmt.Errorf("saving skill: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return skill, nil
}
