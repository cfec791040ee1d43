// Package handlers binds console commands to the engine, economy and
// transport layers.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gridwars/engine/internal/dispatcher"
	"github.com/gridwars/engine/internal/economy"
	"github.com/gridwars/engine/internal/engine"
	"github.com/gridwars/engine/internal/monitor"
	"github.com/gridwars/engine/internal/parser"
	"github.com/gridwars/engine/internal/transport"
	"github.com/gridwars/engine/internal/world"
	"github.com/gridwars/engine/pkg/core"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	World     *world.World
	Engine    *engine.Engine
	Economy   *economy.Resolver
	Transport *transport.Manager
	Monitor   *monitor.Service
	Logger    *slog.Logger
}

// Service provides one handler method per console command.
type Service struct {
	deps     Dependencies
	commands func() []string
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

type command struct {
	name    string
	handler dispatcher.HandlerFunc
	// offLoop commands wait on the loop themselves
	offLoop bool
}

func (s *Service) table() []command {
	return []command{
		{name: "travel", handler: s.Travel},
		{name: "patrol", handler: s.Patrol},
		{name: "guard", handler: s.Guard},
		{name: "exploit", handler: s.Exploit},
		{name: "repair", handler: s.Repair},
		{name: "heal", handler: s.Heal},
		{name: "attack", handler: s.Attack},
		{name: "release", handler: s.Release},
		{name: "describe", handler: s.Describe},
		{name: "stock", handler: s.Stock},
		{name: "recruit", handler: s.Recruit},
		{name: "build", handler: s.Build},
		{name: "buy", handler: s.Buy},
		{name: "transport", handler: s.NewTransport},
		{name: "embark", handler: s.Embark},
		{name: "disembark", handler: s.Disembark},
		{name: "launch", handler: s.Launch},
		{name: "location", handler: s.Location},
		{name: "join", handler: s.Join},
		{name: "spawn", handler: s.Spawn},
		{name: "found", handler: s.Found},
		{name: "feature", handler: s.Feature},
		{name: "status", handler: s.Status, offLoop: true},
		{name: "help", handler: s.Help, offLoop: true},
	}
}

// Register adds every command to d. Commands that touch the world run on
// r.
func (s *Service) Register(d *dispatcher.Dispatcher, r dispatcher.Runner) {
	s.commands = d.Commands
	for _, c := range s.table() {
		opts := []dispatcher.Option{dispatcher.Logged()}
		if !c.offLoop {
			opts = append(opts, dispatcher.OnLoop(r))
		}
		d.Register(c.name, c.handler, opts...)
	}
}

// described answers a unit command with what the unit is now doing.
func (s *Service) described(id core.ID, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return s.deps.Engine.Describe(id)
}

func (s *Service) unitAndPoint(e dispatcher.Event, usage string) (core.ID, core.Point, error) {
	if err := parser.Args(e.Args, 2, usage); err != nil {
		return 0, core.Point{}, err
	}
	id, err := parser.ParseID(e.Args[0])
	if err != nil {
		return 0, core.Point{}, err
	}
	p, err := parser.ParsePoint(e.Args[1])
	return id, p, err
}

func (s *Service) unitAndID(e dispatcher.Event, usage string) (core.ID, core.ID, error) {
	if err := parser.Args(e.Args, 2, usage); err != nil {
		return 0, 0, err
	}
	id, err := parser.ParseID(e.Args[0])
	if err != nil {
		return 0, 0, err
	}
	other, err := parser.ParseID(e.Args[1])
	return id, other, err
}

func (s *Service) oneID(e dispatcher.Event, usage string) (core.ID, error) {
	if err := parser.Args(e.Args, 1, usage); err != nil {
		return 0, err
	}
	return parser.ParseID(e.Args[0])
}

// Travel handles "travel <unit> <x,y>".
func (s *Service) Travel(e dispatcher.Event) (any, error) {
	id, p, err := s.unitAndPoint(e, "travel <unit> <x,y>")
	if err != nil {
		return nil, err
	}
	return s.described(id, s.deps.Engine.Travel(id, p))
}

// Patrol handles "patrol <unit> <x,y>".
func (s *Service) Patrol(e dispatcher.Event) (any, error) {
	id, p, err := s.unitAndPoint(e, "patrol <unit> <x,y>")
	if err != nil {
		return nil, err
	}
	return s.described(id, s.deps.Engine.Patrol(id, p))
}

// Guard handles "guard <unit>".
func (s *Service) Guard(e dispatcher.Event) (any, error) {
	id, err := s.oneID(e, "guard <unit>")
	if err != nil {
		return nil, err
	}
	return s.described(id, s.deps.Engine.Guard(id))
}

// Exploit handles "exploit <unit> <kind#id> <material>".
func (s *Service) Exploit(e dispatcher.Event) (any, error) {
	if err := parser.Args(e.Args, 3, "exploit <unit> <kind#id> <material>"); err != nil {
		return nil, err
	}
	id, err := parser.ParseID(e.Args[0])
	if err != nil {
		return nil, err
	}
	source, err := parser.ParseTarget(e.Args[1])
	if err != nil {
		return nil, err
	}
	m, err := parser.ParseMaterial(e.Args[2])
	if err != nil {
		return nil, err
	}
	return s.described(id, s.deps.Engine.Exploit(id, source, m))
}

// Repair handles "repair <unit> <building>".
func (s *Service) Repair(e dispatcher.Event) (any, error) {
	id, building, err := s.unitAndID(e, "repair <unit> <building>")
	if err != nil {
		return nil, err
	}
	return s.described(id, s.deps.Engine.Repair(id, building))
}

// Heal handles "heal <unit> <patient>".
func (s *Service) Heal(e dispatcher.Event) (any, error) {
	id, patient, err := s.unitAndID(e, "heal <unit> <patient>")
	if err != nil {
		return nil, err
	}
	return s.described(id, s.deps.Engine.HealUnit(id, patient))
}

// Attack handles "attack <unit> <kind#id>".
func (s *Service) Attack(e dispatcher.Event) (any, error) {
	if err := parser.Args(e.Args, 2, "attack <unit> <kind#id>"); err != nil {
		return nil, err
	}
	id, err := parser.ParseID(e.Args[0])
	if err != nil {
		return nil, err
	}
	target, err := parser.ParseTarget(e.Args[1])
	if err != nil {
		return nil, err
	}
	return s.described(id, s.deps.Engine.Attack(id, target))
}

// Release handles "release <unit>".
func (s *Service) Release(e dispatcher.Event) (any, error) {
	id, err := s.oneID(e, "release <unit>")
	if err != nil {
		return nil, err
	}
	if err := s.deps.Engine.Release(id); err != nil {
		return nil, err
	}
	return fmt.Sprintf("released unit %d", id), nil
}

// Describe handles "describe <unit>".
func (s *Service) Describe(e dispatcher.Event) (any, error) {
	id, err := s.oneID(e, "describe <unit>")
	if err != nil {
		return nil, err
	}
	return s.deps.Engine.Describe(id)
}

func (s *Service) building(id core.ID) (*core.Building, error) {
	b, err := s.deps.World.Store().Buildings().Get(id)
	if err != nil {
		return nil, fmt.Errorf("building %d: %w", id, err)
	}
	return b, nil
}

func (s *Service) unit(id core.ID) (*core.Unit, error) {
	u, err := s.deps.World.Store().Units().Get(id)
	if err != nil {
		return nil, fmt.Errorf("unit %d: %w", id, err)
	}
	return u, nil
}

// Stock handles "stock <building>".
func (s *Service) Stock(e dispatcher.Event) (any, error) {
	id, err := s.oneID(e, "stock <building>")
	if err != nil {
		return nil, err
	}
	b, err := s.building(id)
	if err != nil {
		return nil, err
	}
	name, err := s.deps.World.Name(b)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s at %s: %d/%d hp, %s", name, b.Pos,
		b.Health.HP(s.deps.World.MaxHealth(b)), s.deps.World.MaxHealth(b), b.Stock()), nil
}

// Recruit handles "recruit <building> <unit type>".
func (s *Service) Recruit(e dispatcher.Event) (any, error) {
	id, ut, err := s.unitAndID(e, "recruit <building> <unit type id>")
	if err != nil {
		return nil, err
	}
	b, err := s.building(id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Economy.Recruit(b, ut); err != nil {
		return nil, err
	}
	name := fmt.Sprint(ut)
	if t, ok := s.deps.World.Catalog().UnitType(ut); ok {
		name = t.Name
	}
	return "recruiting " + name, nil
}

// Build handles "build <unit> <building type>".
func (s *Service) Build(e dispatcher.Event) (any, error) {
	id, bt, err := s.unitAndID(e, "build <unit> <building type id>")
	if err != nil {
		return nil, err
	}
	u, err := s.unit(id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Economy.Build(u, bt); err != nil {
		return nil, err
	}
	name := fmt.Sprint(bt)
	if t, ok := s.deps.World.Catalog().BuildingType(bt); ok {
		name = t.Name
	}
	return fmt.Sprintf("building %s at %s", name, u.Pos), nil
}

// Buy handles "buy <building> <skill type>".
func (s *Service) Buy(e dispatcher.Event) (any, error) {
	id, st, err := s.unitAndID(e, "buy <building> <skill type id>")
	if err != nil {
		return nil, err
	}
	b, err := s.building(id)
	if err != nil {
		return nil, err
	}
	skill, err := s.deps.Economy.BuySkill(b, st)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s active from %s", skill.Kind.Description(),
		skill.ActivatedAt.Format("15:04:05")), nil
}

// NewTransport handles "transport <carrier> <building>".
func (s *Service) NewTransport(e dispatcher.Event) (any, error) {
	id, dest, err := s.unitAndID(e, "transport <carrier> <building>")
	if err != nil {
		return nil, err
	}
	carrier, err := s.unit(id)
	if err != nil {
		return nil, err
	}
	b, err := s.building(dest)
	if err != nil {
		return nil, err
	}
	t, err := s.deps.Transport.Create(carrier, b)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("transport %d bound for %s", t.ID, b.Pos), nil
}

func (s *Service) transportAndUnit(e dispatcher.Event, usage string) (*core.Transport, *core.Unit, error) {
	tid, uid, err := s.unitAndID(e, usage)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.deps.Transport.Get(tid)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.unit(uid)
	if err != nil {
		return nil, nil, err
	}
	return t, u, nil
}

// Embark handles "embark <transport> <unit>".
func (s *Service) Embark(e dispatcher.Event) (any, error) {
	t, u, err := s.transportAndUnit(e, "embark <transport> <unit>")
	if err != nil {
		return nil, err
	}
	if err := s.deps.Transport.Embark(t, u); err != nil {
		return nil, err
	}
	return fmt.Sprintf("unit %d aboard transport %d", u.ID, t.ID), nil
}

// Disembark handles "disembark <transport> <unit>".
func (s *Service) Disembark(e dispatcher.Event) (any, error) {
	t, u, err := s.transportAndUnit(e, "disembark <transport> <unit>")
	if err != nil {
		return nil, err
	}
	if err := s.deps.Transport.Disembark(t, u); err != nil {
		return nil, err
	}
	return fmt.Sprintf("unit %d left transport %d", u.ID, t.ID), nil
}

// Launch handles "launch <transport>".
func (s *Service) Launch(e dispatcher.Event) (any, error) {
	id, err := s.oneID(e, "launch <transport>")
	if err != nil {
		return nil, err
	}
	t, err := s.deps.Transport.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Transport.Launch(t); err != nil {
		return nil, err
	}
	return fmt.Sprintf("transport %d lands at %s", t.ID, t.LandAt.Format("15:04:05")), nil
}

// Status handles "status". It must not run on the loop: collecting waits
// for the loop.
func (s *Service) Status(e dispatcher.Event) (any, error) {
	if s.deps.Monitor == nil {
		return nil, fmt.Errorf("status monitor is not configured")
	}
	st, err := s.deps.Monitor.Collect(context.Background())
	if err != nil {
		return nil, err
	}
	return st.String(), nil
}

// Help handles "help".
func (s *Service) Help(e dispatcher.Event) (any, error) {
	if s.commands == nil {
		return "", nil
	}
	return strings.Join(s.commands(), " "), nil
}
