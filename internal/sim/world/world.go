package world

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/render"
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/vm"
)

var ErrNoAgent = errors.New("no such agent")

type agentSlot struct {
	gen   uint32
	agent *Agent
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg   WorldConfig
	runID string
	log   *log.Logger

	tick atomic.Uint64

	rooms *roommap.Map
	scene *render.Scene
	ops   *vm.Registry

	// Slot 0 is never used so the zero AgentRef is always null.
	slots []agentSlot
	free  []uint32
	live  int

	game map[string]*value.Value

	faults     []FaultEntry
	tickFaults int

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	faultLogger FaultLogger

	stop     chan struct{}
	stopOnce sync.Once
}

func New(cfg WorldConfig) *World {
	cfg.applyDefaults()
	lg := cfg.Logger
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:   cfg,
		runID: uuid.NewString(),
		log:   lg,
		rooms: roommap.New(),
		scene: render.NewScene(),
		ops:   vm.Builtins(),
		slots: make([]agentSlot, 1),
		game:  map[string]*value.Value{},
		stop:  make(chan struct{}),
	}
	w.rooms.SetCAConfig(cfg.CA)
	if cfg.MapWidth > 0 && cfg.MapHeight > 0 {
		w.rooms.SetMapDimensions(cfg.MapWidth, cfg.MapHeight)
	}
	return w
}

func (w *World) SetTickLogger(l TickLogger)   { w.tickLogger = l }
func (w *World) SetFaultLogger(l FaultLogger) { w.faultLogger = l }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

// RunID identifies this process's run of the world in logs and the index.
func (w *World) RunID() string          { return w.runID }
func (w *World) TickRateHz() int        { return w.cfg.TickRateHz }
func (w *World) CurrentTick() uint64    { return w.tick.Load() }
func (w *World) Map() *roommap.Map      { return w.rooms }
func (w *World) Scene() *render.Scene   { return w.scene }
func (w *World) Registry() *vm.Registry { return w.ops }

// Faults returns the most recent script faults, oldest first.
func (w *World) Faults() []FaultEntry {
	return append([]FaultEntry(nil), w.faults...)
}

func (w *World) AddAgent(spec AgentSpec) (value.AgentRef, error) {
	if err := spec.validate(); err != nil {
		return value.NullAgent, err
	}
	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		idx = uint32(len(w.slots))
		w.slots = append(w.slots, agentSlot{})
	}
	slot := &w.slots[idx]
	slot.gen++
	ref := value.AgentRef{Index: idx, Gen: slot.gen}

	a := &Agent{
		world:       w,
		ref:         ref,
		Name:        spec.Name,
		pos:         spec.Pos,
		vel:         spec.Vel,
		perm:        spec.Perm,
		attr:        spec.Attr,
		depth:       spec.Depth,
		visible:     !spec.Hidden,
		core:        spec.DisplayCore,
		clickScript: spec.ClickScript,
	}
	a.vm = vm.New(w.ops, w, ref)
	for _, ps := range spec.Parts {
		p, err := w.scene.NewPart(a, ps)
		if err != nil {
			a.zapParts()
			slot.gen++
			w.free = append(w.free, idx)
			return value.NullAgent, fmt.Errorf("agent %q part %d: %w", spec.Name, ps.ID, err)
		}
		a.parts = append(a.parts, p)
	}
	if spec.Script != nil {
		a.vm.Load(spec.Script)
	}
	slot.agent = a
	w.live++
	return ref, nil
}

// Agent returns the live agent behind ref. Killed agents are gone as far as
// lookups are concerned, even before they are reaped.
func (w *World) Agent(ref value.AgentRef) (*Agent, error) {
	if ref.IsNull() || int(ref.Index) >= len(w.slots) {
		return nil, fmt.Errorf("%w: %s", ErrNoAgent, ref)
	}
	slot := w.slots[ref.Index]
	if slot.gen != ref.Gen || slot.agent == nil || slot.agent.killed {
		return nil, fmt.Errorf("%w: %s", ErrNoAgent, ref)
	}
	return slot.agent, nil
}

// Agents lists live agents in slot order.
func (w *World) Agents() []*Agent {
	out := make([]*Agent, 0, w.live)
	for _, s := range w.slots {
		if s.agent != nil && !s.agent.killed {
			out = append(out, s.agent)
		}
	}
	return out
}

func (w *World) AgentCount() int { return len(w.Agents()) }

// KillAgent marks the agent dead and takes its parts out of the z-order.
// Its slot is recycled when the current tick is reaped.
func (w *World) KillAgent(ref value.AgentRef) error {
	a, err := w.Agent(ref)
	if err != nil {
		return err
	}
	a.killed = true
	a.visible = false
	a.zapParts()
	return nil
}

func (w *World) SetScript(ref value.AgentRef, s *vm.Script) error {
	a, err := w.Agent(ref)
	if err != nil {
		return err
	}
	a.vm.Load(s)
	return nil
}

func (w *World) VM(ref value.AgentRef) (*vm.VM, error) {
	a, err := w.Agent(ref)
	if err != nil {
		return nil, err
	}
	return a.vm, nil
}

// Click routes a screen click through the z-order.
func (w *World) Click(x, y float32) (bool, error) { return w.scene.Click(x, y) }

// vm.Host

func (w *World) Resolve(ref value.AgentRef) (vm.Actor, error) {
	a, err := w.Agent(ref)
	if err != nil {
		return nil, protocol.BadParameter("%v", err)
	}
	return a, nil
}

func (w *World) Kill(ref value.AgentRef) error {
	if err := w.KillAgent(ref); err != nil {
		return protocol.BadParameter("%v", err)
	}
	return nil
}

func (w *World) GameVar(name string) *value.Value {
	v, ok := w.game[name]
	if !ok {
		v = &value.Value{}
		w.game[name] = v
	}
	return v
}

func (w *World) gameVarNames() []string {
	names := make([]string, 0, len(w.game))
	for k := range w.game {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// reap recycles the slots of killed agents.
func (w *World) reap() int {
	n := 0
	for i := 1; i < len(w.slots); i++ {
		s := &w.slots[i]
		if s.agent == nil || !s.agent.killed {
			continue
		}
		s.agent.zapParts()
		s.agent = nil
		s.gen++
		w.free = append(w.free, uint32(i))
		w.live--
		n++
	}
	return n
}

func (w *World) recordFault(a *Agent, err error) {
	e := FaultEntry{
		Tick:    w.tick.Load(),
		Agent:   a.ref.String(),
		Name:    a.Name,
		PC:      a.vm.FaultPC(),
		Code:    protocol.CodeOf(err),
		Message: err.Error(),
	}
	if s := a.vm.Script(); s != nil {
		e.Script = s.Name
	}
	var pe *protocol.Error
	if errors.As(err, &pe) {
		e.Op = pe.Op
		e.Message = pe.Msg
	}
	w.log.Printf("fault tick=%d agent=%s name=%q script=%q pc=%d op=%q code=%s: %s",
		e.Tick, e.Agent, e.Name, e.Script, e.PC, e.Op, e.Code, e.Message)

	w.faults = append(w.faults, e)
	if over := len(w.faults) - w.cfg.FaultHistory; over > 0 {
		w.faults = append(w.faults[:0], w.faults[over:]...)
	}
	w.tickFaults++
	if w.faultLogger != nil {
		if lerr := w.faultLogger.WriteFault(e); lerr != nil {
			w.log.Printf("fault log: %v", lerr)
		}
	}
}
