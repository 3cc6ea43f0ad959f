package world

import (
	"context"
	"errors"
	"time"

	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case <-ticker.C:
			w.StepOnce()
			if w.cfg.StopAfterTicks > 0 && w.tick.Load() >= w.cfg.StopAfterTicks {
				return nil
			}
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// StepOnce advances the world by a single tick and returns the tick that
// was simulated with the digest of the resulting state. It is the same
// step Run takes, exposed for replays and tests.
func (w *World) StepOnce() (tick uint64, digest string) {
	tick = w.tick.Load()
	w.tickFaults = 0

	w.rooms.Tick()
	for _, a := range w.Agents() {
		w.stepPhysics(a)
	}
	w.runScripts()
	reaped := w.reap()

	digest = w.stateDigest(tick)
	if w.tickLogger != nil {
		entry := TickLogEntry{
			Tick:   tick,
			Agents: w.AgentCount(),
			Reaped: reaped,
			Faults: w.tickFaults,
			Digest: digest,
		}
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Printf("tick log: %v", err)
		}
	}
	w.tick.Add(1)
	return tick, digest
}

// runScripts gives every live agent one quantum, in slot order. A fault
// ends that agent's script for the tick and nothing else.
func (w *World) runScripts() {
	for _, a := range w.Agents() {
		if a.killed || !a.vm.Runnable() {
			continue
		}
		if _, err := a.vm.Run(w.cfg.InstructionsPerTick); err != nil {
			w.recordFault(a, err)
		}
	}
}

// stepPhysics applies gravity and moves the agent by its velocity. Agents
// that suffer collisions travel through the room graph at their own perm
// and stop dead at the first wall. The seam of a wrapping metaroom is not a
// wall: the move carries on from the opposite edge.
func (w *World) stepPhysics(a *Agent) {
	if a.sufferPhysics() {
		a.vel.Y += w.cfg.Gravity
	}
	if a.vel.IsNull() {
		return
	}
	src := a.pos
	dest := src.Add(a.vel)
	mr, ok := w.rooms.MetaRoomAt(src.X, src.Y)
	wraps := ok && mr.Wrap

	if a.sufferCollisions() {
		for pass := 0; pass < 2; pass++ {
			c, err := w.rooms.CollideLineWithRoomSystem(src, dest, a.perm)
			if errors.Is(err, roommap.ErrNoRooms) {
				break
			}
			if err != nil {
				w.log.Printf("collide agent=%s: %v", a.ref, err)
				return
			}
			if !c.Collided {
				dest = c.Where
				break
			}
			if wraps && pass == 0 {
				if from, to, ok := w.crossSeam(mr, c, dest); ok {
					src, dest = from, to
					continue
				}
			}
			a.pos = c.Where
			a.vel = mathx.Vector{}
			return
		}
	}

	if wraps {
		dest.X = mr.WrapX(dest.X)
	}
	a.pos = dest
}

const seamEps = 1e-3

// crossSeam maps a collision on the left or right edge of a wrapping
// metaroom to the matching point on the opposite edge, carrying the rest of
// the move. ok is false when the wall is not the seam or no room lies on the
// far side.
func (w *World) crossSeam(mr *roommap.MetaRoom, c roommap.Collision, dest mathx.Vector) (from, to mathx.Vector, ok bool) {
	left, right := float32(mr.X), float32(mr.X+mr.Width)
	switch {
	case c.WallDir == roommap.WallRight && mathx.ApproxEqual(c.Where.X, right, seamEps) && dest.X > c.Where.X:
		from = mathx.Vec(left, c.Where.Y)
	case c.WallDir == roommap.WallLeft && mathx.ApproxEqual(c.Where.X, left, seamEps) && dest.X < c.Where.X:
		from = mathx.Vec(right, c.Where.Y)
	default:
		return mathx.Vector{}, mathx.Vector{}, false
	}
	if _, in := w.rooms.RoomAt(from.X, from.Y); !in {
		return mathx.Vector{}, mathx.Vector{}, false
	}
	return from, from.Add(dest.Sub(c.Where)), true
}
