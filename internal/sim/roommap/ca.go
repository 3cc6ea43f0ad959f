package roommap

import (
	"fmt"

	"agentworld.ai/internal/sim/world/logic/mathx"
)

// CAConfig tunes the per-channel room cellular automaton. Values are
// fractions per tick in [0,1].
type CAConfig struct {
	Diffusion [NumCA]float32
	Loss      [NumCA]float32
}

func (m *Map) SetCAConfig(cfg CAConfig) { m.ca = cfg }

func (m *Map) CAConfig() CAConfig { return m.ca }

func (m *Map) SetCA(id RoomID, ch int, v float32) error {
	r, err := m.GetRoom(id)
	if err != nil {
		return err
	}
	if ch < 0 || ch >= NumCA {
		return fmt.Errorf("ca channel %d out of range [0,%d)", ch, NumCA)
	}
	r.ca[ch] = mathx.Clamp(v, 0, 1)
	return nil
}

func (m *Map) GetCA(id RoomID, ch int) (float32, error) {
	r, err := m.GetRoom(id)
	if err != nil {
		return 0, err
	}
	if ch < 0 || ch >= NumCA {
		return 0, fmt.Errorf("ca channel %d out of range [0,%d)", ch, NumCA)
	}
	return r.ca[ch], nil
}

// Tick advances the room CA one step: every channel decays by its loss rate
// and flows between adjacent rooms in proportion to the door permeability.
// Pairs are processed in id order so the result is deterministic.
func (m *Map) Tick() {
	pairs := m.adjacentPairs()
	for _, r := range m.rooms {
		if r == nil {
			continue
		}
		for ch := 0; ch < NumCA; ch++ {
			r.caNext[ch] = r.ca[ch] * (1 - m.ca.Loss[ch])
		}
	}
	for _, pair := range pairs {
		a, errA := m.GetRoom(pair[0])
		b, errB := m.GetRoom(pair[1])
		if errA != nil || errB != nil {
			continue
		}
		open := float32(m.GetDoorPerm(a.ID, b.ID)) / PermMax
		for ch := 0; ch < NumCA; ch++ {
			flow := (a.ca[ch] - b.ca[ch]) * m.ca.Diffusion[ch] * open * 0.5
			a.caNext[ch] -= flow
			b.caNext[ch] += flow
		}
	}
	for _, r := range m.rooms {
		if r == nil {
			continue
		}
		for ch := 0; ch < NumCA; ch++ {
			r.ca[ch] = mathx.Clamp(r.caNext[ch], 0, 1)
		}
	}
}

const adjEps = 0.01

func (m *Map) adjacentPairs() [][2]RoomID {
	if !m.adjDirty {
		return m.adjacency
	}
	m.adjacency = m.adjacency[:0]
	live := m.Rooms()
	for i, a := range live {
		for _, b := range live[i+1:] {
			if a.MetaRoom == b.MetaRoom && adjacent(a, b) {
				m.adjacency = append(m.adjacency, [2]RoomID{a.ID, b.ID})
			}
		}
	}
	m.adjDirty = false
	return m.adjacency
}

// adjacent reports whether two rooms share a stretch of wall of positive length.
func adjacent(a, b *Room) bool {
	return sideBySide(a, b) || sideBySide(b, a) || stacked(a, b) || stacked(b, a)
}

// sideBySide: a's right wall overlaps b's left wall.
func sideBySide(a, b *Room) bool {
	if mathx.Abs(a.XRight-b.XLeft) > adjEps {
		return false
	}
	top := max(a.YRightCeiling, b.YLeftCeiling)
	bottom := min(a.YRightFloor, b.YLeftFloor)
	return bottom-top > adjEps
}

// stacked: a's floor coincides with b's ceiling over a shared x span.
func stacked(a, b *Room) bool {
	x0 := max(a.XLeft, b.XLeft)
	x1 := min(a.XRight, b.XRight)
	if x1-x0 <= adjEps {
		return false
	}
	floor := a.Boundary(WallFloor)
	ceiling := b.Boundary(WallCeiling)
	return mathx.ApproxEqual(floor.YAt(x0), ceiling.YAt(x0), adjEps) &&
		mathx.ApproxEqual(floor.YAt(x1), ceiling.YAt(x1), adjEps)
}
