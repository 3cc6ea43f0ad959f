// Package render keeps the draw and click order of every live compound part.
//
// A Scene owns one ordered set of parts keyed by (agent depth, part z,
// sequence). Sequence numbers are handed out scene-wide, so no two parts
// ever compare equal and iteration order is total and stable. Parts are
// inserted when created and removed when destroyed or zapped.
package render

import (
	"errors"

	"github.com/google/btree"

	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

const btreeDegree = 16

var ErrNoParent = errors.New("part has no parent")

// Parent is the agent side of a part. Parts never own their parent.
type Parent interface {
	Position() mathx.Vector
	Visible() bool
	// Activateable reports whether clicks reach the agent.
	Activateable() bool
	// Depth is the agent's base z-order.
	Depth() int
	CameraShy() bool
	DisplayCore() bool
	// HandleClick receives a click in agent-local coordinates.
	HandleClick(x, y float32) error
}

// Interactive is the capability of parts that take keyboard focus.
type Interactive interface {
	GainFocus()
	LoseFocus()
	HandleChar(c rune)
	HandleRawKey(key uint8)
}

// RenderTarget is the drawing back end.
type RenderTarget interface {
	RenderLine(x1, y1, x2, y2 int, color uint32)
	RenderPart(p *Part, x, y int)
}

type Scene struct {
	tree    *btree.BTreeG[*Part]
	nextSeq uint64
	focus   *Part
}

func NewScene() *Scene {
	return &Scene{tree: btree.NewG(btreeDegree, partLess)}
}

func partLess(a, b *Part) bool {
	if a.key.depth != b.key.depth {
		return a.key.depth < b.key.depth
	}
	if a.key.z != b.key.z {
		return a.key.z < b.key.z
	}
	return a.key.seq < b.key.seq
}

// PartSpec describes a part to create. Interactive may be nil.
type PartSpec struct {
	ID          int
	Offset      mathx.Vector
	Z           int
	Width       int
	Height      int
	Interactive Interactive
}

// NewPart creates a part of parent and inserts it into the order.
func (s *Scene) NewPart(parent Parent, spec PartSpec) (*Part, error) {
	if parent == nil {
		return nil, ErrNoParent
	}
	s.nextSeq++
	p := &Part{
		scene:       s,
		parent:      parent,
		id:          spec.ID,
		offset:      spec.Offset,
		z:           spec.Z,
		width:       spec.Width,
		height:      spec.Height,
		interactive: spec.Interactive,
	}
	p.key.seq = s.nextSeq
	p.insert()
	return p, nil
}

func (s *Scene) Len() int { return s.tree.Len() }

// Ascend walks parts in draw order, back to front.
func (s *Scene) Ascend(fn func(p *Part) bool) { s.tree.Ascend(fn) }

// Descend walks parts front to back, the order clicks are tested in.
func (s *Scene) Descend(fn func(p *Part) bool) { s.tree.Descend(fn) }

func (s *Scene) Parts() []*Part {
	out := make([]*Part, 0, s.tree.Len())
	s.tree.Ascend(func(p *Part) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Render draws every part back to front.
func (s *Scene) Render(t RenderTarget, xoff, yoff int) {
	s.tree.Ascend(func(p *Part) bool {
		p.Render(t, xoff, yoff)
		return true
	})
}

// PartAt finds the topmost clickable part under (x, y) and returns the
// point in that part's local coordinates.
func (s *Scene) PartAt(x, y float32) (*Part, mathx.Vector, bool) {
	var (
		hit   *Part
		local mathx.Vector
	)
	s.tree.Descend(func(p *Part) bool {
		if !p.parent.Visible() || !p.CanClick() {
			return true
		}
		origin := p.Origin()
		lx, ly := x-origin.X, y-origin.Y
		if lx < 0 || ly < 0 || lx >= float32(p.width) || ly >= float32(p.height) {
			return true
		}
		hit, local = p, mathx.Vec(lx, ly)
		return false
	})
	return hit, local, hit != nil
}

// Click routes a click at (x, y) to the topmost part under it. It reports
// whether any part took the click.
func (s *Scene) Click(x, y float32) (bool, error) {
	p, local, ok := s.PartAt(x, y)
	if !ok {
		return false, nil
	}
	return true, p.HandleClick(local.X, local.Y)
}

func (s *Scene) Focused() *Part { return s.focus }

// Focus moves keyboard focus to p. Parts without the Interactive
// capability cannot take it.
func (s *Scene) Focus(p *Part) error {
	in, ok := p.Interactive()
	if !ok {
		return protocol.InvalidOperation("part %d cannot take focus", p.id)
	}
	if s.focus == p {
		return nil
	}
	s.Blur()
	s.focus = p
	in.GainFocus()
	return nil
}

func (s *Scene) Blur() {
	if s.focus == nil {
		return
	}
	if in, ok := s.focus.Interactive(); ok {
		in.LoseFocus()
	}
	s.focus = nil
}

func (s *Scene) SendChar(c rune) error {
	if s.focus == nil {
		return protocol.InvalidOperation("no focused part for char %q", c)
	}
	in, ok := s.focus.Interactive()
	if !ok {
		return protocol.InvalidOperation("part %d cannot take keys", s.focus.id)
	}
	in.HandleChar(c)
	return nil
}

func (s *Scene) SendRawKey(key uint8) error {
	if s.focus == nil {
		return protocol.InvalidOperation("no focused part for key %d", key)
	}
	in, ok := s.focus.Interactive()
	if !ok {
		return protocol.InvalidOperation("part %d cannot take keys", s.focus.id)
	}
	in.HandleRawKey(key)
	return nil
}
