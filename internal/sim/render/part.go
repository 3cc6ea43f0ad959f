package render

import (
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// coreColor is the debug colour of the agent core diamond.
const coreColor = 0xFF1EFFCC

type orderKey struct {
	depth int
	z     int
	seq   uint64
}

// Part is one renderable piece of an agent (a compound part). Its order key
// is captured when it enters the scene; callers changing the parent's depth
// must Zap before and Restore after.
type Part struct {
	scene  *Scene
	parent Parent

	id     int
	offset mathx.Vector
	z      int
	width  int
	height int

	interactive Interactive

	key       orderKey
	inScene   bool
	destroyed bool
}

func (p *Part) ID() int              { return p.id }
func (p *Part) Parent() Parent       { return p.parent }
func (p *Part) Offset() mathx.Vector { return p.offset }
func (p *Part) Z() int               { return p.z }
func (p *Part) Seq() uint64          { return p.key.seq }
func (p *Part) Size() (w, h int)     { return p.width, p.height }
func (p *Part) InScene() bool        { return p.inScene }
func (p *Part) Destroyed() bool      { return p.destroyed }

func (p *Part) ShowOnRemoteCameras() bool { return !p.parent.CameraShy() }

func (p *Part) CanClick() bool { return p.parent.Activateable() }

// ZOrder is the part's effective depth: parent depth plus part z.
func (p *Part) ZOrder() int { return p.parent.Depth() + p.z }

// Origin is the part's top left corner in world coordinates.
func (p *Part) Origin() mathx.Vector { return p.parent.Position().Add(p.offset) }

// Interactive reports the part's focus capability.
func (p *Part) Interactive() (Interactive, bool) {
	return p.interactive, p.interactive != nil
}

func (p *Part) insert() {
	p.key.depth = p.parent.Depth()
	p.key.z = p.z
	p.scene.tree.ReplaceOrInsert(p)
	p.inScene = true
}

// Zap takes the part out of the order without destroying it. Zapping twice
// is a no-op, as is destroying a zapped part.
func (p *Part) Zap() {
	if !p.inScene {
		return
	}
	p.scene.tree.Delete(p)
	p.inScene = false
	if p.scene.focus == p {
		p.scene.Blur()
	}
}

// Restore puts a zapped part back using the parent's current depth.
func (p *Part) Restore() {
	if p.inScene || p.destroyed {
		return
	}
	p.insert()
}

// SetZ moves the part within its agent.
func (p *Part) SetZ(z int) {
	was := p.inScene
	p.Zap()
	p.z = z
	if was {
		p.insert()
	}
}

// Destroy removes the part for good.
func (p *Part) Destroy() {
	p.Zap()
	p.destroyed = true
}

// HandleClick takes a click in part-local coordinates and passes it to the
// parent in agent-local coordinates.
func (p *Part) HandleClick(x, y float32) error {
	return p.parent.HandleClick(x+p.offset.X, y+p.offset.Y)
}

// Render draws the part, plus the core diamond when the parent asks for it.
// Hidden agents draw nothing.
func (p *Part) Render(t RenderTarget, xoff, yoff int) {
	if !p.parent.Visible() {
		return
	}
	pos := p.parent.Position()
	ax, ay := xoff+int(pos.X), yoff+int(pos.Y)
	t.RenderPart(p, ax, ay)
	if !p.parent.DisplayCore() {
		return
	}
	x, y := ax+int(p.offset.X), ay+int(p.offset.Y)
	w, h := p.width, p.height
	t.RenderLine(x+w/2, y, x+w, y+h/2, coreColor)
	t.RenderLine(x+w, y+h/2, x+w/2, y+h, coreColor)
	t.RenderLine(x+w/2, y+h, x, y+h/2, coreColor)
	t.RenderLine(x, y+h/2, x+w/2, y, coreColor)
}
