package catalogs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"agentworld.ai/internal/sim/render"
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/vm"
	"agentworld.ai/internal/sim/world"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// Built maps catalog names to the ids the world handed out.
type Built struct {
	MetaRooms map[string]roommap.MetaRoomID
	Rooms     map[string]roommap.RoomID
	Agents    map[string]value.AgentRef
}

// Build populates an empty world: the room map first, then agents in
// catalog order, then game variables. Every script is checked against the
// world's opcode registry before any agent is created from it.
func Build(w *world.World, c *Catalogs) (*Built, error) {
	b := &Built{
		MetaRooms: map[string]roommap.MetaRoomID{},
		Rooms:     map[string]roommap.RoomID{},
		Agents:    map[string]value.AgentRef{},
	}
	if err := b.buildMap(w.Map(), &c.Map); err != nil {
		return nil, err
	}
	if err := b.buildAgents(w, &c.Agents); err != nil {
		return nil, err
	}
	if err := b.buildGame(w, &c.Agents); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Built) buildMap(m *roommap.Map, c *MapCatalog) error {
	if c.Width > 0 && c.Height > 0 {
		m.SetMapDimensions(c.Width, c.Height)
	}
	for _, md := range c.MetaRooms {
		mr, err := m.AddMetaRoom(md.X, md.Y, md.Width, md.Height, md.Background, md.Wrap)
		if err != nil {
			return fmt.Errorf("metaroom %q: %w", md.Name, err)
		}
		b.MetaRooms[md.Name] = mr.ID
		for _, rd := range md.Rooms {
			r, err := m.AddRoom(mr.ID, roommap.Geometry{
				XLeft:         rd.XLeft,
				XRight:        rd.XRight,
				YLeftCeiling:  rd.YLeftCeiling,
				YRightCeiling: rd.YRightCeiling,
				YLeftFloor:    rd.YLeftFloor,
				YRightFloor:   rd.YRightFloor,
			})
			if err != nil {
				return fmt.Errorf("room %q: %w", rd.Name, err)
			}
			r.Type = rd.Type
			for ch, v := range rd.CA {
				if err := m.SetCA(r.ID, ch, v); err != nil {
					return fmt.Errorf("room %q: %w", rd.Name, err)
				}
			}
			b.Rooms[rd.Name] = r.ID
		}
	}
	for _, d := range c.Doors {
		if err := m.SetDoorPerm(b.Rooms[d.A], b.Rooms[d.B], d.Perm); err != nil {
			return fmt.Errorf("door %s-%s: %w", d.A, d.B, err)
		}
	}
	return nil
}

func (b *Built) buildAgents(w *world.World, c *AgentCatalog) error {
	for _, ad := range c.Agents {
		spec := world.AgentSpec{
			Name:        ad.Name,
			Pos:         mathx.Vec(ad.Pos[0], ad.Pos[1]),
			Vel:         mathx.Vec(ad.Vel[0], ad.Vel[1]),
			Perm:        world.DefaultPerm,
			Attr:        ad.Attr,
			Depth:       ad.Depth,
			Hidden:      ad.Hidden,
			DisplayCore: ad.DisplayCore,
		}
		if ad.Perm != nil {
			spec.Perm = *ad.Perm
		}
		for _, p := range ad.Parts {
			spec.Parts = append(spec.Parts, render.PartSpec{
				ID:     p.ID,
				Offset: mathx.Vec(p.Offset[0], p.Offset[1]),
				Z:      p.Z,
				Width:  p.Width,
				Height: p.Height,
			})
		}
		var err error
		if spec.Script, err = compileChecked(w, ad.Script); err != nil {
			return fmt.Errorf("agent %q: %w", ad.Name, err)
		}
		if spec.ClickScript, err = compileChecked(w, ad.ClickScript); err != nil {
			return fmt.Errorf("agent %q: %w", ad.Name, err)
		}
		ref, err := w.AddAgent(spec)
		if err != nil {
			return err
		}
		b.Agents[ad.Name] = ref
	}
	return nil
}

func (b *Built) buildGame(w *world.World, c *AgentCatalog) error {
	names := make([]string, 0, len(c.Game))
	for k := range c.Game {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		raw := c.Game[name]
		if agent, ok := agentLiteral(raw); ok {
			ref, found := b.Agents[agent]
			if !found {
				return fmt.Errorf("game %q: unknown agent %q", name, agent)
			}
			w.GameVar(name).SetAgent(ref)
			continue
		}
		v, err := gameLiteral(raw)
		if err != nil {
			return fmt.Errorf("game %q: %w", name, err)
		}
		w.GameVar(name).Set(v)
	}
	return nil
}

func compileChecked(w *world.World, def *ScriptDef) (*vm.Script, error) {
	if def == nil {
		return nil, nil
	}
	s, err := def.Compile()
	if err != nil {
		return nil, err
	}
	if err := w.Registry().Check(s); err != nil {
		return nil, err
	}
	return s, nil
}

// agentLiteral reports the agent name of a {"agent": name} game value.
func agentLiteral(raw json.RawMessage) (string, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return "", false
	}
	var ref struct {
		Agent *string `json:"agent"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil || ref.Agent == nil {
		return "", false
	}
	return *ref.Agent, true
}

func gameLiteral(raw json.RawMessage) (value.Value, error) {
	v, err := decodeAny(raw)
	if err != nil {
		return value.Value{}, err
	}
	if obj, ok := v.(map[string]any); ok {
		vec, err := vectorFrom(obj["vec"])
		if err != nil {
			return value.Value{}, err
		}
		return value.Vec(vec), nil
	}
	return scalarLiteral(v)
}
