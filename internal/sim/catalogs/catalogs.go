package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Catalogs struct {
	Map    MapCatalog
	Agents AgentCatalog
}

type MapCatalog struct {
	Width     int           `json:"width,omitempty"`
	Height    int           `json:"height,omitempty"`
	MetaRooms []MetaRoomDef `json:"metarooms"`
	Doors     []DoorDef     `json:"doors,omitempty"`

	Digest string `json:"-"`
}

type MetaRoomDef struct {
	Name       string    `json:"name"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Background string    `json:"background,omitempty"`
	Wrap       bool      `json:"wrap,omitempty"`
	Rooms      []RoomDef `json:"rooms,omitempty"`
}

type RoomDef struct {
	Name          string    `json:"name"`
	XLeft         float32   `json:"x_left"`
	XRight        float32   `json:"x_right"`
	YLeftCeiling  float32   `json:"y_left_ceiling"`
	YRightCeiling float32   `json:"y_right_ceiling"`
	YLeftFloor    float32   `json:"y_left_floor"`
	YRightFloor   float32   `json:"y_right_floor"`
	Type          int       `json:"type,omitempty"`
	CA            []float32 `json:"ca,omitempty"`
}

// DoorDef names the two rooms of a door by their catalog names.
type DoorDef struct {
	A    string `json:"a"`
	B    string `json:"b"`
	Perm int    `json:"perm"`
}

type AgentCatalog struct {
	Agents []AgentDef                 `json:"agents,omitempty"`
	Game   map[string]json.RawMessage `json:"game,omitempty"`

	Digest string `json:"-"`
}

type AgentDef struct {
	Name        string     `json:"name"`
	Pos         [2]float32 `json:"pos"`
	Vel         [2]float32 `json:"vel"`
	Perm        *int       `json:"perm,omitempty"` // nil → world.DefaultPerm
	Attr        int32      `json:"attr,omitempty"`
	Depth       int        `json:"depth,omitempty"`
	Hidden      bool       `json:"hidden,omitempty"`
	DisplayCore bool       `json:"display_core,omitempty"`
	Parts       []PartDef  `json:"parts,omitempty"`
	Script      *ScriptDef `json:"script,omitempty"`
	ClickScript *ScriptDef `json:"click_script,omitempty"`
}

type PartDef struct {
	ID     int        `json:"id"`
	Offset [2]float32 `json:"offset"`
	Z      int        `json:"z"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadMap(filepath.Join(configDir, "map.json"), &c.Map); err != nil {
		return nil, err
	}
	if err := loadAgents(filepath.Join(configDir, "agents.json"), &c.Agents); err != nil {
		return nil, err
	}
	return &c, nil
}

// Digest identifies the catalog set a world was built from.
func (c *Catalogs) Digest() string {
	return sha256Hex([]byte("map:" + c.Map.Digest + "\nagents:" + c.Agents.Digest))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadMap(path string, out *MapCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := ParseMap(raw)
	if err != nil {
		return err
	}
	*out = m
	return nil
}

func loadAgents(path string, out *AgentCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		// A world with no agents is fine.
		if os.IsNotExist(err) {
			*out = AgentCatalog{Digest: sha256Hex(nil)}
			return nil
		}
		return err
	}
	a, err := ParseAgents(raw)
	if err != nil {
		return err
	}
	*out = a
	return nil
}

func ParseMap(raw []byte) (MapCatalog, error) {
	var out MapCatalog
	if err := validate(mapSchema, raw); err != nil {
		return out, fmt.Errorf("map.json: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("map.json: %w", err)
	}
	out.Digest = sha256Hex(raw)

	metas := map[string]bool{}
	rooms := map[string]bool{}
	for _, mr := range out.MetaRooms {
		if metas[mr.Name] {
			return out, fmt.Errorf("map.json: duplicate metaroom %q", mr.Name)
		}
		metas[mr.Name] = true
		for _, r := range mr.Rooms {
			if rooms[r.Name] {
				return out, fmt.Errorf("map.json: duplicate room %q", r.Name)
			}
			rooms[r.Name] = true
		}
	}
	for i, d := range out.Doors {
		if !rooms[d.A] || !rooms[d.B] {
			return out, fmt.Errorf("map.json: door %d: unknown room %q or %q", i, d.A, d.B)
		}
		if d.A == d.B {
			return out, fmt.Errorf("map.json: door %d: room %q to itself", i, d.A)
		}
	}
	return out, nil
}

func ParseAgents(raw []byte) (AgentCatalog, error) {
	var out AgentCatalog
	if err := validate(agentsSchema, raw); err != nil {
		return out, fmt.Errorf("agents.json: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("agents.json: %w", err)
	}
	out.Digest = sha256Hex(raw)

	names := map[string]bool{}
	for _, a := range out.Agents {
		if names[a.Name] {
			return out, fmt.Errorf("agents.json: duplicate agent %q", a.Name)
		}
		names[a.Name] = true
		for _, s := range []*ScriptDef{a.Script, a.ClickScript} {
			if s == nil {
				continue
			}
			if _, err := s.Compile(); err != nil {
				return out, fmt.Errorf("agents.json: agent %q: %w", a.Name, err)
			}
		}
	}
	for name, raw := range out.Game {
		if ref, ok := agentLiteral(raw); ok && !names[ref] {
			return out, fmt.Errorf("agents.json: game %q: unknown agent %q", name, ref)
		}
	}
	return out, nil
}
