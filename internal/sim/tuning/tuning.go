package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/world"
)

type Tuning struct {
	TickRateHz          int     `yaml:"tick_rate_hz"`
	InstructionsPerTick int     `yaml:"instructions_per_tick"`
	Gravity             float32 `yaml:"gravity"`
	FaultHistory        int     `yaml:"fault_history"`

	MapWidth  int `yaml:"map_width"`
	MapHeight int `yaml:"map_height"`

	CA CA `yaml:"ca"`

	Journal Journal `yaml:"journal"`
	Index   Index   `yaml:"index"`
}

// CA holds per-channel rates, indexed by channel. Missing channels are 0.
type CA struct {
	Diffusion []float32 `yaml:"diffusion"`
	Loss      []float32 `yaml:"loss"`
}

type Journal struct {
	Enabled bool `yaml:"enabled"`
	// ZstdLevel is 1 (fastest) to 4 (best).
	ZstdLevel int `yaml:"zstd_level"`
}

type Index struct {
	Enabled bool `yaml:"enabled"`
	// QueueSize bounds the async writer; entries past it are dropped.
	QueueSize int `yaml:"queue_size"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:          20,
		InstructionsPerTick: 256,
		FaultHistory:        256,
		MapWidth:            8352,
		MapHeight:           1200,
		Journal:             Journal{Enabled: true, ZstdLevel: 1},
		Index:               Index{Enabled: true, QueueSize: 4096},
	}
}

// Load reads path over Defaults, so a file only needs the keys it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0, got %d", t.TickRateHz)
	}
	if t.InstructionsPerTick <= 0 {
		return fmt.Errorf("instructions_per_tick must be > 0, got %d", t.InstructionsPerTick)
	}
	if t.FaultHistory < 0 {
		return fmt.Errorf("fault_history must be >= 0, got %d", t.FaultHistory)
	}
	if t.MapWidth <= 0 || t.MapHeight <= 0 {
		return fmt.Errorf("map size %dx%d must be positive", t.MapWidth, t.MapHeight)
	}
	if len(t.CA.Diffusion) > roommap.NumCA || len(t.CA.Loss) > roommap.NumCA {
		return fmt.Errorf("ca: at most %d channels", roommap.NumCA)
	}
	for i, v := range append(append([]float32(nil), t.CA.Diffusion...), t.CA.Loss...) {
		if v < 0 || v > 1 {
			return fmt.Errorf("ca rate #%d = %g outside [0,1]", i, v)
		}
	}
	if t.Journal.Enabled && (t.Journal.ZstdLevel < 1 || t.Journal.ZstdLevel > 4) {
		return fmt.Errorf("journal.zstd_level must be 1..4, got %d", t.Journal.ZstdLevel)
	}
	if t.Index.Enabled && t.Index.QueueSize <= 0 {
		return fmt.Errorf("index.queue_size must be > 0, got %d", t.Index.QueueSize)
	}
	return nil
}

// CAConfig converts the rates to the room map's fixed-size form.
func (t Tuning) CAConfig() roommap.CAConfig {
	var c roommap.CAConfig
	copy(c.Diffusion[:], t.CA.Diffusion)
	copy(c.Loss[:], t.CA.Loss)
	return c
}

// WorldConfig is the world configuration these values describe.
func (t Tuning) WorldConfig(id string) world.WorldConfig {
	return world.WorldConfig{
		ID:                  id,
		TickRateHz:          t.TickRateHz,
		InstructionsPerTick: t.InstructionsPerTick,
		Gravity:             t.Gravity,
		FaultHistory:        t.FaultHistory,
		MapWidth:            t.MapWidth,
		MapHeight:           t.MapHeight,
		CA:                  t.CAConfig(),
	}
}
