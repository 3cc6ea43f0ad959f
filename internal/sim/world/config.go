package world

import (
	"log"

	"agentworld.ai/internal/sim/roommap"
)

type WorldConfig struct {
	ID         string
	TickRateHz int

	// InstructionsPerTick caps how many opcodes one agent's script may run
	// in a single tick.
	InstructionsPerTick int

	// Gravity is added to the vertical velocity of agents that suffer
	// physics, once per tick. Zero is a valid, weightless world.
	Gravity float32

	// FaultHistory is how many recent script faults Faults() keeps.
	FaultHistory int

	// StopAfterTicks ends Run once the world reaches that tick. Zero runs
	// until the context is done.
	StopAfterTicks uint64

	// MapWidth and MapHeight bound metaroom placement. Zero leaves the map
	// unbounded until a script or catalog sets it.
	MapWidth  int
	MapHeight int

	CA roommap.CAConfig

	// Logger receives one line per script fault. Nil discards.
	Logger *log.Logger
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.InstructionsPerTick <= 0 {
		c.InstructionsPerTick = 256
	}
	if c.FaultHistory <= 0 {
		c.FaultHistory = 256
	}
}
