package world

// TickLogger receives one entry per completed tick. Implemented in
// internal/persistence/*.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// FaultLogger receives every script fault as it is caught.
type FaultLogger interface {
	WriteFault(entry FaultEntry) error
}

type TickLogEntry struct {
	Tick   uint64 `json:"tick"`
	Agents int    `json:"agents"`
	Reaped int    `json:"reaped,omitempty"`
	Faults int    `json:"faults,omitempty"`
	Digest string `json:"digest"`
}

type FaultEntry struct {
	Tick    uint64 `json:"tick"`
	Agent   string `json:"agent"`
	Name    string `json:"name,omitempty"`
	Script  string `json:"script,omitempty"`
	PC      int    `json:"pc"`
	Op      string `json:"op,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
