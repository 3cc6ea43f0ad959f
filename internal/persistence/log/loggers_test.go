package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld.ai/internal/sim/tuning"
	"agentworld.ai/internal/sim/world"
)

func TestTickLogger_RoundTripsThroughZstd(t *testing.T) {
	dir := t.TempDir()
	tl := NewTickLogger(dir, 3)
	for i := uint64(0); i < 50; i++ {
		require.NoError(t, tl.WriteTick(world.TickLogEntry{Tick: i, Agents: 2, Digest: "d"}))
	}
	require.NoError(t, tl.Close())

	// Reopening appends a second zstd frame to the same hour file.
	tl = NewTickLogger(dir, 0)
	require.NoError(t, tl.WriteTick(world.TickLogEntry{Tick: 50, Reaped: 1, Faults: 3}))
	require.NoError(t, tl.Close())

	got, err := ReadTicks(dir)
	require.NoError(t, err)
	require.Len(t, got, 51)
	for i, e := range got {
		assert.Equal(t, uint64(i), e.Tick)
	}
	assert.Equal(t, 1, got[50].Reaped)
	assert.Equal(t, 3, got[50].Faults)

	files, err := filepath.Glob(filepath.Join(dir, "ticks", "ticks-*.jsonl.zst"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}

func TestFaultLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	fl := NewFaultLogger(dir, 1)
	want := world.FaultEntry{Tick: 7, Agent: "3:1", Name: "ball", Script: "bounce", PC: 2, Op: "VEC: MULV", Code: "E_BAD_PARAMETER", Message: "not a vector"}
	require.NoError(t, fl.WriteFault(want))
	require.NoError(t, fl.Close())

	got, err := ReadFaults(dir)
	require.NoError(t, err)
	assert.Equal(t, []world.FaultEntry{want}, got)
}

func TestReadTicks_EmptyAndCorrupt(t *testing.T) {
	got, err := ReadTicks(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ticks"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ticks", "ticks-2026-01-01-00.jsonl.zst"), []byte("not zstd"), 0o644))
	_, err = ReadTicks(dir)
	assert.Error(t, err)
}

func TestRunMeta_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "r1")
	tu := tuning.Defaults()
	tu.Gravity = 0.25
	tu.CA.Diffusion = []float32{0.5}
	want := RunMeta{WorldID: "world_1", RunID: "r1", CatalogsDigest: "abc", StartedAt: "2026-10-15T00:00:00Z", Tuning: tu}
	require.NoError(t, WriteRunMeta(dir, want))

	got, err := ReadRunMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ReadRunMeta(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
