package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"agentworld.ai/internal/sim/tuning"
)

const runMetaFile = "run.json"

// RunMeta is what a replay needs to rebuild the world a run started from.
type RunMeta struct {
	WorldID        string        `json:"world_id"`
	RunID          string        `json:"run_id"`
	CatalogsDigest string        `json:"catalogs_digest"`
	StartedAt      string        `json:"started_at"`
	Tuning         tuning.Tuning `json:"tuning"`
}

func WriteRunMeta(runDir string, m RunMeta) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(runDir, runMetaFile+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(runDir, runMetaFile))
}

func ReadRunMeta(runDir string) (RunMeta, error) {
	var m RunMeta
	b, err := os.ReadFile(filepath.Join(runDir, runMetaFile))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s: %w", runMetaFile, err)
	}
	return m, nil
}
