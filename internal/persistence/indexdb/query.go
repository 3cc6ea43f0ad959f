package indexdb

import (
	"database/sql"
	"fmt"
	"os"

	"agentworld.ai/internal/sim/world"
)

// Reader runs queries against an index written by SQLiteIndex.
type Reader struct {
	db *sql.DB
}

type RunRow struct {
	RunID          string `json:"run_id"`
	WorldID        string `json:"world_id"`
	CatalogsDigest string `json:"catalogs_digest"`
	StartedAt      string `json:"started_at"`
	Ticks          int64  `json:"ticks"`
	Faults         int64  `json:"faults"`
}

func OpenReader(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// Runs lists runs, newest first.
func (r *Reader) Runs(limit int) ([]RunRow, error) {
	rows, err := r.db.Query(`
		SELECT r.run_id, r.world_id, r.catalogs_digest, r.started_at,
			(SELECT COUNT(*) FROM ticks t WHERE t.run_id = r.run_id),
			(SELECT COUNT(*) FROM faults f WHERE f.run_id = r.run_id)
		FROM runs r ORDER BY r.started_at DESC LIMIT ?`, normLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var rr RunRow
		if err := rows.Scan(&rr.RunID, &rr.WorldID, &rr.CatalogsDigest, &rr.StartedAt, &rr.Ticks, &rr.Faults); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// Ticks returns the last limit ticks of a run, newest first.
func (r *Reader) Ticks(runID string, limit int) ([]world.TickLogEntry, error) {
	rows, err := r.db.Query(`SELECT tick,digest,agents,reaped,faults FROM ticks WHERE run_id = ? ORDER BY tick DESC LIMIT ?`,
		runID, normLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []world.TickLogEntry
	for rows.Next() {
		var e world.TickLogEntry
		var tick int64
		if err := rows.Scan(&tick, &e.Digest, &e.Agents, &e.Reaped, &e.Faults); err != nil {
			return nil, err
		}
		e.Tick = uint64(tick)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Faults returns a run's faults, newest first, optionally for one agent.
func (r *Reader) Faults(runID, agent string, limit int) ([]world.FaultEntry, error) {
	rows, err := r.db.Query(`
		SELECT tick,agent,COALESCE(name,''),COALESCE(script,''),pc,COALESCE(op,''),code,message
		FROM faults WHERE run_id = ? AND (? = '' OR agent = ?)
		ORDER BY tick DESC, seq DESC LIMIT ?`, runID, agent, agent, normLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []world.FaultEntry
	for rows.Next() {
		var f world.FaultEntry
		var tick int64
		if err := rows.Scan(&tick, &f.Agent, &f.Name, &f.Script, &f.PC, &f.Op, &f.Code, &f.Message); err != nil {
			return nil, err
		}
		f.Tick = uint64(tick)
		out = append(out, f)
	}
	return out, rows.Err()
}

func normLimit(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}
