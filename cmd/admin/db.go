package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentworld.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	runID := fs.String("run", "", "run id (ticks, faults; defaults to the latest run)")
	agent := fs.String("agent", "", "agent filter (faults), e.g. 3:1")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	r, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer r.Close()

	if q != "runs" && *runID == "" {
		runs, err := r.Runs(1)
		if err != nil {
			fmt.Fprintln(os.Stderr, "latest run:", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "no runs found")
			os.Exit(2)
		}
		*runID = runs[0].RunID
	}

	switch q {
	case "runs":
		runs, err := r.Runs(*limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, rr := range runs {
			printJSON(rr)
		}
	case "ticks":
		ticks, err := r.Ticks(*runID, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, t := range ticks {
			printJSON(t)
		}
	case "faults":
		faults, err := r.Faults(*runID, *agent, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, f := range faults {
			printJSON(f)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (want runs|ticks|faults)\n", q)
		os.Exit(2)
	}
}
