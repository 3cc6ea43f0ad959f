package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "agentworld.ai/internal/persistence/log"
	"agentworld.ai/internal/sim/catalogs"
	"agentworld.ai/internal/sim/vm"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		case "check":
			checkCmd(os.Args[2:])
			return
		case "opcodes":
			for _, n := range vm.Builtins().Names() {
				fmt.Println(n)
			}
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints worlds, or a world's runs when -world is given.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID, "runs")
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if *worldID == "" {
			fmt.Println(e.Name())
			continue
		}
		meta, err := persistlog.ReadRunMeta(filepath.Join(base, e.Name()))
		if err != nil {
			fmt.Printf("%s\t(no run meta: %v)\n", e.Name(), err)
			continue
		}
		fmt.Printf("%s\tstarted=%s catalogs=%s\n", meta.RunID, meta.StartedAt, shortDigest(meta.CatalogsDigest))
	}
}

// journalCmd dumps a run's tick or fault journal as JSON lines.
func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	runDir := fs.String("run", "", "run directory (required)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*runDir) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}
	what := "faults"
	if fs.NArg() > 0 {
		what = strings.TrimSpace(fs.Arg(0))
	}

	switch what {
	case "ticks":
		entries, err := persistlog.ReadTicks(*runDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read ticks:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			printJSON(e)
		}
	case "faults":
		entries, err := persistlog.ReadFaults(*runDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read faults:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			printJSON(e)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown journal %q (want ticks|faults)\n", what)
		os.Exit(2)
	}
}

// checkCmd validates a config directory without running it.
func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configDir := fs.String("configs", "./configs", "config directory")
	_ = fs.Parse(args)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	reg := vm.Builtins()
	for _, a := range cats.Agents.Agents {
		for _, def := range []*catalogs.ScriptDef{a.Script, a.ClickScript} {
			if def == nil {
				continue
			}
			s, err := def.Compile()
			if err == nil {
				err = reg.Check(s)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "agent %q: %v\n", a.Name, err)
				os.Exit(1)
			}
		}
	}
	fmt.Printf("ok: metarooms=%d agents=%d digest=%s\n", len(cats.Map.MetaRooms), len(cats.Agents.Agents), shortDigest(cats.Digest()))
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
