package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"agentworld.ai/internal/persistence/indexdb"
	persistlog "agentworld.ai/internal/persistence/log"
	"agentworld.ai/internal/sim/catalogs"
	"agentworld.ai/internal/sim/tuning"
	"agentworld.ai/internal/sim/world"
)

func main() {
	var (
		worldID    = flag.String("world", "world_1", "world id")
		configDir  = flag.String("configs", "./configs", "config directory (map.json, agents.json)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		ticks      = flag.Uint64("ticks", 0, "stop after this many ticks (0: run until interrupted)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick/fault index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	cfg := tune.WorldConfig(*worldID)
	cfg.StopAfterTicks = *ticks
	cfg.Logger = log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds)
	w := world.New(cfg)
	built, err := catalogs.Build(w, cats)
	if err != nil {
		logger.Fatalf("build world: %v", err)
	}
	logger.Printf("world=%s run=%s metarooms=%d rooms=%d agents=%d catalogs=%s",
		w.ID(), w.RunID(), len(built.MetaRooms), len(built.Rooms), len(built.Agents), cats.Digest()[:12])

	worldDir := filepath.Join(*dataDir, "worlds", w.ID())
	runDir := filepath.Join(worldDir, "runs", w.RunID())
	if err := persistlog.WriteRunMeta(runDir, persistlog.RunMeta{
		WorldID:        w.ID(),
		RunID:          w.RunID(),
		CatalogsDigest: cats.Digest(),
		StartedAt:      time.Now().UTC().Format(time.RFC3339Nano),
		Tuning:         tune,
	}); err != nil {
		logger.Fatalf("write run meta: %v", err)
	}

	var ticksOut multiTickLogger
	var faultsOut multiFaultLogger

	if tune.Journal.Enabled {
		tickLog := persistlog.NewTickLogger(runDir, tune.Journal.ZstdLevel)
		faultLog := persistlog.NewFaultLogger(runDir, tune.Journal.ZstdLevel)
		defer tickLog.Close()
		defer faultLog.Close()
		ticksOut = append(ticksOut, tickLog)
		faultsOut = append(faultsOut, faultLog)
	}

	if tune.Index.Enabled && !*disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"), w.RunID(), tune.Index.QueueSize)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer func() {
			st := idx.Stats()
			if st.DropTickTotal > 0 || st.DropFaultTotal > 0 {
				logger.Printf("index dropped ticks=%d faults=%d", st.DropTickTotal, st.DropFaultTotal)
			}
			_ = idx.Close()
		}()
		if err := idx.RecordRun(w.ID(), *configDir, cats, tune); err != nil {
			logger.Printf("index: record run: %v", err)
		}
		ticksOut = append(ticksOut, idx)
		faultsOut = append(faultsOut, idx)
	}

	w.SetTickLogger(ticksOut)
	w.SetFaultLogger(faultsOut)

	ctx, cancel := signalContext()
	defer cancel()

	logger.Printf("running at %d Hz", w.TickRateHz())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("world stopped: %v", err)
	}
	logger.Printf("stopped at tick=%d agents=%d faults=%d", w.CurrentTick(), w.AgentCount(), len(w.Faults()))
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	var errs []error
	for _, l := range m {
		if err := l.WriteTick(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type multiFaultLogger []world.FaultLogger

func (m multiFaultLogger) WriteFault(entry world.FaultEntry) error {
	var errs []error
	for _, l := range m {
		if err := l.WriteFault(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
