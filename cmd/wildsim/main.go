// Command wildsim runs the Wildmere colony simulation.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ferune/wildmere/internal/api"
	"github.com/ferune/wildmere/internal/cognition"
	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/engine"
	"github.com/ferune/wildmere/internal/persistence"
	"github.com/ferune/wildmere/internal/telemetry"
	"github.com/ferune/wildmere/internal/world"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config overlay (empty = embedded defaults)")
		dbPath      = flag.String("db", "data/wildmere.db", "SQLite run database (empty = no persistence)")
		snapDir     = flag.String("snapshots", "data", "directory for snapshot exports")
		inspectPath = flag.String("inspect", "", "print a summary of an exported snapshot and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *inspectPath != "" {
		inspectSnapshot(*inspectPath)
		return
	}

	slog.Info("Wildmere — colony decision core")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	// ── Cognition provider ───────────────────────────────────────────
	var provider cognition.Provider
	if cfg.Cognition.Endpoint != "" {
		apiKey := os.Getenv(cfg.Cognition.APIKeyEnv)
		p := cognition.NewHTTPProvider(cfg.Cognition.Endpoint, apiKey,
			cfg.CognitionTimeout(), cfg.Cognition.MaxPerMin)
		if p != nil {
			provider = p
			slog.Info("cognition provider enabled", "endpoint", cfg.Cognition.Endpoint)
		}
	}
	if provider == nil {
		slog.Info("cognition provider disabled, settlers run rule-based only")
	}

	// ── World and simulation ─────────────────────────────────────────
	sim, err := engine.NewSim(cfg, provider)
	if err != nil {
		slog.Error("simulation setup failed", "error", err)
		os.Exit(1)
	}

	for t, c := range world.TerrainCounts(sim.Grid) {
		slog.Info("terrain", "type", world.TerrainName(t), "count", c)
	}

	// ── Persistence ──────────────────────────────────────────────────
	var store *persistence.Store
	if *dbPath != "" {
		os.MkdirAll(filepath.Dir(*dbPath), 0755)
		store, err = persistence.Open(*dbPath, cfg.World.Seed)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		slog.Info("database opened", "path", *dbPath, "run", store.RunID)
	}

	// ── Telemetry ────────────────────────────────────────────────────
	var collector *telemetry.Collector
	if cfg.Telemetry.Enabled {
		collector = telemetry.NewCollector()
	}

	// ── Tick runner ──────────────────────────────────────────────────
	runner := engine.NewRunner(
		uint64(cfg.Tick.TicksPerHour),
		uint64(cfg.Tick.TicksPerDay),
		cfg.TickInterval(),
	)
	runner.SetSpeed(cfg.Tick.Speed)

	runner.OnTick = sim.Tick
	runner.OnHour = sim.Hour
	runner.OnDay = sim.Day

	var recordMark uint64
	sim.OnDayExtra = func(tick uint64) {
		if collector != nil {
			collector.Sample(sim, tick)
			if err := collector.WriteCSV(cfg.Telemetry.Path); err != nil {
				slog.Error("telemetry write failed", "error", err)
			}
		}
		if store != nil {
			fresh, mark := sim.Records.RecentSince(recordMark)
			recordMark = mark
			if err := store.SaveCheckpoint(sim, tick, fresh); err != nil {
				slog.Error("daily save failed", "error", err)
			}
		}
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.API.Port > 0 {
		adminKey := os.Getenv("WILDSIM_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("WILDSIM_ADMIN_KEY not set, admin POST endpoints disabled")
		}
		srv := &api.Server{
			Sim:      sim,
			Runner:   runner,
			Store:    store,
			Port:     cfg.API.Port,
			AdminKey: adminKey,
		}
		srv.Start()
	}

	// ── Run until signalled ──────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutdown signal received")
		runner.Stop()
	}()

	runner.Run()

	// Final export before exit.
	if *snapDir != "" {
		os.MkdirAll(*snapDir, 0755)
		runID := "local"
		if store != nil {
			runID = store.RunID
		}
		path := filepath.Join(*snapDir, "final-"+time.Now().UTC().Format("20060102-150405")+".json.zst")
		if err := persistence.ExportSnapshot(path, runID, sim, runner.Tick()); err != nil {
			slog.Error("snapshot export failed", "error", err)
		} else {
			slog.Info("snapshot exported", "path", path)
		}
	}
	if store != nil {
		if err := store.SaveCheckpoint(sim, runner.Tick(), nil); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}
}

// inspectSnapshot loads an exported run snapshot and reports its contents.
func inspectSnapshot(path string) {
	snap, err := persistence.ImportSnapshot(path)
	if err != nil {
		slog.Error("snapshot load failed", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("snapshot",
		"path", path,
		"run", snap.RunID,
		"tick", snap.Tick,
		"world", snap.World.Width*snap.World.Height,
		"agents", len(snap.Agents),
		"records", len(snap.Records),
		"births", snap.Stats.Births,
		"deaths", snap.Stats.Deaths,
		"departures", snap.Stats.Departures,
	)
	bySpecies := make(map[string]int)
	for _, a := range snap.Agents {
		bySpecies[a.Species]++
	}
	for sp, n := range bySpecies {
		slog.Info("population", "species", sp, "count", n)
	}
}
