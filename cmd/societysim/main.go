// Command societysim runs the trust-society simulation: spawns a
// population of strategy-driven agents, plays them through the configured
// epochs, reports what emerged, and stores the result.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/talgya/societysim/internal/api"
	"github.com/talgya/societysim/internal/engine"
	"github.com/talgya/societysim/internal/entropy"
	"github.com/talgya/societysim/internal/persistence"
)

func main() {
	var (
		configPath = flag.String("config", "societysim.yaml", "YAML config path (optional)")
		seed       = flag.Int64("seed", 0, "override random seed")
		fresh      = flag.Bool("fresh", false, "draw a fresh random seed instead of the configured one")
		epochs     = flag.Int("epochs", 0, "override epoch count")
		population = flag.Int("population", 0, "override population size")
		dbPath     = flag.String("db", "data/societysim.db", "SQLite path for run storage (empty disables)")
		servePort  = flag.Int("serve", 0, "serve the HTTP API on this port after the run (0 disables)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *fresh {
		cfg.Seed = entropy.NewSeed()
	}
	if *epochs != 0 {
		cfg.Epochs = *epochs
	}
	if *population != 0 {
		cfg.PopulationSize = *population
	}

	slog.Info("society simulation",
		"seed", cfg.Seed,
		"population", cfg.PopulationSize,
		"epochs", cfg.Epochs,
		"rounds_per_epoch", cfg.RoundsPerEpoch,
		"topology", cfg.Topology,
	)

	result, err := engine.Run(cfg)
	if err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	final := result.FinalMetrics()
	slog.Info("run complete",
		"alive", final.AliveCount,
		"avg_trust", fmt.Sprintf("%.3f", final.AverageTrust),
		"cooperation", fmt.Sprintf("%.3f", final.CooperationRate),
		"coalitions", final.NumCoalitions,
		"gini", fmt.Sprintf("%.3f", final.GiniCoefficient),
		"events", len(result.Events),
	)

	// Recount notable events for the closing summary.
	counts := make(map[engine.EventType]int)
	for _, e := range result.Events {
		counts[e.Type]++
	}
	fmt.Printf("\n%s agents survived %s epochs; %s events recorded ",
		humanize.Comma(int64(final.AliveCount)),
		humanize.Comma(int64(len(result.Epochs))),
		humanize.Comma(int64(len(result.Events))),
	)
	fmt.Printf("(%d deaths, %d rebirths, %d coalitions formed)\n",
		counts[engine.EventAgentDeath],
		counts[engine.EventAgentRebirth],
		counts[engine.EventCoalitionFormed],
	)
	for _, e := range result.Events {
		if e.Significance == engine.SignificanceHigh {
			fmt.Printf("  epoch %d: %s\n", e.Epoch, e.Message)
		}
	}

	var (
		db    *persistence.DB
		runID string
	)
	if *dbPath != "" {
		db, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		runID, err = db.SaveResult(result)
		if err != nil {
			slog.Error("failed to save run", "error", err)
			os.Exit(1)
		}
	}

	if *servePort > 0 {
		server := &api.Server{
			Result: result,
			RunID:  runID,
			DB:     db,
			Cfg:    cfg,
			Port:   *servePort,
		}
		slog.Info("serving results", "port", *servePort)
		fmt.Printf("\nAPI: http://localhost:%d/api/v1/status (Ctrl+C to stop)\n", *servePort)

		// Serve in the foreground; Server.Start is for embedding.
		if err := http.ListenAndServe(fmt.Sprintf(":%d", *servePort), server.Handler()); err != nil {
			slog.Error("api server stopped", "error", err)
			os.Exit(1)
		}
	}
}
