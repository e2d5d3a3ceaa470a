package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cemleme/GRB-contracts/config"
	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/observability"
	"github.com/cemleme/GRB-contracts/observability/logging"
	"github.com/cemleme/GRB-contracts/observability/otel"
	"github.com/cemleme/GRB-contracts/rpc"
	"github.com/cemleme/GRB-contracts/storage"
	"github.com/cemleme/GRB-contracts/storage/journal"
)

func main() {
	configFile := flag.String("config", "./spaced.toml", "Path to the configuration file")
	economyFlag := flag.String("economy", "", "Path to an economy YAML file (overrides EconomyFile)")
	flag.Parse()

	if err := run(*configFile, *economyFlag); err != nil {
		slog.Error("spaced stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath, economyOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Configure(logging.Options{
		Service: "spaced",
		Env:     cfg.Environment,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := otel.Init(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	economyPath := cfg.EconomyFile
	if economyOverride != "" {
		economyPath = economyOverride
	}
	economy, err := config.LoadEconomy(economyPath)
	if err != nil {
		return fmt.Errorf("load economy: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("prepare data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	j, err := journal.Open(cfg.JournalPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	bus := events.NewBus()
	game, err := newGame(cfg, db, economy, logger)
	if err != nil {
		return err
	}
	game.SetEmitter(events.Multi{bus, j, observability.Events()})

	server := rpc.NewServer(game, j, bus, serverConfig(cfg), logger)
	logger.Info("spaced starting",
		slog.String("listen", cfg.ListenAddress),
		slog.String("data_dir", cfg.DataDir),
		slog.String("randomness", cfg.Randomness.Source))
	return server.ListenAndServe(ctx, cfg.ListenAddress)
}
