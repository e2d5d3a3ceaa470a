package main

import (
	"log/slog"
	"time"

	"github.com/cemleme/GRB-contracts/config"
	"github.com/cemleme/GRB-contracts/core"
	"github.com/cemleme/GRB-contracts/gateway/middleware"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/observability/otel"
	"github.com/cemleme/GRB-contracts/rpc"
	"github.com/cemleme/GRB-contracts/storage"
)

func newGame(cfg *config.Config, db storage.Database, economy config.Economy, logger *slog.Logger) (*core.Game, error) {
	game, err := core.NewGame(db, economy)
	if err != nil {
		return nil, err
	}
	game.SetLogger(logger)
	game.SetRandomness(newRandomness(cfg.Randomness))
	game.SetPauses(cfg.Pauses.PauseMap())
	game.SetQuotas(cfg.Quotas.QuotaMap())
	game.SetTreasury(cfg.Treasury())
	game.SetStakingVault(cfg.StakingVault())
	game.SetAllowTestMints(cfg.AllowTestMints)
	return game, nil
}

func newRandomness(cfg config.Randomness) randomness.Provider {
	if cfg.Source == config.RandomnessEntropy {
		return randomness.Entropy{}
	}
	return randomness.NewHashChain([]byte(cfg.Seed))
}

func serverConfig(cfg *config.Config) rpc.ServerConfig {
	return rpc.ServerConfig{
		Auth: middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
		},
		AdminScope: cfg.Auth.AdminScope,
		RateLimit: middleware.RateLimit{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		LogRequests: cfg.LogLevel == "debug",
	}
}

func telemetryConfig(cfg *config.Config) otel.Config {
	return otel.Config{
		ServiceName: "spaced",
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     otel.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		Interval:    15 * time.Second,
	}
}
