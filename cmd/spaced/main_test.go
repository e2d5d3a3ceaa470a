package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/config"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/storage"
)

func TestNewRandomnessSelectsSource(t *testing.T) {
	_, ok := newRandomness(config.Randomness{Source: config.RandomnessEntropy}).(randomness.Entropy)
	require.True(t, ok)
	_, ok = newRandomness(config.Default().Randomness).(randomness.Entropy)
	require.True(t, ok)

	first := newRandomness(config.Randomness{Source: config.RandomnessHashChain, Seed: "seed"})
	second := newRandomness(config.Randomness{Source: config.RandomnessHashChain, Seed: "seed"})
	a, err := first.RequestRandom()
	require.NoError(t, err)
	b, err := second.RequestRandom()
	require.NoError(t, err)
	require.Equal(t, a, b)
	_, ok = first.(randomness.Cursor)
	require.True(t, ok)
}

func TestServerConfigFromNodeConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Auth.HMACSecret = "s3cret"
	cfg.Auth.AdminScope = "ops"

	out := serverConfig(cfg)
	require.True(t, out.Auth.Enabled)
	require.Equal(t, "s3cret", out.Auth.HMACSecret)
	require.Equal(t, "ops", out.AdminScope)
	require.Equal(t, cfg.RateLimit.Burst, out.RateLimit.Burst)
}

func TestNewGameAppliesConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "spaced.toml"))
	require.NoError(t, err)
	cfg.Pauses.Market = true

	game, err := newGame(cfg, storage.NewMemDB(), config.DefaultEconomy(), nil)
	require.NoError(t, err)
	require.True(t, game.Economy().Market.AllowTestMints)
}

func TestTelemetryDisabledByDefault(t *testing.T) {
	require.False(t, telemetryConfig(config.Default()).Enabled())
}
