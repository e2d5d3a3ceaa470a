package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultListenAddress = ":8547"
	DefaultDataDir       = "./space-data"
	DefaultEnvironment   = "local"
)

type Config struct {
	ListenAddress       string `toml:"ListenAddress"`
	DataDir             string `toml:"DataDir"`
	JournalPath         string `toml:"JournalPath"`
	EconomyFile         string `toml:"EconomyFile"`
	Environment         string `toml:"Environment"`
	LogLevel            string `toml:"LogLevel"`
	LogFile             string `toml:"LogFile"`
	AllowTestMints      bool   `toml:"AllowTestMints"`
	TreasuryAddress     string `toml:"TreasuryAddress"`
	StakingVaultAddress string `toml:"StakingVaultAddress"`

	Auth       Auth       `toml:"auth"`
	RateLimit  RateLimit  `toml:"ratelimit"`
	Pauses     Pauses     `toml:"pauses"`
	Quotas     Quotas     `toml:"quotas"`
	Randomness Randomness `toml:"randomness"`
	Telemetry  Telemetry  `toml:"telemetry"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %q", path, undecoded[0].String())
	}
	applyDefaults(cfg)
	if env := strings.TrimSpace(cfg.Auth.HMACSecretEnv); env != "" {
		if secret := os.Getenv(env); secret != "" {
			cfg.Auth.HMACSecret = secret
		}
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(cfg.JournalPath) == "" {
		cfg.JournalPath = filepath.Join(cfg.DataDir, "events.db")
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = DefaultEnvironment
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.Auth.AdminScope) == "" {
		cfg.Auth.AdminScope = "game:admin"
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 40
	}
	if strings.TrimSpace(cfg.Randomness.Source) == "" {
		cfg.Randomness.Source = RandomnessEntropy
	}
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	cfg := &Config{
		AllowTestMints: true,
	}
	applyDefaults(cfg)
	cfg.JournalPath = ""
	return cfg
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
