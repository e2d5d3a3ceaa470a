package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	RandomnessHashChain = "hashchain"
	RandomnessEntropy   = "entropy"
)

func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	for name, raw := range map[string]string{
		"TreasuryAddress":     cfg.TreasuryAddress,
		"StakingVaultAddress": cfg.StakingVaultAddress,
	} {
		if strings.TrimSpace(raw) != "" && !common.IsHexAddress(raw) {
			return fmt.Errorf("config: %s %q is not a hex address", name, raw)
		}
	}
	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.HMACSecret) == "" {
		return fmt.Errorf("auth: HMACSecret required when auth is enabled")
	}
	if cfg.RateLimit.RequestsPerSecond < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("ratelimit: values must be non-negative")
	}
	switch cfg.Randomness.Source {
	case RandomnessHashChain:
		if strings.TrimSpace(cfg.Randomness.Seed) == "" {
			return fmt.Errorf("randomness: hashchain source needs a Seed")
		}
	case RandomnessEntropy:
	default:
		return fmt.Errorf("randomness: unknown source %q", cfg.Randomness.Source)
	}
	return nil
}
