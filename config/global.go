package config

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "github.com/cemleme/GRB-contracts/native/common"
)

// PauseMap converts the pause toggles into the runtime pause view.
func (p Pauses) PauseMap() nativecommon.Pauses {
	return nativecommon.Pauses{
		nativecommon.ModuleRefinery: p.Refinery,
		nativecommon.ModuleFleet:    p.Fleet,
		nativecommon.ModuleUpgrade:  p.Upgrade,
		nativecommon.ModuleMarket:   p.Market,
		nativecommon.ModuleStaking:  p.Staking,
	}
}

func (q Quota) runtime() nativecommon.Quota {
	return nativecommon.Quota{MaxActionsPerEpoch: q.MaxActionsPerEpoch, EpochSeconds: q.EpochSeconds}
}

// QuotaMap returns the enabled quotas keyed by module.
func (q Quotas) QuotaMap() map[string]nativecommon.Quota {
	out := make(map[string]nativecommon.Quota)
	for module, quota := range map[string]Quota{
		nativecommon.ModuleRefinery: q.Refinery,
		nativecommon.ModuleFleet:    q.Fleet,
		nativecommon.ModuleUpgrade:  q.Upgrade,
		nativecommon.ModuleMarket:   q.Market,
		nativecommon.ModuleStaking:  q.Staking,
	} {
		if rt := quota.runtime(); rt.Enabled() {
			out[module] = rt
		}
	}
	return out
}

// Treasury returns the configured treasury, or the zero address.
func (c *Config) Treasury() common.Address { return parseAddress(c.TreasuryAddress) }

// StakingVault returns the configured staking vault, or the zero address.
func (c *Config) StakingVault() common.Address { return parseAddress(c.StakingVaultAddress) }

func parseAddress(raw string) common.Address {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}
	}
	return common.HexToAddress(raw)
}
