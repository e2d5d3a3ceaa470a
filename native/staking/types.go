package staking

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const day = 24 * 60 * 60

// Position is an owner's locked GRB.
type Position struct {
	Owner      common.Address `json:"owner"`
	Amount     *big.Int       `json:"amount"`
	LockPeriod uint64         `json:"lockPeriod"`
	StakedAt   int64          `json:"stakedAt"`
	UnlockAt   int64          `json:"unlockAt"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	}
	return &clone
}

// Tier is a staking discount level. The zero Tier grants nothing.
type Tier struct {
	Level          uint64   `json:"level"`
	MinStake       *big.Int `json:"minStake"`
	MinLockSeconds uint64   `json:"minLockSeconds"`
	DiscountBps    uint64   `json:"discountBps"`
}

// TierProvider resolves the discount tier of a user.
type TierProvider interface {
	TierOf(user common.Address) (Tier, error)
}

// TierFunc adapts a function into a TierProvider.
type TierFunc func(user common.Address) (Tier, error)

// TierOf implements TierProvider.
func (f TierFunc) TierOf(user common.Address) (Tier, error) { return f(user) }

// Params configure lock periods and discount tiers.
type Params struct {
	// LockPeriods are the selectable lock durations in seconds, addressed by
	// index.
	LockPeriods []uint64
	Tiers       []Tier
}

// DefaultParams returns the launch staking configuration: a 10% booster pack
// discount for at least 10 GRB locked for 30 days or more.
func DefaultParams() Params {
	return Params{
		LockPeriods: []uint64{0, 30 * day, 90 * day, 180 * day},
		Tiers: []Tier{{
			Level:          1,
			MinStake:       new(big.Int).Mul(big.NewInt(10), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)),
			MinLockSeconds: 30 * day,
			DiscountBps:    1000,
		}},
	}
}

// Validate reports configuration errors.
func (p Params) Validate() error {
	if len(p.LockPeriods) == 0 {
		return errors.New("staking: at least one lock period required")
	}
	for _, tier := range p.Tiers {
		if tier.MinStake == nil || tier.MinStake.Sign() < 0 {
			return errors.New("staking: tier min stake must be non-negative")
		}
		if tier.DiscountBps > 10_000 {
			return errors.New("staking: tier discount above 10000 bps")
		}
	}
	return nil
}
