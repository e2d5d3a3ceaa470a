package market

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/native/pricing"
)

// Params configure pack contents and market accounts.
type Params struct {
	// Treasury receives payments and sells GRB.
	Treasury common.Address
	// BoosterMineralMin and BoosterMineralMax bound the Mineral in a pack.
	BoosterMineralMin *big.Int
	BoosterMineralMax *big.Int
	// ShipChanceBps is the chance a pack also holds a ship.
	ShipChanceBps uint64
	// AllowTestMints enables the free test mints.
	AllowTestMints bool
}

// DefaultParams returns launch pack contents: 1 to 3 Mineral and a 10% ship
// chance.
func DefaultParams() Params {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return Params{
		BoosterMineralMin: new(big.Int).Set(unit),
		BoosterMineralMax: new(big.Int).Mul(unit, big.NewInt(3)),
		ShipChanceBps:     1000,
	}
}

// Validate reports configuration errors.
func (p Params) Validate() error {
	if p.BoosterMineralMin == nil || p.BoosterMineralMax == nil || p.BoosterMineralMin.Sign() < 0 {
		return errors.New("market: booster mineral range must be non-negative")
	}
	if p.BoosterMineralMax.Cmp(p.BoosterMineralMin) < 0 {
		return errors.New("market: booster mineral max below min")
	}
	if p.ShipChanceBps > pricing.MaxBps {
		return errors.New("market: ship chance above 10000 bps")
	}
	return nil
}
