package fleet

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Roster lists the ships an owner fielded, in insertion order.
type Roster struct {
	Owner   common.Address `json:"owner"`
	ShipIDs []uint64       `json:"shipIds"`
}

// Clone returns a deep copy of the roster.
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	clone := &Roster{Owner: r.Owner}
	clone.ShipIDs = append([]uint64(nil), r.ShipIDs...)
	return clone
}

func (r *Roster) index(id uint64) int {
	for i, existing := range r.ShipIDs {
		if existing == id {
			return i
		}
	}
	return -1
}

// Contains reports whether the roster holds the ship.
func (r *Roster) Contains(id uint64) bool { return r.index(id) >= 0 }

// Exploration is the state of an owner's fleet trip.
type Exploration struct {
	Owner          common.Address `json:"owner"`
	FleetOnExplore bool           `json:"fleetOnExplore"`
	StartedAt      int64          `json:"startedAt"`
	Distance       uint64         `json:"distance"`
}

// Params tune exploration costs and rewards.
type Params struct {
	// FuelPerDistance is the Fuel burnt per distance unit.
	FuelPerDistance uint64
	// SecondsPerDistance is the travel time per distance unit.
	SecondsPerDistance uint64
	// MineralPerMiningPoint is the Mineral found per distance unit and
	// mining speed point.
	MineralPerMiningPoint *big.Int
	// MaxDistance caps a single trip; zero disables the cap.
	MaxDistance uint64
}

// DefaultParams returns the launch exploration parameters.
func DefaultParams() Params {
	return Params{
		FuelPerDistance:       1,
		SecondsPerDistance:    1800,
		MineralPerMiningPoint: new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil),
	}
}

// Validate reports configuration errors.
func (p Params) Validate() error {
	if p.FuelPerDistance == 0 {
		return errors.New("fleet: fuel per distance must be positive")
	}
	if p.MineralPerMiningPoint == nil || p.MineralPerMiningPoint.Sign() < 0 {
		return errors.New("fleet: mineral per mining point must be non-negative")
	}
	return nil
}
