package upgrade

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/pricing"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/native/ships"
)

var (
	errNilState  = errors.New("upgrade engine: state not configured")
	errNilShips  = errors.New("upgrade engine: ship registry not configured")
	errZeroDelta = fmt.Errorf("upgrade engine: %w: upgrade must add at least one point", nativecommon.ErrInvalidArgument)
	errNoCard    = fmt.Errorf("upgrade engine: %w: no upgrade card of that kind", nativecommon.ErrInsufficientBalance)
)

type engineState interface {
	assets.Ledger
}

type shipBook interface {
	Ship(id uint64) (*ships.Ship, error)
	ApplyStatDelta(id uint64, delta ships.Stats) (*ships.Ship, error)
}

// Params holds the magnitude band of each card tier.
type Params struct {
	Tiers []ships.Range `yaml:"tiers"`
}

// DefaultParams returns the launch card bands.
func DefaultParams() Params {
	return Params{Tiers: []ships.Range{{Min: 1, Max: 3}, {Min: 3, Max: 6}, {Min: 6, Max: 10}}}
}

// Validate reports configuration errors.
func (p Params) Validate() error {
	if uint64(len(p.Tiers)) != assets.CardsPerStat {
		return fmt.Errorf("upgrade: expected %d card tiers, got %d", assets.CardsPerStat, len(p.Tiers))
	}
	for i, band := range p.Tiers {
		if band.Min == 0 || band.Max < band.Min {
			return fmt.Errorf("upgrade: tier %d band must satisfy 1 <= min <= max", i)
		}
	}
	return nil
}

// Engine applies direct and card based ship upgrades.
type Engine struct {
	state   engineState
	ships   shipBook
	rng     randomness.Provider
	emitter events.Emitter
	params  Params
	prices  pricing.Table
}

// NewEngine constructs an upgrade engine with default parameters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		prices:  pricing.DefaultTable(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetShips configures the ship registry.
func (e *Engine) SetShips(book shipBook) { e.ships = book }

// SetRandomness configures the provider drawn by UseUpgradeCard.
func (e *Engine) SetRandomness(p randomness.Provider) { e.rng = p }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetParams replaces the card bands.
func (e *Engine) SetParams(params Params) { e.params = params }

// SetPricing replaces the price table used for direct upgrades.
func (e *Engine) SetPricing(table pricing.Table) { e.prices = table }

func (e *Engine) ready() error {
	if e.state == nil {
		return errNilState
	}
	if e.ships == nil {
		return errNilShips
	}
	return nil
}

// UpgradeShipDirect buys delta stat points with Crystal.
func (e *Engine) UpgradeShipDirect(user common.Address, shipID uint64, delta ships.Stats) (*ships.Ship, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if delta.IsZero() {
		return nil, errZeroDelta
	}
	if err := assets.RequireOwner(e.state, user, shipID); err != nil {
		return nil, err
	}
	points, err := delta.Sum()
	if err != nil {
		return nil, err
	}
	cost, err := e.prices.DirectUpgradeCost(points)
	if err != nil {
		return nil, err
	}
	if err := assets.RequireBalance(e.state, user, assets.Crystal, cost); err != nil {
		return nil, err
	}
	ship, err := e.ships.Ship(shipID)
	if err != nil {
		return nil, err
	}
	if _, err := ship.Stats.Add(delta); err != nil {
		return nil, err
	}
	if err := e.state.Debit(user, assets.Crystal, cost); err != nil {
		return nil, err
	}
	upgraded, err := e.ships.ApplyStatDelta(shipID, delta)
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ShipUpgraded{
		Owner:       user,
		ShipID:      shipID,
		Source:      "direct",
		HP:          delta.HP,
		Attack:      delta.Attack,
		MiningSpeed: delta.MiningSpeed,
		TravelSpeed: delta.TravelSpeed,
		Cost:        cost,
	})
	return upgraded, nil
}

// CardMagnitude maps a random value onto the band of a card tier.
func (e *Engine) CardMagnitude(tier uint64, r uint64) (uint64, error) {
	if tier >= uint64(len(e.params.Tiers)) {
		return 0, fmt.Errorf("upgrade engine: %w: no band for tier %d", nativecommon.ErrInvalidState, tier)
	}
	magnitude := e.params.Tiers[tier].Pick(r)
	if magnitude == 0 {
		magnitude = 1
	}
	return magnitude, nil
}

// UseUpgradeCard burns one card and raises the card's stat on the ship by a
// random amount from the card tier band. The provider is drawn exactly once.
func (e *Engine) UseUpgradeCard(user common.Address, kind assets.Kind, shipID uint64) (*ships.Ship, uint64, error) {
	if err := e.ready(); err != nil {
		return nil, 0, err
	}
	stat, tier, err := assets.CardStat(kind)
	if err != nil {
		return nil, 0, err
	}
	one := big.NewInt(1)
	if err := assets.RequireBalance(e.state, user, kind, one); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errNoCard, err)
	}
	if err := assets.RequireOwner(e.state, user, shipID); err != nil {
		return nil, 0, err
	}
	r, err := randomness.Draw(e.rng)
	if err != nil {
		return nil, 0, err
	}
	magnitude, err := e.CardMagnitude(tier, r)
	if err != nil {
		return nil, 0, err
	}
	delta := ships.Only(stat, magnitude)
	ship, err := e.ships.Ship(shipID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := ship.Stats.Add(delta); err != nil {
		return nil, 0, err
	}
	if err := e.state.Debit(user, kind, one); err != nil {
		return nil, 0, err
	}
	upgraded, err := e.ships.ApplyStatDelta(shipID, delta)
	if err != nil {
		return nil, 0, err
	}
	e.emitter.Emit(events.ShipUpgraded{
		Owner:       user,
		ShipID:      shipID,
		Source:      kind.String(),
		HP:          delta.HP,
		Attack:      delta.Attack,
		MiningSpeed: delta.MiningSpeed,
		TravelSpeed: delta.TravelSpeed,
		Cost:        new(big.Int),
	})
	return upgraded, magnitude, nil
}
