package ships

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/randomness"
)

var (
	errNilState     = errors.New("ship registry: state not configured")
	errStatOverflow = fmt.Errorf("ship registry: %w: stat overflow", nativecommon.ErrInvalidArgument)
	errZeroDelta    = fmt.Errorf("ship registry: %w: delta must touch a stat", nativecommon.ErrInvalidArgument)

	// ErrShipNotFound is returned for unknown ship ids.
	ErrShipNotFound = fmt.Errorf("ship registry: %w: ship", nativecommon.ErrNotFound)
)

type engineState interface {
	assets.Ledger
	ShipGet(id uint64) (*Ship, bool, error)
	ShipPut(ship *Ship) error
	ShipNextID() (uint64, error)
	ShipSetNextID(id uint64) error
	ShipsReceived(owner common.Address) (uint64, error)
	ShipsOwned(owner common.Address) ([]uint64, error)
}

// FleetEnlister places a freshly minted ship into its owner's fleet.
type FleetEnlister interface {
	Enlist(owner common.Address, shipID uint64) error
}

// Registry mints ships and maintains their stats.
type Registry struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	params  Params
	rng     randomness.Provider
	fleet   FleetEnlister
}

// NewRegistry constructs a registry with the default crafting bands.
func NewRegistry() *Registry {
	return &Registry{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		params:  DefaultParams(),
	}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state engineState) { r.state = state }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// SetParams replaces the crafting bands.
func (r *Registry) SetParams(params Params) { r.params = params }

// Params returns the crafting bands.
func (r *Registry) Params() Params { return r.params }

// SetRandomness configures the provider used by CreateRandomShip.
func (r *Registry) SetRandomness(p randomness.Provider) { r.rng = p }

// SetFleet configures where an owner's first ship is enlisted.
func (r *Registry) SetFleet(fleet FleetEnlister) { r.fleet = fleet }

func (r *Registry) now() int64 {
	if r == nil || r.nowFn == nil {
		return time.Now().Unix()
	}
	return r.nowFn()
}

// RollStats rolls stats inside the configured bands without drawing.
func (r *Registry) RollStats(seed uint64) Stats { return r.params.RollStats(seed) }

// CreateShip mints the next ship id to owner. The ship joins the owner's
// fleet only when it is the first ship the owner ever received.
func (r *Registry) CreateShip(owner common.Address, stats Stats) (*Ship, error) {
	if r.state == nil {
		return nil, errNilState
	}
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("ship registry: %w: owner required", nativecommon.ErrInvalidArgument)
	}
	received, err := r.state.ShipsReceived(owner)
	if err != nil {
		return nil, err
	}
	id, err := r.state.ShipNextID()
	if err != nil {
		return nil, err
	}
	if id < assets.FirstShipID {
		id = assets.FirstShipID
	}
	ship := &Ship{ID: id, Owner: owner, Stats: stats, CreatedAt: r.now()}
	if err := r.state.ShipPut(ship); err != nil {
		return nil, err
	}
	if err := r.state.MintShip(owner, id); err != nil {
		return nil, err
	}
	if err := r.state.ShipSetNextID(id + 1); err != nil {
		return nil, err
	}
	if received == 0 && r.fleet != nil {
		if err := r.fleet.Enlist(owner, id); err != nil {
			return nil, err
		}
		ship.InFleet = true
	}
	r.emitter.Emit(events.ShipCreated{
		Owner:       owner,
		ShipID:      id,
		HP:          stats.HP,
		Attack:      stats.Attack,
		MiningSpeed: stats.MiningSpeed,
		TravelSpeed: stats.TravelSpeed,
		InFleet:     ship.InFleet,
	})
	return ship, nil
}

// CreateRandomShip draws once and mints a ship rolled from that value.
func (r *Registry) CreateRandomShip(owner common.Address) (*Ship, error) {
	seed, err := randomness.Draw(r.rng)
	if err != nil {
		return nil, err
	}
	return r.CreateShip(owner, r.RollStats(seed))
}

// Ship returns the ship with its current owner.
func (r *Registry) Ship(id uint64) (*Ship, error) {
	if r.state == nil {
		return nil, errNilState
	}
	ship, ok, err := r.state.ShipGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrShipNotFound, id)
	}
	owner, owned, err := r.state.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	if owned {
		ship.Owner = owner
	}
	return ship, nil
}

// Stats returns the stats of a ship.
func (r *Registry) Stats(id uint64) (Stats, error) {
	ship, err := r.Ship(id)
	if err != nil {
		return Stats{}, err
	}
	return ship.Stats, nil
}

// ShipsOf lists the ships owned by owner.
func (r *Registry) ShipsOf(owner common.Address) ([]*Ship, error) {
	if r.state == nil {
		return nil, errNilState
	}
	ids, err := r.state.ShipsOwned(owner)
	if err != nil {
		return nil, err
	}
	out := make([]*Ship, 0, len(ids))
	for _, id := range ids {
		ship, err := r.Ship(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ship)
	}
	return out, nil
}

// ApplyStatDelta adds delta to a ship's stats.
func (r *Registry) ApplyStatDelta(id uint64, delta Stats) (*Ship, error) {
	if delta.IsZero() {
		return nil, errZeroDelta
	}
	ship, err := r.Ship(id)
	if err != nil {
		return nil, err
	}
	next, err := ship.Stats.Add(delta)
	if err != nil {
		return nil, err
	}
	ship.Stats = next
	if err := r.state.ShipPut(ship); err != nil {
		return nil, err
	}
	return ship, nil
}

// SetInFleet flips the fleet flag of a ship.
func (r *Registry) SetInFleet(id uint64, inFleet bool) error {
	ship, err := r.Ship(id)
	if err != nil {
		return err
	}
	if ship.InFleet == inFleet {
		return nil
	}
	ship.InFleet = inFleet
	return r.state.ShipPut(ship)
}
