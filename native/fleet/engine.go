package fleet

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/ships"
)

var (
	errNilState      = errors.New("fleet manager: state not configured")
	errNilShips      = errors.New("fleet manager: ship registry not configured")
	errExploring     = fmt.Errorf("fleet manager: %w: fleet is exploring", nativecommon.ErrInvalidState)
	errNotExploring  = fmt.Errorf("fleet manager: %w: fleet is not exploring", nativecommon.ErrInvalidState)
	errAlreadyListed = fmt.Errorf("fleet manager: %w: ship already in a fleet", nativecommon.ErrInvalidState)
	errNotListed     = fmt.Errorf("fleet manager: %w: ship not in fleet", nativecommon.ErrInvalidState)
	errEmptyFleet    = fmt.Errorf("fleet manager: %w: fleet is empty", nativecommon.ErrInvalidState)
	errNotArrived    = fmt.Errorf("fleet manager: %w: exploration still underway", nativecommon.ErrInvalidState)
	errBadDistance   = fmt.Errorf("fleet manager: %w: distance out of range", nativecommon.ErrInvalidArgument)
)

type engineState interface {
	assets.Ledger
	FleetRosterGet(owner common.Address) (*Roster, error)
	FleetRosterPut(roster *Roster) error
	FleetExplorationGet(owner common.Address) (*Exploration, bool, error)
	FleetExplorationPut(exploration *Exploration) error
}

type shipBook interface {
	Ship(id uint64) (*ships.Ship, error)
	SetInFleet(id uint64, inFleet bool) error
}

// Manager owns fleet rosters and exploration trips.
type Manager struct {
	state   engineState
	ships   shipBook
	emitter events.Emitter
	nowFn   func() int64
	params  Params
}

// NewManager constructs a fleet manager with default parameters.
func NewManager() *Manager {
	return &Manager{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		params:  DefaultParams(),
	}
}

// SetState configures the state backend used by the manager.
func (m *Manager) SetState(state engineState) { m.state = state }

// SetShips configures the registry holding ship records.
func (m *Manager) SetShips(book shipBook) { m.ships = book }

// SetEmitter configures the event emitter used by the manager.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (m *Manager) SetNowFunc(now func() int64) {
	if now == nil {
		m.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	m.nowFn = now
}

// SetParams replaces the exploration parameters.
func (m *Manager) SetParams(params Params) { m.params = params }

func (m *Manager) now() int64 {
	if m == nil || m.nowFn == nil {
		return time.Now().Unix()
	}
	return m.nowFn()
}

func (m *Manager) ready() error {
	if m.state == nil {
		return errNilState
	}
	if m.ships == nil {
		return errNilShips
	}
	return nil
}

func (m *Manager) exploring(owner common.Address) (bool, error) {
	exploration, ok, err := m.state.FleetExplorationGet(owner)
	if err != nil || !ok {
		return false, err
	}
	return exploration.FleetOnExplore, nil
}

// AddShipToFleet adds an owned ship to the owner's fleet.
func (m *Manager) AddShipToFleet(user common.Address, shipID uint64) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := assets.RequireOwner(m.state, user, shipID); err != nil {
		return err
	}
	ship, err := m.ships.Ship(shipID)
	if err != nil {
		return err
	}
	if ship.InFleet {
		return errAlreadyListed
	}
	busy, err := m.exploring(user)
	if err != nil {
		return err
	}
	if busy {
		return errExploring
	}
	roster, err := m.state.FleetRosterGet(user)
	if err != nil {
		return err
	}
	if roster.Contains(shipID) {
		return errAlreadyListed
	}
	roster.ShipIDs = append(roster.ShipIDs, shipID)
	if err := m.state.FleetRosterPut(roster); err != nil {
		return err
	}
	if err := m.ships.SetInFleet(shipID, true); err != nil {
		return err
	}
	m.emitter.Emit(events.FleetShipAdded{User: user, ShipID: shipID})
	return nil
}

// Enlist implements ships.FleetEnlister.
func (m *Manager) Enlist(owner common.Address, shipID uint64) error {
	return m.AddShipToFleet(owner, shipID)
}

// RemoveShipFromFleet takes a ship out of the owner's fleet.
func (m *Manager) RemoveShipFromFleet(user common.Address, shipID uint64) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := assets.RequireOwner(m.state, user, shipID); err != nil {
		return err
	}
	roster, err := m.state.FleetRosterGet(user)
	if err != nil {
		return err
	}
	idx := roster.index(shipID)
	if idx < 0 {
		return errNotListed
	}
	busy, err := m.exploring(user)
	if err != nil {
		return err
	}
	if busy {
		return errExploring
	}
	roster.ShipIDs = append(roster.ShipIDs[:idx], roster.ShipIDs[idx+1:]...)
	if err := m.state.FleetRosterPut(roster); err != nil {
		return err
	}
	if err := m.ships.SetInFleet(shipID, false); err != nil {
		return err
	}
	m.emitter.Emit(events.FleetShipRemoved{User: user, ShipID: shipID})
	return nil
}

// FuelFor returns the Fuel a trip of distance burns.
func (m *Manager) FuelFor(distance uint64) (*big.Int, error) {
	if distance == 0 || (m.params.MaxDistance > 0 && distance > m.params.MaxDistance) {
		return nil, errBadDistance
	}
	fuel := new(big.Int).SetUint64(distance)
	return fuel.Mul(fuel, new(big.Int).SetUint64(m.params.FuelPerDistance)), nil
}

// Explore sends the owner's fleet out, burning Fuel and locking the roster
// until the trip completes.
func (m *Manager) Explore(user common.Address, distance uint64) (*Exploration, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	fuel, err := m.FuelFor(distance)
	if err != nil {
		return nil, err
	}
	busy, err := m.exploring(user)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, errExploring
	}
	roster, err := m.state.FleetRosterGet(user)
	if err != nil {
		return nil, err
	}
	if len(roster.ShipIDs) == 0 {
		return nil, errEmptyFleet
	}
	if err := assets.RequireBalance(m.state, user, assets.Fuel, fuel); err != nil {
		return nil, err
	}
	if err := m.state.Debit(user, assets.Fuel, fuel); err != nil {
		return nil, err
	}
	exploration := &Exploration{
		Owner:          user,
		FleetOnExplore: true,
		StartedAt:      m.now(),
		Distance:       distance,
	}
	if err := m.state.FleetExplorationPut(exploration); err != nil {
		return nil, err
	}
	m.emitter.Emit(events.FleetExploreStarted{
		User:      user,
		Distance:  distance,
		FuelSpent: fuel,
		Ships:     len(roster.ShipIDs),
		StartedAt: exploration.StartedAt,
	})
	return exploration, nil
}

// ArrivalTime returns when an exploration can be completed.
func (m *Manager) ArrivalTime(exploration *Exploration) int64 {
	if exploration == nil {
		return 0
	}
	if m.params.SecondsPerDistance > 0 && exploration.Distance > math.MaxInt64/m.params.SecondsPerDistance {
		return math.MaxInt64
	}
	travel := int64(exploration.Distance * m.params.SecondsPerDistance)
	if exploration.StartedAt > math.MaxInt64-travel {
		return math.MaxInt64
	}
	return exploration.StartedAt + travel
}

// CompleteExploration returns the fleet home and credits the Mineral it
// mined on the way.
func (m *Manager) CompleteExploration(user common.Address) (*big.Int, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	exploration, ok, err := m.state.FleetExplorationGet(user)
	if err != nil {
		return nil, err
	}
	if !ok || !exploration.FleetOnExplore {
		return nil, errNotExploring
	}
	now := m.now()
	if now < m.ArrivalTime(exploration) {
		return nil, errNotArrived
	}
	roster, err := m.state.FleetRosterGet(user)
	if err != nil {
		return nil, err
	}
	mining := new(big.Int)
	for _, id := range roster.ShipIDs {
		ship, err := m.ships.Ship(id)
		if err != nil {
			return nil, err
		}
		mining.Add(mining, new(big.Int).SetUint64(ship.Stats.MiningSpeed))
	}
	reward := new(big.Int).SetUint64(exploration.Distance)
	reward.Mul(reward, mining)
	if m.params.MineralPerMiningPoint != nil {
		reward.Mul(reward, m.params.MineralPerMiningPoint)
	} else {
		reward.SetInt64(0)
	}
	if reward.Sign() > 0 {
		if err := m.state.Credit(user, assets.Mineral, reward); err != nil {
			return nil, err
		}
	}
	exploration.FleetOnExplore = false
	if err := m.state.FleetExplorationPut(exploration); err != nil {
		return nil, err
	}
	m.emitter.Emit(events.FleetExploreCompleted{
		User:          user,
		Distance:      exploration.Distance,
		MineralReward: reward,
		CompletedAt:   now,
	})
	return reward, nil
}

// Fleet returns the ids in the owner's fleet.
func (m *Manager) Fleet(user common.Address) ([]uint64, error) {
	if m.state == nil {
		return nil, errNilState
	}
	roster, err := m.state.FleetRosterGet(user)
	if err != nil {
		return nil, err
	}
	return append([]uint64(nil), roster.ShipIDs...), nil
}

// IsOnFleet reports whether the ship is currently in any fleet.
func (m *Manager) IsOnFleet(shipID uint64) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	ship, err := m.ships.Ship(shipID)
	if err != nil {
		return false, err
	}
	return ship.InFleet, nil
}

// Exploration returns the owner's trip record, if any.
func (m *Manager) Exploration(user common.Address) (*Exploration, bool, error) {
	if m.state == nil {
		return nil, false, errNilState
	}
	return m.state.FleetExplorationGet(user)
}
