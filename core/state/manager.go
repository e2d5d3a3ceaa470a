package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/fleet"
	"github.com/cemleme/GRB-contracts/native/refinery"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/native/staking"
)

var errNegativeAmount = fmt.Errorf("state: %w: amount must be non-negative", nativecommon.ErrInvalidArgument)

// Manager persists game records as rlp values under keccak hashed keys. It
// implements the ledger and every engine state interface.
type Manager struct {
	kv KV
}

// NewManager creates a state manager over kv.
func NewManager(kv KV) *Manager {
	return &Manager{kv: kv}
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	return m.kv.Put(key, encoded)
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	data, err := m.kv.Get(key)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode: %w", err)
	}
	return true, nil
}

func (m *Manager) del(key []byte) error {
	err := m.kv.Delete(key)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func toUnix(v uint64) int64 {
	if v > uint64(1<<63-1) {
		return 1<<63 - 1
	}
	return int64(v)
}

func fromUnix(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// BalanceOf returns the owner's balance of kind.
func (m *Manager) BalanceOf(owner common.Address, kind assets.Kind) (*big.Int, error) {
	balance := new(big.Int)
	if _, err := m.get(balanceKey(owner, uint64(kind)), balance); err != nil {
		return nil, err
	}
	return balance, nil
}

func (m *Manager) setBalance(owner common.Address, kind assets.Kind, amount *big.Int) error {
	key := balanceKey(owner, uint64(kind))
	if amount.Sign() == 0 {
		return m.del(key)
	}
	return m.put(key, amount)
}

// Credit adds amount of kind to owner.
func (m *Manager) Credit(owner common.Address, kind assets.Kind, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := m.BalanceOf(owner, kind)
	if err != nil {
		return err
	}
	return m.setBalance(owner, kind, balance.Add(balance, amount))
}

// Debit removes amount of kind from owner, refusing to go negative.
func (m *Manager) Debit(owner common.Address, kind assets.Kind, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := m.BalanceOf(owner, kind)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", assets.ErrInsufficientBalance, kind, balance, amount)
	}
	return m.setBalance(owner, kind, balance.Sub(balance, amount))
}

// OwnerOf returns the owner of a ship.
func (m *Manager) OwnerOf(shipID uint64) (common.Address, bool, error) {
	var owner common.Address
	ok, err := m.get(shipOwnerKey(shipID), &owner)
	return owner, ok, err
}

// MintShip records a new ship owned by owner.
func (m *Manager) MintShip(owner common.Address, shipID uint64) error {
	if _, ok, err := m.OwnerOf(shipID); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("state: %w: ship %d already minted", nativecommon.ErrInvalidState, shipID)
	}
	if err := m.put(shipOwnerKey(shipID), owner); err != nil {
		return err
	}
	return m.receive(owner, shipID)
}

func (m *Manager) receive(owner common.Address, shipID uint64) error {
	owned, err := m.ShipsOwned(owner)
	if err != nil {
		return err
	}
	if err := m.put(shipsOwnedKey(owner), append(owned, shipID)); err != nil {
		return err
	}
	received, err := m.ShipsReceived(owner)
	if err != nil {
		return err
	}
	return m.put(shipsReceivedKey(owner), received+1)
}

// TransferShip moves a ship that is not fielded in a fleet.
func (m *Manager) TransferShip(from, to common.Address, shipID uint64) error {
	owner, ok, err := m.OwnerOf(shipID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("state: %w: ship %d", nativecommon.ErrNotFound, shipID)
	}
	if owner != from {
		return fmt.Errorf("state: %w: ship %d", nativecommon.ErrNotOwner, shipID)
	}
	ship, ok, err := m.ShipGet(shipID)
	if err != nil {
		return err
	}
	if ok && ship.InFleet {
		return fmt.Errorf("state: %w: ship %d is in a fleet", nativecommon.ErrInvalidState, shipID)
	}
	owned, err := m.ShipsOwned(from)
	if err != nil {
		return err
	}
	kept := owned[:0]
	for _, id := range owned {
		if id != shipID {
			kept = append(kept, id)
		}
	}
	if err := m.put(shipsOwnedKey(from), kept); err != nil {
		return err
	}
	if err := m.put(shipOwnerKey(shipID), to); err != nil {
		return err
	}
	return m.receive(to, shipID)
}

type shipRecord struct {
	ID          uint64
	HP          uint64
	Attack      uint64
	MiningSpeed uint64
	TravelSpeed uint64
	InFleet     bool
	CreatedAt   uint64
}

// ShipGet loads a ship together with its current owner.
func (m *Manager) ShipGet(id uint64) (*ships.Ship, bool, error) {
	var rec shipRecord
	ok, err := m.get(shipKey(id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	owner, _, err := m.OwnerOf(id)
	if err != nil {
		return nil, false, err
	}
	return &ships.Ship{
		ID:    rec.ID,
		Owner: owner,
		Stats: ships.Stats{
			HP:          rec.HP,
			Attack:      rec.Attack,
			MiningSpeed: rec.MiningSpeed,
			TravelSpeed: rec.TravelSpeed,
		},
		InFleet:   rec.InFleet,
		CreatedAt: toUnix(rec.CreatedAt),
	}, true, nil
}

// ShipPut stores a ship record. Ownership is kept by the ledger.
func (m *Manager) ShipPut(ship *ships.Ship) error {
	if ship == nil {
		return errors.New("state: nil ship")
	}
	return m.put(shipKey(ship.ID), shipRecord{
		ID:          ship.ID,
		HP:          ship.Stats.HP,
		Attack:      ship.Stats.Attack,
		MiningSpeed: ship.Stats.MiningSpeed,
		TravelSpeed: ship.Stats.TravelSpeed,
		InFleet:     ship.InFleet,
		CreatedAt:   fromUnix(ship.CreatedAt),
	})
}

// ShipNextID returns the id the next minted ship receives.
func (m *Manager) ShipNextID() (uint64, error) {
	var next uint64
	ok, err := m.get(shipNextIDKey, &next)
	if err != nil {
		return 0, err
	}
	if !ok || next < assets.FirstShipID {
		return assets.FirstShipID, nil
	}
	return next, nil
}

// ShipSetNextID advances the ship id counter.
func (m *Manager) ShipSetNextID(id uint64) error { return m.put(shipNextIDKey, id) }

// RandomnessPosition returns how many values the stored randomness stream
// has produced.
func (m *Manager) RandomnessPosition() (uint64, error) {
	var position uint64
	_, err := m.get(randomnessPositionKey, &position)
	return position, err
}

func (m *Manager) SetRandomnessPosition(position uint64) error {
	return m.put(randomnessPositionKey, position)
}

// ShipsReceived counts the ships owner ever received.
func (m *Manager) ShipsReceived(owner common.Address) (uint64, error) {
	var count uint64
	_, err := m.get(shipsReceivedKey(owner), &count)
	return count, err
}

// ShipsOwned lists the ships owner currently holds.
func (m *Manager) ShipsOwned(owner common.Address) ([]uint64, error) {
	var ids []uint64
	if _, err := m.get(shipsOwnedKey(owner), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

type rosterRecord struct {
	ShipIDs []uint64
}

type explorationRecord struct {
	FleetOnExplore bool
	StartedAt      uint64
	Distance       uint64
}

// FleetRosterGet returns the owner's roster, empty when none was stored.
func (m *Manager) FleetRosterGet(owner common.Address) (*fleet.Roster, error) {
	var rec rosterRecord
	if _, err := m.get(fleetKey(owner), &rec); err != nil {
		return nil, err
	}
	return &fleet.Roster{Owner: owner, ShipIDs: rec.ShipIDs}, nil
}

// FleetRosterPut stores a roster.
func (m *Manager) FleetRosterPut(roster *fleet.Roster) error {
	if roster == nil {
		return errors.New("state: nil roster")
	}
	if len(roster.ShipIDs) == 0 {
		return m.del(fleetKey(roster.Owner))
	}
	return m.put(fleetKey(roster.Owner), rosterRecord{ShipIDs: roster.ShipIDs})
}

// FleetExplorationGet loads the owner's exploration record.
func (m *Manager) FleetExplorationGet(owner common.Address) (*fleet.Exploration, bool, error) {
	var rec explorationRecord
	ok, err := m.get(explorationKey(owner), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &fleet.Exploration{
		Owner:          owner,
		FleetOnExplore: rec.FleetOnExplore,
		StartedAt:      toUnix(rec.StartedAt),
		Distance:       rec.Distance,
	}, true, nil
}

// FleetExplorationPut stores an exploration record.
func (m *Manager) FleetExplorationPut(exploration *fleet.Exploration) error {
	if exploration == nil {
		return errors.New("state: nil exploration")
	}
	return m.put(explorationKey(exploration.Owner), explorationRecord{
		FleetOnExplore: exploration.FleetOnExplore,
		StartedAt:      fromUnix(exploration.StartedAt),
		Distance:       exploration.Distance,
	})
}

type refineryRecord struct {
	Level               uint64
	ProductionPerSecond *big.Int
	LastSettlement      uint64
}

// RefineryGet loads the owner's refinery.
func (m *Manager) RefineryGet(owner common.Address) (*refinery.Refinery, bool, error) {
	var rec refineryRecord
	ok, err := m.get(refineryKey(owner), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	rate := rec.ProductionPerSecond
	if rate == nil {
		rate = new(big.Int)
	}
	return &refinery.Refinery{
		Owner:               owner,
		Level:               rec.Level,
		ProductionPerSecond: rate,
		LastSettlement:      toUnix(rec.LastSettlement),
	}, true, nil
}

// RefineryPut stores a refinery.
func (m *Manager) RefineryPut(ref *refinery.Refinery) error {
	if ref == nil {
		return errors.New("state: nil refinery")
	}
	rate := ref.ProductionPerSecond
	if rate == nil {
		rate = new(big.Int)
	}
	return m.put(refineryKey(ref.Owner), refineryRecord{
		Level:               ref.Level,
		ProductionPerSecond: rate,
		LastSettlement:      fromUnix(ref.LastSettlement),
	})
}

type stakeRecord struct {
	Amount     *big.Int
	LockPeriod uint64
	StakedAt   uint64
	UnlockAt   uint64
}

// StakeGet loads the owner's stake position.
func (m *Manager) StakeGet(owner common.Address) (*staking.Position, bool, error) {
	var rec stakeRecord
	ok, err := m.get(stakeKey(owner), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	amount := rec.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	return &staking.Position{
		Owner:      owner,
		Amount:     amount,
		LockPeriod: rec.LockPeriod,
		StakedAt:   toUnix(rec.StakedAt),
		UnlockAt:   toUnix(rec.UnlockAt),
	}, true, nil
}

// StakePut stores a stake position.
func (m *Manager) StakePut(position *staking.Position) error {
	if position == nil {
		return errors.New("state: nil stake position")
	}
	amount := position.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	return m.put(stakeKey(position.Owner), stakeRecord{
		Amount:     amount,
		LockPeriod: position.LockPeriod,
		StakedAt:   fromUnix(position.StakedAt),
		UnlockAt:   fromUnix(position.UnlockAt),
	})
}

// StakeDelete removes the owner's stake position.
func (m *Manager) StakeDelete(owner common.Address) error { return m.del(stakeKey(owner)) }

type quotaRecord struct {
	Actions uint32
	Spent   uint64
	EpochID uint64
}

// QuotaGet loads the per-module quota counters of owner.
func (m *Manager) QuotaGet(module string, owner common.Address) (nativecommon.QuotaNow, error) {
	var rec quotaRecord
	if _, err := m.get(quotaKey(module, owner), &rec); err != nil {
		return nativecommon.QuotaNow{}, err
	}
	return nativecommon.QuotaNow{Actions: rec.Actions, Spent: rec.Spent, EpochID: rec.EpochID}, nil
}

// QuotaPut stores the per-module quota counters of owner.
func (m *Manager) QuotaPut(module string, owner common.Address, now nativecommon.QuotaNow) error {
	return m.put(quotaKey(module, owner), quotaRecord{Actions: now.Actions, Spent: now.Spent, EpochID: now.EpochID})
}
