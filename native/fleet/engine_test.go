package fleet_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/core/state"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/fleet"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/storage"
)

var (
	pilot    = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000f2")
)

type harness struct {
	mgr      *state.Manager
	registry *ships.Registry
	fleet    *fleet.Manager
	now      int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{mgr: state.NewManager(storage.NewMemDB()), now: 10_000}
	clock := func() int64 { return h.now }
	h.registry = ships.NewRegistry()
	h.registry.SetState(h.mgr)
	h.registry.SetNowFunc(clock)
	h.fleet = fleet.NewManager()
	h.fleet.SetState(h.mgr)
	h.fleet.SetShips(h.registry)
	h.fleet.SetNowFunc(clock)
	h.registry.SetFleet(h.fleet)
	return h
}

func (h *harness) ship(t *testing.T, owner common.Address, mining uint64) uint64 {
	t.Helper()
	ship, err := h.registry.CreateShip(owner, ships.Stats{HP: 10, MiningSpeed: mining})
	require.NoError(t, err)
	return ship.ID
}

func (h *harness) balance(t *testing.T, kind assets.Kind) *big.Int {
	t.Helper()
	b, err := h.mgr.BalanceOf(pilot, kind)
	require.NoError(t, err)
	return b
}

func TestAddRemoveShip(t *testing.T) {
	h := newHarness(t)
	first := h.ship(t, pilot, 2)
	second := h.ship(t, pilot, 3)

	ids, err := h.fleet.Fleet(pilot)
	require.NoError(t, err)
	require.Equal(t, []uint64{first}, ids)

	require.NoError(t, h.fleet.AddShipToFleet(pilot, second))
	on, err := h.fleet.IsOnFleet(second)
	require.NoError(t, err)
	require.True(t, on)
	require.ErrorIs(t, h.fleet.AddShipToFleet(pilot, second), nativecommon.ErrInvalidState)

	require.NoError(t, h.fleet.RemoveShipFromFleet(pilot, second))
	on, err = h.fleet.IsOnFleet(second)
	require.NoError(t, err)
	require.False(t, on)
	require.ErrorIs(t, h.fleet.RemoveShipFromFleet(pilot, second), nativecommon.ErrInvalidState)

	require.NoError(t, h.fleet.AddShipToFleet(pilot, second))
	ids, err = h.fleet.Fleet(pilot)
	require.NoError(t, err)
	require.Equal(t, []uint64{first, second}, ids)
}

func TestAddShipRequiresOwnership(t *testing.T) {
	h := newHarness(t)
	h.ship(t, pilot, 1)
	theirs := h.ship(t, stranger, 1)
	require.ErrorIs(t, h.fleet.AddShipToFleet(pilot, theirs), nativecommon.ErrNotOwner)
	require.ErrorIs(t, h.fleet.RemoveShipFromFleet(pilot, theirs), nativecommon.ErrNotOwner)
	require.ErrorIs(t, h.fleet.AddShipToFleet(pilot, 4242), nativecommon.ErrNotFound)
}

func TestExploreLifecycle(t *testing.T) {
	h := newHarness(t)
	first := h.ship(t, pilot, 2)
	spare := h.ship(t, pilot, 5)
	require.NoError(t, h.mgr.Credit(pilot, assets.Fuel, big.NewInt(5)))

	exploration, err := h.fleet.Explore(pilot, 3)
	require.NoError(t, err)
	require.True(t, exploration.FleetOnExplore)
	require.Equal(t, big.NewInt(2), h.balance(t, assets.Fuel))

	_, err = h.fleet.Explore(pilot, 1)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)
	require.ErrorIs(t, h.fleet.AddShipToFleet(pilot, spare), nativecommon.ErrInvalidState)
	require.ErrorIs(t, h.fleet.RemoveShipFromFleet(pilot, first), nativecommon.ErrInvalidState)

	_, err = h.fleet.CompleteExploration(pilot)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState, "trip not finished yet")

	h.now += 3 * 1800
	reward, err := h.fleet.CompleteExploration(pilot)
	require.NoError(t, err)
	want := new(big.Int).Mul(big.NewInt(3*2), new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil))
	require.Equal(t, want, reward)
	require.Equal(t, want, h.balance(t, assets.Mineral))

	stored, ok, err := h.fleet.Exploration(pilot)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, stored.FleetOnExplore)
	require.NoError(t, h.fleet.AddShipToFleet(pilot, spare))

	_, err = h.fleet.CompleteExploration(pilot)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)
}

func TestExploreRequirements(t *testing.T) {
	h := newHarness(t)
	_, err := h.fleet.Explore(pilot, 1)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState, "empty fleet")

	h.ship(t, pilot, 1)
	_, err = h.fleet.Explore(pilot, 1)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)

	_, err = h.fleet.Explore(pilot, 0)
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)

	require.NoError(t, h.mgr.Credit(pilot, assets.Fuel, big.NewInt(4)))
	params := fleet.DefaultParams()
	params.FuelPerDistance = 2
	params.MaxDistance = 5
	h.fleet.SetParams(params)
	_, err = h.fleet.Explore(pilot, 6)
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)
	_, err = h.fleet.Explore(pilot, 3)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)
	_, err = h.fleet.Explore(pilot, 2)
	require.NoError(t, err)
	require.Zero(t, h.balance(t, assets.Fuel).Sign())
}
