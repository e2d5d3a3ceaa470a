package ships_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/core/state"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/storage"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")

type recordingFleet struct {
	registry *ships.Registry
	enlisted []uint64
}

func (f *recordingFleet) Enlist(_ common.Address, id uint64) error {
	f.enlisted = append(f.enlisted, id)
	return f.registry.SetInFleet(id, true)
}

func newRegistry(t *testing.T) (*ships.Registry, *state.Manager, *recordingFleet, *events.Buffer) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	reg := ships.NewRegistry()
	reg.SetState(mgr)
	reg.SetNowFunc(func() int64 { return 1_700_000_000 })
	buf := &events.Buffer{}
	reg.SetEmitter(buf)
	fleet := &recordingFleet{registry: reg}
	reg.SetFleet(fleet)
	return reg, mgr, fleet, buf
}

func TestCreateShipAssignsIDsAndEnlistsFirstShip(t *testing.T) {
	reg, mgr, fleet, buf := newRegistry(t)

	first, err := reg.CreateShip(owner, ships.Stats{HP: 10, Attack: 2, MiningSpeed: 3, TravelSpeed: 4})
	require.NoError(t, err)
	require.Equal(t, assets.FirstShipID, first.ID)
	require.True(t, first.InFleet)

	second, err := reg.CreateShip(owner, ships.Stats{HP: 1})
	require.NoError(t, err)
	require.Equal(t, assets.FirstShipID+1, second.ID)
	require.False(t, second.InFleet)

	require.Equal(t, []uint64{assets.FirstShipID}, fleet.enlisted)

	stored, err := reg.Ship(first.ID)
	require.NoError(t, err)
	require.True(t, stored.InFleet)
	require.Equal(t, owner, stored.Owner)
	require.EqualValues(t, 1_700_000_000, stored.CreatedAt)

	holder, ok, err := mgr.OwnerOf(second.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, owner, holder)

	list, err := reg.ShipsOf(owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 2, buf.Len())
}

func TestCreateRandomShipDrawsOnce(t *testing.T) {
	reg, _, _, _ := newRegistry(t)
	seq := randomness.NewSequence(42)
	reg.SetRandomness(seq)

	ship, err := reg.CreateRandomShip(owner)
	require.NoError(t, err)
	require.Equal(t, 1, seq.Calls())
	require.Equal(t, reg.RollStats(42), ship.Stats)

	_, err = reg.CreateRandomShip(owner)
	require.ErrorIs(t, err, nativecommon.ErrProviderUnavailable)

	reg.SetRandomness(randomness.Failing{})
	_, err = reg.CreateRandomShip(owner)
	require.ErrorIs(t, err, nativecommon.ErrProviderUnavailable)
	list, err := reg.ShipsOf(owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRollStatsStaysInBands(t *testing.T) {
	params := ships.DefaultParams()
	require.NoError(t, params.Validate())
	for seed := uint64(0); seed < 500; seed++ {
		stats := params.RollStats(seed)
		require.GreaterOrEqual(t, stats.HP, params.HP.Min)
		require.LessOrEqual(t, stats.HP, params.HP.Max)
		require.GreaterOrEqual(t, stats.MiningSpeed, params.MiningSpeed.Min)
		require.LessOrEqual(t, stats.MiningSpeed, params.MiningSpeed.Max)
		require.Equal(t, stats, params.RollStats(seed))
	}
	require.Error(t, ships.Params{HP: ships.Range{Min: 5, Max: 1}}.Validate())
}

func TestApplyStatDelta(t *testing.T) {
	reg, _, _, _ := newRegistry(t)
	ship, err := reg.CreateShip(owner, ships.Stats{HP: 10})
	require.NoError(t, err)

	_, err = reg.ApplyStatDelta(ship.ID, ships.Stats{})
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)

	upgraded, err := reg.ApplyStatDelta(ship.ID, ships.Only(assets.StatAttack, 3))
	require.NoError(t, err)
	require.EqualValues(t, 10, upgraded.Stats.HP)
	require.EqualValues(t, 3, upgraded.Stats.Attack)

	stats, err := reg.Stats(ship.ID)
	require.NoError(t, err)
	require.Equal(t, upgraded.Stats, stats)

	_, err = reg.ApplyStatDelta(ship.ID, ships.Stats{HP: ^uint64(0)})
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)

	_, err = reg.Ship(999)
	require.ErrorIs(t, err, nativecommon.ErrNotFound)
}
