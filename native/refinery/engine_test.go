package refinery_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/core/state"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/refinery"
	"github.com/cemleme/GRB-contracts/storage"
)

var miner = common.HexToAddress("0x00000000000000000000000000000000000000c1")

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type setup struct {
	mgr    *state.Manager
	engine *refinery.Engine
	events *events.Buffer
	now    int64
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	s := &setup{mgr: state.NewManager(storage.NewMemDB()), events: &events.Buffer{}, now: 1_000_000}
	s.engine = refinery.NewEngine()
	s.engine.SetState(s.mgr)
	s.engine.SetEmitter(s.events)
	s.engine.SetNowFunc(func() int64 { return s.now })
	_, err := s.engine.Initialize(miner)
	require.NoError(t, err)
	return s
}

func (s *setup) balance(t *testing.T, kind assets.Kind) *big.Int {
	t.Helper()
	b, err := s.mgr.BalanceOf(miner, kind)
	require.NoError(t, err)
	return b
}

func TestInitializeOnce(t *testing.T) {
	s := newSetup(t)
	_, err := s.engine.Initialize(miner)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)

	ref, err := s.engine.Refinery(miner)
	require.NoError(t, err)
	require.EqualValues(t, 1, ref.Level)
	require.Equal(t, refinery.DefaultParams().BaseRate, ref.ProductionPerSecond)

	_, err = s.engine.Refinery(common.HexToAddress("0x99"))
	require.ErrorIs(t, err, nativecommon.ErrNotFound)
}

func TestSettlementCappedByMineral(t *testing.T) {
	s := newSetup(t)
	require.NoError(t, s.mgr.Credit(miner, assets.Mineral, ether(5)))

	s.now += 12 * 3600
	half, err := s.engine.Calculate(miner)
	require.NoError(t, err)
	s.now += 12 * 3600
	full, err := s.engine.Calculate(miner)
	require.NoError(t, err)
	require.Equal(t, half.CrystalProduced, full.CrystalProduced, "both windows exceed the 5 mineral stock")
	require.Equal(t, ether(5), full.MineralSpent)

	claimed, err := s.engine.Claim(miner)
	require.NoError(t, err)
	require.Equal(t, ether(5), claimed.CrystalProduced)
	require.Zero(t, s.balance(t, assets.Mineral).Sign())
	require.Equal(t, ether(5), s.balance(t, assets.Crystal))
}

func TestClaimWithoutMineralIsNoop(t *testing.T) {
	s := newSetup(t)
	s.now += 3600
	settlement, err := s.engine.Claim(miner)
	require.NoError(t, err)
	require.True(t, settlement.IsZero())
	ref, err := s.engine.Refinery(miner)
	require.NoError(t, err)
	require.EqualValues(t, 1_000_000, ref.LastSettlement)
	require.Equal(t, 1, s.events.Len(), "only the initialisation event")
}

func TestPartialProduction(t *testing.T) {
	s := newSetup(t)
	require.NoError(t, s.mgr.Credit(miner, assets.Mineral, ether(5)))
	s.now += 10
	settlement, err := s.engine.Claim(miner)
	require.NoError(t, err)
	want := new(big.Int).Mul(big.NewInt(10), refinery.DefaultParams().BaseRate)
	require.Equal(t, want, settlement.MineralSpent)
	require.Equal(t, new(big.Int).Sub(ether(5), want), s.balance(t, assets.Mineral))
}

func TestConversionRatio(t *testing.T) {
	s := newSetup(t)
	params := refinery.DefaultParams()
	params.RatioNumerator, params.RatioDenominator = 1, 2
	s.engine.SetParams(params)
	require.NoError(t, s.mgr.Credit(miner, assets.Mineral, big.NewInt(100)))
	s.now += 3600
	settlement, err := s.engine.Claim(miner)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), settlement.MineralSpent)
	require.Equal(t, big.NewInt(50), settlement.CrystalProduced)
}

func TestUpgradeDoublesRateAndCharges(t *testing.T) {
	s := newSetup(t)
	require.NoError(t, s.mgr.Credit(miner, assets.Crystal, ether(1)))

	before, err := s.engine.Refinery(miner)
	require.NoError(t, err)
	after, err := s.engine.Upgrade(miner, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, after.Level)
	require.Equal(t, new(big.Int).Mul(before.ProductionPerSecond, big.NewInt(2)), after.ProductionPerSecond)
	require.Zero(t, s.balance(t, assets.Crystal).Sign())

	_, err = s.engine.Upgrade(miner, 1)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)
	unchanged, err := s.engine.Refinery(miner)
	require.NoError(t, err)
	require.EqualValues(t, 2, unchanged.Level)

	_, err = s.engine.Upgrade(miner, 0)
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)
}

func TestUpgradeSettlesAtOldRateFirst(t *testing.T) {
	s := newSetup(t)
	rate := refinery.DefaultParams().BaseRate
	require.NoError(t, s.mgr.Credit(miner, assets.Mineral, ether(5)))
	require.NoError(t, s.mgr.Credit(miner, assets.Crystal, ether(3)))
	s.now += 100

	after, err := s.engine.Upgrade(miner, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, after.Level)
	require.Equal(t, new(big.Int).Mul(rate, big.NewInt(4)), after.ProductionPerSecond)
	require.EqualValues(t, s.now, after.LastSettlement)

	produced := new(big.Int).Mul(big.NewInt(100), rate)
	require.Equal(t, produced, s.balance(t, assets.Crystal), "3 crystal spent on two levels, settled crystal remains")
	require.Equal(t, new(big.Int).Sub(ether(5), produced), s.balance(t, assets.Mineral))
}

func TestUpgradeIgnoresUnclaimedCrystal(t *testing.T) {
	s := newSetup(t)
	half := new(big.Int).Div(ether(1), big.NewInt(2))
	require.NoError(t, s.mgr.Credit(miner, assets.Mineral, ether(5)))
	require.NoError(t, s.mgr.Credit(miner, assets.Crystal, half))
	s.now += 2 * 3600

	pending, err := s.engine.Calculate(miner)
	require.NoError(t, err)
	require.Positive(t, pending.CrystalProduced.Sign())

	_, err = s.engine.Upgrade(miner, 1)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)
	require.Equal(t, half, s.balance(t, assets.Crystal))
	require.Equal(t, ether(5), s.balance(t, assets.Mineral))

	ref, err := s.engine.Refinery(miner)
	require.NoError(t, err)
	require.EqualValues(t, 1, ref.Level)
	again, err := s.engine.Calculate(miner)
	require.NoError(t, err)
	require.Equal(t, pending, again)
}
