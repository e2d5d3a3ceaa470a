package core_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/config"
	"github.com/cemleme/GRB-contracts/core"
	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/observability/metrics"
	"github.com/cemleme/GRB-contracts/storage"
)

var (
	player   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	treasury = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	vault    = common.HexToAddress("0x00000000000000000000000000000000000000fd")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type world struct {
	game   *core.Game
	db     *storage.MemDB
	clock  int64
	events *events.Buffer
	ctx    context.Context
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{db: storage.NewMemDB(), clock: 1_700_000_000, events: &events.Buffer{}, ctx: context.Background()}
	game, err := core.NewGame(w.db, config.DefaultEconomy())
	require.NoError(t, err)
	game.SetNowFunc(func() int64 { return w.clock })
	game.SetRandomness(randomness.NewHashChain([]byte("game-test")))
	game.SetEmitter(w.events)
	game.SetTreasury(treasury)
	game.SetStakingVault(vault)
	game.SetAllowTestMints(true)
	w.game = game
	return w
}

func (w *world) balance(t *testing.T, who common.Address, kind assets.Kind) *big.Int {
	t.Helper()
	v, err := w.game.Balance(who, kind)
	require.NoError(t, err)
	return v
}

func TestInitializeUserGrantsStarterKit(t *testing.T) {
	w := newWorld(t)
	ship, err := w.game.InitializeUser(w.ctx, player)
	require.NoError(t, err)
	require.Equal(t, assets.FirstShipID, ship.ID)
	require.True(t, ship.InFleet)

	require.Equal(t, ether(5), w.balance(t, player, assets.Mineral))
	require.Equal(t, big.NewInt(5), w.balance(t, player, assets.Fuel))

	ref, err := w.game.Refinery(player)
	require.NoError(t, err)
	require.Equal(t, uint64(1), ref.Level)
	require.Equal(t, w.clock, ref.LastSettlement)

	fleetIDs, err := w.game.Fleet(player)
	require.NoError(t, err)
	require.Equal(t, []uint64{ship.ID}, fleetIDs)

	require.Equal(t, events.TypeUserInitialized, w.events.Events()[w.events.Len()-1].EventType())

	before := w.events.Len()
	_, err = w.game.InitializeUser(w.ctx, player)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)
	require.Equal(t, before, w.events.Len())
}

func TestFailedCallLeavesNoTrace(t *testing.T) {
	w := newWorld(t)
	_, err := w.game.InitializeUser(w.ctx, player)
	require.NoError(t, err)
	keys := w.db.Len()
	emitted := w.events.Len()

	w.game.SetRandomness(randomness.Failing{})
	_, err = w.game.CreateTestShip(w.ctx, player)
	require.ErrorIs(t, err, nativecommon.ErrProviderUnavailable)
	require.Equal(t, keys, w.db.Len())
	require.Equal(t, emitted, w.events.Len())

	require.NoError(t, w.game.CreateTestBoosterPack(w.ctx, player, 1))
	keys = w.db.Len()
	emitted = w.events.Len()
	_, err = w.game.UseBoosterPack(w.ctx, player)
	require.ErrorIs(t, err, nativecommon.ErrProviderUnavailable)
	require.Equal(t, big.NewInt(1), w.balance(t, player, assets.BoosterPack))
	require.Equal(t, keys, w.db.Len())
	require.Equal(t, emitted, w.events.Len())

	owned, err := w.game.ShipsOf(player)
	require.NoError(t, err)
	require.Len(t, owned, 1)
}

func TestRefineryClaimAndAtomicUpgrade(t *testing.T) {
	w := newWorld(t)
	_, err := w.game.InitializeUser(w.ctx, player)
	require.NoError(t, err)

	w.clock += 3600
	preview, err := w.game.CalculateRefinery(player)
	require.NoError(t, err)
	produced := new(big.Int).Mul(big.NewInt(277_777_777_777_777), big.NewInt(3600))
	require.Equal(t, produced, preview.CrystalProduced)

	settled, err := w.game.ClaimRefinery(w.ctx, player)
	require.NoError(t, err)
	require.Equal(t, produced, settled.MineralSpent)
	require.Equal(t, produced, w.balance(t, player, assets.Crystal))
	require.Equal(t, new(big.Int).Sub(ether(5), produced), w.balance(t, player, assets.Mineral))

	before := w.events.Len()
	_, err = w.game.UpgradeRefinery(w.ctx, player, 1)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)
	ref, err := w.game.Refinery(player)
	require.NoError(t, err)
	require.Equal(t, uint64(1), ref.Level)
	require.Equal(t, produced, w.balance(t, player, assets.Crystal))
	require.Equal(t, before, w.events.Len())

	require.NoError(t, w.game.Credit(w.ctx, player, assets.Crystal, ether(1)))
	ref, err = w.game.UpgradeRefinery(w.ctx, player, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), ref.Level)
	require.Equal(t, big.NewInt(2*277_777_777_777_777), ref.ProductionPerSecond)
}

func TestExplorationRoundTrip(t *testing.T) {
	w := newWorld(t)
	ship, err := w.game.InitializeUser(w.ctx, player)
	require.NoError(t, err)

	exploration, err := w.game.Explore(w.ctx, player, 2)
	require.NoError(t, err)
	require.True(t, exploration.FleetOnExplore)
	require.Equal(t, big.NewInt(3), w.balance(t, player, assets.Fuel))

	err = w.game.RemoveShipFromFleet(w.ctx, player, ship.ID)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)
	_, err = w.game.CompleteExploration(w.ctx, player)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)

	status, err := w.game.Exploration(player)
	require.NoError(t, err)
	require.True(t, status.Found)
	w.clock = status.ArrivesAt

	reward, err := w.game.CompleteExploration(w.ctx, player)
	require.NoError(t, err)
	want := new(big.Int).Mul(big.NewInt(int64(2*ship.Stats.MiningSpeed)), new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil))
	require.Equal(t, want, reward)
	require.Equal(t, new(big.Int).Add(ether(5), want), w.balance(t, player, assets.Mineral))

	_, err = w.game.Explore(w.ctx, player, 4)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)
}

func TestUpgradesAndCards(t *testing.T) {
	w := newWorld(t)
	ship, err := w.game.InitializeUser(w.ctx, player)
	require.NoError(t, err)
	require.NoError(t, w.game.Credit(w.ctx, player, assets.Crystal, ether(2)))

	upgraded, err := w.game.UpgradeShip(w.ctx, player, ship.ID, ships.Stats{HP: 3, Attack: 1})
	require.NoError(t, err)
	require.Equal(t, ship.Stats.HP+3, upgraded.Stats.HP)
	require.Equal(t, ship.Stats.Attack+1, upgraded.Stats.Attack)
	require.Zero(t, w.balance(t, player, assets.Crystal).Sign())

	card := assets.Kind(25)
	require.NoError(t, w.game.CreateTestUpgradeCard(w.ctx, player, card, 1))
	result, err := w.game.UseUpgradeCard(w.ctx, player, card, ship.ID)
	require.NoError(t, err)
	require.Equal(t, "attack", result.Stat)
	require.GreaterOrEqual(t, result.Magnitude, uint64(1))
	require.LessOrEqual(t, result.Magnitude, uint64(3))
	require.Equal(t, upgraded.Stats.Attack+result.Magnitude, result.Ship.Stats.Attack)
	require.Equal(t, upgraded.Stats.HP, result.Ship.Stats.HP)
	require.Zero(t, w.balance(t, player, card).Sign())

	stranger := common.HexToAddress("0x00000000000000000000000000000000000000c3")
	_, err = w.game.UpgradeShip(w.ctx, stranger, ship.ID, ships.Stats{HP: 1})
	require.ErrorIs(t, err, nativecommon.ErrNotOwner)
}

func TestMarketAndStakingDiscount(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.game.Credit(w.ctx, treasury, assets.GRB, ether(1000)))
	require.NoError(t, w.game.Credit(w.ctx, player, assets.Native, ether(1)))

	err := w.game.BuyCurrency(w.ctx, player, ether(100), big.NewInt(1))
	require.ErrorIs(t, err, nativecommon.ErrPriceMismatch)
	require.NoError(t, w.game.BuyCurrency(w.ctx, player, ether(100), ether(1)))
	require.Equal(t, ether(100), w.balance(t, player, assets.GRB))

	quote, err := w.game.BoosterPackPrice(player)
	require.NoError(t, err)
	require.Zero(t, quote.DiscountBps)

	_, err = w.game.Stake(w.ctx, player, ether(10), 1)
	require.NoError(t, err)
	info, err := w.game.StakeInfo(player)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), info.Tier.DiscountBps)

	paid, err := w.game.BuyBoosterPackWithResource(w.ctx, player)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Div(ether(9), big.NewInt(10)), paid)
	require.Equal(t, big.NewInt(1), w.balance(t, player, assets.BoosterPack))

	contents, err := w.game.UseBoosterPack(w.ctx, player)
	require.NoError(t, err)
	require.True(t, contents.Card.IsUpgradeCard())
	require.Equal(t, big.NewInt(1), w.balance(t, player, contents.Card))
	require.Zero(t, w.balance(t, player, assets.BoosterPack).Sign())

	_, err = w.game.Unstake(w.ctx, player)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)
	w.clock += 31 * 24 * 3600
	returned, err := w.game.Unstake(w.ctx, player)
	require.NoError(t, err)
	require.Equal(t, ether(10), returned)
}

func TestPausedModuleRejectsCalls(t *testing.T) {
	w := newWorld(t)
	_, err := w.game.InitializeUser(w.ctx, player)
	require.NoError(t, err)
	w.game.SetPauses(nativecommon.Pauses{nativecommon.ModuleMarket: true})

	_, err = w.game.BuyFuel(w.ctx, player, 1)
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)

	w.clock += 10
	_, err = w.game.ClaimRefinery(w.ctx, player)
	require.NoError(t, err)
}

func TestQuotaLimitsCalls(t *testing.T) {
	w := newWorld(t)
	_, err := w.game.InitializeUser(w.ctx, player)
	require.NoError(t, err)
	w.game.SetQuotas(map[string]nativecommon.Quota{
		nativecommon.ModuleRefinery: {MaxActionsPerEpoch: 1, EpochSeconds: 60},
	})

	_, err = w.game.ClaimRefinery(w.ctx, player)
	require.NoError(t, err)
	_, err = w.game.ClaimRefinery(w.ctx, player)
	require.True(t, errors.Is(err, nativecommon.ErrQuotaActionsExceeded))

	w.clock += 60
	_, err = w.game.ClaimRefinery(w.ctx, player)
	require.NoError(t, err)
}

func TestCreditRejectsShipKinds(t *testing.T) {
	w := newWorld(t)
	err := w.game.Credit(w.ctx, player, assets.Kind(assets.FirstShipID), big.NewInt(1))
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)
	err = w.game.Credit(w.ctx, player, assets.Mineral, big.NewInt(0))
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)
}

func TestCreditRecordsResourceFlow(t *testing.T) {
	w := newWorld(t)
	flow := metrics.Game().FlowVec()
	crystal := testutil.ToFloat64(flow.WithLabelValues(assets.Crystal.String(), "credit"))
	fuel := testutil.ToFloat64(flow.WithLabelValues(assets.Fuel.String(), "credit"))

	require.NoError(t, w.game.Credit(w.ctx, player, assets.Crystal, ether(2)))
	require.NoError(t, w.game.Credit(w.ctx, player, assets.Fuel, big.NewInt(3)))

	require.InDelta(t, crystal+2, testutil.ToFloat64(flow.WithLabelValues(assets.Crystal.String(), "credit")), 1e-9)
	require.InDelta(t, fuel+3, testutil.ToFloat64(flow.WithLabelValues(assets.Fuel.String(), "credit")), 1e-9)
	require.Equal(t, ether(2), w.balance(t, player, assets.Crystal))
}

func TestHashChainResumesAfterRestart(t *testing.T) {
	open := func(db *storage.MemDB) *core.Game {
		game, err := core.NewGame(db, config.DefaultEconomy())
		require.NoError(t, err)
		game.SetNowFunc(func() int64 { return 1_700_000_000 })
		game.SetRandomness(randomness.NewHashChain([]byte("restart")))
		game.SetAllowTestMints(true)
		return game
	}
	ctx := context.Background()

	db := storage.NewMemDB()
	starter, err := open(db).InitializeUser(ctx, player)
	require.NoError(t, err)
	restarted := open(db)
	_, err = restarted.InitializeUser(ctx, player)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)
	second, err := restarted.CreateTestShip(ctx, player)
	require.NoError(t, err)

	continuous := open(storage.NewMemDB())
	wantStarter, err := continuous.InitializeUser(ctx, player)
	require.NoError(t, err)
	wantSecond, err := continuous.CreateTestShip(ctx, player)
	require.NoError(t, err)

	require.Equal(t, wantStarter.Stats, starter.Stats)
	require.Equal(t, wantSecond.ID, second.ID)
	require.Equal(t, wantSecond.Stats, second.Stats)
}
