package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/config"
	"github.com/cemleme/GRB-contracts/core/events"
	nhbstate "github.com/cemleme/GRB-contracts/core/state"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/fleet"
	"github.com/cemleme/GRB-contracts/native/market"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/native/refinery"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/native/staking"
	"github.com/cemleme/GRB-contracts/native/upgrade"
	"github.com/cemleme/GRB-contracts/observability/metrics"
	"github.com/cemleme/GRB-contracts/observability/otel"
	"github.com/cemleme/GRB-contracts/storage"
)

// ModuleUser labels calls that span several modules, such as onboarding.
const ModuleUser = "user"

var (
	errNilDatabase      = errors.New("game: database required")
	errUnknownKind      = fmt.Errorf("game: %w: kind cannot be credited", nativecommon.ErrInvalidArgument)
	errInvalidAmount    = fmt.Errorf("game: %w: amount must be positive", nativecommon.ErrInvalidArgument)
	errAlreadyOnboarded = fmt.Errorf("game: %w: user already initialized", nativecommon.ErrInvalidState)
)

// Game serialises every economy operation. Each mutating call runs against a
// write overlay of the store that is committed only when the call succeeds;
// events raised by the call reach the sink only after the commit.
type Game struct {
	mu sync.Mutex

	db      storage.Database
	economy config.Economy
	rng     randomness.Provider
	tiers   staking.TierProvider
	pauses  nativecommon.PauseView
	quotas  map[string]nativecommon.Quota
	vault   common.Address
	sink    events.Emitter
	now     func() int64
	log     *slog.Logger
	metrics *metrics.GameMetrics
}

// NewGame wires a game over db using economy.
func NewGame(db storage.Database, economy config.Economy) (*Game, error) {
	if db == nil {
		return nil, errNilDatabase
	}
	if err := economy.Validate(); err != nil {
		return nil, err
	}
	return &Game{
		db:      db,
		economy: economy,
		rng:     randomness.Failing{},
		quotas:  map[string]nativecommon.Quota{},
		sink:    events.NoopEmitter{},
		now:     func() int64 { return time.Now().Unix() },
		log:     slog.Default(),
		metrics: metrics.Game(),
	}, nil
}

// SetRandomness configures the provider drawn by ships, upgrades and packs.
// A randomness.Cursor is positioned from state before every call and its
// position is committed with the call, so restarts continue the stream and
// draws made by rejected calls are handed out again.
func (g *Game) SetRandomness(p randomness.Provider) {
	if p == nil {
		p = randomness.Failing{}
	}
	g.rng = p
}

// SetTierProvider overrides the discount tier lookup. Nil restores the
// built-in staking positions.
func (g *Game) SetTierProvider(p staking.TierProvider) { g.tiers = p }

// SetPauses configures the pause view consulted before each call.
func (g *Game) SetPauses(p nativecommon.PauseView) { g.pauses = p }

// SetQuotas configures per-module call quotas.
func (g *Game) SetQuotas(q map[string]nativecommon.Quota) {
	if q == nil {
		q = map[string]nativecommon.Quota{}
	}
	g.quotas = q
}

// SetTreasury sets the account that receives payments and sells GRB.
func (g *Game) SetTreasury(addr common.Address) { g.economy.Market.Treasury = addr }

// SetStakingVault sets the account holding staked GRB.
func (g *Game) SetStakingVault(addr common.Address) { g.vault = addr }

// SetAllowTestMints toggles the free test mints.
func (g *Game) SetAllowTestMints(allow bool) { g.economy.Market.AllowTestMints = allow }

// SetEmitter configures where committed events go.
func (g *Game) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	g.sink = emitter
}

// SetNowFunc overrides the unix clock.
func (g *Game) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	g.now = now
}

// SetLogger configures the structured logger.
func (g *Game) SetLogger(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	g.log = log
}

// Economy returns the active economy parameters.
func (g *Game) Economy() config.Economy { return g.economy }

type engines struct {
	emitter  events.Emitter
	state    *nhbstate.Manager
	ships    *ships.Registry
	fleet    *fleet.Manager
	refinery *refinery.Engine
	upgrade  *upgrade.Engine
	market   *market.Engine
	staking  *staking.Engine
}

func (g *Game) build(kv nhbstate.KV, emitter events.Emitter) *engines {
	manager := nhbstate.NewManager(kv)
	eco := g.economy

	registry := ships.NewRegistry()
	registry.SetState(manager)
	registry.SetEmitter(emitter)
	registry.SetNowFunc(g.now)
	registry.SetParams(eco.Ships)
	registry.SetRandomness(g.rng)

	fleetManager := fleet.NewManager()
	fleetManager.SetState(manager)
	fleetManager.SetShips(registry)
	fleetManager.SetEmitter(emitter)
	fleetManager.SetNowFunc(g.now)
	fleetManager.SetParams(eco.Fleet)
	registry.SetFleet(fleetManager)

	refineryEngine := refinery.NewEngine()
	refineryEngine.SetState(manager)
	refineryEngine.SetEmitter(emitter)
	refineryEngine.SetNowFunc(g.now)
	refineryEngine.SetParams(eco.Refinery)
	refineryEngine.SetPricing(eco.Pricing)

	upgradeEngine := upgrade.NewEngine()
	upgradeEngine.SetState(manager)
	upgradeEngine.SetShips(registry)
	upgradeEngine.SetRandomness(g.rng)
	upgradeEngine.SetEmitter(emitter)
	upgradeEngine.SetParams(eco.Upgrade)
	upgradeEngine.SetPricing(eco.Pricing)

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(manager)
	stakingEngine.SetEmitter(emitter)
	stakingEngine.SetNowFunc(g.now)
	stakingEngine.SetParams(eco.Staking)
	stakingEngine.SetVault(g.vault)

	marketEngine := market.NewEngine()
	marketEngine.SetState(manager)
	marketEngine.SetShips(registry)
	marketEngine.SetRandomness(g.rng)
	marketEngine.SetEmitter(emitter)
	marketEngine.SetPricing(eco.Pricing)
	marketEngine.SetParams(eco.Market)
	if g.tiers != nil {
		marketEngine.SetTiers(g.tiers)
	} else {
		marketEngine.SetTiers(stakingEngine)
	}

	return &engines{
		emitter:  emitter,
		state:    manager,
		ships:    registry,
		fleet:    fleetManager,
		refinery: refineryEngine,
		upgrade:  upgradeEngine,
		market:   marketEngine,
		staking:  stakingEngine,
	}
}

func (g *Game) chargeQuota(state *nhbstate.Manager, module string, user common.Address) error {
	quota, ok := g.quotas[module]
	if !ok || !quota.Enabled() {
		return nil
	}
	prev, err := state.QuotaGet(module, user)
	if err != nil {
		return err
	}
	next, err := nativecommon.CheckQuota(quota, quota.Epoch(g.now()), prev, 1, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", module, err)
	}
	return state.QuotaPut(module, user, next)
}

// exec runs fn as one atomic mutating call.
func (g *Game) exec(ctx context.Context, module, op string, user common.Address, fn func(*engines) error) (err error) {
	start := time.Now()
	ctx, span := otel.StartCall(ctx, module, op, user.Hex())
	defer func() {
		otel.EndCall(span, err)
		g.metrics.ObserveCall(module, op, err, time.Since(start))
		if err != nil {
			g.log.LogAttrs(ctx, slog.LevelWarn, "game call rejected",
				slog.String("module", module),
				slog.String("op", op),
				slog.String("user", user.Hex()),
				slog.Any("error", err))
			return
		}
		g.log.LogAttrs(ctx, slog.LevelDebug, "game call applied",
			slog.String("module", module),
			slog.String("op", op),
			slog.String("user", user.Hex()))
	}()

	if err := nativecommon.Guard(g.pauses, module); err != nil {
		return fmt.Errorf("%s: %w", module, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	overlay := nhbstate.NewJournal(g.db)
	buffer := &events.Buffer{}
	eng := g.build(overlay, buffer)
	if err := g.chargeQuota(eng.state, module, user); err != nil {
		overlay.Discard()
		return err
	}
	cursor, resumable := g.rng.(randomness.Cursor)
	var position uint64
	if resumable {
		if position, err = eng.state.RandomnessPosition(); err != nil {
			overlay.Discard()
			return err
		}
		cursor.Seek(position)
	}
	if err := fn(eng); err != nil {
		overlay.Discard()
		return err
	}
	if resumable && cursor.Draws() != position {
		if err := eng.state.SetRandomnessPosition(cursor.Draws()); err != nil {
			overlay.Discard()
			return err
		}
	}
	if err := overlay.Commit(); err != nil {
		return fmt.Errorf("game: commit %s.%s: %w", module, op, err)
	}
	committed := buffer.Events()
	buffer.Flush(g.sink)
	g.observe(committed)
	return nil
}

// view runs fn against a throwaway overlay.
func (g *Game) view(fn func(*engines) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	overlay := nhbstate.NewJournal(g.db)
	defer overlay.Discard()
	return fn(g.build(overlay, events.NoopEmitter{}))
}

func (g *Game) observe(evts []events.Event) {
	for _, evt := range evts {
		switch e := evt.(type) {
		case events.ShipCreated:
			g.metrics.ShipMinted()
		case events.FleetExploreStarted:
			g.metrics.ExplorationStarted()
			g.metrics.RecordFlow(assets.Fuel.String(), "debit", e.FuelSpent, false)
		case events.FleetExploreCompleted:
			g.metrics.ExplorationCompleted()
			g.metrics.RecordFlow(assets.Mineral.String(), "credit", e.MineralReward, true)
		case events.RefineryClaimed:
			g.metrics.RecordFlow(assets.Mineral.String(), "debit", e.MineralSpent, true)
			g.metrics.RecordFlow(assets.Crystal.String(), "credit", e.CrystalProduced, true)
		case events.MarketFuelBought:
			g.metrics.RecordFlow(assets.Crystal.String(), "debit", e.Cost, true)
		case events.LedgerCredited:
			g.metrics.RecordFlow(e.Kind, "credit", e.Amount, e.Kind != assets.Fuel.String())
		}
	}
}

func creditable(kind assets.Kind) bool {
	switch {
	case kind <= assets.BoosterPack, kind.IsUpgradeCard(), kind == assets.GRB, kind == assets.Native:
		return true
	default:
		return false
	}
}

func (eng *engines) credit(user common.Address, kind assets.Kind, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	if err := eng.state.Credit(user, kind, amount); err != nil {
		return err
	}
	eng.emitter.Emit(events.LedgerCredited{User: user, Kind: kind.String(), Amount: new(big.Int).Set(amount)})
	return nil
}
