package refinery

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/pricing"
)

var (
	errNilState     = errors.New("refinery engine: state not configured")
	errExists       = fmt.Errorf("refinery engine: %w: refinery already initialised", nativecommon.ErrInvalidState)
	errZeroLevels   = fmt.Errorf("refinery engine: %w: levels must be positive", nativecommon.ErrInvalidArgument)
	errRateOverflow = fmt.Errorf("refinery engine: %w: production rate overflow", nativecommon.ErrInvalidArgument)

	// ErrNoRefinery is returned for users without a refinery.
	ErrNoRefinery = fmt.Errorf("refinery engine: %w: refinery", nativecommon.ErrNotFound)
)

// maxRateBits bounds the production rate to a 256-bit value.
const maxRateBits = 256

type engineState interface {
	assets.Ledger
	RefineryGet(owner common.Address) (*Refinery, bool, error)
	RefineryPut(refinery *Refinery) error
}

// Engine runs refinery settlement and upgrades.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	params  Params
	prices  pricing.Table
}

// NewEngine constructs a refinery engine with default parameters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		params:  DefaultParams(),
		prices:  pricing.DefaultTable(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetParams replaces the production parameters.
func (e *Engine) SetParams(params Params) { e.params = params }

// SetPricing replaces the price table used for upgrade costs.
func (e *Engine) SetPricing(table pricing.Table) { e.prices = table }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) load(user common.Address) (*Refinery, error) {
	if e.state == nil {
		return nil, errNilState
	}
	ref, ok, err := e.state.RefineryGet(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoRefinery
	}
	if ref.ProductionPerSecond == nil {
		ref.ProductionPerSecond = new(big.Int)
	}
	return ref, nil
}

// Initialize creates a level 1 refinery for the user.
func (e *Engine) Initialize(user common.Address) (*Refinery, error) {
	if e.state == nil {
		return nil, errNilState
	}
	if _, ok, err := e.state.RefineryGet(user); err != nil {
		return nil, err
	} else if ok {
		return nil, errExists
	}
	ref := &Refinery{
		Owner:               user,
		Level:               1,
		ProductionPerSecond: new(big.Int).Set(e.params.BaseRate),
		LastSettlement:      e.now(),
	}
	if err := e.state.RefineryPut(ref); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RefineryInitialized{User: user, ProductionPerSecond: ref.ProductionPerSecond, At: ref.LastSettlement})
	return ref.Clone(), nil
}

// Refinery returns the user's refinery.
func (e *Engine) Refinery(user common.Address) (*Refinery, error) {
	return e.load(user)
}

func (e *Engine) settle(ref *Refinery, now int64) (Settlement, error) {
	zero := Settlement{MineralSpent: new(big.Int), CrystalProduced: new(big.Int)}
	elapsed := now - ref.LastSettlement
	if elapsed <= 0 {
		return zero, nil
	}
	produced := new(big.Int).Mul(big.NewInt(elapsed), ref.ProductionPerSecond)
	mineral, err := e.state.BalanceOf(ref.Owner, assets.Mineral)
	if err != nil {
		return Settlement{}, err
	}
	spent := produced
	if mineral.Cmp(produced) < 0 {
		spent = new(big.Int).Set(mineral)
	}
	if spent.Sign() == 0 {
		return zero, nil
	}
	crystal := new(big.Int).Mul(spent, new(big.Int).SetUint64(e.params.RatioNumerator))
	crystal.Quo(crystal, new(big.Int).SetUint64(e.params.RatioDenominator))
	return Settlement{MineralSpent: spent, CrystalProduced: crystal}, nil
}

// Calculate previews the settlement a claim would perform now.
func (e *Engine) Calculate(user common.Address) (Settlement, error) {
	ref, err := e.load(user)
	if err != nil {
		return Settlement{}, err
	}
	return e.settle(ref, e.now())
}

func (e *Engine) apply(ref *Refinery, s Settlement, now int64) error {
	if s.IsZero() {
		return nil
	}
	if err := e.state.Debit(ref.Owner, assets.Mineral, s.MineralSpent); err != nil {
		return err
	}
	if s.CrystalProduced.Sign() > 0 {
		if err := e.state.Credit(ref.Owner, assets.Crystal, s.CrystalProduced); err != nil {
			return err
		}
	}
	e.emitter.Emit(events.RefineryClaimed{
		User:            ref.Owner,
		MineralSpent:    s.MineralSpent,
		CrystalProduced: s.CrystalProduced,
		At:              now,
	})
	return nil
}

// Claim converts pending production. When nothing converts the call is a
// no-op and the settlement clock keeps running.
func (e *Engine) Claim(user common.Address) (Settlement, error) {
	ref, err := e.load(user)
	if err != nil {
		return Settlement{}, err
	}
	now := e.now()
	s, err := e.settle(ref, now)
	if err != nil {
		return Settlement{}, err
	}
	if s.IsZero() {
		return s, nil
	}
	if err := e.apply(ref, s, now); err != nil {
		return Settlement{}, err
	}
	ref.LastSettlement = now
	if err := e.state.RefineryPut(ref); err != nil {
		return Settlement{}, err
	}
	return s, nil
}

// Upgrade raises the refinery by levels, doubling the rate per level. The
// Crystal held when the call starts must cover the cost; pending production
// is then settled at the old rate so the faster rate only counts from now.
func (e *Engine) Upgrade(user common.Address, levels uint64) (*Refinery, error) {
	if levels == 0 {
		return nil, errZeroLevels
	}
	ref, err := e.load(user)
	if err != nil {
		return nil, err
	}
	if uint64(ref.ProductionPerSecond.BitLen())+levels > maxRateBits {
		return nil, errRateOverflow
	}
	cost, err := e.prices.RefineryUpgradeCost(ref.Level, levels)
	if err != nil {
		return nil, err
	}
	crystal, err := e.state.BalanceOf(user, assets.Crystal)
	if err != nil {
		return nil, err
	}
	if crystal.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: upgrade needs %s crystal, has %s", assets.ErrInsufficientBalance, cost, crystal)
	}
	now := e.now()
	s, err := e.settle(ref, now)
	if err != nil {
		return nil, err
	}
	if err := e.apply(ref, s, now); err != nil {
		return nil, err
	}
	if cost.Sign() > 0 {
		if err := e.state.Debit(user, assets.Crystal, cost); err != nil {
			return nil, err
		}
	}
	from := ref.Level
	ref.Level += levels
	ref.ProductionPerSecond = new(big.Int).Lsh(ref.ProductionPerSecond, uint(levels))
	ref.LastSettlement = now
	if err := e.state.RefineryPut(ref); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RefineryUpgraded{
		User:                user,
		FromLevel:           from,
		ToLevel:             ref.Level,
		Cost:                cost,
		ProductionPerSecond: ref.ProductionPerSecond,
	})
	return ref.Clone(), nil
}
