package staking

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
)

var (
	errNilState      = errors.New("staking engine: state not configured")
	errVaultNotSet   = fmt.Errorf("staking engine: %w: vault not configured", nativecommon.ErrInvalidState)
	errInvalidAmount = fmt.Errorf("staking engine: %w: amount must be positive", nativecommon.ErrInvalidArgument)
	errBadLockPeriod = fmt.Errorf("staking engine: %w: unknown lock period", nativecommon.ErrInvalidArgument)
	errLocked        = fmt.Errorf("staking engine: %w: stake still locked", nativecommon.ErrInvalidState)

	// ErrNoPosition is returned when the user has nothing staked.
	ErrNoPosition = fmt.Errorf("staking engine: %w: stake position", nativecommon.ErrNotFound)
)

type engineState interface {
	assets.Ledger
	StakeGet(owner common.Address) (*Position, bool, error)
	StakePut(position *Position) error
	StakeDelete(owner common.Address) error
}

// Engine locks GRB in a vault and derives discount tiers from the locks.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	params  Params
	vault   common.Address
}

// NewEngine constructs a staking engine with default parameters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		params:  DefaultParams(),
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

// SetParams replaces lock periods and tiers.
func (e *Engine) SetParams(params Params) { e.params = params }

// SetVault configures the account holding staked GRB.
func (e *Engine) SetVault(addr common.Address) { e.vault = addr }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func addSeconds(at int64, seconds uint64) int64 {
	if seconds > uint64(math.MaxInt64) || at > math.MaxInt64-int64(seconds) {
		return math.MaxInt64
	}
	return at + int64(seconds)
}

// Deposit locks amount GRB for the lock period at index lockPeriod. Topping up
// an existing position keeps the longer of the two locks.
func (e *Engine) Deposit(user common.Address, amount *big.Int, lockPeriod uint64) (*Position, error) {
	if e.state == nil {
		return nil, errNilState
	}
	if e.vault == (common.Address{}) {
		return nil, errVaultNotSet
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	if lockPeriod >= uint64(len(e.params.LockPeriods)) {
		return nil, errBadLockPeriod
	}
	if err := assets.RequireBalance(e.state, user, assets.GRB, amount); err != nil {
		return nil, err
	}
	now := e.now()
	position, ok, err := e.state.StakeGet(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		position = &Position{Owner: user, Amount: new(big.Int), StakedAt: now}
	}
	if position.Amount == nil {
		position.Amount = new(big.Int)
	}
	unlockAt := addSeconds(now, e.params.LockPeriods[lockPeriod])
	if !ok || lockPeriod > position.LockPeriod {
		position.LockPeriod = lockPeriod
	}
	if unlockAt > position.UnlockAt {
		position.UnlockAt = unlockAt
	}
	if err := assets.Transfer(e.state, user, e.vault, assets.GRB, amount); err != nil {
		return nil, err
	}
	position.Amount = new(big.Int).Add(position.Amount, amount)
	if err := e.state.StakePut(position); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.StakingDeposited{User: user, Amount: amount, Total: position.Amount, UnlockAt: position.UnlockAt})
	return position.Clone(), nil
}

// Withdraw returns the whole position once it unlocked.
func (e *Engine) Withdraw(user common.Address) (*big.Int, error) {
	if e.state == nil {
		return nil, errNilState
	}
	position, ok, err := e.state.StakeGet(user)
	if err != nil {
		return nil, err
	}
	if !ok || position.Amount == nil || position.Amount.Sign() == 0 {
		return nil, ErrNoPosition
	}
	if e.now() < position.UnlockAt {
		return nil, errLocked
	}
	if err := assets.Transfer(e.state, e.vault, user, assets.GRB, position.Amount); err != nil {
		return nil, err
	}
	if err := e.state.StakeDelete(user); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.StakingWithdrawn{User: user, Amount: position.Amount})
	return new(big.Int).Set(position.Amount), nil
}

// Position returns the user's stake.
func (e *Engine) Position(user common.Address) (*Position, bool, error) {
	if e.state == nil {
		return nil, false, errNilState
	}
	return e.state.StakeGet(user)
}

// TierOf implements TierProvider: the best tier whose stake and lock
// thresholds the position meets.
func (e *Engine) TierOf(user common.Address) (Tier, error) {
	position, ok, err := e.Position(user)
	if err != nil || !ok || position.Amount == nil {
		return Tier{}, err
	}
	var lock uint64
	if position.LockPeriod < uint64(len(e.params.LockPeriods)) {
		lock = e.params.LockPeriods[position.LockPeriod]
	}
	best := Tier{}
	for _, tier := range e.params.Tiers {
		if tier.MinStake == nil || position.Amount.Cmp(tier.MinStake) < 0 {
			continue
		}
		if lock < tier.MinLockSeconds {
			continue
		}
		if tier.DiscountBps > best.DiscountBps {
			best = tier
		}
	}
	return best, nil
}
