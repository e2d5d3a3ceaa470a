package market

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/pricing"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/native/staking"
)

var (
	errNilState        = errors.New("market engine: state not configured")
	errNilShips        = errors.New("market engine: ship registry not configured")
	errTreasuryNotSet  = fmt.Errorf("market engine: %w: treasury not configured", nativecommon.ErrInvalidState)
	errTestMintsOff    = fmt.Errorf("market engine: %w: test mints disabled", nativecommon.ErrInvalidState)
	errPaymentMismatch = fmt.Errorf("market engine: %w: payment does not match price", nativecommon.ErrPriceMismatch)
	errTierUnavailable = fmt.Errorf("market engine: %w: staking tier lookup failed", nativecommon.ErrProviderUnavailable)
	errNoBoosterPack   = fmt.Errorf("market engine: %w: no booster pack", nativecommon.ErrInsufficientBalance)
	errInvalidTestMint = fmt.Errorf("market engine: %w: kind is not an upgrade card", nativecommon.ErrInvalidArgument)
	errInvalidQuantity = fmt.Errorf("market engine: %w: quantity must be positive", nativecommon.ErrInvalidArgument)
)

type engineState interface {
	assets.Ledger
}

type shipMaker interface {
	CreateShip(owner common.Address, stats ships.Stats) (*ships.Ship, error)
	CreateRandomShip(owner common.Address) (*ships.Ship, error)
	RollStats(seed uint64) ships.Stats
}

// Engine prices and executes purchases between resources, GRB and the native
// currency, and opens booster packs.
type Engine struct {
	state   engineState
	ships   shipMaker
	tiers   staking.TierProvider
	rng     randomness.Provider
	emitter events.Emitter
	prices  pricing.Table
	params  Params
}

// NewEngine constructs a market engine with default prices and pack contents.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		prices:  pricing.DefaultTable(),
		params:  DefaultParams(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetShips configures the ship registry used by booster packs and test mints.
func (e *Engine) SetShips(maker shipMaker) { e.ships = maker }

// SetTiers configures the staking tier lookup.
func (e *Engine) SetTiers(tiers staking.TierProvider) { e.tiers = tiers }

// SetRandomness configures the provider drawn when opening packs.
func (e *Engine) SetRandomness(p randomness.Provider) { e.rng = p }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPricing replaces the price table.
func (e *Engine) SetPricing(table pricing.Table) { e.prices = table }

// Pricing returns the active price table.
func (e *Engine) Pricing() pricing.Table { return e.prices }

// SetParams replaces the market parameters.
func (e *Engine) SetParams(params Params) { e.params = params }

func (e *Engine) ready() error {
	if e.state == nil {
		return errNilState
	}
	if e.params.Treasury == (common.Address{}) {
		return errTreasuryNotSet
	}
	return nil
}

// BuyCurrency sells amount GRB from the treasury for exactly the listed
// native payment.
func (e *Engine) BuyCurrency(user common.Address, amount, paymentSent *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	price, err := e.prices.CurrencyPayment(amount)
	if err != nil {
		return err
	}
	if paymentSent == nil || paymentSent.Cmp(price) != 0 {
		return fmt.Errorf("%w: want %s, sent %v", errPaymentMismatch, price, paymentSent)
	}
	if err := assets.RequireBalance(e.state, user, assets.Native, price); err != nil {
		return err
	}
	if err := assets.RequireBalance(e.state, e.params.Treasury, assets.GRB, amount); err != nil {
		return fmt.Errorf("market engine: treasury: %w", err)
	}
	if err := assets.Transfer(e.state, user, e.params.Treasury, assets.Native, price); err != nil {
		return err
	}
	if err := assets.Transfer(e.state, e.params.Treasury, user, assets.GRB, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.MarketCurrencyBought{User: user, Amount: amount, Payment: price})
	return nil
}

// BuyFuel burns Crystal for qty Fuel.
func (e *Engine) BuyFuel(user common.Address, qty uint64) (*big.Int, error) {
	if e.state == nil {
		return nil, errNilState
	}
	cost, err := e.prices.FuelCost(qty)
	if err != nil {
		return nil, err
	}
	if err := assets.RequireBalance(e.state, user, assets.Crystal, cost); err != nil {
		return nil, err
	}
	if err := e.state.Debit(user, assets.Crystal, cost); err != nil {
		return nil, err
	}
	if err := e.state.Credit(user, assets.Fuel, new(big.Int).SetUint64(qty)); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.MarketFuelBought{User: user, Quantity: qty, Cost: cost})
	return cost, nil
}

func (e *Engine) discount(user common.Address) (uint64, error) {
	if e.tiers == nil {
		return 0, nil
	}
	tier, err := e.tiers.TierOf(user)
	if err != nil {
		if errors.Is(err, nativecommon.ErrProviderUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", errTierUnavailable, err)
	}
	return tier.DiscountBps, nil
}

// BoosterPackResourcePrice quotes the GRB pack price for user.
func (e *Engine) BoosterPackResourcePrice(user common.Address) (*big.Int, uint64, error) {
	bps, err := e.discount(user)
	if err != nil {
		return nil, 0, err
	}
	price, err := e.prices.BoosterPackResourcePrice(bps)
	if err != nil {
		return nil, 0, err
	}
	return price, bps, nil
}

// BuyBoosterPackWithResource pays the discounted GRB price into the treasury.
func (e *Engine) BuyBoosterPackWithResource(user common.Address) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	price, bps, err := e.BoosterPackResourcePrice(user)
	if err != nil {
		return nil, err
	}
	if err := assets.RequireBalance(e.state, user, assets.GRB, price); err != nil {
		return nil, err
	}
	if err := assets.Transfer(e.state, user, e.params.Treasury, assets.GRB, price); err != nil {
		return nil, err
	}
	if err := e.state.Credit(user, assets.BoosterPack, big.NewInt(1)); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.MarketBoosterBought{User: user, Currency: assets.GRB.String(), Price: price, DiscountBps: bps})
	return price, nil
}

// BuyBoosterPackWithPayment pays exactly the native pack price.
func (e *Engine) BuyBoosterPackWithPayment(user common.Address, paymentSent *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	price := e.prices.BoosterPackPaymentPrice()
	if paymentSent == nil || paymentSent.Cmp(price) != 0 {
		return fmt.Errorf("%w: want %s, sent %v", errPaymentMismatch, price, paymentSent)
	}
	if err := assets.RequireBalance(e.state, user, assets.Native, price); err != nil {
		return err
	}
	if err := assets.Transfer(e.state, user, e.params.Treasury, assets.Native, price); err != nil {
		return err
	}
	if err := e.state.Credit(user, assets.BoosterPack, big.NewInt(1)); err != nil {
		return err
	}
	e.emitter.Emit(events.MarketBoosterBought{User: user, Currency: assets.Native.String(), Price: price})
	return nil
}

// BoosterContents is what an opened pack yielded.
type BoosterContents struct {
	Card    assets.Kind `json:"card"`
	Mineral *big.Int    `json:"mineral"`
	Ship    *ships.Ship `json:"ship,omitempty"`
}

// Open derives pack contents from one random value without touching state.
func (p Params) Open(r uint64) (assets.Kind, *big.Int, bool) {
	card := assets.FirstUpgradeCard + assets.Kind(ships.Mix(r, 0)%assets.UpgradeCardCount)
	mineral := new(big.Int).Set(p.BoosterMineralMin)
	if span := new(big.Int).Sub(p.BoosterMineralMax, p.BoosterMineralMin); span.Sign() > 0 {
		span.Add(span, big.NewInt(1))
		offset := new(big.Int).Mod(new(big.Int).SetUint64(ships.Mix(r, 1)), span)
		mineral.Add(mineral, offset)
	}
	ship := ships.Mix(r, 2)%pricing.MaxBps < p.ShipChanceBps
	return card, mineral, ship
}

// UseBoosterPack burns one pack and credits its contents. The provider is
// drawn once; a dropped ship is rolled from the same value.
func (e *Engine) UseBoosterPack(user common.Address) (*BoosterContents, error) {
	if e.state == nil {
		return nil, errNilState
	}
	if e.ships == nil {
		return nil, errNilShips
	}
	one := big.NewInt(1)
	if err := assets.RequireBalance(e.state, user, assets.BoosterPack, one); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoBoosterPack, err)
	}
	r, err := randomness.Draw(e.rng)
	if err != nil {
		return nil, err
	}
	card, mineral, dropShip := e.params.Open(r)
	if err := e.state.Debit(user, assets.BoosterPack, one); err != nil {
		return nil, err
	}
	if err := e.state.Credit(user, card, one); err != nil {
		return nil, err
	}
	if mineral.Sign() > 0 {
		if err := e.state.Credit(user, assets.Mineral, mineral); err != nil {
			return nil, err
		}
	}
	contents := &BoosterContents{Card: card, Mineral: mineral}
	var shipID uint64
	if dropShip {
		ship, err := e.ships.CreateShip(user, e.ships.RollStats(ships.Mix(r, 3)))
		if err != nil {
			return nil, err
		}
		contents.Ship = ship
		shipID = ship.ID
	}
	e.emitter.Emit(events.MarketBoosterOpened{User: user, Card: uint64(card), Mineral: mineral, ShipID: shipID})
	return contents, nil
}

// CreateTestShip mints a random ship for free.
func (e *Engine) CreateTestShip(user common.Address) (*ships.Ship, error) {
	if !e.params.AllowTestMints {
		return nil, errTestMintsOff
	}
	if e.ships == nil {
		return nil, errNilShips
	}
	ship, err := e.ships.CreateRandomShip(user)
	if err != nil {
		return nil, err
	}
	e.emitter.Emit(events.MarketTestMint{User: user, Kind: "ship", Amount: new(big.Int).SetUint64(ship.ID)})
	return ship, nil
}

// CreateTestUpgradeCard mints qty cards of kind for free.
func (e *Engine) CreateTestUpgradeCard(user common.Address, kind assets.Kind, qty uint64) error {
	if !kind.IsUpgradeCard() {
		return errInvalidTestMint
	}
	return e.testMint(user, kind, qty)
}

// CreateTestBoosterPack mints qty booster packs for free.
func (e *Engine) CreateTestBoosterPack(user common.Address, qty uint64) error {
	return e.testMint(user, assets.BoosterPack, qty)
}

func (e *Engine) testMint(user common.Address, kind assets.Kind, qty uint64) error {
	if !e.params.AllowTestMints {
		return errTestMintsOff
	}
	if e.state == nil {
		return errNilState
	}
	if qty == 0 {
		return errInvalidQuantity
	}
	amount := new(big.Int).SetUint64(qty)
	if err := e.state.Credit(user, kind, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.MarketTestMint{User: user, Kind: kind.String(), Amount: amount})
	return nil
}
