package core

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/fleet"
	"github.com/cemleme/GRB-contracts/native/market"
	"github.com/cemleme/GRB-contracts/native/refinery"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/native/staking"
)

// InitializeUser onboards user: starter Mineral and Fuel, a level 1 refinery
// and a random starter ship in the fleet.
func (g *Game) InitializeUser(ctx context.Context, user common.Address) (*ships.Ship, error) {
	var starter *ships.Ship
	err := g.exec(ctx, ModuleUser, "initializeUser", user, func(eng *engines) error {
		if _, err := eng.refinery.Refinery(user); err == nil {
			return errAlreadyOnboarded
		} else if !isNoRefinery(err) {
			return err
		}
		ship, err := eng.ships.CreateRandomShip(user)
		if err != nil {
			return err
		}
		if !ship.InFleet {
			if err := eng.fleet.AddShipToFleet(user, ship.ID); err != nil {
				return err
			}
			ship.InFleet = true
		}
		if _, err := eng.refinery.Initialize(user); err != nil {
			return err
		}
		if err := eng.credit(user, assets.Mineral, g.economy.Starter.Mineral); err != nil {
			return err
		}
		if err := eng.credit(user, assets.Fuel, g.economy.Starter.Fuel); err != nil {
			return err
		}
		eng.emitter.Emit(events.UserInitialized{User: user, ShipID: ship.ID})
		starter = ship
		return nil
	})
	return starter, err
}

// Credit funds user with amount of kind. It is an administrative operation.
func (g *Game) Credit(ctx context.Context, user common.Address, kind assets.Kind, amount *big.Int) error {
	if !creditable(kind) {
		return errUnknownKind
	}
	return g.exec(ctx, ModuleUser, "credit", user, func(eng *engines) error {
		return eng.credit(user, kind, amount)
	})
}

// Balance returns the quantity of kind user holds.
func (g *Game) Balance(user common.Address, kind assets.Kind) (*big.Int, error) {
	var out *big.Int
	err := g.view(func(eng *engines) error {
		var err error
		out, err = eng.state.BalanceOf(user, kind)
		return err
	})
	return out, err
}

// Balances returns every fungible balance user holds that is non-zero.
func (g *Game) Balances(user common.Address) (map[string]*big.Int, error) {
	kinds := []assets.Kind{assets.Mineral, assets.Crystal, assets.Fuel, assets.BoosterPack, assets.GRB, assets.Native}
	for k := assets.FirstUpgradeCard; k <= assets.LastUpgradeCard; k++ {
		kinds = append(kinds, k)
	}
	out := make(map[string]*big.Int)
	err := g.view(func(eng *engines) error {
		for _, kind := range kinds {
			bal, err := eng.state.BalanceOf(user, kind)
			if err != nil {
				return err
			}
			if bal.Sign() > 0 {
				out[kind.String()] = bal
			}
		}
		return nil
	})
	return out, err
}

// CalculateRefinery previews the pending settlement without changing state.
func (g *Game) CalculateRefinery(user common.Address) (refinery.Settlement, error) {
	var out refinery.Settlement
	err := g.view(func(eng *engines) error {
		var err error
		out, err = eng.refinery.Calculate(user)
		return err
	})
	return out, err
}

// ClaimRefinery settles pending production.
func (g *Game) ClaimRefinery(ctx context.Context, user common.Address) (refinery.Settlement, error) {
	var out refinery.Settlement
	err := g.exec(ctx, nativecommon.ModuleRefinery, "claim", user, func(eng *engines) error {
		var err error
		out, err = eng.refinery.Claim(user)
		return err
	})
	return out, err
}

// UpgradeRefinery raises the refinery by levels.
func (g *Game) UpgradeRefinery(ctx context.Context, user common.Address, levels uint64) (*refinery.Refinery, error) {
	var out *refinery.Refinery
	err := g.exec(ctx, nativecommon.ModuleRefinery, "upgrade", user, func(eng *engines) error {
		var err error
		out, err = eng.refinery.Upgrade(user, levels)
		return err
	})
	return out, err
}

// Refinery returns the user's refinery.
func (g *Game) Refinery(user common.Address) (*refinery.Refinery, error) {
	var out *refinery.Refinery
	err := g.view(func(eng *engines) error {
		var err error
		out, err = eng.refinery.Refinery(user)
		return err
	})
	return out, err
}

// RefineryUpgradeCost quotes the Crystal needed to raise the refinery by levels.
func (g *Game) RefineryUpgradeCost(user common.Address, levels uint64) (*big.Int, error) {
	ref, err := g.Refinery(user)
	if err != nil {
		return nil, err
	}
	return g.economy.Pricing.RefineryUpgradeCost(ref.Level, levels)
}

// AddShipToFleet lists an owned ship in the user's fleet.
func (g *Game) AddShipToFleet(ctx context.Context, user common.Address, shipID uint64) error {
	return g.exec(ctx, nativecommon.ModuleFleet, "addShip", user, func(eng *engines) error {
		return eng.fleet.AddShipToFleet(user, shipID)
	})
}

// RemoveShipFromFleet takes a ship out of the user's fleet.
func (g *Game) RemoveShipFromFleet(ctx context.Context, user common.Address, shipID uint64) error {
	return g.exec(ctx, nativecommon.ModuleFleet, "removeShip", user, func(eng *engines) error {
		return eng.fleet.RemoveShipFromFleet(user, shipID)
	})
}

// Explore sends the fleet distance units away.
func (g *Game) Explore(ctx context.Context, user common.Address, distance uint64) (*fleet.Exploration, error) {
	var out *fleet.Exploration
	err := g.exec(ctx, nativecommon.ModuleFleet, "explore", user, func(eng *engines) error {
		var err error
		out, err = eng.fleet.Explore(user, distance)
		return err
	})
	return out, err
}

// CompleteExploration brings the fleet home and pays the Mineral reward.
func (g *Game) CompleteExploration(ctx context.Context, user common.Address) (*big.Int, error) {
	var out *big.Int
	err := g.exec(ctx, nativecommon.ModuleFleet, "completeExploration", user, func(eng *engines) error {
		var err error
		out, err = eng.fleet.CompleteExploration(user)
		return err
	})
	return out, err
}

// Fleet returns the ship ids in the user's fleet.
func (g *Game) Fleet(user common.Address) ([]uint64, error) {
	var out []uint64
	err := g.view(func(eng *engines) error {
		var err error
		out, err = eng.fleet.Fleet(user)
		return err
	})
	return out, err
}

// ExplorationStatus describes the user's current or last trip.
type ExplorationStatus struct {
	Exploration *fleet.Exploration `json:"exploration"`
	Found       bool               `json:"found"`
	ArrivesAt   int64              `json:"arrivesAt"`
}

// Exploration returns the user's exploration record.
func (g *Game) Exploration(user common.Address) (ExplorationStatus, error) {
	var out ExplorationStatus
	err := g.view(func(eng *engines) error {
		exploration, ok, err := eng.fleet.Exploration(user)
		if err != nil {
			return err
		}
		out.Exploration, out.Found = exploration, ok
		if ok {
			out.ArrivesAt = eng.fleet.ArrivalTime(exploration)
		}
		return nil
	})
	return out, err
}

// IsOnFleet reports whether a ship is listed in a fleet.
func (g *Game) IsOnFleet(shipID uint64) (bool, error) {
	var out bool
	err := g.view(func(eng *engines) error {
		var err error
		out, err = eng.fleet.IsOnFleet(shipID)
		return err
	})
	return out, err
}

// Ship returns a ship by id.
func (g *Game) Ship(shipID uint64) (*ships.Ship, error) {
	var out *ships.Ship
	err := g.view(func(eng *engines) error {
		var err error
		out, err = eng.ships.Ship(shipID)
		return err
	})
	return out, err
}

// ShipsOf returns every ship user owns.
func (g *Game) ShipsOf(user common.Address) ([]*ships.Ship, error) {
	var out []*ships.Ship
	err := g.view(func(eng *engines) error {
		var err error
		out, err = eng.ships.ShipsOf(user)
		return err
	})
	return out, err
}

// UpgradeShip buys delta stat points for Crystal.
func (g *Game) UpgradeShip(ctx context.Context, user common.Address, shipID uint64, delta ships.Stats) (*ships.Ship, error) {
	var out *ships.Ship
	err := g.exec(ctx, nativecommon.ModuleUpgrade, "upgradeShip", user, func(eng *engines) error {
		var err error
		out, err = eng.upgrade.UpgradeShipDirect(user, shipID, delta)
		return err
	})
	return out, err
}

// CardResult is the outcome of burning one upgrade card.
type CardResult struct {
	Ship      *ships.Ship `json:"ship"`
	Magnitude uint64      `json:"magnitude"`
	Stat      string      `json:"stat"`
}

// UseUpgradeCard burns one card of kind on shipID.
func (g *Game) UseUpgradeCard(ctx context.Context, user common.Address, kind assets.Kind, shipID uint64) (CardResult, error) {
	var out CardResult
	err := g.exec(ctx, nativecommon.ModuleUpgrade, "useUpgradeCard", user, func(eng *engines) error {
		ship, magnitude, err := eng.upgrade.UseUpgradeCard(user, kind, shipID)
		if err != nil {
			return err
		}
		stat, _, err := assets.CardStat(kind)
		if err != nil {
			return err
		}
		out = CardResult{Ship: ship, Magnitude: magnitude, Stat: stat.String()}
		return nil
	})
	return out, err
}

// BuyCurrency buys amount GRB for exactly the listed native payment.
func (g *Game) BuyCurrency(ctx context.Context, user common.Address, amount, paymentSent *big.Int) error {
	return g.exec(ctx, nativecommon.ModuleMarket, "buyCurrency", user, func(eng *engines) error {
		return eng.market.BuyCurrency(user, amount, paymentSent)
	})
}

// BuyFuel burns Crystal for qty Fuel and returns the cost.
func (g *Game) BuyFuel(ctx context.Context, user common.Address, qty uint64) (*big.Int, error) {
	var out *big.Int
	err := g.exec(ctx, nativecommon.ModuleMarket, "buyFuel", user, func(eng *engines) error {
		var err error
		out, err = eng.market.BuyFuel(user, qty)
		return err
	})
	return out, err
}

// BoosterQuote is the pack price offered to a user.
type BoosterQuote struct {
	ResourcePrice *big.Int `json:"resourcePrice"`
	DiscountBps   uint64   `json:"discountBps"`
	PaymentPrice  *big.Int `json:"paymentPrice"`
}

// BoosterPackPrice quotes both pack prices for user.
func (g *Game) BoosterPackPrice(user common.Address) (BoosterQuote, error) {
	var out BoosterQuote
	err := g.view(func(eng *engines) error {
		price, bps, err := eng.market.BoosterPackResourcePrice(user)
		if err != nil {
			return err
		}
		out = BoosterQuote{ResourcePrice: price, DiscountBps: bps, PaymentPrice: g.economy.Pricing.BoosterPackPaymentPrice()}
		return nil
	})
	return out, err
}

// BuyBoosterPackWithResource buys a pack for GRB and returns the price paid.
func (g *Game) BuyBoosterPackWithResource(ctx context.Context, user common.Address) (*big.Int, error) {
	var out *big.Int
	err := g.exec(ctx, nativecommon.ModuleMarket, "buyBoosterPack", user, func(eng *engines) error {
		var err error
		out, err = eng.market.BuyBoosterPackWithResource(user)
		return err
	})
	return out, err
}

// BuyBoosterPackWithPayment buys a pack for the exact native price.
func (g *Game) BuyBoosterPackWithPayment(ctx context.Context, user common.Address, paymentSent *big.Int) error {
	return g.exec(ctx, nativecommon.ModuleMarket, "buyBoosterPackWithPayment", user, func(eng *engines) error {
		return eng.market.BuyBoosterPackWithPayment(user, paymentSent)
	})
}

// UseBoosterPack opens one pack.
func (g *Game) UseBoosterPack(ctx context.Context, user common.Address) (*market.BoosterContents, error) {
	var out *market.BoosterContents
	err := g.exec(ctx, nativecommon.ModuleMarket, "useBoosterPack", user, func(eng *engines) error {
		var err error
		out, err = eng.market.UseBoosterPack(user)
		return err
	})
	return out, err
}

// Stake locks amount GRB for the lock period at index lockPeriod.
func (g *Game) Stake(ctx context.Context, user common.Address, amount *big.Int, lockPeriod uint64) (*staking.Position, error) {
	var out *staking.Position
	err := g.exec(ctx, nativecommon.ModuleStaking, "stake", user, func(eng *engines) error {
		var err error
		out, err = eng.staking.Deposit(user, amount, lockPeriod)
		return err
	})
	return out, err
}

// Unstake withdraws an unlocked position.
func (g *Game) Unstake(ctx context.Context, user common.Address) (*big.Int, error) {
	var out *big.Int
	err := g.exec(ctx, nativecommon.ModuleStaking, "unstake", user, func(eng *engines) error {
		var err error
		out, err = eng.staking.Withdraw(user)
		return err
	})
	return out, err
}

// StakeInfo is a user's staking position and the tier it earns.
type StakeInfo struct {
	Position *staking.Position `json:"position"`
	Found    bool              `json:"found"`
	Tier     staking.Tier      `json:"tier"`
}

// StakeInfo returns the user's position and tier.
func (g *Game) StakeInfo(user common.Address) (StakeInfo, error) {
	var out StakeInfo
	err := g.view(func(eng *engines) error {
		position, ok, err := eng.staking.Position(user)
		if err != nil {
			return err
		}
		tier, err := eng.staking.TierOf(user)
		if err != nil {
			return err
		}
		out = StakeInfo{Position: position, Found: ok, Tier: tier}
		return nil
	})
	return out, err
}

// CreateTestShip mints a free random ship and lists it in the fleet when the
// fleet is home.
func (g *Game) CreateTestShip(ctx context.Context, user common.Address) (*ships.Ship, error) {
	var out *ships.Ship
	err := g.exec(ctx, nativecommon.ModuleMarket, "createTestShip", user, func(eng *engines) error {
		ship, err := eng.market.CreateTestShip(user)
		if err != nil {
			return err
		}
		if !ship.InFleet {
			exploration, ok, err := eng.fleet.Exploration(user)
			if err != nil {
				return err
			}
			if !ok || !exploration.FleetOnExplore {
				if err := eng.fleet.AddShipToFleet(user, ship.ID); err != nil {
					return err
				}
				ship.InFleet = true
			}
		}
		out = ship
		return nil
	})
	return out, err
}

// CreateTestUpgradeCard mints qty free cards of kind.
func (g *Game) CreateTestUpgradeCard(ctx context.Context, user common.Address, kind assets.Kind, qty uint64) error {
	return g.exec(ctx, nativecommon.ModuleMarket, "createTestUpgradeCard", user, func(eng *engines) error {
		return eng.market.CreateTestUpgradeCard(user, kind, qty)
	})
}

// CreateTestBoosterPack mints qty free booster packs.
func (g *Game) CreateTestBoosterPack(ctx context.Context, user common.Address, qty uint64) error {
	return g.exec(ctx, nativecommon.ModuleMarket, "createTestBoosterPack", user, func(eng *engines) error {
		return eng.market.CreateTestBoosterPack(user, qty)
	})
}

func isNoRefinery(err error) bool {
	return err != nil && errors.Is(err, refinery.ErrNoRefinery)
}
