package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core/types"
)

const (
	TypeRefineryInitialized = "refinery.initialized"
	TypeRefineryClaimed     = "refinery.claimed"
	TypeRefineryUpgraded    = "refinery.upgraded"

	TypeShipCreated  = "ship.created"
	TypeShipUpgraded = "ship.upgraded"

	TypeFleetShipAdded        = "fleet.ship_added"
	TypeFleetShipRemoved      = "fleet.ship_removed"
	TypeFleetExploreStarted   = "fleet.explore_started"
	TypeFleetExploreCompleted = "fleet.explore_completed"

	TypeMarketCurrencyBought = "market.currency_bought"
	TypeMarketFuelBought     = "market.fuel_bought"
	TypeMarketBoosterBought  = "market.booster_bought"
	TypeMarketBoosterOpened  = "market.booster_opened"
	TypeMarketTestMint       = "market.test_mint"

	TypeStakingDeposited = "staking.deposited"
	TypeStakingWithdrawn = "staking.withdrawn"

	TypeLedgerCredited  = "ledger.credited"
	TypeUserInitialized = "user.initialized"
)

// Typed is implemented by every game event so sinks can store a flat view.
type Typed interface {
	Event
	Event() *types.Event
}

// UserOf returns the "user" attribute of a typed event, if any.
func UserOf(evt Event) string {
	typed, ok := evt.(Typed)
	if !ok {
		return ""
	}
	payload := typed.Event()
	if payload == nil {
		return ""
	}
	return payload.Attributes["user"]
}

type RefineryInitialized struct {
	User                common.Address
	ProductionPerSecond *big.Int
	At                  int64
}

func (RefineryInitialized) EventType() string { return TypeRefineryInitialized }

func (e RefineryInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeRefineryInitialized,
		Attributes: map[string]string{
			"user":                e.User.Hex(),
			"productionPerSecond": formatAmount(e.ProductionPerSecond),
			"at":                  intToString(e.At),
		},
	}
}

type RefineryClaimed struct {
	User            common.Address
	MineralSpent    *big.Int
	CrystalProduced *big.Int
	At              int64
}

func (RefineryClaimed) EventType() string { return TypeRefineryClaimed }

func (e RefineryClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeRefineryClaimed,
		Attributes: map[string]string{
			"user":            e.User.Hex(),
			"mineralSpent":    formatAmount(e.MineralSpent),
			"crystalProduced": formatAmount(e.CrystalProduced),
			"at":              intToString(e.At),
		},
	}
}

type RefineryUpgraded struct {
	User                common.Address
	FromLevel           uint64
	ToLevel             uint64
	Cost                *big.Int
	ProductionPerSecond *big.Int
}

func (RefineryUpgraded) EventType() string { return TypeRefineryUpgraded }

func (e RefineryUpgraded) Event() *types.Event {
	return &types.Event{
		Type: TypeRefineryUpgraded,
		Attributes: map[string]string{
			"user":                e.User.Hex(),
			"fromLevel":           uintToString(e.FromLevel),
			"toLevel":             uintToString(e.ToLevel),
			"cost":                formatAmount(e.Cost),
			"productionPerSecond": formatAmount(e.ProductionPerSecond),
		},
	}
}

type ShipCreated struct {
	Owner       common.Address
	ShipID      uint64
	HP          uint64
	Attack      uint64
	MiningSpeed uint64
	TravelSpeed uint64
	InFleet     bool
}

func (ShipCreated) EventType() string { return TypeShipCreated }

func (e ShipCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeShipCreated,
		Attributes: map[string]string{
			"user":        e.Owner.Hex(),
			"shipId":      uintToString(e.ShipID),
			"hp":          uintToString(e.HP),
			"attack":      uintToString(e.Attack),
			"miningSpeed": uintToString(e.MiningSpeed),
			"travelSpeed": uintToString(e.TravelSpeed),
			"inFleet":     strconv.FormatBool(e.InFleet),
		},
	}
}

// ShipUpgraded carries the applied deltas; Source is "direct" or the card kind.
type ShipUpgraded struct {
	Owner       common.Address
	ShipID      uint64
	Source      string
	HP          uint64
	Attack      uint64
	MiningSpeed uint64
	TravelSpeed uint64
	Cost        *big.Int
}

func (ShipUpgraded) EventType() string { return TypeShipUpgraded }

func (e ShipUpgraded) Event() *types.Event {
	return &types.Event{
		Type: TypeShipUpgraded,
		Attributes: map[string]string{
			"user":        e.Owner.Hex(),
			"shipId":      uintToString(e.ShipID),
			"source":      e.Source,
			"hp":          uintToString(e.HP),
			"attack":      uintToString(e.Attack),
			"miningSpeed": uintToString(e.MiningSpeed),
			"travelSpeed": uintToString(e.TravelSpeed),
			"cost":        formatAmount(e.Cost),
		},
	}
}

type FleetShipAdded struct {
	User   common.Address
	ShipID uint64
}

func (FleetShipAdded) EventType() string { return TypeFleetShipAdded }

func (e FleetShipAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeFleetShipAdded,
		Attributes: map[string]string{
			"user":   e.User.Hex(),
			"shipId": uintToString(e.ShipID),
		},
	}
}

type FleetShipRemoved struct {
	User   common.Address
	ShipID uint64
}

func (FleetShipRemoved) EventType() string { return TypeFleetShipRemoved }

func (e FleetShipRemoved) Event() *types.Event {
	return &types.Event{
		Type: TypeFleetShipRemoved,
		Attributes: map[string]string{
			"user":   e.User.Hex(),
			"shipId": uintToString(e.ShipID),
		},
	}
}

type FleetExploreStarted struct {
	User      common.Address
	Distance  uint64
	FuelSpent *big.Int
	Ships     int
	StartedAt int64
}

func (FleetExploreStarted) EventType() string { return TypeFleetExploreStarted }

func (e FleetExploreStarted) Event() *types.Event {
	return &types.Event{
		Type: TypeFleetExploreStarted,
		Attributes: map[string]string{
			"user":      e.User.Hex(),
			"distance":  uintToString(e.Distance),
			"fuelSpent": formatAmount(e.FuelSpent),
			"ships":     strconv.Itoa(e.Ships),
			"startedAt": intToString(e.StartedAt),
		},
	}
}

type FleetExploreCompleted struct {
	User          common.Address
	Distance      uint64
	MineralReward *big.Int
	CompletedAt   int64
}

func (FleetExploreCompleted) EventType() string { return TypeFleetExploreCompleted }

func (e FleetExploreCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeFleetExploreCompleted,
		Attributes: map[string]string{
			"user":          e.User.Hex(),
			"distance":      uintToString(e.Distance),
			"mineralReward": formatAmount(e.MineralReward),
			"completedAt":   intToString(e.CompletedAt),
		},
	}
}

type MarketCurrencyBought struct {
	User    common.Address
	Amount  *big.Int
	Payment *big.Int
}

func (MarketCurrencyBought) EventType() string { return TypeMarketCurrencyBought }

func (e MarketCurrencyBought) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketCurrencyBought,
		Attributes: map[string]string{
			"user":    e.User.Hex(),
			"amount":  formatAmount(e.Amount),
			"payment": formatAmount(e.Payment),
		},
	}
}

type MarketFuelBought struct {
	User     common.Address
	Quantity uint64
	Cost     *big.Int
}

func (MarketFuelBought) EventType() string { return TypeMarketFuelBought }

func (e MarketFuelBought) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketFuelBought,
		Attributes: map[string]string{
			"user":     e.User.Hex(),
			"quantity": uintToString(e.Quantity),
			"cost":     formatAmount(e.Cost),
		},
	}
}

// MarketBoosterBought records a pack purchase; Currency names the kind paid.
type MarketBoosterBought struct {
	User        common.Address
	Currency    string
	Price       *big.Int
	DiscountBps uint64
}

func (MarketBoosterBought) EventType() string { return TypeMarketBoosterBought }

func (e MarketBoosterBought) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketBoosterBought,
		Attributes: map[string]string{
			"user":        e.User.Hex(),
			"currency":    e.Currency,
			"price":       formatAmount(e.Price),
			"discountBps": uintToString(e.DiscountBps),
		},
	}
}

// MarketBoosterOpened lists the pack contents. ShipID is zero when no ship
// dropped.
type MarketBoosterOpened struct {
	User    common.Address
	Card    uint64
	Mineral *big.Int
	ShipID  uint64
}

func (MarketBoosterOpened) EventType() string { return TypeMarketBoosterOpened }

func (e MarketBoosterOpened) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketBoosterOpened,
		Attributes: map[string]string{
			"user":    e.User.Hex(),
			"card":    uintToString(e.Card),
			"mineral": formatAmount(e.Mineral),
			"shipId":  uintToString(e.ShipID),
		},
	}
}

type MarketTestMint struct {
	User   common.Address
	Kind   string
	Amount *big.Int
}

func (MarketTestMint) EventType() string { return TypeMarketTestMint }

func (e MarketTestMint) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketTestMint,
		Attributes: map[string]string{
			"user":   e.User.Hex(),
			"kind":   e.Kind,
			"amount": formatAmount(e.Amount),
		},
	}
}

type StakingDeposited struct {
	User     common.Address
	Amount   *big.Int
	Total    *big.Int
	UnlockAt int64
}

func (StakingDeposited) EventType() string { return TypeStakingDeposited }

func (e StakingDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingDeposited,
		Attributes: map[string]string{
			"user":     e.User.Hex(),
			"amount":   formatAmount(e.Amount),
			"total":    formatAmount(e.Total),
			"unlockAt": intToString(e.UnlockAt),
		},
	}
}

type StakingWithdrawn struct {
	User   common.Address
	Amount *big.Int
}

func (StakingWithdrawn) EventType() string { return TypeStakingWithdrawn }

func (e StakingWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeStakingWithdrawn,
		Attributes: map[string]string{
			"user":   e.User.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}

type LedgerCredited struct {
	User   common.Address
	Kind   string
	Amount *big.Int
}

func (LedgerCredited) EventType() string { return TypeLedgerCredited }

func (e LedgerCredited) Event() *types.Event {
	return &types.Event{
		Type: TypeLedgerCredited,
		Attributes: map[string]string{
			"user":   e.User.Hex(),
			"kind":   e.Kind,
			"amount": formatAmount(e.Amount),
		},
	}
}

type UserInitialized struct {
	User   common.Address
	ShipID uint64
}

func (UserInitialized) EventType() string { return TypeUserInitialized }

func (e UserInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeUserInitialized,
		Attributes: map[string]string{
			"user":   e.User.Hex(),
			"shipId": uintToString(e.ShipID),
		},
	}
}
