package assets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cemleme/GRB-contracts/native/common"
)

// Kind identifies a fungible balance held in the ledger. Item kinds share the
// id space with ships: fungible items occupy the low ids and ships are minted
// from FirstShipID upwards.
type Kind uint64

const (
	Mineral     Kind = 0
	Crystal     Kind = 1
	Fuel        Kind = 2
	BoosterPack Kind = 3

	// FirstUpgradeCard and LastUpgradeCard bound the upgrade card ids.
	FirstUpgradeCard Kind = 22
	LastUpgradeCard  Kind = 33

	// GRB is the resource token bought with the payment currency.
	GRB Kind = 1 << 32
	// Native is the payment currency.
	Native Kind = 1<<32 + 1
)

const (
	// UpgradeCardCount is the number of distinct upgrade card kinds.
	UpgradeCardCount = uint64(LastUpgradeCard-FirstUpgradeCard) + 1
	// CardsPerStat is the width of each stat band.
	CardsPerStat = UpgradeCardCount / uint64(statCount)
	// FirstShipID is the id assigned to the first ship ever minted.
	FirstShipID uint64 = 34
)

// Stat names one of the four ship stats.
type Stat uint8

const (
	StatHP Stat = iota
	StatAttack
	StatMiningSpeed
	StatTravelSpeed
	statCount
)

// Stats lists every stat in band order.
var Stats = []Stat{StatHP, StatAttack, StatMiningSpeed, StatTravelSpeed}

func (s Stat) String() string {
	switch s {
	case StatHP:
		return "hp"
	case StatAttack:
		return "attack"
	case StatMiningSpeed:
		return "miningSpeed"
	case StatTravelSpeed:
		return "travelSpeed"
	default:
		return "stat(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether the stat is one of the four known stats.
func (s Stat) Valid() bool { return s < statCount }

// IsUpgradeCard reports whether the kind is one of the upgrade card kinds.
func (k Kind) IsUpgradeCard() bool {
	return k >= FirstUpgradeCard && k <= LastUpgradeCard
}

// CardStat maps an upgrade card kind onto the stat its band upgrades and the
// tier of the card inside that band (0 is the weakest).
func CardStat(kind Kind) (Stat, uint64, error) {
	if !kind.IsUpgradeCard() {
		return 0, 0, fmt.Errorf("assets: %w: kind %d is not an upgrade card", common.ErrInvalidArgument, kind)
	}
	offset := uint64(kind - FirstUpgradeCard)
	return Stat(offset / CardsPerStat), offset % CardsPerStat, nil
}

// CardKind returns the upgrade card kind for the stat and tier.
func CardKind(stat Stat, tier uint64) (Kind, error) {
	if !stat.Valid() || tier >= CardsPerStat {
		return 0, fmt.Errorf("assets: %w: no card for stat %s tier %d", common.ErrInvalidArgument, stat, tier)
	}
	return FirstUpgradeCard + Kind(uint64(stat)*CardsPerStat+tier), nil
}

var kindNames = map[Kind]string{
	Mineral:     "mineral",
	Crystal:     "crystal",
	Fuel:        "fuel",
	BoosterPack: "boosterpack",
	GRB:         "grb",
	Native:      "native",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if k.IsUpgradeCard() {
		stat, tier, _ := CardStat(k)
		return fmt.Sprintf("card:%s:%d", stat, tier)
	}
	return "kind:" + strconv.FormatUint(uint64(k), 10)
}

// ParseKind accepts either a kind name ("crystal", "grb") or a numeric id.
func ParseKind(raw string) (Kind, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return 0, fmt.Errorf("assets: %w: kind required", common.ErrInvalidArgument)
	}
	for kind, name := range kindNames {
		if name == trimmed {
			return kind, nil
		}
	}
	id, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("assets: %w: unknown kind %q", common.ErrInvalidArgument, raw)
	}
	kind := Kind(id)
	if _, ok := kindNames[kind]; ok || kind.IsUpgradeCard() {
		return kind, nil
	}
	return 0, fmt.Errorf("assets: %w: unknown kind %d", common.ErrInvalidArgument, id)
}
