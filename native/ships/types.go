package ships

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
)

// Stats are the four ship attributes. They only ever grow.
type Stats struct {
	HP          uint64 `json:"hp"`
	Attack      uint64 `json:"attack"`
	MiningSpeed uint64 `json:"miningSpeed"`
	TravelSpeed uint64 `json:"travelSpeed"`
}

// Get returns the value of one stat.
func (s Stats) Get(stat assets.Stat) uint64 {
	switch stat {
	case assets.StatHP:
		return s.HP
	case assets.StatAttack:
		return s.Attack
	case assets.StatMiningSpeed:
		return s.MiningSpeed
	case assets.StatTravelSpeed:
		return s.TravelSpeed
	default:
		return 0
	}
}

// Only returns a delta touching a single stat.
func Only(stat assets.Stat, amount uint64) Stats {
	var out Stats
	switch stat {
	case assets.StatHP:
		out.HP = amount
	case assets.StatAttack:
		out.Attack = amount
	case assets.StatMiningSpeed:
		out.MiningSpeed = amount
	case assets.StatTravelSpeed:
		out.TravelSpeed = amount
	}
	return out
}

// IsZero reports whether every stat is zero.
func (s Stats) IsZero() bool { return s == Stats{} }

// Sum adds the four stats.
func (s Stats) Sum() (uint64, error) {
	var total uint64
	for _, v := range []uint64{s.HP, s.Attack, s.MiningSpeed, s.TravelSpeed} {
		if total > math.MaxUint64-v {
			return 0, errStatOverflow
		}
		total += v
	}
	return total, nil
}

// Add returns s+delta, failing if any stat would overflow.
func (s Stats) Add(delta Stats) (Stats, error) {
	add := func(a, b uint64) (uint64, error) {
		if a > math.MaxUint64-b {
			return 0, errStatOverflow
		}
		return a + b, nil
	}
	var (
		out Stats
		err error
	)
	if out.HP, err = add(s.HP, delta.HP); err != nil {
		return Stats{}, err
	}
	if out.Attack, err = add(s.Attack, delta.Attack); err != nil {
		return Stats{}, err
	}
	if out.MiningSpeed, err = add(s.MiningSpeed, delta.MiningSpeed); err != nil {
		return Stats{}, err
	}
	if out.TravelSpeed, err = add(s.TravelSpeed, delta.TravelSpeed); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// Ship is a non-fungible unit owned by a user.
type Ship struct {
	ID        uint64         `json:"id"`
	Owner     common.Address `json:"owner"`
	Stats     Stats          `json:"stats"`
	InFleet   bool           `json:"inFleet"`
	CreatedAt int64          `json:"createdAt"`
}

// Clone returns a deep copy of the ship.
func (s *Ship) Clone() *Ship {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Range is an inclusive [Min, Max] band.
type Range struct {
	Min uint64 `yaml:"min" json:"min"`
	Max uint64 `yaml:"max" json:"max"`
}

// Pick maps r into the band.
func (r Range) Pick(v uint64) uint64 {
	if r.Max <= r.Min {
		return r.Min
	}
	span := r.Max - r.Min
	if span == math.MaxUint64 {
		return v
	}
	return r.Min + v%(span+1)
}

func (r Range) validate(name string) error {
	if r.Max < r.Min {
		return fmt.Errorf("ships: %w: %s range max below min", nativecommon.ErrInvalidArgument, name)
	}
	return nil
}

// Params are the crafting bands random ships are rolled in.
type Params struct {
	HP          Range `yaml:"hp"`
	Attack      Range `yaml:"attack"`
	MiningSpeed Range `yaml:"miningSpeed"`
	TravelSpeed Range `yaml:"travelSpeed"`
}

// DefaultParams returns the launch crafting bands.
func DefaultParams() Params {
	return Params{
		HP:          Range{Min: 50, Max: 100},
		Attack:      Range{Min: 5, Max: 15},
		MiningSpeed: Range{Min: 1, Max: 5},
		TravelSpeed: Range{Min: 1, Max: 5},
	}
}

// Validate reports inverted bands.
func (p Params) Validate() error {
	for name, r := range map[string]Range{
		"hp":          p.HP,
		"attack":      p.Attack,
		"miningSpeed": p.MiningSpeed,
		"travelSpeed": p.TravelSpeed,
	} {
		if err := r.validate(name); err != nil {
			return err
		}
	}
	return nil
}

// Mix derives the i-th independent value from a seed (splitmix64 finaliser).
// Consumers that split one draw into several outcomes use distinct lanes.
func Mix(seed uint64, lane uint64) uint64 {
	z := seed + (lane+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RollStats deterministically rolls stats from seed inside the bands.
func (p Params) RollStats(seed uint64) Stats {
	return Stats{
		HP:          p.HP.Pick(Mix(seed, 0)),
		Attack:      p.Attack.Pick(Mix(seed, 1)),
		MiningSpeed: p.MiningSpeed.Pick(Mix(seed, 2)),
		TravelSpeed: p.TravelSpeed.Pick(Mix(seed, 3)),
	}
}
