package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cemleme/GRB-contracts/native/fleet"
	"github.com/cemleme/GRB-contracts/native/market"
	"github.com/cemleme/GRB-contracts/native/pricing"
	"github.com/cemleme/GRB-contracts/native/refinery"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/native/staking"
	"github.com/cemleme/GRB-contracts/native/upgrade"
)

// Duration wraps time.Duration to support YAML unmarshalling. Plain integers
// are read as seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	raw := strings.TrimSpace(value.Value)
	if raw == "" {
		d.Duration = 0
		return nil
	}
	if secs, err := strconv.ParseUint(raw, 10, 63); err == nil {
		d.Duration = time.Duration(secs) * time.Second
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must be non-negative", raw)
	}
	d.Duration = parsed
	return nil
}

// Seconds returns the duration in whole seconds.
func (d Duration) Seconds() uint64 { return uint64(d.Duration / time.Second) }

// Amount is a non-negative integer written as a decimal string. A trailing
// exponent ("5e18") scales the mantissa by a power of ten.
type Amount struct {
	*big.Int
}

// ParseAmount parses the textual amount form.
func ParseAmount(raw string) (*big.Int, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if raw == "" {
		return nil, errors.New("empty amount")
	}
	mantissa, exp := raw, ""
	if idx := strings.IndexAny(raw, "eE"); idx >= 0 {
		mantissa, exp = raw[:idx], raw[idx+1:]
	}
	value, ok := new(big.Int).SetString(mantissa, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if exp != "" {
		power, err := strconv.ParseUint(exp, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid amount exponent %q", raw)
		}
		value.Mul(value, new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(power), nil))
	}
	return value, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("amount must be a scalar")
	}
	parsed, err := ParseAmount(value.Value)
	if err != nil {
		return err
	}
	a.Int = parsed
	return nil
}

// MarshalYAML writes the amount as a decimal string.
func (a Amount) MarshalYAML() (interface{}, error) {
	if a.Int == nil {
		return "0", nil
	}
	return a.Int.String(), nil
}

func (a Amount) or(fallback *big.Int) *big.Int {
	if a.Int == nil {
		return new(big.Int).Set(fallback)
	}
	return new(big.Int).Set(a.Int)
}

type PricingSection struct {
	RefineryBaseCost         Amount `yaml:"refineryBaseCost"`
	UpgradeCostPerPoint      Amount `yaml:"upgradeCostPerPoint"`
	FuelPrice                Amount `yaml:"fuelPrice"`
	CurrencyNumerator        uint64 `yaml:"currencyNumerator"`
	CurrencyDenominator      uint64 `yaml:"currencyDenominator"`
	BoosterPackResourcePrice Amount `yaml:"boosterPackResourcePrice"`
	BoosterPackPaymentPrice  Amount `yaml:"boosterPackPaymentPrice"`
}

type RefinerySection struct {
	BaseRate         Amount `yaml:"baseRate"`
	RatioNumerator   uint64 `yaml:"ratioNumerator"`
	RatioDenominator uint64 `yaml:"ratioDenominator"`
}

type FleetSection struct {
	FuelPerDistance       uint64   `yaml:"fuelPerDistance"`
	TimePerDistance       Duration `yaml:"timePerDistance"`
	MineralPerMiningPoint Amount   `yaml:"mineralPerMiningPoint"`
	MaxDistance           uint64   `yaml:"maxDistance"`
}

type MarketSection struct {
	BoosterMineralMin Amount  `yaml:"boosterMineralMin"`
	BoosterMineralMax Amount  `yaml:"boosterMineralMax"`
	ShipChanceBps     *uint64 `yaml:"shipChanceBps"`
}

type TierSection struct {
	Level       uint64   `yaml:"level"`
	MinStake    Amount   `yaml:"minStake"`
	MinLock     Duration `yaml:"minLock"`
	DiscountBps uint64   `yaml:"discountBps"`
}

type StakingSection struct {
	LockPeriods []Duration    `yaml:"lockPeriods"`
	Tiers       []TierSection `yaml:"tiers"`
}

type StarterSection struct {
	Mineral Amount `yaml:"mineral"`
	Fuel    Amount `yaml:"fuel"`
}

// EconomyFile is the YAML form of the economy parameters. Omitted values keep
// their launch defaults.
type EconomyFile struct {
	Pricing  PricingSection  `yaml:"pricing"`
	Refinery RefinerySection `yaml:"refinery"`
	Fleet    FleetSection    `yaml:"fleet"`
	Ships    *ships.Params   `yaml:"ships"`
	Upgrade  *upgrade.Params `yaml:"upgrade"`
	Market   MarketSection   `yaml:"market"`
	Staking  StakingSection  `yaml:"staking"`
	Starter  StarterSection  `yaml:"starter"`
}

// Starter holds the grants given to every new player.
type Starter struct {
	Mineral *big.Int
	Fuel    *big.Int
}

// DefaultStarter returns 5 Mineral (18 decimals) and 5 Fuel.
func DefaultStarter() Starter {
	return Starter{
		Mineral: new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)),
		Fuel:    big.NewInt(5),
	}
}

// Economy is the resolved set of engine parameters.
type Economy struct {
	Pricing  pricing.Table
	Refinery refinery.Params
	Fleet    fleet.Params
	Ships    ships.Params
	Upgrade  upgrade.Params
	Market   market.Params
	Staking  staking.Params
	Starter  Starter
}

// DefaultEconomy returns the launch economy.
func DefaultEconomy() Economy {
	return Economy{
		Pricing:  pricing.DefaultTable(),
		Refinery: refinery.DefaultParams(),
		Fleet:    fleet.DefaultParams(),
		Ships:    ships.DefaultParams(),
		Upgrade:  upgrade.DefaultParams(),
		Market:   market.DefaultParams(),
		Staking:  staking.DefaultParams(),
		Starter:  DefaultStarter(),
	}
}

// LoadEconomy reads an economy file. An empty path yields the defaults.
func LoadEconomy(path string) (Economy, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultEconomy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Economy{}, fmt.Errorf("open economy: %w", err)
	}
	return ParseEconomy(data)
}

// ParseEconomy decodes YAML economy data over the defaults and validates it.
func ParseEconomy(data []byte) (Economy, error) {
	var file EconomyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Economy{}, fmt.Errorf("decode economy: %w", err)
	}
	eco := file.Resolve()
	if err := eco.Validate(); err != nil {
		return Economy{}, err
	}
	return eco, nil
}

// Resolve merges the file over the defaults.
func (f EconomyFile) Resolve() Economy {
	eco := DefaultEconomy()

	p := &eco.Pricing
	p.RefineryBaseCost = f.Pricing.RefineryBaseCost.or(p.RefineryBaseCost)
	p.UpgradeCostPerPoint = f.Pricing.UpgradeCostPerPoint.or(p.UpgradeCostPerPoint)
	p.FuelPrice = f.Pricing.FuelPrice.or(p.FuelPrice)
	p.BoosterPackGRB = f.Pricing.BoosterPackResourcePrice.or(p.BoosterPackGRB)
	p.BoosterPackNative = f.Pricing.BoosterPackPaymentPrice.or(p.BoosterPackNative)
	if f.Pricing.CurrencyNumerator != 0 || f.Pricing.CurrencyDenominator != 0 {
		p.CurrencyNumerator = f.Pricing.CurrencyNumerator
		p.CurrencyDenominator = f.Pricing.CurrencyDenominator
	}

	eco.Refinery.BaseRate = f.Refinery.BaseRate.or(eco.Refinery.BaseRate)
	if f.Refinery.RatioNumerator != 0 || f.Refinery.RatioDenominator != 0 {
		eco.Refinery.RatioNumerator = f.Refinery.RatioNumerator
		eco.Refinery.RatioDenominator = f.Refinery.RatioDenominator
	}

	if f.Fleet.FuelPerDistance != 0 {
		eco.Fleet.FuelPerDistance = f.Fleet.FuelPerDistance
	}
	if f.Fleet.TimePerDistance.Duration != 0 {
		eco.Fleet.SecondsPerDistance = f.Fleet.TimePerDistance.Seconds()
	}
	eco.Fleet.MineralPerMiningPoint = f.Fleet.MineralPerMiningPoint.or(eco.Fleet.MineralPerMiningPoint)
	eco.Fleet.MaxDistance = f.Fleet.MaxDistance

	if f.Ships != nil {
		eco.Ships = *f.Ships
	}
	if f.Upgrade != nil {
		eco.Upgrade = *f.Upgrade
	}

	eco.Market.BoosterMineralMin = f.Market.BoosterMineralMin.or(eco.Market.BoosterMineralMin)
	eco.Market.BoosterMineralMax = f.Market.BoosterMineralMax.or(eco.Market.BoosterMineralMax)
	if f.Market.ShipChanceBps != nil {
		eco.Market.ShipChanceBps = *f.Market.ShipChanceBps
	}

	if len(f.Staking.LockPeriods) > 0 {
		eco.Staking.LockPeriods = make([]uint64, len(f.Staking.LockPeriods))
		for i, d := range f.Staking.LockPeriods {
			eco.Staking.LockPeriods[i] = d.Seconds()
		}
	}
	if len(f.Staking.Tiers) > 0 {
		eco.Staking.Tiers = make([]staking.Tier, len(f.Staking.Tiers))
		for i, t := range f.Staking.Tiers {
			eco.Staking.Tiers[i] = staking.Tier{
				Level:          t.Level,
				MinStake:       t.MinStake.or(new(big.Int)),
				MinLockSeconds: t.MinLock.Seconds(),
				DiscountBps:    t.DiscountBps,
			}
		}
	}

	eco.Starter.Mineral = f.Starter.Mineral.or(eco.Starter.Mineral)
	eco.Starter.Fuel = f.Starter.Fuel.or(eco.Starter.Fuel)
	return eco
}

// Validate checks every section.
func (e Economy) Validate() error {
	checks := []func() error{
		e.Pricing.Validate,
		e.Refinery.Validate,
		e.Fleet.Validate,
		e.Ships.Validate,
		e.Upgrade.Validate,
		e.Market.Validate,
		e.Staking.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return fmt.Errorf("economy: %w", err)
		}
	}
	if e.Starter.Mineral == nil || e.Starter.Fuel == nil {
		return errors.New("economy: starter grants must be set")
	}
	return nil
}
