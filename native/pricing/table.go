package pricing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/cemleme/GRB-contracts/native/common"
)

// MaxBps is the basis point denominator.
const MaxBps = 10_000

var (
	ErrOverflow        = fmt.Errorf("pricing: %w: amount overflow", common.ErrInvalidArgument)
	ErrInvalidQuantity = fmt.Errorf("pricing: %w: quantity must be positive", common.ErrInvalidArgument)
	ErrInexactPayment  = fmt.Errorf("pricing: %w: amount not purchasable at an exact price", common.ErrPriceMismatch)
	errInvalidDiscount = fmt.Errorf("pricing: %w: discount above %d bps", common.ErrInvalidArgument, MaxBps)
)

func wei(mantissa int64, exp int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(mantissa), new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil))
}

// Table is the economy price list. Every function on it is pure.
type Table struct {
	// RefineryBaseCost is the Crystal cost of the level 1 -> 2 upgrade; each
	// further level doubles it.
	RefineryBaseCost *big.Int
	// UpgradeCostPerPoint is the Crystal cost of one direct stat point.
	UpgradeCostPerPoint *big.Int
	// FuelPrice is the Crystal cost of one Fuel unit.
	FuelPrice *big.Int
	// CurrencyNumerator/CurrencyDenominator is the native price of one GRB
	// unit.
	CurrencyNumerator   uint64
	CurrencyDenominator uint64
	// BoosterPackGRB is the undiscounted GRB price of a pack.
	BoosterPackGRB *big.Int
	// BoosterPackNative is the native price of a pack.
	BoosterPackNative *big.Int
}

// DefaultTable returns the launch price list.
func DefaultTable() Table {
	return Table{
		RefineryBaseCost:    wei(1, 18),
		UpgradeCostPerPoint: wei(5, 17),
		FuelPrice:           wei(3, 17),
		CurrencyNumerator:   1,
		CurrencyDenominator: 100,
		BoosterPackGRB:      wei(1, 18),
		BoosterPackNative:   wei(1, 16),
	}
}

// Validate reports configuration errors.
func (t Table) Validate() error {
	for name, v := range map[string]*big.Int{
		"refinery base cost":          t.RefineryBaseCost,
		"upgrade cost per point":      t.UpgradeCostPerPoint,
		"fuel price":                  t.FuelPrice,
		"booster pack resource price": t.BoosterPackGRB,
		"booster pack payment price":  t.BoosterPackNative,
	} {
		if v == nil || v.Sign() < 0 {
			return fmt.Errorf("pricing: %s must be non-negative", name)
		}
		if _, overflow := uint256.FromBig(v); overflow {
			return fmt.Errorf("pricing: %s: %w", name, ErrOverflow)
		}
	}
	if t.CurrencyNumerator == 0 || t.CurrencyDenominator == 0 {
		return errors.New("pricing: currency price ratio must be positive")
	}
	return nil
}

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("pricing: %w: negative amount", common.ErrInvalidArgument)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

func mulUint(v *big.Int, n uint64) (*big.Int, error) {
	base, err := toU256(v)
	if err != nil {
		return nil, err
	}
	out, overflow := new(uint256.Int).MulOverflow(base, uint256.NewInt(n))
	if overflow {
		return nil, ErrOverflow
	}
	return out.ToBig(), nil
}

// CurrencyPayment returns the native payment required to buy amount GRB.
// Amounts whose price is not a whole number of native units are rejected.
func (t Table) CurrencyPayment(amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if t.CurrencyDenominator == 0 {
		return nil, fmt.Errorf("pricing: %w: currency ratio not configured", common.ErrInvalidState)
	}
	scaled, err := mulUint(amount, t.CurrencyNumerator)
	if err != nil {
		return nil, err
	}
	quo, rem := new(big.Int).QuoRem(scaled, new(big.Int).SetUint64(t.CurrencyDenominator), new(big.Int))
	if rem.Sign() != 0 || quo.Sign() == 0 {
		return nil, ErrInexactPayment
	}
	return quo, nil
}

// FuelCost returns the Crystal cost of qty Fuel.
func (t Table) FuelCost(qty uint64) (*big.Int, error) {
	if qty == 0 {
		return nil, ErrInvalidQuantity
	}
	return mulUint(t.FuelPrice, qty)
}

// DirectUpgradeCost returns the Crystal cost of points direct stat points.
func (t Table) DirectUpgradeCost(points uint64) (*big.Int, error) {
	if points == 0 {
		return nil, ErrInvalidQuantity
	}
	return mulUint(t.UpgradeCostPerPoint, points)
}

// RefineryStepCost is the cost of upgrading from level to level+1.
func (t Table) RefineryStepCost(level uint64) (*big.Int, error) {
	if level == 0 {
		return nil, fmt.Errorf("pricing: %w: refinery level starts at 1", common.ErrInvalidArgument)
	}
	if level-1 >= 256 {
		return nil, ErrOverflow
	}
	base, err := toU256(t.RefineryBaseCost)
	if err != nil {
		return nil, err
	}
	if base.IsZero() {
		return new(big.Int), nil
	}
	if uint(level-1) >= 256-uint(base.BitLen())+1 {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Lsh(base, uint(level-1)).ToBig(), nil
}

// RefineryUpgradeCost sums the step costs of raising a refinery from level by
// levels.
func (t Table) RefineryUpgradeCost(level, levels uint64) (*big.Int, error) {
	if levels == 0 {
		return nil, ErrInvalidQuantity
	}
	total := new(uint256.Int)
	for i := uint64(0); i < levels; i++ {
		step, err := t.RefineryStepCost(level + i)
		if err != nil {
			return nil, err
		}
		stepU, err := toU256(step)
		if err != nil {
			return nil, err
		}
		var overflow bool
		total, overflow = new(uint256.Int).AddOverflow(total, stepU)
		if overflow {
			return nil, ErrOverflow
		}
	}
	return total.ToBig(), nil
}

// ApplyDiscount reduces price by discountBps basis points, rounding down.
func ApplyDiscount(price *big.Int, discountBps uint64) (*big.Int, error) {
	if discountBps > MaxBps {
		return nil, errInvalidDiscount
	}
	scaled, err := mulUint(price, MaxBps-discountBps)
	if err != nil {
		return nil, err
	}
	return scaled.Quo(scaled, big.NewInt(MaxBps)), nil
}

// BoosterPackResourcePrice is the GRB pack price after the staking discount.
func (t Table) BoosterPackResourcePrice(discountBps uint64) (*big.Int, error) {
	return ApplyDiscount(t.BoosterPackGRB, discountBps)
}

// BoosterPackPaymentPrice is the native pack price.
func (t Table) BoosterPackPaymentPrice() *big.Int {
	if t.BoosterPackNative == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.BoosterPackNative)
}
