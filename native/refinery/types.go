package refinery

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Refinery converts an owner's Mineral into Crystal over time.
type Refinery struct {
	Owner               common.Address `json:"owner"`
	Level               uint64         `json:"level"`
	ProductionPerSecond *big.Int       `json:"productionPerSecond"`
	LastSettlement      int64          `json:"lastSettlement"`
}

// Clone returns a deep copy of the refinery.
func (r *Refinery) Clone() *Refinery {
	if r == nil {
		return nil
	}
	clone := *r
	if r.ProductionPerSecond != nil {
		clone.ProductionPerSecond = new(big.Int).Set(r.ProductionPerSecond)
	}
	return &clone
}

// Settlement is the outcome of converting pending production.
type Settlement struct {
	MineralSpent    *big.Int `json:"mineralSpent"`
	CrystalProduced *big.Int `json:"crystalProduced"`
}

// IsZero reports whether nothing converts.
func (s Settlement) IsZero() bool {
	return s.MineralSpent == nil || s.MineralSpent.Sign() == 0
}

// Params tune refinery production.
type Params struct {
	// BaseRate is the level 1 Mineral conversion rate per second.
	BaseRate *big.Int
	// RatioNumerator/RatioDenominator is the Crystal produced per Mineral.
	RatioNumerator   uint64
	RatioDenominator uint64
}

// DefaultParams returns one Mineral per hour (in 18 decimal units) at a 1:1
// conversion ratio.
func DefaultParams() Params {
	return Params{
		BaseRate:         big.NewInt(277_777_777_777_777),
		RatioNumerator:   1,
		RatioDenominator: 1,
	}
}

// Validate reports configuration errors.
func (p Params) Validate() error {
	if p.BaseRate == nil || p.BaseRate.Sign() <= 0 {
		return errors.New("refinery: base rate must be positive")
	}
	if p.RatioNumerator == 0 || p.RatioDenominator == 0 {
		return errors.New("refinery: conversion ratio must be positive")
	}
	return nil
}
