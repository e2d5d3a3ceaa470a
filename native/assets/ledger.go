package assets

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "github.com/cemleme/GRB-contracts/native/common"
)

// ErrInsufficientBalance is returned when a debit would underflow.
var ErrInsufficientBalance = fmt.Errorf("assets: %w", nativecommon.ErrInsufficientBalance)

// Ledger holds fungible balances per owner and the ownership of ships.
// Implementations must reject debits that would take a balance below zero.
type Ledger interface {
	BalanceOf(owner common.Address, kind Kind) (*big.Int, error)
	Credit(owner common.Address, kind Kind, amount *big.Int) error
	Debit(owner common.Address, kind Kind, amount *big.Int) error
	OwnerOf(shipID uint64) (common.Address, bool, error)
	MintShip(owner common.Address, shipID uint64) error
	TransferShip(from, to common.Address, shipID uint64) error
}

// Transfer moves amount of kind between two owners.
func Transfer(l Ledger, from, to common.Address, kind Kind, amount *big.Int) error {
	if err := l.Debit(from, kind, amount); err != nil {
		return err
	}
	return l.Credit(to, kind, amount)
}

// RequireBalance fails with ErrInsufficientBalance when owner holds less than
// amount of kind.
func RequireBalance(l Ledger, owner common.Address, kind Kind, amount *big.Int) error {
	balance, err := l.BalanceOf(owner, kind)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, kind, balance, amount)
	}
	return nil
}

// RequireOwner fails with ErrNotOwner unless user owns the ship.
func RequireOwner(l Ledger, user common.Address, shipID uint64) error {
	owner, ok, err := l.OwnerOf(shipID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("assets: %w: ship %d", nativecommon.ErrNotFound, shipID)
	}
	if owner != user {
		return fmt.Errorf("assets: %w: ship %d", nativecommon.ErrNotOwner, shipID)
	}
	return nil
}
