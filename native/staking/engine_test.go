package staking_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/core/state"
	"github.com/cemleme/GRB-contracts/native/assets"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/staking"
	"github.com/cemleme/GRB-contracts/storage"
)

var (
	staker = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	vault  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

func grb(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func newStaking(t *testing.T) (*staking.Engine, *state.Manager, *int64) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	now := int64(5_000_000)
	e := staking.NewEngine()
	e.SetState(mgr)
	e.SetVault(vault)
	e.SetNowFunc(func() int64 { return now })
	require.NoError(t, mgr.Credit(staker, assets.GRB, grb(20)))
	return e, mgr, &now
}

func TestDepositGrantsDiscountTier(t *testing.T) {
	e, mgr, _ := newStaking(t)

	tier, err := e.TierOf(staker)
	require.NoError(t, err)
	require.Zero(t, tier.DiscountBps)

	position, err := e.Deposit(staker, grb(10), 1)
	require.NoError(t, err)
	require.Equal(t, grb(10), position.Amount)

	tier, err = e.TierOf(staker)
	require.NoError(t, err)
	require.EqualValues(t, 1000, tier.DiscountBps)

	held, err := mgr.BalanceOf(vault, assets.GRB)
	require.NoError(t, err)
	require.Equal(t, grb(10), held)
}

func TestShortLockOrSmallStakeGetsNoDiscount(t *testing.T) {
	e, _, _ := newStaking(t)
	_, err := e.Deposit(staker, grb(15), 0)
	require.NoError(t, err)
	tier, err := e.TierOf(staker)
	require.NoError(t, err)
	require.Zero(t, tier.DiscountBps)

	e2, _, _ := newStaking(t)
	_, err = e2.Deposit(staker, grb(9), 3)
	require.NoError(t, err)
	tier, err = e2.TierOf(staker)
	require.NoError(t, err)
	require.Zero(t, tier.DiscountBps)
}

func TestWithdrawAfterUnlock(t *testing.T) {
	e, mgr, now := newStaking(t)
	position, err := e.Deposit(staker, grb(10), 1)
	require.NoError(t, err)

	_, err = e.Withdraw(staker)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)

	*now = position.UnlockAt
	amount, err := e.Withdraw(staker)
	require.NoError(t, err)
	require.Equal(t, grb(10), amount)
	balance, err := mgr.BalanceOf(staker, assets.GRB)
	require.NoError(t, err)
	require.Equal(t, grb(20), balance)

	_, err = e.Withdraw(staker)
	require.ErrorIs(t, err, nativecommon.ErrNotFound)
}

func TestTopUpKeepsLongerLock(t *testing.T) {
	e, _, now := newStaking(t)
	first, err := e.Deposit(staker, grb(5), 2)
	require.NoError(t, err)
	*now += 10
	second, err := e.Deposit(staker, grb(5), 0)
	require.NoError(t, err)
	require.Equal(t, grb(10), second.Amount)
	require.EqualValues(t, 2, second.LockPeriod)
	require.Equal(t, first.UnlockAt, second.UnlockAt)
}

func TestDepositValidation(t *testing.T) {
	e, _, _ := newStaking(t)
	_, err := e.Deposit(staker, grb(30), 1)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientBalance)
	_, err = e.Deposit(staker, grb(1), 9)
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)
	_, err = e.Deposit(staker, big.NewInt(0), 1)
	require.ErrorIs(t, err, nativecommon.ErrInvalidArgument)

	e.SetVault(common.Address{})
	_, err = e.Deposit(staker, grb(1), 1)
	require.ErrorIs(t, err, nativecommon.ErrInvalidState)
}
