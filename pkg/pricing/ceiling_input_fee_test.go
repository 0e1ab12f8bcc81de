package pricing

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCeilingInitialShares64(t *testing.T) {
	e := NewCeilingInputFee()

	shares, err := e.InitialShares64(100, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), shares)

	shares, err = e.InitialShares64(100_000, 200_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(141_421), shares)

	_, err = e.InitialShares64(0, 100)
	assert.ErrorIs(t, err, ErrZeroInitialLiquidity)
}

func TestCeilingSwap64(t *testing.T) {
	e := NewCeilingInputFee()

	// Same inputs as the floor variant's 181; the ceiling discipline yields
	// one unit less for the trader.
	out, err := e.Swap64(100, 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(180), out)

	out, err = e.Swap64(10_000_000, 1_000_000_000, 2_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(19_743_160), out)

	out, err = e.Swap64(10_000, 150_000, 300_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(18_697), out)

	// Zero input is a valid no-op.
	out, err = e.Swap64(0, 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out)

	// An input too small to survive the fee floors to zero output.
	out, err = e.Swap64(1, 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), out)

	_, err = e.Swap64(100, 0, 2000)
	assert.ErrorIs(t, err, ErrEmptyReserveSwap)
	_, err = e.Swap64(100, 1000, 0)
	assert.ErrorIs(t, err, ErrEmptyReserveSwap)
}

func TestClampDepositProportional(t *testing.T) {
	e := NewCeilingInputFee()

	// First deposit takes both sides in full.
	actualA, actualB, shares, err := e.ClampDeposit(100_000, 200_000, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), actualA)
	assert.Equal(t, uint64(200_000), actualB)
	assert.Equal(t, uint64(141_421), shares)

	// Exactly proportional deposit is untouched.
	actualA, actualB, shares, err = e.ClampDeposit(50_000, 100_000, 100_000, 200_000, 141_421)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), actualA)
	assert.Equal(t, uint64(100_000), actualB)
	assert.Equal(t, uint64(70_710), shares)
}

func TestClampDepositOffRatio(t *testing.T) {
	e := NewCeilingInputFee()

	// B is scarce: required A for 80_000 B is 40_000, so A clamps down and
	// the surplus 10_000 A is never taken.
	actualA, actualB, shares, err := e.ClampDeposit(50_000, 80_000, 100_000, 200_000, 141_421)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), actualA)
	assert.Equal(t, uint64(80_000), actualB)
	assert.Equal(t, uint64(56_568), shares)

	// A is scarce: B clamps to the required counter-amount.
	actualA, actualB, _, err = e.ClampDeposit(50_000, 120_000, 100_000, 200_000, 141_421)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), actualA)
	assert.Equal(t, uint64(100_000), actualB)

	_, _, _, err = e.ClampDeposit(50_000, 100_000, 0, 200_000, 141_421)
	assert.ErrorIs(t, err, ErrZeroReserveShares)
}

func TestCeilingWithdraw64(t *testing.T) {
	e := NewCeilingInputFee()

	a, b, err := e.Withdraw64(100, 100, 200, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), a)
	assert.Equal(t, uint64(20), b)

	_, _, err = e.Withdraw64(100, 100, 200, 0)
	assert.ErrorIs(t, err, ErrZeroTotalShares)

	_, _, err = e.Withdraw64(1001, 100, 200, 1000)
	assert.ErrorIs(t, err, ErrExcessiveBurn)
}

// The sdkmath.Int adapter must agree with the u64-native helpers and reject
// anything outside the u64 domain before the math runs.
func TestCeilingEngineAdapter(t *testing.T) {
	e := NewCeilingInputFee()

	shares, err := e.InitialShares(sdkmath.NewInt(100_000), sdkmath.NewInt(200_000))
	require.NoError(t, err)
	assert.Equal(t, int64(141_421), shares.Int64())

	shares, err = e.SubsequentShares(
		sdkmath.NewInt(50_000), sdkmath.NewInt(100_000),
		sdkmath.NewInt(100_000), sdkmath.NewInt(200_000), sdkmath.NewInt(141_421))
	require.NoError(t, err)
	assert.Equal(t, int64(70_710), shares.Int64())

	_, err = e.SubsequentShares(
		sdkmath.NewInt(50_000), sdkmath.NewInt(100_000),
		sdkmath.NewInt(100_000), sdkmath.NewInt(200_000), sdkmath.ZeroInt())
	assert.ErrorIs(t, err, ErrZeroSupplyShares)

	out, err := e.SwapOutput(sdkmath.NewInt(10_000), sdkmath.NewInt(100_000), sdkmath.NewInt(200_000))
	require.NoError(t, err)
	assert.Equal(t, int64(18_132), out.Int64())

	wA, wB, err := e.WithdrawAmounts(
		sdkmath.NewInt(70_710), sdkmath.NewInt(100_000), sdkmath.NewInt(200_000), sdkmath.NewInt(141_421))
	require.NoError(t, err)
	assert.Equal(t, int64(49_999), wA.Int64())
	assert.Equal(t, int64(99_999), wB.Int64())
}

func TestCeilingEngineAdapterRejectsNonU64(t *testing.T) {
	e := NewCeilingInputFee()
	tooBig := sdkmath.NewIntWithDecimal(1, 20)
	negative := sdkmath.NewInt(-1)

	for name, bad := range map[string]sdkmath.Int{"overflow": tooBig, "negative": negative} {
		t.Run(name, func(t *testing.T) {
			_, err := e.InitialShares(bad, sdkmath.NewInt(100))
			assert.ErrorIs(t, err, ErrAmountOverflow)

			_, err = e.SubsequentShares(bad, sdkmath.NewInt(100),
				sdkmath.NewInt(100), sdkmath.NewInt(200), sdkmath.NewInt(100))
			assert.ErrorIs(t, err, ErrAmountOverflow)

			_, err = e.SwapOutput(sdkmath.NewInt(100), bad, sdkmath.NewInt(200))
			assert.ErrorIs(t, err, ErrAmountOverflow)

			_, _, err = e.WithdrawAmounts(sdkmath.NewInt(10), sdkmath.NewInt(100), sdkmath.NewInt(200), bad)
			assert.ErrorIs(t, err, ErrAmountOverflow)
		})
	}
}
