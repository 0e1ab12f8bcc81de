package pricing

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// CeilingInputFee is the account-model variant used by the pricing plugin:
// 64-bit amounts with 128-bit intermediates, fee taken from the input, and
// ceiling division when solving the invariant for the new output reserve.
// The ceiling rounds in the pool's favor, so a swap never extracts more than
// the invariant allows.
type CeilingInputFee struct {
	feeNum uint64
	feeDen uint64
}

// NewCeilingInputFee returns the variant with the standard 3/1000 fee.
func NewCeilingInputFee() CeilingInputFee {
	return CeilingInputFee{feeNum: FeeNumerator, feeDen: FeeDenominator}
}

var _ Engine = CeilingInputFee{}

// InitialShares64 returns floor(sqrt(a*b)) for the first deposit.
func (e CeilingInputFee) InitialShares64(amountA, amountB uint64) (uint64, error) {
	if amountA == 0 || amountB == 0 {
		return 0, ErrZeroInitialLiquidity
	}
	prod := uint128.From64(amountA).Mul64(amountB)
	shares := new(big.Int).Sqrt(prod.Big()).Uint64()
	if shares == 0 {
		return 0, ErrInitialLiquidityTooLow
	}
	return shares, nil
}

// ClampDeposit resolves a possibly off-ratio deposit against the pool ratio.
// It shrinks whichever side is in excess so only proportional value is taken
// (the remainder implicitly stays with the depositor) and returns the actual
// amounts together with the shares to mint. With zero supply it falls back
// to the geometric-mean initial issuance and takes both amounts in full.
func (e CeilingInputFee) ClampDeposit(depositA, depositB, reserveA, reserveB, totalShares uint64) (actualA, actualB, shares uint64, err error) {
	if totalShares == 0 {
		shares, err = e.InitialShares64(depositA, depositB)
		if err != nil {
			return 0, 0, 0, err
		}
		return depositA, depositB, shares, nil
	}
	if reserveA == 0 || reserveB == 0 {
		return 0, 0, 0, ErrZeroReserveShares
	}

	reqB := uint128.From64(depositA).Mul64(reserveB).Div64(reserveA)
	reqA := uint128.From64(depositB).Mul64(reserveA).Div64(reserveB)
	actualA = depositA
	actualB = depositB
	if reqB.Cmp64(depositB) <= 0 {
		actualB = reqB.Lo
	} else if reqA.Cmp64(depositA) <= 0 {
		actualA = reqA.Lo
	}

	minted := uint128.From64(totalShares).Mul64(actualA).Div64(reserveA)
	if minted.Hi != 0 {
		return 0, 0, 0, ErrAmountOverflow
	}
	if minted.Lo == 0 {
		return 0, 0, 0, ErrInitialLiquidityTooLow
	}
	return actualA, actualB, minted.Lo, nil
}

// Swap64 computes the output amount: the fee is stripped from the input,
// then new_reserve_out = ceil(invariant / new_reserve_in) and the output is
// whatever the out-reserve sheds. A zero input is a valid no-op yielding
// zero output.
func (e CeilingInputFee) Swap64(amountIn, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrEmptyReserveSwap
	}
	effectiveIn := uint128.From64(amountIn).Mul64(e.feeDen - e.feeNum).Div64(e.feeDen)
	if effectiveIn.IsZero() {
		return 0, nil
	}

	invariant := uint128.From64(reserveIn).Mul64(reserveOut)
	newReserveIn := uint128.From64(reserveIn).Add(effectiveIn)
	newReserveOut, rem := invariant.QuoRem(newReserveIn)
	if !rem.IsZero() {
		newReserveOut = newReserveOut.Add64(1)
	}
	if newReserveOut.Cmp64(reserveOut) > 0 {
		return 0, ErrAmountOverflow
	}
	return reserveOut - newReserveOut.Lo, nil
}

// Withdraw64 returns floor(reserveX*burn/totalShares) per asset.
func (e CeilingInputFee) Withdraw64(burn, reserveA, reserveB, totalShares uint64) (uint64, uint64, error) {
	if totalShares == 0 {
		return 0, 0, ErrZeroTotalShares
	}
	if burn > totalShares {
		return 0, 0, ErrExcessiveBurn
	}
	wA := uint128.From64(reserveA).Mul64(burn).Div64(totalShares)
	wB := uint128.From64(reserveB).Mul64(burn).Div64(totalShares)
	return wA.Lo, wB.Lo, nil
}

// --- Engine adapter over sdkmath.Int ---

func toU64(vals ...sdkmath.Int) ([]uint64, error) {
	out := make([]uint64, len(vals))
	for i, v := range vals {
		if v.IsNil() || v.IsNegative() || !v.IsUint64() {
			return nil, ErrAmountOverflow
		}
		out[i] = v.Uint64()
	}
	return out, nil
}

func (e CeilingInputFee) InitialShares(amountA, amountB sdkmath.Int) (sdkmath.Int, error) {
	v, err := toU64(amountA, amountB)
	if err != nil {
		return sdkmath.Int{}, err
	}
	s, err := e.InitialShares64(v[0], v[1])
	if err != nil {
		return sdkmath.Int{}, err
	}
	return sdkmath.NewIntFromUint64(s), nil
}

func (e CeilingInputFee) SubsequentShares(amountA, amountB, reserveA, reserveB, totalShares sdkmath.Int) (sdkmath.Int, error) {
	v, err := toU64(amountA, amountB, reserveA, reserveB, totalShares)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if v[4] == 0 {
		return sdkmath.Int{}, ErrZeroSupplyShares
	}
	_, _, shares, err := e.ClampDeposit(v[0], v[1], v[2], v[3], v[4])
	if err != nil {
		return sdkmath.Int{}, err
	}
	return sdkmath.NewIntFromUint64(shares), nil
}

func (e CeilingInputFee) SwapOutput(offerAmount, reserveIn, reserveOut sdkmath.Int) (sdkmath.Int, error) {
	v, err := toU64(offerAmount, reserveIn, reserveOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	out, err := e.Swap64(v[0], v[1], v[2])
	if err != nil {
		return sdkmath.Int{}, err
	}
	return sdkmath.NewIntFromUint64(out), nil
}

func (e CeilingInputFee) WithdrawAmounts(burn, reserveA, reserveB, totalShares sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	v, err := toU64(burn, reserveA, reserveB, totalShares)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	wA, wB, err := e.Withdraw64(v[0], v[1], v[2], v[3])
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return sdkmath.NewIntFromUint64(wA), sdkmath.NewIntFromUint64(wB), nil
}
