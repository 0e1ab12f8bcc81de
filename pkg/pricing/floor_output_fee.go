package pricing

import (
	"math/big"

	"cosmossdk.io/math"
)

// FloorOutputFee is the actor-model variant: 128-bit amounts with 256-bit
// intermediate products, fee taken from the swap output, floor rounding on
// every division.
type FloorOutputFee struct {
	feeNum uint64
	feeDen uint64
}

// NewFloorOutputFee returns the variant with the standard 3/1000 fee.
func NewFloorOutputFee() FloorOutputFee {
	return FloorOutputFee{feeNum: FeeNumerator, feeDen: FeeDenominator}
}

var _ Engine = FloorOutputFee{}

// maxUint128 bounds every amount handled by this variant.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

func checkUint128(vals ...math.Int) error {
	for _, v := range vals {
		if v.IsNil() || v.IsNegative() || v.BigInt().Cmp(maxUint128) > 0 {
			return ErrAmountOverflow
		}
	}
	return nil
}

// InitialShares returns floor(sqrt(amountA * amountB)). The product is taken
// at 256 bits before the square root so the multiply cannot overflow.
func (e FloorOutputFee) InitialShares(amountA, amountB math.Int) (math.Int, error) {
	if err := checkUint128(amountA, amountB); err != nil {
		return math.Int{}, err
	}
	if amountA.IsZero() || amountB.IsZero() {
		return math.Int{}, ErrZeroInitialLiquidity
	}
	prod := new(big.Int).Mul(amountA.BigInt(), amountB.BigInt())
	shares := math.NewIntFromBigInt(new(big.Int).Sqrt(prod))
	if err := checkUint128(shares); err != nil {
		return math.Int{}, err
	}
	if shares.IsZero() {
		return math.Int{}, ErrInitialLiquidityTooLow
	}
	return shares, nil
}

// SubsequentShares returns min over both assets of the depositor's pro-rata
// claim. The binding constraint is the proportionally scarcer asset, so a
// lopsided deposit never mints more than its fair share.
func (e FloorOutputFee) SubsequentShares(amountA, amountB, reserveA, reserveB, totalShares math.Int) (math.Int, error) {
	if err := checkUint128(amountA, amountB, reserveA, reserveB, totalShares); err != nil {
		return math.Int{}, err
	}
	if totalShares.IsZero() {
		return math.Int{}, ErrZeroSupplyShares
	}
	if reserveA.IsZero() || reserveB.IsZero() {
		return math.Int{}, ErrZeroReserveShares
	}
	shareA := amountA.Mul(totalShares).Quo(reserveA)
	shareB := amountB.Mul(totalShares).Quo(reserveB)
	if shareA.LT(shareB) {
		return shareA, nil
	}
	return shareB, nil
}

// SwapOutput applies the constant-product formula with the fee taken from
// the output: out = floor(reserveOut*offer/(reserveIn+offer)), minus
// floor(out*fee).
func (e FloorOutputFee) SwapOutput(offerAmount, reserveIn, reserveOut math.Int) (math.Int, error) {
	if err := checkUint128(offerAmount, reserveIn, reserveOut); err != nil {
		return math.Int{}, err
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.Int{}, ErrEmptyReserveSwap
	}
	newReserveIn := reserveIn.Add(offerAmount)
	if err := checkUint128(newReserveIn); err != nil {
		return math.Int{}, err
	}
	beforeFee := reserveOut.Mul(offerAmount).Quo(newReserveIn)
	fee := beforeFee.MulRaw(int64(e.feeNum)).QuoRaw(int64(e.feeDen))
	return beforeFee.Sub(fee), nil
}

// WithdrawAmounts returns floor(reserveX*burn/totalShares) per asset,
// leaving rounding dust in the pool for the remaining share holders.
func (e FloorOutputFee) WithdrawAmounts(burn, reserveA, reserveB, totalShares math.Int) (math.Int, math.Int, error) {
	if err := checkUint128(burn, reserveA, reserveB, totalShares); err != nil {
		return math.Int{}, math.Int{}, err
	}
	if totalShares.IsZero() {
		return math.Int{}, math.Int{}, ErrZeroTotalShares
	}
	returnA := reserveA.Mul(burn).Quo(totalShares)
	returnB := reserveB.Mul(burn).Quo(totalShares)
	return returnA, returnB, nil
}
