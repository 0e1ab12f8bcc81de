package pricing

import (
	"cosmossdk.io/math"
)

// depositSlippage is the fixed 1% tolerance on the deposit/reserve ratio.
var depositSlippage = math.LegacyNewDecWithPrec(1, 2)

// ValidateDepositRatio rejects deposits whose A:B ratio deviates from the
// current reserve ratio by more than 1% in absolute terms. This is the
// actor-model slippage guard; the account-model stack clamps the deposit to
// the pool ratio instead of rejecting it.
func ValidateDepositRatio(amountA, amountB, reserveA, reserveB math.Int) error {
	if err := checkUint128(amountA, amountB, reserveA, reserveB); err != nil {
		return err
	}
	if reserveA.IsZero() || reserveB.IsZero() {
		return ErrRatioZeroReserve
	}
	ratioA := math.LegacyNewDecFromInt(amountA).QuoTruncate(math.LegacyNewDecFromInt(reserveA))
	ratioB := math.LegacyNewDecFromInt(amountB).QuoTruncate(math.LegacyNewDecFromInt(reserveB))
	if ratioA.Sub(ratioB).Abs().GT(depositSlippage) {
		return ErrDepositRatioMismatch
	}
	return nil
}
