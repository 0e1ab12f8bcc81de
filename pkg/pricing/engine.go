// Package pricing implements the constant-product pricing engine shared by
// both pool stacks: geometric-mean initial share issuance, pro-rata
// subsequent deposits, swap output with a 0.3% fee, and proportional
// withdrawals.
//
// Two rounding disciplines exist in the wild and they are NOT numerically
// interchangeable (outputs differ by ±1 unit in edge cases):
//
//   - FloorOutputFee: the fee is taken from the output amount and every
//     division floors. Used by the actor-model pool contract.
//   - CeilingInputFee: the fee is taken from the input amount and the new
//     output reserve is derived from the invariant with ceiling division,
//     which rounds in the pool's favor. Used by the pricing plugin program.
//
// Both are exposed behind the Engine interface so pool code can hold either.
package pricing

import (
	"cosmossdk.io/math"
)

// Default trading fee, 3/1000 = 0.3%. Hardcoded pool-wide.
const (
	FeeNumerator   = 3
	FeeDenominator = 1000
)

// Engine computes share and swap amounts from reserves and supply. All
// amounts are unsigned integers; implementations reject negative inputs and
// amounts wider than their native width.
type Engine interface {
	// InitialShares computes the share issuance for the first deposit:
	// floor(sqrt(amountA * amountB)).
	InitialShares(amountA, amountB math.Int) (math.Int, error)

	// SubsequentShares computes the share issuance for a deposit into a
	// non-empty pool: min(floor(amountA*total/reserveA),
	// floor(amountB*total/reserveB)).
	SubsequentShares(amountA, amountB, reserveA, reserveB, totalShares math.Int) (math.Int, error)

	// SwapOutput computes the output amount for swapping offerAmount of the
	// input asset against the given reserves, fee included.
	SwapOutput(offerAmount, reserveIn, reserveOut math.Int) (math.Int, error)

	// WithdrawAmounts computes the pro-rata amounts returned for burning
	// burn shares: floor(reserveX*burn/totalShares) per asset.
	WithdrawAmounts(burn, reserveA, reserveB, totalShares math.Int) (math.Int, math.Int, error)
}
