package pricing

import "errors"

var (
	// ErrZeroInitialLiquidity is returned when the first deposit has a zero
	// amount on either side.
	ErrZeroInitialLiquidity = errors.New("initial liquidity amounts must be positive")

	// ErrInitialLiquidityTooLow is returned when the geometric mean of the
	// first deposit floors to zero shares.
	ErrInitialLiquidityTooLow = errors.New("initial liquidity too low to mint shares")

	// ErrZeroSupplyShares is returned when the subsequent-deposit formula is
	// called with zero total supply; the initial formula must be used instead.
	ErrZeroSupplyShares = errors.New("cannot calculate shares with zero total supply")

	// ErrZeroReserveShares is returned when the subsequent-deposit formula is
	// called against an empty reserve.
	ErrZeroReserveShares = errors.New("cannot calculate shares against zero reserves")

	// ErrRatioZeroReserve is returned when the deposit-ratio guard is asked to
	// validate against an empty reserve.
	ErrRatioZeroReserve = errors.New("cannot validate ratio against zero reserves")

	// ErrDepositRatioMismatch is returned when a deposit's ratio deviates from
	// the reserve ratio by more than the slippage tolerance.
	ErrDepositRatioMismatch = errors.New("deposit ratio mismatch exceeds slippage tolerance")

	// ErrEmptyReserveSwap is returned when a swap is attempted against a pool
	// with an empty reserve on either side.
	ErrEmptyReserveSwap = errors.New("cannot swap against empty reserves")

	// ErrZeroTotalShares is returned when withdrawal amounts are requested
	// with a zero share supply.
	ErrZeroTotalShares = errors.New("cannot withdraw with zero total shares")

	// ErrAmountOverflow is returned when an input or a computed amount does
	// not fit the width of the variant's amount type.
	ErrAmountOverflow = errors.New("amount overflows maximum width")

	// ErrExcessiveBurn is returned when more shares are burned than exist.
	ErrExcessiveBurn = errors.New("burn amount exceeds total shares")
)
