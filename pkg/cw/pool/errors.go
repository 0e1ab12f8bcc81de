package pool

import "errors"

var (
	ErrNotInitialized          = errors.New("pool not initialized: lp token address not set")
	ErrMissingLiquidityToken   = errors.New("missing liquidity token in attached funds")
	ErrInvalidLiquidityDenom   = errors.New("denom does not belong to this pool")
	ErrNoMatchingOfferCoin     = errors.New("no attached coin matches the offer denom")
	ErrZeroOfferAmount         = errors.New("offer amount is zero")
	ErrMinimumReceiveViolation = errors.New("swap output below minimum receive")
	ErrUnauthorizedLpToken     = errors.New("receive hook sender is not the pool lp token")
	ErrZeroWithdrawAmount      = errors.New("withdraw amount is zero")
	ErrUnknownReplyID          = errors.New("unknown reply id")
	ErrLpTokenAlreadySet       = errors.New("lp token address already set")
	ErrUnknownMessage          = errors.New("unknown message variant")
)
