package pool

import "errors"

var (
	ErrInvalidInstruction    = errors.New("invalid pool instruction data")
	ErrInvalidAccountData    = errors.New("invalid account data")
	ErrIncorrectPoolPDA      = errors.New("incorrect pool pda provided")
	ErrIncorrectVaultATA     = errors.New("incorrect vault associated token account")
	ErrInvalidVaultOwner     = errors.New("invalid vault owner")
	ErrVaultMismatch         = errors.New("vault account mismatch")
	ErrLpMintMismatch        = errors.New("lp mint mismatch")
	ErrPluginProgramMismatch = errors.New("plugin program id mismatch")
	ErrPluginStateMismatch   = errors.New("plugin state pubkey mismatch")
	ErrTokenMintMismatch     = errors.New("token mint mismatch")
	ErrMintsMustBeDifferent  = errors.New("pool mints must be different")
	ErrInvalidMintAuthority  = errors.New("invalid lp mint authority")
	ErrFreezeAuthoritySet    = errors.New("lp mint freeze authority must not be set")
	ErrNonZeroLpSupply       = errors.New("lp mint initial supply must be zero")
	ErrIncorrectProgramID    = errors.New("incorrect program id provided")
	ErrNotExecutable         = errors.New("account not executable")
	ErrNotRentExempt         = errors.New("account not rent exempt")
	ErrZeroAmount            = errors.New("zero amount")
	ErrSlippageExceeded      = errors.New("slippage limit exceeded")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
	ErrSameAccountSwap       = errors.New("swap source and destination are the same account")
)
