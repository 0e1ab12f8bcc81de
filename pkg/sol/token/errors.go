package token

import "errors"

var (
	ErrInvalidAccountData  = errors.New("invalid token account data")
	ErrNotRentExempt       = errors.New("account not rent exempt")
	ErrAlreadyInitialized  = errors.New("account already initialized")
	ErrUninitialized       = errors.New("account not initialized")
	ErrOwnerMismatch       = errors.New("owner does not match authority")
	ErrMintMismatch        = errors.New("token account mint mismatch")
	ErrInsufficientFunds   = errors.New("insufficient token balance")
	ErrFixedSupply         = errors.New("mint has no minting authority")
	ErrInvalidInstruction  = errors.New("invalid token instruction data")
	ErrNotOwnedByTokenProg = errors.New("account not owned by the token program")
)
