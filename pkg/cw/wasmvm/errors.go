package wasmvm

import "errors"

var (
	ErrContractNotFound  = errors.New("contract not found")
	ErrCodeNotFound      = errors.New("code id not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMissingReplyData  = errors.New("reply carries no data")
)
