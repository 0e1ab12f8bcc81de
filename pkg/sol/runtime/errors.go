package runtime

import "errors"

var (
	ErrProgramNotFound    = errors.New("program not found")
	ErrMissingSignature   = errors.New("missing required signature")
	ErrInsufficientFunds  = errors.New("insufficient lamports")
	ErrAccountInUse       = errors.New("account already in use")
	ErrInvalidInstruction = errors.New("invalid instruction data")
	ErrAccountCarriesData = errors.New("transfer source carries data")
)
