package plugin

import "errors"

var (
	ErrInvalidInstruction = errors.New("invalid plugin instruction data")
	ErrMissingScratch     = errors.New("plugin scratch account missing")
	ErrScratchNotWritable = errors.New("plugin scratch account not writable")
	ErrScratchTooSmall    = errors.New("plugin scratch account too small")
	ErrZeroBurn           = errors.New("cannot burn zero lp amount")
)
