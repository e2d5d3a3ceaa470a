package common

import "errors"

// Error kinds shared by the game modules. Module errors wrap one of these so
// callers can classify failures with errors.Is regardless of the module that
// produced them.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotOwner            = errors.New("not owner")
	ErrInvalidState        = errors.New("invalid state")
	ErrPriceMismatch       = errors.New("price mismatch")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
)
