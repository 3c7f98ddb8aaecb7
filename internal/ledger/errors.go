package ledger

import "cosmossdk.io/errors"

// Codespace identifies token ledger errors.
const Codespace = "token"

var (
	ErrMintNotFound       = errors.Register(Codespace, 100, "mint not found")
	ErrAccountNotFound    = errors.Register(Codespace, 101, "token account not found")
	ErrAlreadyExists      = errors.Register(Codespace, 102, "account already exists")
	ErrInsufficientFunds  = errors.Register(Codespace, 103, "insufficient funds")
	ErrOwnerMismatch      = errors.Register(Codespace, 104, "owner does not match")
	ErrMintMismatch       = errors.Register(Codespace, 105, "account mint mismatch")
	ErrOverflow           = errors.Register(Codespace, 106, "amount overflow")
	ErrInvalidInstruction = errors.Register(Codespace, 107, "invalid token instruction")
)
