package amm

import "cosmossdk.io/errors"

// Codespace identifies AMM program errors. Codes start at 6000 to line up
// with custom program error numbering on the ledger.
const Codespace = "amm"

var (
	ErrInvalidFee            = errors.Register(Codespace, 6000, "invalid fee")
	ErrZeroLiquidity         = errors.Register(Codespace, 6001, "zero liquidity")
	ErrSlippageExceeded      = errors.Register(Codespace, 6002, "slippage exceeded")
	ErrInsufficientLiquidity = errors.Register(Codespace, 6003, "insufficient liquidity")
	ErrAccountMismatch       = errors.Register(Codespace, 6004, "account mismatch")
	ErrLocked                = errors.Register(Codespace, 6005, "pool is locked")
	ErrUnauthorized          = errors.Register(Codespace, 6006, "unauthorized")
	ErrInvalidAmount         = errors.Register(Codespace, 6007, "invalid amount")
	ErrOverflow              = errors.Register(Codespace, 6008, "arithmetic overflow")
	ErrPoolExists            = errors.Register(Codespace, 6009, "pool already initialized")
	ErrPoolNotFound          = errors.Register(Codespace, 6010, "pool not found")
	ErrInvalidInstruction    = errors.Register(Codespace, 6011, "invalid instruction")
)

// ErrorCode returns the registered codespace and code carried by err.
// Unregistered errors report the undefined codespace; nil reports code 0.
func ErrorCode(err error) (string, uint32) {
	codespace, code, _ := errors.ABCIInfo(err, false)
	return codespace, code
}
