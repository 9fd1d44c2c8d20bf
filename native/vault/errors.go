package vault

import "errors"

var (
	ErrNilState                      = errors.New("vault: state not configured")
	ErrNotInitialized                = errors.New("vault: not initialized")
	ErrAlreadyInitialized            = errors.New("vault: already initialized")
	ErrNotAdmin                      = errors.New("vault: caller is not the admin")
	ErrNotAuthorizedProperty         = errors.New("vault: property is not authorized")
	ErrAlreadyAuthorized             = errors.New("vault: property already authorized")
	ErrPaused                        = errors.New("vault: emergency paused")
	ErrNonPositiveAmount             = errors.New("vault: amount must be positive")
	ErrInsufficientBufferOrObligations = errors.New("vault: insufficient liquidity after buffer and obligations")
	ErrOverflow                      = errors.New("vault: arithmetic overflow")
	ErrPostTransferBalanceMismatch   = errors.New("vault: post-transfer balance mismatch")
	ErrSelfReference                 = errors.New("vault: admin cannot equal the vault's own address")
	ErrInvalidBufferPercentage       = errors.New("vault: buffer percentage must be between 10 and 25")
	ErrDuplicateFundingNonce         = errors.New("vault: funding idempotency key already used")
)
