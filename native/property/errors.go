package property

import "errors"

var (
	ErrNilState              = errors.New("property: state not configured")
	ErrNotInitialized        = errors.New("property: not initialized")
	ErrAlreadyInitialized    = errors.New("property: already initialized")
	ErrNotAdmin              = errors.New("property: caller is not the admin")
	ErrInvalidAmount         = errors.New("property: token amount must be positive")
	ErrInsufficientSupply    = errors.New("property: token amount exceeds remaining supply")
	ErrPositionAlreadyExists = errors.New("property: buyer already has an active position")
	ErrNoActivePosition      = errors.New("property: no active position for user")
	ErrEpochNotComplete      = errors.New("property: current epoch has not elapsed")
	ErrGracePeriodActive     = errors.New("property: grace period has not yet elapsed")
	ErrInvalidRoiConfig      = errors.New("property: annual rate bps must be in (0,2000]")
)
