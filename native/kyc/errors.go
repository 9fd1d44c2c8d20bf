package kyc

import "errors"

var (
	ErrNotInitialized    = errors.New("kyc: registry not initialized")
	ErrAlreadyInitialized = errors.New("kyc: registry already initialized")
	ErrNotAdmin          = errors.New("kyc: caller is not the admin")
	ErrNilState          = errors.New("kyc: state not configured")
	ErrKycRequired       = errors.New("kyc: user is not verified and approved")
	ErrInvalidStatus     = errors.New("kyc: unknown compliance status")
)
