package kyc

import (
	"verse/core/types"
	"verse/crypto"
	nativecommon "verse/native/common"
)

// engineState is the narrow persistence surface the Registry needs; callers
// wire in a concrete implementation backed by core/state (see StateAdapter).
type engineState interface {
	GetAdmin() (crypto.Address, bool, error)
	PutAdmin(admin crypto.Address) error
	GetRecord(user crypto.Address) (*Record, bool, error)
	PutRecord(user crypto.Address, record *Record) error
}

// Registry is the KYC contract's state-transition engine: a per-user mapping
// to {verified?, compliance status}, administered by its own admin.
type Registry struct {
	state engineState
	guard nativecommon.ReentrancyGuard
}

// NewRegistry constructs an unconfigured Registry; call SetState before use.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetState wires the registry to its persistence layer.
func (r *Registry) SetState(state engineState) { r.state = state }

// Initialize persists admin exactly once.
func (r *Registry) Initialize(admin crypto.Address) (*types.Event, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	release, err := r.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, ok, err := r.state.GetAdmin(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	if err := r.state.PutAdmin(admin); err != nil {
		return nil, err
	}
	return NewInitializedEvent(admin), nil
}

func (r *Registry) requireAdmin(caller crypto.Address) (crypto.Address, error) {
	admin, ok, err := r.state.GetAdmin()
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrNotInitialized
	}
	if !admin.Equal(caller) {
		return crypto.Address{}, ErrNotAdmin
	}
	return admin, nil
}

// SetKycStatus upserts the verified flag for user. Admin-only.
func (r *Registry) SetKycStatus(admin, user crypto.Address, verified bool) (*types.Event, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	release, err := r.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := r.requireAdmin(admin); err != nil {
		return nil, err
	}
	record, err := r.loadRecord(user)
	if err != nil {
		return nil, err
	}
	record.Verified = verified
	if err := r.state.PutRecord(user, record); err != nil {
		return nil, err
	}
	return NewKycStatusUpdatedEvent(admin, user, verified), nil
}

// SetComplianceStatus upserts the compliance status for user. Admin-only.
func (r *Registry) SetComplianceStatus(admin, user crypto.Address, status ComplianceStatus) (*types.Event, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	release, err := r.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := r.requireAdmin(admin); err != nil {
		return nil, err
	}
	record, err := r.loadRecord(user)
	if err != nil {
		return nil, err
	}
	record.Status = status
	if err := r.state.PutRecord(user, record); err != nil {
		return nil, err
	}
	return NewComplianceUpdatedEvent(admin, user, status), nil
}

func (r *Registry) loadRecord(user crypto.Address) (*Record, error) {
	record, ok, err := r.state.GetRecord(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		def := defaultRecord()
		return &def, nil
	}
	return record, nil
}

// IsKycVerified reports the stored verified flag, defaulting to false.
func (r *Registry) IsKycVerified(user crypto.Address) (bool, error) {
	if r == nil || r.state == nil {
		return false, ErrNilState
	}
	record, err := r.loadRecord(user)
	if err != nil {
		return false, err
	}
	return record.Verified, nil
}

// GetComplianceStatus reads the stored compliance status, defaulting to
// StatusPending.
func (r *Registry) GetComplianceStatus(user crypto.Address) (ComplianceStatus, error) {
	if r == nil || r.state == nil {
		return StatusPending, ErrNilState
	}
	record, err := r.loadRecord(user)
	if err != nil {
		return StatusPending, err
	}
	return record.Status, nil
}

// GetAdmin returns the registry's configured admin address.
func (r *Registry) GetAdmin() (crypto.Address, error) {
	if r == nil || r.state == nil {
		return crypto.Address{}, ErrNilState
	}
	admin, ok, err := r.state.GetAdmin()
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrNotInitialized
	}
	return admin, nil
}

// CheckCompliance returns ErrKycRequired unless user is verified and
// approved; it is the convenience call Property.PurchaseTokens uses rather
// than combining IsKycVerified and GetComplianceStatus itself.
func (r *Registry) CheckCompliance(user crypto.Address) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	record, err := r.loadRecord(user)
	if err != nil {
		return err
	}
	if !record.Tradable() {
		return ErrKycRequired
	}
	return nil
}
