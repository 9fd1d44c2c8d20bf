package kyc

import (
	"strconv"

	"verse/core/types"
	"verse/crypto"
)

const (
	EventTypeInitialized         = "kyc.initialized"
	EventTypeKycStatusUpdated    = "kyc.status_updated"
	EventTypeComplianceUpdated   = "kyc.compliance_updated"
)

func newEvent(kind string, attrs map[string]string) *types.Event {
	return &types.Event{Type: kind, Attributes: attrs}
}

// NewInitializedEvent records the registry's one-time admin assignment.
func NewInitializedEvent(admin crypto.Address) *types.Event {
	return newEvent(EventTypeInitialized, map[string]string{
		"admin": admin.String(),
	})
}

// NewKycStatusUpdatedEvent records a verified-flag change for user.
func NewKycStatusUpdatedEvent(admin, user crypto.Address, verified bool) *types.Event {
	return newEvent(EventTypeKycStatusUpdated, map[string]string{
		"admin":    admin.String(),
		"user":     user.String(),
		"verified": strconv.FormatBool(verified),
	})
}

// NewComplianceUpdatedEvent records a compliance status change for user.
func NewComplianceUpdatedEvent(admin, user crypto.Address, status ComplianceStatus) *types.Event {
	return newEvent(EventTypeComplianceUpdated, map[string]string{
		"admin":  admin.String(),
		"user":   user.String(),
		"status": status.String(),
	})
}
