package vault

import (
	"strconv"

	"verse/core/types"
	"verse/crypto"
)

const (
	EventTypeVaultInitialized         = "vault.initialized"
	EventTypeVaultFunded              = "vault.funded"
	EventTypePropertyAuthorized       = "vault.property_authorized"
	EventTypeLiquidityWithdrawn       = "vault.liquidity_withdrawn"
	EventTypeEmergencyPaused          = "vault.emergency_paused"
	EventTypeEmergencyUnpaused        = "vault.emergency_unpaused"
	EventTypeBufferAdjusted           = "vault.buffer_adjusted"
	EventTypeLiquidationExecuted      = "vault.liquidation_executed"
	EventTypeLiquidationQueued        = "vault.liquidation_queued"
	EventTypeControlledModeActivated  = "vault.controlled_mode_activated"
	EventTypeControlledModeDeactivated = "vault.controlled_mode_deactivated"
	EventTypeCashFlowReported         = "vault.cash_flow_reported"
)

func newEvent(kind string, attrs map[string]string) *types.Event {
	return &types.Event{Type: kind, Attributes: attrs}
}

func NewVaultInitializedEvent(admin, stablecoin crypto.Address) *types.Event {
	return newEvent(EventTypeVaultInitialized, map[string]string{
		"admin":      admin.String(),
		"stablecoin": stablecoin.String(),
	})
}

func NewVaultFundedEvent(admin crypto.Address, amount string, totalCapacity, available string) *types.Event {
	return newEvent(EventTypeVaultFunded, map[string]string{
		"admin":          admin.String(),
		"amount":         amount,
		"total_capacity": totalCapacity,
		"available":      available,
	})
}

func NewPropertyAuthorizedEvent(admin, property crypto.Address) *types.Event {
	return newEvent(EventTypePropertyAuthorized, map[string]string{
		"admin":    admin.String(),
		"property": property.String(),
	})
}

func NewLiquidityWithdrawnEvent(admin crypto.Address, amount string) *types.Event {
	return newEvent(EventTypeLiquidityWithdrawn, map[string]string{
		"admin":  admin.String(),
		"amount": amount,
	})
}

func NewEmergencyPausedEvent(admin crypto.Address) *types.Event {
	return newEvent(EventTypeEmergencyPaused, map[string]string{"admin": admin.String()})
}

func NewEmergencyUnpausedEvent(admin crypto.Address) *types.Event {
	return newEvent(EventTypeEmergencyUnpaused, map[string]string{"admin": admin.String()})
}

func NewBufferAdjustedEvent(admin crypto.Address, percentage uint64) *types.Event {
	return newEvent(EventTypeBufferAdjusted, map[string]string{
		"admin":      admin.String(),
		"percentage": strconv.FormatUint(percentage, 10),
	})
}

func NewLiquidationExecutedEvent(property, user crypto.Address, amount string, mode ExecutionMode, requestID uint64) *types.Event {
	attrs := map[string]string{
		"property": property.String(),
		"user":     user.String(),
		"amount":   amount,
		"mode":     mode.String(),
	}
	if mode == ModeFromQueue {
		attrs["request_id"] = strconv.FormatUint(requestID, 10)
	}
	return newEvent(EventTypeLiquidationExecuted, attrs)
}

func NewLiquidationQueuedEvent(property, user crypto.Address, amount string, requestID uint64) *types.Event {
	return newEvent(EventTypeLiquidationQueued, map[string]string{
		"property":   property.String(),
		"user":       user.String(),
		"amount":     amount,
		"request_id": strconv.FormatUint(requestID, 10),
	})
}

func NewControlledModeActivatedEvent() *types.Event {
	return newEvent(EventTypeControlledModeActivated, map[string]string{})
}

func NewControlledModeDeactivatedEvent() *types.Event {
	return newEvent(EventTypeControlledModeDeactivated, map[string]string{})
}

func NewCashFlowReportedEvent(property crypto.Address, amount string) *types.Event {
	return newEvent(EventTypeCashFlowReported, map[string]string{
		"property": property.String(),
		"amount":   amount,
	})
}
