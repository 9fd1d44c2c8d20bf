package property

import (
	"strconv"

	"verse/core/types"
	"verse/crypto"
)

const (
	EventTypeInitialized        = "property.initialized"
	EventTypeRoiConfigUpdated   = "property.roi_config_updated"
	EventTypeTokensPurchased    = "property.tokens_purchased"
	EventTypePositionRolledOver = "property.position_rolled_over"
	EventTypePositionLiquidated = "property.position_liquidated"
)

func newEvent(kind string, attrs map[string]string) *types.Event {
	return &types.Event{Type: kind, Attributes: attrs}
}

func NewInitializedEvent(admin, vault, kycRegistry crypto.Address) *types.Event {
	return newEvent(EventTypeInitialized, map[string]string{
		"admin": admin.String(),
		"vault": vault.String(),
		"kyc":   kycRegistry.String(),
	})
}

func NewRoiConfigUpdatedEvent(admin crypto.Address, roi RoiConfig) *types.Event {
	return newEvent(EventTypeRoiConfigUpdated, map[string]string{
		"admin":                 admin.String(),
		"annual_rate_bps":       strconv.FormatUint(roi.AnnualRateBps, 10),
		"compounding_bonus_bps": strconv.FormatUint(roi.CompoundingBonusBps, 10),
		"loyalty_bonus_bps":     strconv.FormatUint(roi.LoyaltyBonusBps, 10),
	})
}

func NewTokensPurchasedEvent(buyer crypto.Address, tokens, cost string) *types.Event {
	return newEvent(EventTypeTokensPurchased, map[string]string{
		"buyer":  buyer.String(),
		"tokens": tokens,
		"cost":   cost,
	})
}

func NewPositionRolledOverEvent(user crypto.Address, totalYield string, loyaltyTier uint64, adminTriggered bool) *types.Event {
	return newEvent(EventTypePositionRolledOver, map[string]string{
		"user":            user.String(),
		"total_yield":     totalYield,
		"loyalty_tier":    strconv.FormatUint(loyaltyTier, 10),
		"admin_triggered": strconv.FormatBool(adminTriggered),
	})
}

func NewPositionLiquidatedEvent(user crypto.Address, payout string) *types.Event {
	return newEvent(EventTypePositionLiquidated, map[string]string{
		"user":   user.String(),
		"payout": payout,
	})
}
