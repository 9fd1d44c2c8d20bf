package property

import (
	"math/big"

	"verse/crypto"
)

const (
	DefaultAnnualRateBps       = uint64(800)
	DefaultCompoundingBonusBps = uint64(200)
	DefaultLoyaltyBonusBps     = uint64(25)
	MaxAnnualRateBps           = uint64(2000)
	MaxLoyaltyTier             = uint64(4)
)

// Metadata is the Property's immutable-after-init identity and wiring.
type Metadata struct {
	Initialized bool
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
	TokenPrice  *big.Int
	Admin       crypto.Address
	Vault       crypto.Address
	Kyc         crypto.Address
	Stablecoin  crypto.Address
}

// RoiConfig holds the per-property yield parameters.
type RoiConfig struct {
	AnnualRateBps       uint64
	CompoundingBonusBps uint64
	LoyaltyBonusBps     uint64
	CashFlowMonthly     *big.Int
}

// DefaultRoiConfig returns the spec's default yield parameters, with
// CashFlowMonthly left at zero pending an admin-configured value.
func DefaultRoiConfig() RoiConfig {
	return RoiConfig{
		AnnualRateBps:       DefaultAnnualRateBps,
		CompoundingBonusBps: DefaultCompoundingBonusBps,
		LoyaltyBonusBps:     DefaultLoyaltyBonusBps,
		CashFlowMonthly:     big.NewInt(0),
	}
}

// Position is a user's single active investment position on this property.
type Position struct {
	User                crypto.Address
	Tokens              *big.Int
	InitialInvestment   *big.Int
	CurrentPrincipal    *big.Int
	CompoundingEnabled  bool
	EpochStart          int64
	ConsecutiveRollovers uint64
	TotalYieldEarned    *big.Int
	LoyaltyTier         uint64
}

// YieldBreakdown is the result of the shared yield computation, shared by
// PreviewYield, RolloverPosition and LiquidatePosition.
type YieldBreakdown struct {
	BaseYield        *big.Int
	CompoundingBonus *big.Int
	LoyaltyBonus     *big.Int
	TotalYield       *big.Int
	DaysElapsed       int64
	DaysRemaining     int64
}
