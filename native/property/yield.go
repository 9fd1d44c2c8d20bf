package property

import (
	"math/big"

	nativecommon "verse/native/common"
)

var monthlyScale = big.NewInt(12 * nativecommon.BasisPointsDenominator)

// computeYield implements the shared yield formula from the single-step
// form (P * rate_bps) / (12 * 10_000), which avoids the precision loss of
// pre-dividing rate_bps by 12 before multiplying by the principal. All
// division truncates toward zero, matching math/big.Int's Quo.
func computeYield(principal *big.Int, roi RoiConfig, loyaltyTier uint64, compoundingEnabled bool, epochStart, now int64) YieldBreakdown {
	base := scaledYield(principal, roi.AnnualRateBps)

	compounding := big.NewInt(0)
	if compoundingEnabled {
		compounding = scaledYield(principal, roi.CompoundingBonusBps)
	}

	loyalty := scaledYield(principal, loyaltyTier*roi.LoyaltyBonusBps)

	total := new(big.Int).Add(base, compounding)
	total = total.Add(total, loyalty)

	elapsed := now - epochStart
	daysElapsed := elapsed / 86_400
	daysRemaining := 30 - daysElapsed
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return YieldBreakdown{
		BaseYield:        base,
		CompoundingBonus: compounding,
		LoyaltyBonus:     loyalty,
		TotalYield:       total,
		DaysElapsed:      daysElapsed,
		DaysRemaining:    daysRemaining,
	}
}

func scaledYield(principal *big.Int, rateBps uint64) *big.Int {
	if rateBps == 0 || principal.Sign() == 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(principal, new(big.Int).SetUint64(rateBps))
	return num.Quo(num, monthlyScale)
}
