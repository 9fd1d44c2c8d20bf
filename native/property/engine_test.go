package property_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"verse/core/state"
	"verse/crypto"
	"verse/ledger"
	"verse/native/kyc"
	"verse/native/property"
	"verse/native/vault"
	"verse/storage"
)

const epoch = int64(2_592_000)
const grace = int64(86_400)

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.VersePrefix, raw)
}

type harness struct {
	property     *property.Engine
	vaultEngine  *vault.Engine
	kycRegistry  *kyc.Registry
	ledger       *ledger.Ledger
	propertyAddr crypto.Address
	vaultAddr    crypto.Address
	admin        crypto.Address
	vaultAdmin   crypto.Address
	stablecoin   crypto.Address
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	l := ledger.New(mgr)

	propertyAddr := addr(100)
	vaultAddr := addr(200)
	kycAddr := addr(210)
	stablecoin := addr(220)
	admin := addr(1)
	vaultAdmin := addr(2)

	kycRegistry := kyc.NewRegistry()
	kycRegistry.SetState(kyc.NewStateAdapter(mgr))
	_, err := kycRegistry.Initialize(admin)
	require.NoError(t, err)

	vaultEngine := vault.NewEngine(vaultAddr, l)
	vaultEngine.SetState(vault.NewStateAdapter(mgr))
	_, err = vaultEngine.Initialize(vaultAdmin, stablecoin, nil)
	require.NoError(t, err)
	_, err = vaultEngine.AuthorizeProperty(vaultAdmin, propertyAddr)
	require.NoError(t, err)
	require.NoError(t, l.Mint(vaultAdmin, big.NewInt(1_000_000_000_000)))
	_, err = vaultEngine.FundVault(vaultAdmin, big.NewInt(1_000_000_000_000), "", 0)
	require.NoError(t, err)

	propertyEngine := property.NewEngine(propertyAddr, kycRegistry, vaultEngine)
	propertyEngine.SetState(property.NewStateAdapter(mgr, propertyAddr))

	meta := property.Metadata{
		Name:        "Maple Street Duplex",
		Symbol:      "MAPLE",
		Decimals:    0,
		TotalSupply: big.NewInt(1_000_000),
		TokenPrice:  big.NewInt(1_000_000),
		Vault:       vaultAddr,
		Kyc:         kycAddr,
		Stablecoin:  stablecoin,
	}
	_, err = propertyEngine.Initialize(admin, meta, nil)
	require.NoError(t, err)

	return &harness{
		property:     propertyEngine,
		vaultEngine:  vaultEngine,
		kycRegistry:  kycRegistry,
		ledger:       l,
		propertyAddr: propertyAddr,
		vaultAddr:    vaultAddr,
		admin:        admin,
		vaultAdmin:   vaultAdmin,
		stablecoin:   stablecoin,
	}
}

func (h *harness) approve(t *testing.T, user crypto.Address) {
	t.Helper()
	_, err := h.kycRegistry.SetKycStatus(h.admin, user, true)
	require.NoError(t, err)
	_, err = h.kycRegistry.SetComplianceStatus(h.admin, user, kyc.StatusApproved)
	require.NoError(t, err)
}

func TestPurchaseTokensRequiresKyc(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))

	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.ErrorIs(t, err, kyc.ErrKycRequired)

	h.approve(t, buyer)
	_, err = h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)
}

func TestPurchaseTokensRejectsSecondPositionForSameBuyer(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(20_000_000_000)))

	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)

	_, err = h.property.PurchaseTokens(buyer, big.NewInt(1_000), false, h.ledger, 0)
	require.ErrorIs(t, err, property.ErrPositionAlreadyExists)
}

func TestPurchaseTokensRejectsAmountOverRemainingSupply(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000_000)))

	_, err := h.property.PurchaseTokens(buyer, big.NewInt(1_000_001), false, h.ledger, 0)
	require.ErrorIs(t, err, property.ErrInsufficientSupply)
}

func TestPurchaseCostDebitsExactStablecoinAmount(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))

	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)

	bal, err := h.ledger.Balance(buyer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), bal)

	propertyBal, err := h.ledger.Balance(h.propertyAddr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10_000_000_000), propertyBal)
}

func TestRolloverPositionAppliesYieldFormula(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))

	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)

	_, err = h.property.RolloverPosition(buyer, epoch-1)
	require.ErrorIs(t, err, property.ErrEpochNotComplete)

	_, err = h.property.RolloverPosition(buyer, epoch)
	require.NoError(t, err)

	pos, err := h.property.GetUserPosition(buyer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(66_666_666), pos.TotalYieldEarned)
	require.Equal(t, big.NewInt(10_000_000_000), pos.CurrentPrincipal)
	require.EqualValues(t, 1, pos.ConsecutiveRollovers)
	require.EqualValues(t, 1, pos.LoyaltyTier)
	require.Equal(t, epoch, pos.EpochStart)
}

func TestRolloverPositionCompoundsPrincipal(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))

	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), true, h.ledger, 0)
	require.NoError(t, err)

	_, err = h.property.RolloverPosition(buyer, epoch)
	require.NoError(t, err)

	pos, err := h.property.GetUserPosition(buyer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10_083_333_332), pos.CurrentPrincipal)
}

func TestRolloverPositionLoyaltyTierCapsAtFour(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))

	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)

	var tiers []uint64
	var loyaltyBonuses []*big.Int
	for i := int64(1); i <= 6; i++ {
		now := i * epoch
		breakdown, err := h.property.PreviewYield(buyer, now)
		require.NoError(t, err)
		loyaltyBonuses = append(loyaltyBonuses, breakdown.LoyaltyBonus)

		_, err = h.property.RolloverPosition(buyer, now)
		require.NoError(t, err)

		pos, err := h.property.GetUserPosition(buyer)
		require.NoError(t, err)
		tiers = append(tiers, pos.LoyaltyTier)
	}

	require.EqualValues(t, []uint64{1, 2, 3, 4, 4, 4}, tiers)
	require.NotEqual(t, loyaltyBonuses[3], loyaltyBonuses[4], "bonus should still rise going into tier 4")
	require.Equal(t, loyaltyBonuses[4], loyaltyBonuses[5], "bonus must stop increasing once capped at tier 4")
}

func TestAdminRolloverRequiresGracePeriod(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))
	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)

	outsider := addr(99)
	_, err = h.property.AdminRolloverPosition(outsider, buyer, epoch+grace)
	require.ErrorIs(t, err, property.ErrNotAdmin)

	_, err = h.property.AdminRolloverPosition(h.admin, buyer, epoch)
	require.ErrorIs(t, err, property.ErrGracePeriodActive)

	canRollover, err := h.property.CanAdminRollover(buyer, epoch)
	require.NoError(t, err)
	require.False(t, canRollover)

	canRollover, err = h.property.CanAdminRollover(buyer, epoch+grace)
	require.NoError(t, err)
	require.True(t, canRollover)

	_, err = h.property.AdminRolloverPosition(h.admin, buyer, epoch+grace)
	require.NoError(t, err)
}

func TestLiquidatePositionPaysOutAndClosesPosition(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))
	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)

	_, _, err = h.property.LiquidatePosition(buyer, epoch-1)
	require.ErrorIs(t, err, property.ErrEpochNotComplete)

	outcome, _, err := h.property.LiquidatePosition(buyer, epoch)
	require.NoError(t, err)
	require.True(t, outcome.Executed)

	bal, err := h.ledger.Balance(buyer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10_066_666_666), bal)

	_, err = h.property.GetUserPosition(buyer)
	require.ErrorIs(t, err, property.ErrNoActivePosition)

	total, err := h.property.TotalActiveTokens()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), total)
}

func TestPreviewYieldDoesNotMutateState(t *testing.T) {
	h := newHarness(t)
	buyer := addr(10)
	h.approve(t, buyer)
	require.NoError(t, h.ledger.Mint(buyer, big.NewInt(10_000_000_000)))
	_, err := h.property.PurchaseTokens(buyer, big.NewInt(10_000), false, h.ledger, 0)
	require.NoError(t, err)

	breakdown, err := h.property.PreviewYield(buyer, epoch)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(66_666_666), breakdown.TotalYield)

	pos, err := h.property.GetUserPosition(buyer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), pos.TotalYieldEarned)
	require.EqualValues(t, 0, pos.ConsecutiveRollovers)
}
