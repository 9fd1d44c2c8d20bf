package vault_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"verse/core/state"
	"verse/crypto"
	"verse/ledger"
	"verse/native/vault"
	"verse/storage"
)

const day = int64(86_400)
const month = int64(2_592_000)

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.VersePrefix, raw)
}

type harness struct {
	engine *vault.Engine
	ledger *ledger.Ledger
	vault  crypto.Address
	admin  crypto.Address
}

func newHarness(t *testing.T, bufferPct uint64) *harness {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	l := ledger.New(mgr)
	vaultAddr := addr(255)
	admin := addr(1)

	e := vault.NewEngine(vaultAddr, l)
	e.SetState(vault.NewStateAdapter(mgr))
	_, err := e.Initialize(admin, addr(254), &vault.Params{BufferPercentage: bufferPct})
	require.NoError(t, err)

	return &harness{engine: e, ledger: l, vault: vaultAddr, admin: admin}
}

func (h *harness) fund(t *testing.T, amount int64, now int64) {
	t.Helper()
	require.NoError(t, h.ledger.Mint(h.admin, big.NewInt(amount)))
	_, err := h.engine.FundVault(h.admin, big.NewInt(amount), "", now)
	require.NoError(t, err)
}

func TestInitializeRejectsSelfReference(t *testing.T) {
	mgr := state.NewManager(storage.NewMemDB())
	l := ledger.New(mgr)
	vaultAddr := addr(255)
	e := vault.NewEngine(vaultAddr, l)
	e.SetState(vault.NewStateAdapter(mgr))

	_, err := e.Initialize(vaultAddr, addr(254), nil)
	require.ErrorIs(t, err, vault.ErrSelfReference)
}

func TestInitializeTwiceFails(t *testing.T) {
	h := newHarness(t, 15)
	_, err := h.engine.Initialize(h.admin, addr(254), nil)
	require.ErrorIs(t, err, vault.ErrAlreadyInitialized)
}

func TestInitializeAppliesDefaultBuffer(t *testing.T) {
	h := newHarness(t, 0)
	cfg, err := h.engine.GetConfig()
	require.NoError(t, err)
	require.Equal(t, vault.DefaultBufferPercentage, cfg.BufferPercentage)
}

func TestFundVaultIdempotencyKeyDedup(t *testing.T) {
	h := newHarness(t, 15)
	require.NoError(t, h.ledger.Mint(h.admin, big.NewInt(2_000)))

	_, err := h.engine.FundVault(h.admin, big.NewInt(1_000), "retry-key", 0)
	require.NoError(t, err)

	_, err = h.engine.FundVault(h.admin, big.NewInt(1_000), "retry-key", 0)
	require.ErrorIs(t, err, vault.ErrDuplicateFundingNonce)
}

func TestFundVaultRejectsAmountExceedingUint256(t *testing.T) {
	h := newHarness(t, 15)
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	require.NoError(t, h.ledger.Mint(h.admin, tooBig))

	_, err := h.engine.FundVault(h.admin, tooBig, "", 0)
	require.ErrorIs(t, err, vault.ErrOverflow)
}

func TestFundVaultRejectsNonAdmin(t *testing.T) {
	h := newHarness(t, 15)
	outsider := addr(2)
	require.NoError(t, h.ledger.Mint(outsider, big.NewInt(1_000)))

	_, err := h.engine.FundVault(outsider, big.NewInt(1_000), "", 0)
	require.ErrorIs(t, err, vault.ErrNotAdmin)
}

func TestAuthorizePropertyAllowedWhilePaused(t *testing.T) {
	h := newHarness(t, 15)
	_, err := h.engine.EmergencyPause(h.admin)
	require.NoError(t, err)

	_, err = h.engine.AuthorizeProperty(h.admin, addr(10))
	require.NoError(t, err)

	ok, err := h.engine.IsAuthorized(addr(10))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAuthorizePropertyRejectsDuplicate(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)

	_, err = h.engine.AuthorizeProperty(h.admin, property)
	require.ErrorIs(t, err, vault.ErrAlreadyAuthorized)
}

func TestWithdrawLiquidityRespectsBuffer(t *testing.T) {
	h := newHarness(t, 15)
	h.fund(t, 5_000_000, 0)

	// buffer = 15% of 5,000,000 = 750,000. Withdrawing 4,300,000 leaves
	// 700,000 available, below the buffer.
	_, err := h.engine.WithdrawLiquidity(h.admin, big.NewInt(4_300_000))
	require.ErrorIs(t, err, vault.ErrInsufficientBufferOrObligations)

	// Withdrawing 4,000,000 leaves exactly 1,000,000, above the buffer.
	_, err = h.engine.WithdrawLiquidity(h.admin, big.NewInt(4_000_000))
	require.NoError(t, err)

	avail, err := h.engine.AvailableLiquidity()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000), avail)
}

func TestWithdrawLiquidityBlockedByQueuedObligations(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)
	h.fund(t, 1_000_000, 0)

	// threshold = 150,000; request for 900,000 needs 1,050,000 > 1,000,000
	// available, so it is queued rather than paid instantly.
	outcome, _, err := h.engine.RequestLiquidation(property, addr(20), big.NewInt(900_000), 0)
	require.NoError(t, err)
	require.False(t, outcome.Executed)

	// minimum = buffer(150,000) + obligations(900,000) = 1,050,000, above the
	// 1,000,000 available, so even a tiny withdrawal is rejected.
	_, err = h.engine.WithdrawLiquidity(h.admin, big.NewInt(10))
	require.ErrorIs(t, err, vault.ErrInsufficientBufferOrObligations)
}

func TestEmergencyPauseBlocksFundingAndWithdrawal(t *testing.T) {
	h := newHarness(t, 15)
	require.NoError(t, h.ledger.Mint(h.admin, big.NewInt(1_000)))

	_, err := h.engine.EmergencyPause(h.admin)
	require.NoError(t, err)

	_, err = h.engine.FundVault(h.admin, big.NewInt(1_000), "", 0)
	require.ErrorIs(t, err, vault.ErrPaused)

	_, err = h.engine.WithdrawLiquidity(h.admin, big.NewInt(1))
	require.ErrorIs(t, err, vault.ErrPaused)

	_, err = h.engine.EmergencyUnpause(h.admin)
	require.NoError(t, err)

	_, err = h.engine.FundVault(h.admin, big.NewInt(1_000), "", 0)
	require.NoError(t, err)
}

func TestUpdateBufferPercentageValidatesRange(t *testing.T) {
	h := newHarness(t, 15)
	_, err := h.engine.UpdateBufferPercentage(h.admin, 9)
	require.ErrorIs(t, err, vault.ErrInvalidBufferPercentage)

	_, err = h.engine.UpdateBufferPercentage(h.admin, 26)
	require.ErrorIs(t, err, vault.ErrInvalidBufferPercentage)

	_, err = h.engine.UpdateBufferPercentage(h.admin, 20)
	require.NoError(t, err)

	cfg, err := h.engine.GetConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(20), cfg.BufferPercentage)
}

func TestRequestLiquidationInstantWhenBufferHolds(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)
	h.fund(t, 1_000_000, 0)

	// threshold = 150,000; 200,000 needs 350,000 <= 1,000,000 available.
	outcome, events, err := h.engine.RequestLiquidation(property, addr(20), big.NewInt(200_000), 0)
	require.NoError(t, err)
	require.True(t, outcome.Executed)
	require.Equal(t, vault.ModeInstant, outcome.Mode)
	require.Len(t, events, 1)

	avail, err := h.engine.AvailableLiquidity()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(800_000), avail)
}

func TestDrainQueueFIFOOrderingOnFunding(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)
	h.fund(t, 100_000, 0)

	// threshold = 15,000; 90,000 needs 105,000 > 100,000 available: queued.
	outcomeA, _, err := h.engine.RequestLiquidation(property, addr(20), big.NewInt(90_000), 0)
	require.NoError(t, err)
	require.False(t, outcomeA.Executed)
	require.EqualValues(t, 0, outcomeA.RequestID)

	// Controlled mode is now active, so every further request queues
	// regardless of whether the balance alone would cover it.
	outcomeB, _, err := h.engine.RequestLiquidation(property, addr(21), big.NewInt(5_000), 0)
	require.NoError(t, err)
	require.False(t, outcomeB.Executed)
	require.EqualValues(t, 1, outcomeB.RequestID)

	status, err := h.engine.GetQueueStatus(0)
	require.NoError(t, err)
	require.EqualValues(t, 2, status.PendingCount)
	require.Equal(t, big.NewInt(95_000), status.TotalPendingAmount)

	// Funding 50,000 more brings capacity to 150,000 (new threshold 22,500)
	// and available to 150,000, which drains both queued requests in order.
	h.fund(t, 50_000, 0)

	status, err = h.engine.GetQueueStatus(0)
	require.NoError(t, err)
	require.EqualValues(t, 0, status.PendingCount)

	avail, err := h.engine.AvailableLiquidity()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(55_000), avail)

	stats, err := h.engine.GetPropertyStats(property)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(95_000), stats.TotalLiquidated)
	require.EqualValues(t, 2, stats.ActiveUsers)
}

func TestDrainQueueStopsAtFirstUnfundableRequest(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)
	h.fund(t, 100_000, 0)

	_, _, err = h.engine.RequestLiquidation(property, addr(20), big.NewInt(90_000), 0)
	require.NoError(t, err)
	_, _, err = h.engine.RequestLiquidation(property, addr(21), big.NewInt(200_000), 0)
	require.NoError(t, err)

	// Funding just 10,000 (capacity 110,000, threshold 16,500, available
	// 110,000) funds the first request (needs 106,500) but not the second
	// (needs 216,500), so draining must stop after the first.
	h.fund(t, 10_000, 0)

	status, err := h.engine.GetQueueStatus(0)
	require.NoError(t, err)
	require.EqualValues(t, 1, status.PendingCount)
	require.Equal(t, big.NewInt(200_000), status.TotalPendingAmount)
}

func TestEstimateFulfillmentUsesReportedCashFlow(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)
	_, err = h.engine.ReportCashFlow(property, big.NewInt(100_000))
	require.NoError(t, err)

	estimate, err := h.engine.EstimateFulfillment(big.NewInt(250_000), 0)
	require.NoError(t, err)
	require.Equal(t, int64(2)*month, estimate)
}

func TestEstimateFulfillmentFallsBackWithoutCashFlow(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)

	estimate, err := h.engine.EstimateFulfillment(big.NewInt(250_000), 0)
	require.NoError(t, err)
	require.Equal(t, int64(90)*day, estimate)
}

func TestEstimateFulfillmentCapsAtTwelveMonths(t *testing.T) {
	h := newHarness(t, 15)
	property := addr(10)
	_, err := h.engine.AuthorizeProperty(h.admin, property)
	require.NoError(t, err)
	_, err = h.engine.ReportCashFlow(property, big.NewInt(1))
	require.NoError(t, err)

	estimate, err := h.engine.EstimateFulfillment(big.NewInt(1_000_000), 0)
	require.NoError(t, err)
	require.Equal(t, int64(12)*month, estimate)
}
