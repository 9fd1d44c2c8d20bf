package property

import (
	"math/big"

	"verse/core/types"
	"verse/crypto"
	nativecommon "verse/native/common"
	"verse/native/vault"
)

// KycGate is the read surface Property consults before a purchase.
type KycGate interface {
	CheckCompliance(user crypto.Address) error
}

// VaultGate is the write surface Property uses on liquidation.
type VaultGate interface {
	RequestLiquidation(property, user crypto.Address, amount *big.Int, now int64) (*vault.LiquidationOutcome, []*types.Event, error)
	ReportCashFlow(property crypto.Address, amount *big.Int) (*types.Event, error)
}

// engineState is the narrow persistence surface the Engine needs.
type engineState interface {
	GetMetadata() (*Metadata, bool, error)
	PutMetadata(meta *Metadata) error
	GetRoiConfig() (*RoiConfig, bool, error)
	PutRoiConfig(roi *RoiConfig) error
	GetPosition(user crypto.Address) (*Position, bool, error)
	PutPosition(pos *Position) error
	DeletePosition(user crypto.Address) error
	GetActiveTokens() (*big.Int, error)
	PutActiveTokens(total *big.Int) error
}

// Engine is a single Property contract's state-transition engine. Each
// deployed property owns one Engine instance, identified by address, so many
// Engine instances can share one persistence backend, one Vault and one KYC
// registry.
type Engine struct {
	address crypto.Address
	state   engineState
	kyc     KycGate
	vault   VaultGate
	guard   nativecommon.ReentrancyGuard
}

// NewEngine constructs a Property engine for the given contract address.
func NewEngine(address crypto.Address, kyc KycGate, vaultGate VaultGate) *Engine {
	return &Engine{address: address, kyc: kyc, vault: vaultGate}
}

// SetState wires the engine to its persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// Address returns this property's contract address.
func (e *Engine) Address() crypto.Address { return e.address }

func (e *Engine) requireInitialized() (*Metadata, error) {
	meta, ok, err := e.state.GetMetadata()
	if err != nil {
		return nil, err
	}
	if !ok || !meta.Initialized {
		return nil, ErrNotInitialized
	}
	return meta, nil
}

// Initialize fixes the property's metadata and wiring exactly once, seeding
// the default RoiConfig.
func (e *Engine) Initialize(admin crypto.Address, meta Metadata, roi *RoiConfig) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, ok, err := e.state.GetMetadata(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}

	meta.Initialized = true
	meta.Admin = admin
	if err := e.state.PutMetadata(&meta); err != nil {
		return nil, err
	}

	config := DefaultRoiConfig()
	if roi != nil {
		config = *roi
	}
	if config.CashFlowMonthly == nil {
		config.CashFlowMonthly = big.NewInt(0)
	}
	if err := e.state.PutRoiConfig(&config); err != nil {
		return nil, err
	}
	if err := e.state.PutActiveTokens(big.NewInt(0)); err != nil {
		return nil, err
	}
	return NewInitializedEvent(admin, meta.Vault, meta.Kyc), nil
}

// UpdateRoiConfig validates and replaces the property's yield configuration.
// annual_rate_bps must fall in (0, 2000]; the bonus fields are admin-trusted.
// Changing CashFlowMonthly pushes the new value to the vault's FIFO
// estimator.
func (e *Engine) UpdateRoiConfig(admin crypto.Address, roi RoiConfig) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if !meta.Admin.Equal(admin) {
		return nil, ErrNotAdmin
	}
	if roi.AnnualRateBps == 0 || roi.AnnualRateBps > MaxAnnualRateBps {
		return nil, ErrInvalidRoiConfig
	}
	if roi.CashFlowMonthly == nil {
		roi.CashFlowMonthly = big.NewInt(0)
	}
	if err := e.state.PutRoiConfig(&roi); err != nil {
		return nil, err
	}
	if e.vault != nil {
		if _, err := e.vault.ReportCashFlow(e.address, roi.CashFlowMonthly); err != nil {
			return nil, err
		}
	}
	return NewRoiConfigUpdatedEvent(admin, roi), nil
}

// PurchaseTokens sells tokenAmount tokens to buyer for USDC pulled via the
// ledger the caller's vault/KYC gates are wired against.
func (e *Engine) PurchaseTokens(buyer crypto.Address, tokenAmount *big.Int, enableCompounding bool, ledger TokenLedger, now int64) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if tokenAmount == nil || tokenAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.kyc != nil {
		if err := e.kyc.CheckCompliance(buyer); err != nil {
			return nil, err
		}
	}
	if _, ok, err := e.state.GetPosition(buyer); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrPositionAlreadyExists
	}

	activeTokens, err := e.state.GetActiveTokens()
	if err != nil {
		return nil, err
	}
	remaining := new(big.Int).Sub(meta.TotalSupply, activeTokens)
	if tokenAmount.Cmp(remaining) > 0 {
		return nil, ErrInsufficientSupply
	}

	cost := purchaseCost(tokenAmount, meta.TokenPrice, meta.Decimals)

	if ledger != nil {
		if err := ledger.Transfer(buyer, e.address, cost); err != nil {
			return nil, err
		}
	}

	position := &Position{
		User:               buyer,
		Tokens:             new(big.Int).Set(tokenAmount),
		InitialInvestment:  cost,
		CurrentPrincipal:   cost,
		CompoundingEnabled: enableCompounding,
		EpochStart:         now,
		TotalYieldEarned:   big.NewInt(0),
	}
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutActiveTokens(new(big.Int).Add(activeTokens, tokenAmount)); err != nil {
		return nil, err
	}
	return NewTokensPurchasedEvent(buyer, tokenAmount.String(), cost.String()), nil
}

// purchaseCost computes token_amount * token_price / 10^decimals, truncating
// toward zero, per the decided-open-question in the design notes.
func purchaseCost(tokenAmount, tokenPrice *big.Int, decimals uint8) *big.Int {
	cost := new(big.Int).Mul(tokenAmount, tokenPrice)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	if scale.Sign() == 0 {
		return cost
	}
	return cost.Quo(cost, scale)
}

// TokenLedger is the external fungible-token primitive purchases move USDC
// through; it matches vault.TokenLedger's shape so a single Ledger backend
// can satisfy both.
type TokenLedger interface {
	Transfer(from, to crypto.Address, amount *big.Int) error
	Balance(addr crypto.Address) (*big.Int, error)
}

func epochElapsed(pos *Position, now int64) bool {
	return now >= pos.EpochStart+nativecommon.EpochDuration
}

// RolloverPosition advances user's position to a new epoch without
// withdrawing, applying the shared yield formula and, if compounding is
// enabled, folding the yield into the principal.
func (e *Engine) RolloverPosition(user crypto.Address, now int64) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := e.requireInitialized(); err != nil {
		return nil, err
	}
	pos, ok, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActivePosition
	}
	if !epochElapsed(pos, now) {
		return nil, ErrEpochNotComplete
	}

	roi, err := e.currentRoi()
	if err != nil {
		return nil, err
	}
	e.applyRollover(pos, roi, now)
	if err := e.state.PutPosition(pos); err != nil {
		return nil, err
	}
	return NewPositionRolledOverEvent(user, pos.TotalYieldEarned.String(), pos.LoyaltyTier, false), nil
}

// AdminRolloverPosition lets the property's configured admin force a
// rollover once the grace period has fully elapsed without the user acting.
// It applies the identical update as a self-service rollover.
func (e *Engine) AdminRolloverPosition(admin, user crypto.Address, now int64) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if !meta.Admin.Equal(admin) {
		return nil, ErrNotAdmin
	}
	pos, ok, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActivePosition
	}
	if !canAdminRollover(pos, now) {
		return nil, ErrGracePeriodActive
	}

	roi, err := e.currentRoi()
	if err != nil {
		return nil, err
	}
	e.applyRollover(pos, roi, now)
	if err := e.state.PutPosition(pos); err != nil {
		return nil, err
	}
	return NewPositionRolledOverEvent(user, pos.TotalYieldEarned.String(), pos.LoyaltyTier, true), nil
}

func canAdminRollover(pos *Position, now int64) bool {
	return now >= pos.EpochStart+nativecommon.EpochDuration+nativecommon.GracePeriod
}

// CanAdminRollover is the public view predicate for AdminRolloverPosition's
// gate.
func (e *Engine) CanAdminRollover(user crypto.Address, now int64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	if _, err := e.requireInitialized(); err != nil {
		return false, err
	}
	pos, ok, err := e.state.GetPosition(user)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return canAdminRollover(pos, now), nil
}

func (e *Engine) applyRollover(pos *Position, roi *RoiConfig, now int64) {
	breakdown := computeYield(pos.CurrentPrincipal, *roi, pos.LoyaltyTier, pos.CompoundingEnabled, pos.EpochStart, now)
	if pos.CompoundingEnabled {
		pos.CurrentPrincipal = new(big.Int).Add(pos.CurrentPrincipal, breakdown.TotalYield)
	}
	pos.TotalYieldEarned = new(big.Int).Add(pos.TotalYieldEarned, breakdown.TotalYield)
	pos.ConsecutiveRollovers++
	pos.LoyaltyTier = pos.ConsecutiveRollovers
	if pos.LoyaltyTier > MaxLoyaltyTier {
		pos.LoyaltyTier = MaxLoyaltyTier
	}
	pos.EpochStart = now
}

// LiquidatePosition computes the final epoch yield, invokes the vault, and
// on acceptance (instant or queued) deletes the position.
func (e *Engine) LiquidatePosition(user crypto.Address, now int64) (*vault.LiquidationOutcome, []*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	if _, err := e.requireInitialized(); err != nil {
		return nil, nil, err
	}
	pos, ok, err := e.state.GetPosition(user)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNoActivePosition
	}
	if !epochElapsed(pos, now) {
		return nil, nil, ErrEpochNotComplete
	}

	roi, err := e.currentRoi()
	if err != nil {
		return nil, nil, err
	}
	breakdown := computeYield(pos.CurrentPrincipal, *roi, pos.LoyaltyTier, pos.CompoundingEnabled, pos.EpochStart, now)
	payout := new(big.Int).Add(pos.CurrentPrincipal, breakdown.TotalYield)

	outcome, events, err := e.vault.RequestLiquidation(e.address, user, payout, now)
	if err != nil {
		return nil, nil, err
	}

	activeTokens, err := e.state.GetActiveTokens()
	if err != nil {
		return nil, nil, err
	}
	if err := e.state.PutActiveTokens(new(big.Int).Sub(activeTokens, pos.Tokens)); err != nil {
		return nil, nil, err
	}
	if err := e.state.DeletePosition(user); err != nil {
		return nil, nil, err
	}
	events = append(events, NewPositionLiquidatedEvent(user, payout.String()))
	return outcome, events, nil
}

func (e *Engine) currentRoi() (*RoiConfig, error) {
	roi, ok, err := e.state.GetRoiConfig()
	if err != nil {
		return nil, err
	}
	if !ok {
		def := DefaultRoiConfig()
		return &def, nil
	}
	return roi, nil
}

// GetUserPosition returns a copy of user's active position.
func (e *Engine) GetUserPosition(user crypto.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, err := e.requireInitialized(); err != nil {
		return nil, err
	}
	pos, ok, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActivePosition
	}
	return pos, nil
}

// PreviewYield returns the yield breakdown user's position would realize if
// rolled over or liquidated at now, without mutating any state.
func (e *Engine) PreviewYield(user crypto.Address, now int64) (*YieldBreakdown, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, err := e.requireInitialized(); err != nil {
		return nil, err
	}
	pos, ok, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActivePosition
	}
	roi, err := e.currentRoi()
	if err != nil {
		return nil, err
	}
	breakdown := computeYield(pos.CurrentPrincipal, *roi, pos.LoyaltyTier, pos.CompoundingEnabled, pos.EpochStart, now)
	return &breakdown, nil
}

// CanTakeAction reports whether the current epoch has elapsed for user.
func (e *Engine) CanTakeAction(user crypto.Address, now int64) (bool, error) {
	pos, err := e.GetUserPosition(user)
	if err != nil {
		return false, err
	}
	return epochElapsed(pos, now), nil
}

// IsInGracePeriod reports whether no more than EpochDuration+GracePeriod
// seconds have passed since user's epoch start. It is also true while the
// epoch itself is still running.
func (e *Engine) IsInGracePeriod(user crypto.Address, now int64) (bool, error) {
	pos, err := e.GetUserPosition(user)
	if err != nil {
		return false, err
	}
	elapsed := now - pos.EpochStart
	return elapsed <= nativecommon.EpochDuration+nativecommon.GracePeriod, nil
}

// GetMetadata returns the property's immutable metadata.
func (e *Engine) GetMetadata() (*Metadata, error) {
	return e.requireInitialized()
}

// GetRoiConfig returns the property's current yield configuration.
func (e *Engine) GetRoiConfig() (*RoiConfig, error) {
	if _, err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.currentRoi()
}

// TotalActiveTokens returns the running count of tokens held across all
// active positions.
func (e *Engine) TotalActiveTokens() (*big.Int, error) {
	if _, err := e.requireInitialized(); err != nil {
		return nil, err
	}
	return e.state.GetActiveTokens()
}
