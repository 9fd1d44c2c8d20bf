package vault

import (
	"math/big"

	"github.com/holiman/uint256"

	"verse/core/types"
	"verse/crypto"
	nativecommon "verse/native/common"
)

// TokenLedger is the external fungible-token primitive the vault transfers
// USDC through: authenticated transfer plus balance lookups.
type TokenLedger interface {
	Transfer(from, to crypto.Address, amount *big.Int) error
	Balance(addr crypto.Address) (*big.Int, error)
}

// engineState is the narrow persistence surface the Engine needs.
type engineState interface {
	GetConfig() (*Config, bool, error)
	PutConfig(cfg *Config) error
	IsAuthorized(property crypto.Address) (bool, error)
	PutAuthorized(property crypto.Address) error
	ListAuthorized() ([]crypto.Address, error)
	GetQueueIndices() (*QueueIndices, bool, error)
	PutQueueIndices(q *QueueIndices) error
	GetRequest(id uint64) (*LiquidationRequest, bool, error)
	PutRequest(req *LiquidationRequest) error
	DeleteRequest(id uint64) error
	GetPropertyStats(property crypto.Address) (*PropertyStats, bool, error)
	PutPropertyStats(stats *PropertyStats) error
	HasSeenUser(property, user crypto.Address) (bool, error)
	MarkSeenUser(property, user crypto.Address) error
	HasFundingNonce(key string) (bool, error)
	MarkFundingNonce(key string) error
}

// Engine is the Vault contract's state-transition engine.
type Engine struct {
	state   engineState
	ledger  TokenLedger
	address crypto.Address
	guard   nativecommon.ReentrancyGuard
}

// NewEngine constructs a Vault engine owning the given custodial address.
func NewEngine(address crypto.Address, ledger TokenLedger) *Engine {
	return &Engine{address: address, ledger: ledger}
}

// SetState wires the engine to its persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// Address returns the vault's own custodial address.
func (e *Engine) Address() crypto.Address { return e.address }

func (e *Engine) requireInitialized() (*Config, error) {
	cfg, ok, err := e.state.GetConfig()
	if err != nil {
		return nil, err
	}
	if !ok || !cfg.Initialized {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func requireAdmin(cfg *Config, caller crypto.Address) error {
	if !cfg.Admin.Equal(caller) {
		return ErrNotAdmin
	}
	return nil
}

func requireNotPaused(cfg *Config) error {
	if cfg.EmergencyPaused {
		return ErrPaused
	}
	return nil
}

func bufferThreshold(cfg *Config) *big.Int {
	num := new(big.Int).Mul(cfg.TotalCapacity, new(big.Int).SetUint64(cfg.BufferPercentage))
	return num.Quo(num, big.NewInt(100))
}

// Initialize persists the Vault's admin, stablecoin wiring and default
// buffer percentage exactly once.
func (e *Engine) Initialize(admin, stablecoin crypto.Address, params *Params) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, ok, err := e.state.GetConfig(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	if admin.Equal(e.address) {
		return nil, ErrSelfReference
	}
	if params == nil {
		params = &Params{}
	}
	params = params.Clone()
	params.EnsureDefaults()
	if !params.Valid() {
		return nil, ErrInvalidBufferPercentage
	}
	cfg := &Config{
		Initialized:      true,
		Admin:            admin,
		Address:          e.address,
		Stablecoin:       stablecoin,
		TotalCapacity:    big.NewInt(0),
		Available:        big.NewInt(0),
		BufferPercentage: params.BufferPercentage,
	}
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}
	return NewVaultInitializedEvent(admin, stablecoin), nil
}

// FundVault pulls amount USDC from admin into the vault's custody, then
// drains the FIFO queue as far as the new balance allows. idempotencyKey, if
// non-empty, deduplicates a retried call carrying the same client-supplied
// key rather than double-crediting the vault.
func (e *Engine) FundVault(admin crypto.Address, amount *big.Int, idempotencyKey string, now int64) ([]*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(cfg, admin); err != nil {
		return nil, err
	}
	if err := requireNotPaused(cfg); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if idempotencyKey != "" {
		seen, err := e.state.HasFundingNonce(idempotencyKey)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, ErrDuplicateFundingNonce
		}
	}

	preBalance, err := e.ledger.Balance(e.address)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(admin, e.address, amount); err != nil {
		return nil, err
	}
	postBalance, err := e.ledger.Balance(e.address)
	if err != nil {
		return nil, err
	}
	wantBalance := new(big.Int).Add(preBalance, amount)
	if postBalance.Cmp(wantBalance) != 0 {
		return nil, ErrPostTransferBalanceMismatch
	}

	totalCapacity := new(big.Int).Add(cfg.TotalCapacity, amount)
	available := new(big.Int).Add(cfg.Available, amount)
	if _, overflow := uint256.FromBig(totalCapacity); overflow {
		return nil, ErrOverflow
	}
	if _, overflow := uint256.FromBig(available); overflow {
		return nil, ErrOverflow
	}
	cfg.TotalCapacity = totalCapacity
	cfg.Available = available
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}

	events := []*types.Event{NewVaultFundedEvent(admin, amount.String(), cfg.TotalCapacity.String(), cfg.Available.String())}

	drainEvents, err := e.drainQueue(cfg, now)
	if err != nil {
		return nil, err
	}
	events = append(events, drainEvents...)

	if idempotencyKey != "" {
		if err := e.state.MarkFundingNonce(idempotencyKey); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// AuthorizeProperty adds property to the authorized set and seeds its stats.
// Permitted even while the vault is emergency-paused: it is pure
// configuration and moves no funds.
func (e *Engine) AuthorizeProperty(admin, property crypto.Address) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(cfg, admin); err != nil {
		return nil, err
	}
	authorized, err := e.state.IsAuthorized(property)
	if err != nil {
		return nil, err
	}
	if authorized {
		return nil, ErrAlreadyAuthorized
	}
	if err := e.state.PutAuthorized(property); err != nil {
		return nil, err
	}
	stats := &PropertyStats{
		Property:        property,
		TotalLiquidated: big.NewInt(0),
		CashFlowMonthly: big.NewInt(0),
	}
	if err := e.state.PutPropertyStats(stats); err != nil {
		return nil, err
	}
	return NewPropertyAuthorizedEvent(admin, property), nil
}

// ReportCashFlow lets an authorized property push its configured monthly
// cash flow forecast into the vault's FIFO wait-time estimator.
func (e *Engine) ReportCashFlow(property crypto.Address, amount *big.Int) (*types.Event, error) {
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
	authorized, err := e.state.IsAuthorized(property)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, ErrNotAuthorizedProperty
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrNonPositiveAmount
	}
	stats, ok, err := e.state.GetPropertyStats(property)
	if err != nil {
		return nil, err
	}
	if !ok {
		stats = &PropertyStats{Property: property, TotalLiquidated: big.NewInt(0)}
	}
	stats.CashFlowMonthly = new(big.Int).Set(amount)
	if err := e.state.PutPropertyStats(stats); err != nil {
		return nil, err
	}
	return NewCashFlowReportedEvent(property, amount.String()), nil
}

// WithdrawLiquidity pulls amount out of the vault's custody for the admin,
// rejecting any withdrawal that would breach the buffer or queued
// obligations.
func (e *Engine) WithdrawLiquidity(admin crypto.Address, amount *big.Int) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(cfg, admin); err != nil {
		return nil, err
	}
	if err := requireNotPaused(cfg); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrNonPositiveAmount
	}

	buffer := bufferThreshold(cfg)
	obligations, err := e.totalObligations()
	if err != nil {
		return nil, err
	}
	minimum := new(big.Int).Add(buffer, obligations)
	remaining := new(big.Int).Sub(cfg.Available, amount)
	if remaining.Cmp(minimum) < 0 {
		return nil, ErrInsufficientBufferOrObligations
	}

	if err := e.ledger.Transfer(e.address, admin, amount); err != nil {
		return nil, err
	}
	cfg.Available = remaining
	cfg.TotalCapacity = new(big.Int).Sub(cfg.TotalCapacity, amount)
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}
	return NewLiquidityWithdrawnEvent(admin, amount.String()), nil
}

// EmergencyPause sets the pause flag, rejecting every write path except
// unpause and pure admin configuration.
func (e *Engine) EmergencyPause(admin crypto.Address) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(cfg, admin); err != nil {
		return nil, err
	}
	cfg.EmergencyPaused = true
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}
	return NewEmergencyPausedEvent(admin), nil
}

// EmergencyUnpause clears the pause flag.
func (e *Engine) EmergencyUnpause(admin crypto.Address) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(cfg, admin); err != nil {
		return nil, err
	}
	cfg.EmergencyPaused = false
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}
	return NewEmergencyUnpausedEvent(admin), nil
}

// UpdateBufferPercentage sets the buffer percentage, permitted even while
// emergency-paused since it is pure admin configuration that moves no funds.
func (e *Engine) UpdateBufferPercentage(admin crypto.Address, percentage uint64) (*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if percentage < MinBufferPercentage || percentage > MaxBufferPercentage {
		return nil, ErrInvalidBufferPercentage
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(cfg, admin); err != nil {
		return nil, err
	}
	cfg.BufferPercentage = percentage
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}
	return NewBufferAdjustedEvent(admin, percentage), nil
}

// RequestLiquidation is the Property-only entry point: either the vault pays
// out instantly, or the request is enqueued and the vault flips into
// controlled mode. Queuing is not an error.
func (e *Engine) RequestLiquidation(property, user crypto.Address, amount *big.Int, now int64) (*LiquidationOutcome, []*types.Event, error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, nil, err
	}
	defer release()

	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, nil, err
	}
	authorized, err := e.state.IsAuthorized(property)
	if err != nil {
		return nil, nil, err
	}
	if !authorized {
		return nil, nil, ErrNotAuthorizedProperty
	}
	if err := requireNotPaused(cfg); err != nil {
		return nil, nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, ErrNonPositiveAmount
	}

	threshold := bufferThreshold(cfg)
	needed := new(big.Int).Add(threshold, amount)
	if !cfg.ControlledMode && cfg.Available.Cmp(needed) >= 0 {
		if err := e.ledger.Transfer(e.address, user, amount); err != nil {
			return nil, nil, err
		}
		cfg.Available = new(big.Int).Sub(cfg.Available, amount)
		if err := e.state.PutConfig(cfg); err != nil {
			return nil, nil, err
		}
		if err := e.recordLiquidation(property, user, amount, now); err != nil {
			return nil, nil, err
		}
		outcome := &LiquidationOutcome{Executed: true, Mode: ModeInstant}
		return outcome, []*types.Event{NewLiquidationExecutedEvent(property, user, amount.String(), ModeInstant, 0)}, nil
	}

	qi, ok, err := e.state.GetQueueIndices()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		qi = &QueueIndices{}
	}
	id := qi.Tail
	req := &LiquidationRequest{
		ID:        id,
		Property:  property,
		User:      user,
		Amount:    new(big.Int).Set(amount),
		Timestamp: now,
	}
	if estimate, err := e.estimateFulfillment(cfg, amount, now); err == nil {
		req.EstimatedFulfillAt = estimate
	}
	if err := e.state.PutRequest(req); err != nil {
		return nil, nil, err
	}
	qi.Tail++
	if err := e.state.PutQueueIndices(qi); err != nil {
		return nil, nil, err
	}

	events := []*types.Event{NewLiquidationQueuedEvent(property, user, amount.String(), id)}
	if !cfg.ControlledMode {
		cfg.ControlledMode = true
		if err := e.state.PutConfig(cfg); err != nil {
			return nil, nil, err
		}
		events = append(events, NewControlledModeActivatedEvent())
	}
	outcome := &LiquidationOutcome{Executed: false, RequestID: id}
	return outcome, events, nil
}

// drainQueue processes pending requests from head_index in strictly
// increasing id order, stopping at the first request the current balance
// cannot fund. It must not materialize the whole queue: each iteration looks
// up exactly one request by id.
func (e *Engine) drainQueue(cfg *Config, now int64) ([]*types.Event, error) {
	qi, ok, err := e.state.GetQueueIndices()
	if err != nil {
		return nil, err
	}
	if !ok || qi.Head >= qi.Tail {
		return nil, nil
	}

	var events []*types.Event
	threshold := bufferThreshold(cfg)
	for qi.Head < qi.Tail {
		req, ok, err := e.state.GetRequest(qi.Head)
		if err != nil {
			return nil, err
		}
		if !ok {
			qi.Head++
			continue
		}
		needed := new(big.Int).Add(threshold, req.Amount)
		if cfg.Available.Cmp(needed) < 0 {
			break
		}
		if err := e.ledger.Transfer(e.address, req.User, req.Amount); err != nil {
			return nil, err
		}
		cfg.Available = new(big.Int).Sub(cfg.Available, req.Amount)
		if err := e.recordLiquidation(req.Property, req.User, req.Amount, now); err != nil {
			return nil, err
		}
		if err := e.state.DeleteRequest(req.ID); err != nil {
			return nil, err
		}
		qi.Head++
		events = append(events, NewLiquidationExecutedEvent(req.Property, req.User, req.Amount.String(), ModeFromQueue, req.ID))
	}

	if qi.Head >= qi.Tail && cfg.ControlledMode {
		cfg.ControlledMode = false
		events = append(events, NewControlledModeDeactivatedEvent())
	}
	if err := e.state.PutQueueIndices(qi); err != nil {
		return nil, err
	}
	if err := e.state.PutConfig(cfg); err != nil {
		return nil, err
	}
	return events, nil
}

func (e *Engine) recordLiquidation(property, user crypto.Address, amount *big.Int, now int64) error {
	stats, ok, err := e.state.GetPropertyStats(property)
	if err != nil {
		return err
	}
	if !ok {
		stats = &PropertyStats{Property: property, TotalLiquidated: big.NewInt(0)}
	}
	stats.TotalLiquidated = new(big.Int).Add(stats.TotalLiquidated, amount)
	stats.LastLiquidationTS = now

	seen, err := e.state.HasSeenUser(property, user)
	if err != nil {
		return err
	}
	if !seen {
		stats.ActiveUsers++
		if err := e.state.MarkSeenUser(property, user); err != nil {
			return err
		}
	}
	return e.state.PutPropertyStats(stats)
}

// totalObligations sums the amount of every currently pending queue entry.
func (e *Engine) totalObligations() (*big.Int, error) {
	qi, ok, err := e.state.GetQueueIndices()
	if err != nil {
		return nil, err
	}
	total := big.NewInt(0)
	if !ok {
		return total, nil
	}
	for id := qi.Head; id < qi.Tail; id++ {
		req, ok, err := e.state.GetRequest(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		total = total.Add(total, req.Amount)
	}
	return total, nil
}

// estimateFulfillment projects how long a pending amount will take to clear
// from the aggregate monthly cash flow reported by authorized properties,
// capped at a 12-month horizon and falling back to a 90-day estimate when no
// property has reported any cash flow.
func (e *Engine) estimateFulfillment(cfg *Config, amount *big.Int, now int64) (int64, error) {
	properties, err := e.state.ListAuthorized()
	if err != nil {
		return 0, err
	}
	monthly := big.NewInt(0)
	for _, property := range properties {
		stats, ok, err := e.state.GetPropertyStats(property)
		if err != nil {
			return 0, err
		}
		if ok && stats.CashFlowMonthly != nil {
			monthly = monthly.Add(monthly, stats.CashFlowMonthly)
		}
	}
	const ninetyDays = int64(90 * 24 * 60 * 60)
	if monthly.Sign() <= 0 {
		return now + ninetyDays, nil
	}
	monthsNeeded := new(big.Int).Quo(amount, monthly)
	const maxMonths = int64(12)
	if monthsNeeded.Cmp(big.NewInt(maxMonths)) > 0 {
		monthsNeeded = big.NewInt(maxMonths)
	}
	return now + monthsNeeded.Int64()*nativecommon.EpochDuration, nil
}

// EstimateFulfillment is the public read view over estimateFulfillment.
func (e *Engine) EstimateFulfillment(amount *big.Int, now int64) (int64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	cfg, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	return e.estimateFulfillment(cfg, amount, now)
}

// AvailableLiquidity returns the vault's current available balance.
func (e *Engine) AvailableLiquidity() (*big.Int, error) {
	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(cfg.Available), nil
}

// TotalCapacity returns the vault's current total capacity.
func (e *Engine) TotalCapacity() (*big.Int, error) {
	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(cfg.TotalCapacity), nil
}

// IsAuthorized reports whether property has been authorized.
func (e *Engine) IsAuthorized(property crypto.Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	if _, err := e.requireInitialized(); err != nil {
		return false, err
	}
	return e.state.IsAuthorized(property)
}

// GetConfig returns a copy of the vault's current configuration.
func (e *Engine) GetConfig() (*Config, error) {
	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	clone := *cfg
	clone.TotalCapacity = new(big.Int).Set(cfg.TotalCapacity)
	clone.Available = new(big.Int).Set(cfg.Available)
	return &clone, nil
}

// GetQueueStatus reports the FIFO queue's pending entries and an estimated
// clear time for the tail of the queue.
func (e *Engine) GetQueueStatus(now int64) (*QueueStatus, error) {
	cfg, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	qi, ok, err := e.state.GetQueueIndices()
	if err != nil {
		return nil, err
	}
	status := &QueueStatus{TotalPendingAmount: big.NewInt(0)}
	if !ok {
		return status, nil
	}
	status.Head, status.Tail = qi.Head, qi.Tail
	for id := qi.Head; id < qi.Tail; id++ {
		req, ok, err := e.state.GetRequest(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		status.PendingCount++
		status.TotalPendingAmount = status.TotalPendingAmount.Add(status.TotalPendingAmount, req.Amount)
	}
	if status.PendingCount > 0 {
		estimate, err := e.estimateFulfillment(cfg, status.TotalPendingAmount, now)
		if err != nil {
			return nil, err
		}
		status.EstimatedClearTime = estimate
	}
	return status, nil
}

// GetPropertyStats returns a property's accumulated liquidation stats.
func (e *Engine) GetPropertyStats(property crypto.Address) (*PropertyStats, error) {
	if _, err := e.requireInitialized(); err != nil {
		return nil, err
	}
	stats, ok, err := e.state.GetPropertyStats(property)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &PropertyStats{Property: property, TotalLiquidated: big.NewInt(0)}, nil
	}
	return stats, nil
}
