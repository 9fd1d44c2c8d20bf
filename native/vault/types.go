package vault

import (
	"math/big"

	"verse/crypto"
)

const (
	// DefaultBufferPercentage is the buffer reserved at initialize time,
	// before any admin call to UpdateBufferPercentage.
	DefaultBufferPercentage = uint64(15)
	MinBufferPercentage     = uint64(10)
	MaxBufferPercentage     = uint64(25)
)

// Config is the Vault's singleton configuration and live balance state.
type Config struct {
	Initialized      bool
	Admin            crypto.Address
	Address          crypto.Address
	Stablecoin       crypto.Address
	TotalCapacity    *big.Int
	Available        *big.Int
	BufferPercentage uint64
	ControlledMode   bool
	EmergencyPaused  bool
}

// QueueIndices tracks the FIFO window over LiquidationRequest ids.
type QueueIndices struct {
	Head uint64
	Tail uint64
}

// Len reports the queue's logical length, including any already-processed
// holes between Head and Tail (callers that need the exact pending count use
// GetQueueStatus, which walks and counts present entries).
func (q QueueIndices) Len() uint64 {
	if q.Tail <= q.Head {
		return 0
	}
	return q.Tail - q.Head
}

// LiquidationRequest is a pending payout persisted while the vault is in
// controlled mode.
type LiquidationRequest struct {
	ID                   uint64
	Property             crypto.Address
	User                 crypto.Address
	Amount               *big.Int
	Timestamp            int64
	EstimatedFulfillAt   int64
}

// PropertyStats accumulates a property's lifetime liquidation activity.
type PropertyStats struct {
	Property          crypto.Address
	TotalLiquidated   *big.Int
	LastLiquidationTS int64
	CashFlowMonthly   *big.Int
	ActiveUsers       uint64
}

// QueueStatus is the read view over the pending FIFO queue.
type QueueStatus struct {
	Head                uint64
	Tail                uint64
	PendingCount        uint64
	TotalPendingAmount  *big.Int
	EstimatedClearTime  int64
}

// ExecutionMode distinguishes an instant payout from one fulfilled out of the
// FIFO queue.
type ExecutionMode uint8

const (
	ModeInstant ExecutionMode = iota
	ModeFromQueue
)

func (m ExecutionMode) String() string {
	if m == ModeFromQueue {
		return "queued"
	}
	return "instant"
}

// LiquidationOutcome is the tagged result of RequestLiquidation: either the
// payout executed (instantly, or later out of the queue) or it was queued to
// wait its turn. This lets callers branch without re-reading vault state.
type LiquidationOutcome struct {
	Executed  bool
	Mode      ExecutionMode
	RequestID uint64
}
