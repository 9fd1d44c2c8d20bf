// Package ledger implements the external fungible-token primitive that the
// vault and property engines consume: Transfer and Balance over a stablecoin
// whose smallest-unit balances are tracked in the shared key-value store.
// It exists only to satisfy that external collaborator interface so the
// engines can run and be tested standalone, without a real chain beneath
// them.
package ledger

import (
	"errors"
	"math/big"

	"verse/core/state"
	"verse/crypto"
)

var (
	// ErrNilLedger is returned when a Ledger is used before being configured
	// with a state manager.
	ErrNilLedger = errors.New("ledger: not configured")
	// ErrInvalidAmount is returned for non-positive transfer amounts.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInsufficientFunds is returned when the sender's balance cannot cover
	// the requested transfer.
	ErrInsufficientFunds = errors.New("ledger: insufficient balance")
)

const keyPrefix = "ledger/balance/"

// Ledger is a minimal stablecoin balance ledger backed by core/state.
type Ledger struct {
	state *state.Manager
}

// New constructs a Ledger over the provided state manager.
func New(m *state.Manager) *Ledger {
	return &Ledger{state: m}
}

type account struct {
	Balance *big.Int
}

func balanceKey(addr crypto.Address) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(addr.Bytes()))
	key = append(key, keyPrefix...)
	key = append(key, addr.Bytes()...)
	return key
}

// Balance returns the current balance for addr, defaulting to zero for an
// address that has never received a transfer or mint.
func (l *Ledger) Balance(addr crypto.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilLedger
	}
	var acc account
	ok, err := l.state.KVGet(balanceKey(addr), &acc)
	if err != nil {
		return nil, err
	}
	if !ok || acc.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(acc.Balance), nil
}

// Mint credits amount to addr out of thin air. It is a test/seed-only
// operation; there is no corresponding Burn because nothing in scope ever
// needs to retire supply.
func (l *Ledger) Mint(addr crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilLedger
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	bal, err := l.Balance(addr)
	if err != nil {
		return err
	}
	return l.state.KVPut(balanceKey(addr), &account{Balance: new(big.Int).Add(bal, amount)})
}

// Transfer moves amount from from's balance to to's, authenticated by the
// caller having already established that from authorized the movement.
// A transfer to oneself is a no-op once the balance is confirmed sufficient.
func (l *Ledger) Transfer(from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilLedger
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBal, err := l.Balance(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if from.Equal(to) {
		return nil
	}
	toBal, err := l.Balance(to)
	if err != nil {
		return err
	}
	newFrom := new(big.Int).Sub(fromBal, amount)
	newTo := new(big.Int).Add(toBal, amount)
	if err := l.state.KVPut(balanceKey(from), &account{Balance: newFrom}); err != nil {
		return err
	}
	return l.state.KVPut(balanceKey(to), &account{Balance: newTo})
}
