package ledger_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"verse/core/state"
	"verse/crypto"
	"verse/ledger"
	"verse/storage"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	return ledger.New(mgr)
}

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.VersePrefix, raw)
}

func TestLedgerMintAndBalance(t *testing.T) {
	l := newLedger(t)
	alice := addr(1)

	bal, err := l.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), bal)

	require.NoError(t, l.Mint(alice, big.NewInt(1_000)))
	bal, err = l.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000), bal)
}

func TestLedgerTransfer(t *testing.T) {
	l := newLedger(t)
	alice, bob := addr(1), addr(2)
	require.NoError(t, l.Mint(alice, big.NewInt(500)))

	require.NoError(t, l.Transfer(alice, bob, big.NewInt(200)))

	aliceBal, err := l.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(300), aliceBal)

	bobBal, err := l.Balance(bob)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(200), bobBal)
}

func TestLedgerTransferSelfIsNoop(t *testing.T) {
	l := newLedger(t)
	alice := addr(1)
	require.NoError(t, l.Mint(alice, big.NewInt(100)))

	require.NoError(t, l.Transfer(alice, alice, big.NewInt(50)))

	bal, err := l.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), bal)
}

func TestLedgerTransferInsufficientFunds(t *testing.T) {
	l := newLedger(t)
	alice, bob := addr(1), addr(2)
	require.NoError(t, l.Mint(alice, big.NewInt(10)))

	err := l.Transfer(alice, bob, big.NewInt(20))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestLedgerTransferRejectsNonPositiveAmount(t *testing.T) {
	l := newLedger(t)
	alice, bob := addr(1), addr(2)
	require.NoError(t, l.Mint(alice, big.NewInt(10)))

	err := l.Transfer(alice, bob, big.NewInt(0))
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	err = l.Transfer(alice, bob, big.NewInt(-5))
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
}
