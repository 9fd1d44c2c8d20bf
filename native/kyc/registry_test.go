package kyc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"verse/core/state"
	"verse/crypto"
	"verse/native/kyc"
	"verse/storage"
)

func addr(b byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.VersePrefix, raw)
}

func newRegistry(t *testing.T) *kyc.Registry {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	r := kyc.NewRegistry()
	r.SetState(kyc.NewStateAdapter(mgr))
	return r
}

func TestRegistryInitializeOnce(t *testing.T) {
	r := newRegistry(t)
	admin := addr(1)

	_, err := r.Initialize(admin)
	require.NoError(t, err)

	got, err := r.GetAdmin()
	require.NoError(t, err)
	require.True(t, got.Equal(admin))

	_, err = r.Initialize(admin)
	require.ErrorIs(t, err, kyc.ErrAlreadyInitialized)
}

func TestDefaultRecordIsUnverifiedPending(t *testing.T) {
	r := newRegistry(t)
	admin := addr(1)
	_, err := r.Initialize(admin)
	require.NoError(t, err)

	user := addr(2)
	verified, err := r.IsKycVerified(user)
	require.NoError(t, err)
	require.False(t, verified)

	status, err := r.GetComplianceStatus(user)
	require.NoError(t, err)
	require.Equal(t, kyc.StatusPending, status)

	require.ErrorIs(t, r.CheckCompliance(user), kyc.ErrKycRequired)
}

func TestSetKycStatusAdminOnly(t *testing.T) {
	r := newRegistry(t)
	admin, outsider, user := addr(1), addr(2), addr(3)
	_, err := r.Initialize(admin)
	require.NoError(t, err)

	_, err = r.SetKycStatus(outsider, user, true)
	require.ErrorIs(t, err, kyc.ErrNotAdmin)

	_, err = r.SetKycStatus(admin, user, true)
	require.NoError(t, err)

	verified, err := r.IsKycVerified(user)
	require.NoError(t, err)
	require.True(t, verified)
}

func TestSetComplianceStatusRejectsUnknownStatus(t *testing.T) {
	r := newRegistry(t)
	admin, user := addr(1), addr(2)
	_, err := r.Initialize(admin)
	require.NoError(t, err)

	_, err = r.SetComplianceStatus(admin, user, kyc.ComplianceStatus(99))
	require.ErrorIs(t, err, kyc.ErrInvalidStatus)
}

func TestCheckComplianceRequiresVerifiedAndApproved(t *testing.T) {
	r := newRegistry(t)
	admin, user := addr(1), addr(2)
	_, err := r.Initialize(admin)
	require.NoError(t, err)

	_, err = r.SetKycStatus(admin, user, true)
	require.NoError(t, err)
	require.ErrorIs(t, r.CheckCompliance(user), kyc.ErrKycRequired)

	_, err = r.SetComplianceStatus(admin, user, kyc.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, r.CheckCompliance(user))

	_, err = r.SetComplianceStatus(admin, user, kyc.StatusSuspended)
	require.NoError(t, err)
	require.ErrorIs(t, r.CheckCompliance(user), kyc.ErrKycRequired)
}
