package kyc

import (
	"verse/core/state"
	"verse/crypto"
)

const (
	adminKey     = "kyc/admin"
	recordPrefix = "kyc/record/"
)

// StateAdapter implements engineState against a shared core/state.Manager,
// the same role the teacher's rpc-layer adapters play between a native
// engine and the chain's state manager.
type StateAdapter struct {
	manager *state.Manager
}

// NewStateAdapter wires a Registry to the given state manager.
func NewStateAdapter(m *state.Manager) *StateAdapter {
	return &StateAdapter{manager: m}
}

type adminRecord struct {
	Admin crypto.Address
}

func recordKey(user crypto.Address) []byte {
	key := make([]byte, 0, len(recordPrefix)+len(user.Bytes()))
	key = append(key, recordPrefix...)
	key = append(key, user.Bytes()...)
	return key
}

func (a *StateAdapter) GetAdmin() (crypto.Address, bool, error) {
	var rec adminRecord
	ok, err := a.manager.KVGet([]byte(adminKey), &rec)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return rec.Admin, true, nil
}

func (a *StateAdapter) PutAdmin(admin crypto.Address) error {
	return a.manager.KVPut([]byte(adminKey), &adminRecord{Admin: admin})
}

func (a *StateAdapter) GetRecord(user crypto.Address) (*Record, bool, error) {
	var rec Record
	ok, err := a.manager.KVGet(recordKey(user), &rec)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &rec, true, nil
}

func (a *StateAdapter) PutRecord(user crypto.Address, record *Record) error {
	return a.manager.KVPut(recordKey(user), record)
}
