package property

import (
	"math/big"

	"verse/core/state"
	"verse/crypto"
)

const (
	metaSuffix      = "/metadata"
	roiSuffix       = "/roi"
	positionSuffix  = "/position/"
	activeTokenSuffix = "/active_tokens"
)

// StateAdapter implements engineState against a shared core/state.Manager,
// namespacing every key under the owning property's address so many
// Property engines can share one backend.
type StateAdapter struct {
	manager  *state.Manager
	property crypto.Address
}

// NewStateAdapter wires an Engine to the given state manager, scoped to
// property.
func NewStateAdapter(m *state.Manager, property crypto.Address) *StateAdapter {
	return &StateAdapter{manager: m, property: property}
}

func (a *StateAdapter) key(suffix string) []byte {
	key := make([]byte, 0, len(a.property.Bytes())+len(suffix))
	key = append(key, a.property.Bytes()...)
	key = append(key, suffix...)
	return key
}

func (a *StateAdapter) GetMetadata() (*Metadata, bool, error) {
	var meta Metadata
	ok, err := a.manager.KVGet(a.key(metaSuffix), &meta)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &meta, true, nil
}

func (a *StateAdapter) PutMetadata(meta *Metadata) error {
	return a.manager.KVPut(a.key(metaSuffix), meta)
}

func (a *StateAdapter) GetRoiConfig() (*RoiConfig, bool, error) {
	var roi RoiConfig
	ok, err := a.manager.KVGet(a.key(roiSuffix), &roi)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &roi, true, nil
}

func (a *StateAdapter) PutRoiConfig(roi *RoiConfig) error {
	return a.manager.KVPut(a.key(roiSuffix), roi)
}

func (a *StateAdapter) positionKey(user crypto.Address) []byte {
	key := a.key(positionSuffix)
	return append(key, user.Bytes()...)
}

func (a *StateAdapter) GetPosition(user crypto.Address) (*Position, bool, error) {
	var pos Position
	ok, err := a.manager.KVGet(a.positionKey(user), &pos)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &pos, true, nil
}

func (a *StateAdapter) PutPosition(pos *Position) error {
	return a.manager.KVPut(a.positionKey(pos.User), pos)
}

func (a *StateAdapter) DeletePosition(user crypto.Address) error {
	return a.manager.KVDelete(a.positionKey(user))
}

type activeTokens struct {
	Total *big.Int
}

func (a *StateAdapter) GetActiveTokens() (*big.Int, error) {
	var stored activeTokens
	ok, err := a.manager.KVGet(a.key(activeTokenSuffix), &stored)
	if err != nil {
		return nil, err
	}
	if !ok || stored.Total == nil {
		return big.NewInt(0), nil
	}
	return stored.Total, nil
}

func (a *StateAdapter) PutActiveTokens(total *big.Int) error {
	return a.manager.KVPut(a.key(activeTokenSuffix), &activeTokens{Total: total})
}
