package vault

import (
	"encoding/binary"

	"verse/core/state"
	"verse/crypto"
)

const (
	configKey        = "vault/config"
	queueKey         = "vault/queue"
	authorizedList   = "vault/authorized/list"
	authorizedMember = "vault/authorized/member/"
	requestPrefix    = "vault/request/"
	statsPrefix      = "vault/stats/"
	seenPrefix       = "vault/seen/"
	nonceMarker      = "vault/fundnonce/"
)

// StateAdapter implements engineState against a shared core/state.Manager.
type StateAdapter struct {
	manager *state.Manager
}

// NewStateAdapter wires an Engine to the given state manager.
func NewStateAdapter(m *state.Manager) *StateAdapter {
	return &StateAdapter{manager: m}
}

type marker struct{ Present bool }

func (a *StateAdapter) GetConfig() (*Config, bool, error) {
	var cfg Config
	ok, err := a.manager.KVGet([]byte(configKey), &cfg)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &cfg, true, nil
}

func (a *StateAdapter) PutConfig(cfg *Config) error {
	return a.manager.KVPut([]byte(configKey), cfg)
}

func memberKey(property crypto.Address) []byte {
	key := make([]byte, 0, len(authorizedMember)+len(property.Bytes()))
	key = append(key, authorizedMember...)
	key = append(key, property.Bytes()...)
	return key
}

func (a *StateAdapter) IsAuthorized(property crypto.Address) (bool, error) {
	var m marker
	ok, err := a.manager.KVGet(memberKey(property), &m)
	if err != nil {
		return false, err
	}
	return ok && m.Present, nil
}

func (a *StateAdapter) PutAuthorized(property crypto.Address) error {
	if err := a.manager.KVPut(memberKey(property), &marker{Present: true}); err != nil {
		return err
	}
	return a.manager.KVAppend([]byte(authorizedList), property.Bytes())
}

func (a *StateAdapter) ListAuthorized() ([]crypto.Address, error) {
	var raw [][]byte
	if err := a.manager.KVGetList([]byte(authorizedList), &raw); err != nil {
		return nil, err
	}
	addrs := make([]crypto.Address, 0, len(raw))
	for _, b := range raw {
		addrs = append(addrs, crypto.NewAddress(crypto.VersePrefix, b))
	}
	return addrs, nil
}

func (a *StateAdapter) GetQueueIndices() (*QueueIndices, bool, error) {
	var qi QueueIndices
	ok, err := a.manager.KVGet([]byte(queueKey), &qi)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &qi, true, nil
}

func (a *StateAdapter) PutQueueIndices(q *QueueIndices) error {
	return a.manager.KVPut([]byte(queueKey), q)
}

func requestKey(id uint64) []byte {
	key := make([]byte, len(requestPrefix)+8)
	copy(key, requestPrefix)
	binary.BigEndian.PutUint64(key[len(requestPrefix):], id)
	return key
}

func (a *StateAdapter) GetRequest(id uint64) (*LiquidationRequest, bool, error) {
	var req LiquidationRequest
	ok, err := a.manager.KVGet(requestKey(id), &req)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &req, true, nil
}

func (a *StateAdapter) PutRequest(req *LiquidationRequest) error {
	return a.manager.KVPut(requestKey(req.ID), req)
}

func (a *StateAdapter) DeleteRequest(id uint64) error {
	return a.manager.KVDelete(requestKey(id))
}

func statsKey(property crypto.Address) []byte {
	key := make([]byte, 0, len(statsPrefix)+len(property.Bytes()))
	key = append(key, statsPrefix...)
	key = append(key, property.Bytes()...)
	return key
}

func (a *StateAdapter) GetPropertyStats(property crypto.Address) (*PropertyStats, bool, error) {
	var stats PropertyStats
	ok, err := a.manager.KVGet(statsKey(property), &stats)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stats, true, nil
}

func (a *StateAdapter) PutPropertyStats(stats *PropertyStats) error {
	return a.manager.KVPut(statsKey(stats.Property), stats)
}

func seenKey(property, user crypto.Address) []byte {
	key := make([]byte, 0, len(seenPrefix)+len(property.Bytes())+len(user.Bytes()))
	key = append(key, seenPrefix...)
	key = append(key, property.Bytes()...)
	key = append(key, user.Bytes()...)
	return key
}

func (a *StateAdapter) HasSeenUser(property, user crypto.Address) (bool, error) {
	var m marker
	ok, err := a.manager.KVGet(seenKey(property, user), &m)
	if err != nil {
		return false, err
	}
	return ok && m.Present, nil
}

func (a *StateAdapter) MarkSeenUser(property, user crypto.Address) error {
	return a.manager.KVPut(seenKey(property, user), &marker{Present: true})
}

func nonceKey(key string) []byte {
	return append([]byte(nonceMarker), []byte(key)...)
}

func (a *StateAdapter) HasFundingNonce(key string) (bool, error) {
	var m marker
	ok, err := a.manager.KVGet(nonceKey(key), &m)
	if err != nil {
		return false, err
	}
	return ok && m.Present, nil
}

func (a *StateAdapter) MarkFundingNonce(key string) error {
	return a.manager.KVPut(nonceKey(key), &marker{Present: true})
}
