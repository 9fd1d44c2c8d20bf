// Package state provides the shared key-value persistence layer used by the
// kyc, vault and property engines. It is a flattened adaptation of the
// teacher's trie-backed state manager: values are still RLP-encoded and keys
// are still keccak256-digested, but there is no Merkle trie underneath since
// this module has no block header or consensus process that needs a state
// root — callers own whatever storage.Database they wire in.
package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"verse/storage"
)

// Manager wraps a storage.Database with typed helpers for the domain
// entities shared by the kyc, vault and property engines.
type Manager struct {
	db storage.Database
}

// NewManager constructs a state manager over the provided backend.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before hitting the backend so callers
// never have to worry about key collisions across namespaces.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// out. The boolean return reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilManager
	}
	if len(key) == 0 {
		return false, fmt.Errorf("state: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVHas reports whether a value is stored under key without decoding it.
func (m *Manager) KVHas(key []byte) (bool, error) {
	return m.KVGet(key, nil)
}

// KVDelete removes the value stored under key, if any.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	return m.db.Delete(kvKey(key))
}

// KVAppend appends value to the RLP-encoded byte-slice list stored under key,
// ignoring duplicates so membership sets stay deterministic regardless of how
// many times a caller re-adds the same entry.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	hashed := kvKey(key)
	data, err := m.db.Get(hashed)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	var list [][]byte
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &list); err != nil {
			return err
		}
	}
	found := false
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			found = true
			break
		}
	}
	if !found {
		list = append(list, append([]byte(nil), value...))
	}
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(hashed, encoded)
}

// KVGetList retrieves an RLP-encoded slice stored under key and decodes it
// into the slice pointed to by out, leaving out as an empty (non-nil) slice
// when nothing has been stored yet.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if len(data) == 0 {
		val := reflect.ValueOf(out)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fmt.Errorf("state: destination must be a non-nil pointer")
		}
		elem := val.Elem()
		if elem.Kind() != reflect.Slice {
			return fmt.Errorf("state: destination must point to a slice")
		}
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return nil
	}
	return rlp.DecodeBytes(data, out)
}

var errNilManager = errors.New("state: manager not configured")
