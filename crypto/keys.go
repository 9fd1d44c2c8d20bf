package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// AddressPrefix identifies the human-readable bech32 prefix for an Address.
type AddressPrefix string

// VersePrefix is used for every participant and contract address minted by
// this module (buyers, admins, the Vault, Property and KYC contracts alike).
// There is only one token family in scope (the USDC stablecoin), so unlike
// the teacher's NHB/ZNHB split a single prefix is sufficient.
const VersePrefix AddressPrefix = "verse"

// Address represents a 20-byte account or contract identifier.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress constructs an Address from 20 raw bytes. It panics if b is not
// exactly 20 bytes.
func NewAddress(prefix AddressPrefix, b []byte) Address {
	if len(b) != 20 {
		panic("address must be 20 bytes long")
	}
	return Address{prefix: prefix, bytes: b}
}

// IsZero reports whether the address holds no identity (the default value of
// an unset Address field).
func (a Address) IsZero() bool {
	if len(a.bytes) == 0 {
		return true
	}
	for _, b := range a.bytes {
		if b != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two addresses reference the same 20 bytes,
// irrespective of prefix.
func (a Address) Equal(other Address) bool {
	if len(a.bytes) != len(other.bytes) {
		return false
	}
	for i := range a.bytes {
		if a.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns the 20 raw address bytes.
func (a Address) Bytes() []byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// EncodeRLP implements rlp.Encoder so Address can be embedded directly in
// RLP-persisted state structs without losing its unexported fields: only the
// 20 raw bytes are encoded, since every address in this module shares the
// same VersePrefix.
func (a Address) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, a.bytes)
}

// DecodeRLP implements rlp.Decoder, the counterpart to EncodeRLP.
func (a *Address) DecodeRLP(s *rlp.Stream) error {
	var b []byte
	if err := s.Decode(&b); err != nil {
		return err
	}
	if len(b) == 0 {
		a.prefix = ""
		a.bytes = nil
		return nil
	}
	if len(b) != 20 {
		return fmt.Errorf("crypto: invalid address length %d", len(b))
	}
	a.prefix = VersePrefix
	a.bytes = b
	return nil
}

// DecodeAddress parses a bech32-encoded address string.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv), nil
}

// --- Key management ---

// PrivateKey wraps an ECDSA private key used to derive and authenticate
// Addresses.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey wraps the corresponding ECDSA public key.
type PublicKey struct {
	*ecdsa.PublicKey
}

// GeneratePrivateKey creates a new random secp256k1 key pair.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the raw private key bytes.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// PubKey derives the public key counterpart.
func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the bech32 Address for this public key.
func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	return NewAddress(VersePrefix, addrBytes)
}

// PrivateKeyFromBytes reconstructs a PrivateKey from its raw bytes.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
