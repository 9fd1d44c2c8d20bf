package config

import (
	"verse/native/property"
	"verse/native/vault"
)

// StorageBackendMemory and StorageBackendLevelDB are the two supported
// storage.Database implementations a Config can select.
const (
	StorageBackendMemory  = "memory"
	StorageBackendLevelDB = "leveldb"
)

// VaultDefaults are the toml-loadable parameters applied to a Vault at
// initialize time.
type VaultDefaults struct {
	BufferPercentage uint64 `toml:"BufferPercentage"`
}

// EnsureDefaults fills in a zero-valued buffer percentage with the contract's
// default.
func (v *VaultDefaults) EnsureDefaults() {
	if v.BufferPercentage == 0 {
		v.BufferPercentage = vault.DefaultBufferPercentage
	}
}

// ToParams converts the toml-loaded defaults into the vault package's own
// Params type.
func (v VaultDefaults) ToParams() *vault.Params {
	return &vault.Params{BufferPercentage: v.BufferPercentage}
}

// PropertyDefaults are the toml-loadable yield parameters applied to a
// Property at initialize time, absent an explicit RoiConfig.
type PropertyDefaults struct {
	AnnualRateBps       uint64 `toml:"AnnualRateBps"`
	CompoundingBonusBps uint64 `toml:"CompoundingBonusBps"`
	LoyaltyBonusBps     uint64 `toml:"LoyaltyBonusBps"`
}

// EnsureDefaults fills in zero-valued fields with the contract's defaults.
func (p *PropertyDefaults) EnsureDefaults() {
	if p.AnnualRateBps == 0 {
		p.AnnualRateBps = property.DefaultAnnualRateBps
	}
	if p.CompoundingBonusBps == 0 {
		p.CompoundingBonusBps = property.DefaultCompoundingBonusBps
	}
	if p.LoyaltyBonusBps == 0 {
		p.LoyaltyBonusBps = property.DefaultLoyaltyBonusBps
	}
}

// ToRoiConfig converts the toml-loaded defaults into the property package's
// own RoiConfig type. CashFlowMonthly is left at zero pending an
// admin-configured value.
func (p PropertyDefaults) ToRoiConfig() property.RoiConfig {
	roi := property.DefaultRoiConfig()
	roi.AnnualRateBps = p.AnnualRateBps
	roi.CompoundingBonusBps = p.CompoundingBonusBps
	roi.LoyaltyBonusBps = p.LoyaltyBonusBps
	return roi
}
