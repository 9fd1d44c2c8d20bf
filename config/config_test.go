package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfigAndKeystore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StorageBackendMemory, cfg.StorageBackend)
	require.Equal(t, "verse-local", cfg.NetworkName)
	require.NotEmpty(t, cfg.AdminKeystorePath)
	require.FileExists(t, cfg.AdminKeystorePath)
	require.NoError(t, cfg.Validate())

	key, err := cfg.LoadAdminKey("")
	require.NoError(t, err)
	require.NotNil(t, key)
}

func TestLoadParsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := fmt.Sprintf(`
DataDir = "%s"
StorageBackend = "leveldb"
NetworkName = "testnet"

[Vault]
BufferPercentage = 20

[Property]
AnnualRateBps = 1000
CompoundingBonusBps = 300
LoyaltyBonusBps = 50
`, filepath.Join(dir, "data"))
	require.NoError(t, writeFile(path, contents))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.NetworkName)
	require.Equal(t, StorageBackendLevelDB, cfg.StorageBackend)
	require.EqualValues(t, 20, cfg.Vault.BufferPercentage)
	require.EqualValues(t, 1000, cfg.Property.AnnualRateBps)
	require.NoError(t, cfg.Validate())
	require.FileExists(t, cfg.AdminKeystorePath)
}

func TestLoadFillsInMissingDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, writeFile(path, `DataDir = "./data"`))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "verse-local", cfg.NetworkName)
	require.Equal(t, StorageBackendMemory, cfg.StorageBackend)
	require.EqualValues(t, 15, cfg.Vault.BufferPercentage)
	require.EqualValues(t, 800, cfg.Property.AnnualRateBps)
}

func TestValidateRejectsOutOfRangeBufferPercentage(t *testing.T) {
	cfg := &Config{
		StorageBackend: StorageBackendMemory,
		Vault:          VaultDefaults{BufferPercentage: 5},
		Property:       PropertyDefaults{AnnualRateBps: 800},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeAnnualRate(t *testing.T) {
	cfg := &Config{
		StorageBackend: StorageBackendMemory,
		Vault:          VaultDefaults{BufferPercentage: 15},
		Property:       PropertyDefaults{AnnualRateBps: 5000},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownStorageBackend(t *testing.T) {
	cfg := &Config{
		StorageBackend: "sqlite",
		Vault:          VaultDefaults{BufferPercentage: 15},
		Property:       PropertyDefaults{AnnualRateBps: 800},
	}
	require.Error(t, cfg.Validate())
}

func TestVaultDefaultsToParams(t *testing.T) {
	v := VaultDefaults{BufferPercentage: 18}
	params := v.ToParams()
	require.EqualValues(t, 18, params.BufferPercentage)
}

func TestPropertyDefaultsToRoiConfig(t *testing.T) {
	p := PropertyDefaults{AnnualRateBps: 900, CompoundingBonusBps: 250, LoyaltyBonusBps: 30}
	roi := p.ToRoiConfig()
	require.EqualValues(t, 900, roi.AnnualRateBps)
	require.EqualValues(t, 250, roi.CompoundingBonusBps)
	require.EqualValues(t, 30, roi.LoyaltyBonusBps)
	require.NotNil(t, roi.CashFlowMonthly)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
