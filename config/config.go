package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"verse/crypto"
	"verse/native/property"
	"verse/native/vault"
)

// Config is the on-disk configuration for a verse embedder: where state
// lives, which admin key signs privileged calls, and the defaults applied to
// a freshly initialized Vault and Property.
type Config struct {
	DataDir           string `toml:"DataDir"`
	StorageBackend    string `toml:"StorageBackend"`
	AdminKeystorePath string `toml:"AdminKeystorePath"`
	NetworkName       string `toml:"NetworkName"`

	Vault    VaultDefaults    `toml:"Vault"`
	Property PropertyDefaults `toml:"Property"`
}

// Load reads the configuration at path, creating a default file (and a fresh
// admin keystore alongside it) the first time it is run against an unused
// path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err = createDefault(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "verse-local"
	}
	if strings.TrimSpace(cfg.StorageBackend) == "" {
		cfg.StorageBackend = StorageBackendMemory
	}
	cfg.Vault.EnsureDefaults()
	cfg.Property.EnsureDefaults()
	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.AdminKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.AdminKeystorePath != keystorePath {
		cfg.AdminKeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault creates and saves a default configuration file along with a
// fresh admin keystore.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:           "./verse-data",
		StorageBackend:    StorageBackendMemory,
		AdminKeystorePath: keystorePath,
		NetworkName:       "verse-local",
		Vault:             VaultDefaults{BufferPercentage: vault.DefaultBufferPercentage},
		Property: PropertyDefaults{
			AnnualRateBps:       property.DefaultAnnualRateBps,
			CompoundingBonusBps: property.DefaultCompoundingBonusBps,
			LoyaltyBonusBps:     property.DefaultLoyaltyBonusBps,
		},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." {
		dir = ""
	}
	return filepath.Join(dir, "admin.keystore")
}

// LoadAdminKey opens the configured admin keystore with the given
// passphrase, deriving the signing key used for privileged Vault, Property
// and KYC calls.
func (c *Config) LoadAdminKey(passphrase string) (*crypto.PrivateKey, error) {
	if c.AdminKeystorePath == "" {
		return nil, fmt.Errorf("config: no admin keystore configured")
	}
	return crypto.LoadFromKeystore(c.AdminKeystorePath, passphrase)
}
