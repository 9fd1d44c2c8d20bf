package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"verse/config"
	"verse/core/state"
	"verse/crypto"
	"verse/ledger"
	"verse/native/kyc"
	"verse/native/property"
	"verse/native/vault"
	"verse/storage"
)

// manifest records the addresses a seed run assigned, so later commands
// (status, serve) can reconstruct the same set of engines without re-reading
// the seed fixture.
type manifest struct {
	Stablecoin string             `yaml:"stablecoin"`
	Vault      string             `yaml:"vault"`
	Properties []manifestProperty `yaml:"properties"`
}

type manifestProperty struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
	Symbol  string `yaml:"symbol"`
}

func manifestPath(dataDir string) string {
	return filepath.Join(dataDir, "manifest.yaml")
}

func loadManifest(dataDir string) (*manifest, error) {
	raw, err := os.ReadFile(manifestPath(dataDir))
	if err != nil {
		return nil, fmt.Errorf("read manifest (run 'versectl seed' first): %w", err)
	}
	m := &manifest{}
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

func saveManifest(dataDir string, m *manifest) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	raw, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath(dataDir), raw, 0o644)
}

// openDatabase opens the storage backend named by the config, creating the
// data directory for LevelDB if necessary.
func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendLevelDB:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	case config.StorageBackendMemory, "":
		return storage.NewMemDB(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// deployment bundles the live engines wired against one state manager, ready
// to serve CLI commands against an existing or freshly seeded data directory.
type deployment struct {
	db         storage.Database
	manager    *state.Manager
	ledger     *ledger.Ledger
	kyc        *kyc.Registry
	vault      *vault.Engine
	properties map[string]*property.Engine
	manifest   *manifest
}

func openDeployment(cfg *config.Config) (*deployment, error) {
	m, err := loadManifest(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	manager := state.NewManager(db)
	led := ledger.New(manager)

	registry := kyc.NewRegistry()
	registry.SetState(kyc.NewStateAdapter(manager))

	vaultAddr, err := parseAddress(m.Vault)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest vault address: %w", err)
	}
	vaultEngine := vault.NewEngine(vaultAddr, led)
	vaultEngine.SetState(vault.NewStateAdapter(manager))

	properties := make(map[string]*property.Engine, len(m.Properties))
	for _, p := range m.Properties {
		propAddr, err := parseAddress(p.Address)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("manifest property %s address: %w", p.Name, err)
		}
		engine := property.NewEngine(propAddr, registry, vaultEngine)
		engine.SetState(property.NewStateAdapter(manager, propAddr))
		properties[p.Address] = engine
	}

	return &deployment{
		db:         db,
		manager:    manager,
		ledger:     led,
		kyc:        registry,
		vault:      vaultEngine,
		properties: properties,
		manifest:   m,
	}, nil
}

func (d *deployment) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// parseAddress accepts either a bech32 "verse1..." address or a "0x"-prefixed
// 20-byte hex string, the latter being the convenient form for hand-written
// seed fixtures.
func parseAddress(s string) (crypto.Address, error) {
	if len(s) >= 2 && s[0:2] == "0x" {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return crypto.Address{}, fmt.Errorf("invalid hex address %q: %w", s, err)
		}
		if len(b) != 20 {
			return crypto.Address{}, fmt.Errorf("address %q must decode to 20 bytes, got %d", s, len(b))
		}
		return crypto.NewAddress(crypto.VersePrefix, b), nil
	}
	return crypto.DecodeAddress(s)
}
