package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"verse/config"
	"verse/core/events"
	"verse/core/state"
	"verse/crypto"
	"verse/ledger"
	"verse/native/kyc"
	"verse/native/property"
	"verse/native/vault"
	"verse/observability"
	"verse/observability/logging"
	"verse/observability/metrics"
)

// seedFixture is the on-disk description of a demo (or integration-test)
// deployment: one Vault, the Properties authorized against it, the KYC
// allowlist, and the starting stablecoin balances that let the scenario run
// without a faucet.
type seedFixture struct {
	Stablecoin   string         `yaml:"stablecoin"`
	Vault        seedVault      `yaml:"vault"`
	Properties   []seedProperty `yaml:"properties"`
	Users        []seedUser     `yaml:"users"`
	VaultFunding string         `yaml:"vault_funding"`
	Now          int64          `yaml:"now"`
}

type seedVault struct {
	Address          string `yaml:"address"`
	Admin            string `yaml:"admin"`
	BufferPercentage uint64 `yaml:"buffer_percentage"`
}

type seedProperty struct {
	Address             string `yaml:"address"`
	Admin               string `yaml:"admin"`
	Name                string `yaml:"name"`
	Symbol              string `yaml:"symbol"`
	Decimals            uint8  `yaml:"decimals"`
	TotalSupply         string `yaml:"total_supply"`
	TokenPrice          string `yaml:"token_price"`
	AnnualRateBps       uint64 `yaml:"annual_rate_bps"`
	CompoundingBonusBps uint64 `yaml:"compounding_bonus_bps"`
	LoyaltyBonusBps     uint64 `yaml:"loyalty_bonus_bps"`
	CashFlowMonthly     string `yaml:"cash_flow_monthly"`
}

type seedUser struct {
	Address        string `yaml:"address"`
	Verified       bool   `yaml:"verified"`
	Status         string `yaml:"status"`
	MintStablecoin string `yaml:"mint_stablecoin"`
}

func runSeed(args []string) error {
	fs := flag.NewFlagSet(seedCommand, flag.ExitOnError)
	configPath := fs.String("config", "./config.toml", "Path to the versectl config file")
	fixturePath := fs.String("fixture", "", "Path to the seed fixture YAML file")
	fs.Parse(args)

	if *fixturePath == "" {
		return fmt.Errorf("seed: -fixture is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	raw, err := os.ReadFile(*fixturePath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	fixture := &seedFixture{}
	if err := yaml.Unmarshal(raw, fixture); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	manager := state.NewManager(db)

	logger := logging.Setup("versectl", cfg.NetworkName)
	emitter := newLogEmitter(logger)

	if err := applySeed(manager, cfg, fixture, emitter); err != nil {
		return err
	}

	man := manifestFromFixture(fixture)
	if err := saveManifest(cfg.DataDir, man); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	fmt.Printf("Seeded vault %s with %d propert(ies) and %d user(s) into %s\n",
		fixture.Vault.Address, len(fixture.Properties), len(fixture.Users), cfg.DataDir)
	return nil
}

func manifestFromFixture(fixture *seedFixture) *manifest {
	m := &manifest{
		Stablecoin: fixture.Stablecoin,
		Vault:      fixture.Vault.Address,
	}
	for _, p := range fixture.Properties {
		m.Properties = append(m.Properties, manifestProperty{
			Address: p.Address,
			Name:    p.Name,
			Symbol:  p.Symbol,
		})
	}
	return m
}

func applySeed(manager *state.Manager, cfg *config.Config, fixture *seedFixture, emitter events.Emitter) error {
	led := ledger.New(manager)

	registry := kyc.NewRegistry()
	registry.SetState(kyc.NewStateAdapter(manager))

	vaultAddr, err := parseAddress(fixture.Vault.Address)
	if err != nil {
		return fmt.Errorf("vault address: %w", err)
	}
	vaultAdmin, err := parseAddress(fixture.Vault.Admin)
	if err != nil {
		return fmt.Errorf("vault admin address: %w", err)
	}
	stablecoin, err := parseAddress(fixture.Stablecoin)
	if err != nil {
		return fmt.Errorf("stablecoin address: %w", err)
	}

	kycEvent, err := registry.Initialize(vaultAdmin)
	if err != nil {
		return fmt.Errorf("initialize kyc registry: %w", err)
	}
	emitter.Emit(kycEvent)

	vaultEngine := vault.NewEngine(vaultAddr, led)
	vaultEngine.SetState(vault.NewStateAdapter(manager))
	params := cfg.Vault.ToParams()
	if fixture.Vault.BufferPercentage != 0 {
		params.BufferPercentage = fixture.Vault.BufferPercentage
	}
	vaultInitEvent, err := vaultEngine.Initialize(vaultAdmin, stablecoin, params)
	if err != nil {
		return fmt.Errorf("initialize vault: %w", err)
	}
	emitter.Emit(vaultInitEvent)

	for _, p := range fixture.Properties {
		if err := seedOneProperty(manager, registry, vaultEngine, vaultAdmin, cfg, p, emitter); err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
	}

	for _, u := range fixture.Users {
		if err := seedOneUser(registry, led, vaultAdmin, u, emitter); err != nil {
			return fmt.Errorf("user %s: %w", u.Address, err)
		}
	}

	if fixture.VaultFunding != "" {
		amount, ok := new(big.Int).SetString(fixture.VaultFunding, 10)
		if !ok {
			return fmt.Errorf("vault_funding %q is not a valid integer", fixture.VaultFunding)
		}
		if err := led.Mint(vaultAdmin, amount); err != nil {
			return fmt.Errorf("mint vault funding to admin: %w", err)
		}
		fundEvents, err := vaultEngine.FundVault(vaultAdmin, amount, uuid.NewString(), fixture.Now)
		if err != nil {
			return fmt.Errorf("fund vault: %w", err)
		}
		for _, evt := range fundEvents {
			emitter.Emit(evt)
		}
		observability.Events().RecordMint("USDC")
	}

	observability.EngineMetrics().Observe("vault", "Seed", nil, 0)
	metrics.Domain().SetVaultGauges(fixture.Vault.Address, 0, 0, false)
	return nil
}

func seedOneProperty(manager *state.Manager, registry *kyc.Registry, vaultEngine *vault.Engine, vaultAdmin crypto.Address, cfg *config.Config, p seedProperty, emitter events.Emitter) error {
	propAddr, err := parseAddress(p.Address)
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	propAdmin, err := parseAddress(p.Admin)
	if err != nil {
		return fmt.Errorf("admin address: %w", err)
	}
	totalSupply, ok := new(big.Int).SetString(p.TotalSupply, 10)
	if !ok {
		return fmt.Errorf("total_supply %q is not a valid integer", p.TotalSupply)
	}
	tokenPrice, ok := new(big.Int).SetString(p.TokenPrice, 10)
	if !ok {
		return fmt.Errorf("token_price %q is not a valid integer", p.TokenPrice)
	}
	cashFlow := big.NewInt(0)
	if p.CashFlowMonthly != "" {
		cashFlow, ok = new(big.Int).SetString(p.CashFlowMonthly, 10)
		if !ok {
			return fmt.Errorf("cash_flow_monthly %q is not a valid integer", p.CashFlowMonthly)
		}
	}

	authEvent, err := vaultEngine.AuthorizeProperty(vaultAdmin, propAddr)
	if err != nil {
		return fmt.Errorf("authorize on vault: %w", err)
	}
	emitter.Emit(authEvent)

	engine := property.NewEngine(propAddr, registry, vaultEngine)
	engine.SetState(property.NewStateAdapter(manager, propAddr))
	meta := property.Metadata{
		Name:        p.Name,
		Symbol:      p.Symbol,
		Decimals:    p.Decimals,
		TotalSupply: totalSupply,
		TokenPrice:  tokenPrice,
		Admin:       propAdmin,
		Vault:       vaultEngine.Address(),
	}
	roi := cfg.Property.ToRoiConfig()
	if p.AnnualRateBps != 0 {
		roi.AnnualRateBps = p.AnnualRateBps
	}
	if p.CompoundingBonusBps != 0 {
		roi.CompoundingBonusBps = p.CompoundingBonusBps
	}
	if p.LoyaltyBonusBps != 0 {
		roi.LoyaltyBonusBps = p.LoyaltyBonusBps
	}
	roi.CashFlowMonthly = cashFlow
	initEvent, err := engine.Initialize(propAdmin, meta, &roi)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	emitter.Emit(initEvent)
	if cashFlow.Sign() > 0 {
		cashFlowEvent, err := vaultEngine.ReportCashFlow(propAddr, cashFlow)
		if err != nil {
			return fmt.Errorf("report cash flow: %w", err)
		}
		emitter.Emit(cashFlowEvent)
	}
	return nil
}

func seedOneUser(registry *kyc.Registry, led *ledger.Ledger, admin crypto.Address, u seedUser, emitter events.Emitter) error {
	userAddr, err := parseAddress(u.Address)
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	kycStatusEvent, err := registry.SetKycStatus(admin, userAddr, u.Verified)
	if err != nil {
		return fmt.Errorf("set kyc status: %w", err)
	}
	emitter.Emit(kycStatusEvent)
	if u.Status != "" {
		status, err := kyc.ParseComplianceStatus(u.Status)
		if err != nil {
			return fmt.Errorf("compliance status: %w", err)
		}
		complianceEvent, err := registry.SetComplianceStatus(admin, userAddr, status)
		if err != nil {
			return fmt.Errorf("set compliance status: %w", err)
		}
		emitter.Emit(complianceEvent)
	}
	if u.MintStablecoin != "" {
		amount, ok := new(big.Int).SetString(u.MintStablecoin, 10)
		if !ok {
			return fmt.Errorf("mint_stablecoin %q is not a valid integer", u.MintStablecoin)
		}
		if err := led.Mint(userAddr, amount); err != nil {
			return fmt.Errorf("mint: %w", err)
		}
		observability.Events().RecordMint("USDC")
	}
	return nil
}
