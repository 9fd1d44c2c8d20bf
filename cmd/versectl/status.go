package main

import (
	"flag"
	"fmt"
	"time"

	"verse/config"
	"verse/observability/metrics"
)

func runStatus(args []string) error {
	fs := flag.NewFlagSet(statusCommand, flag.ExitOnError)
	configPath := fs.String("config", "./config.toml", "Path to the versectl config file")
	now := fs.Int64("now", time.Now().Unix(), "Unix timestamp to evaluate the queue estimator against")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dep, err := openDeployment(cfg)
	if err != nil {
		return err
	}
	defer dep.Close()

	vaultCfg, err := dep.vault.GetConfig()
	if err != nil {
		return fmt.Errorf("vault config: %w", err)
	}
	queue, err := dep.vault.GetQueueStatus(*now)
	if err != nil {
		return fmt.Errorf("queue status: %w", err)
	}

	fmt.Printf("Vault %s\n", dep.manifest.Vault)
	fmt.Printf("  admin:             %s\n", vaultCfg.Admin)
	fmt.Printf("  stablecoin:        %s\n", vaultCfg.Stablecoin)
	fmt.Printf("  total capacity:    %s\n", vaultCfg.TotalCapacity)
	fmt.Printf("  available:         %s\n", vaultCfg.Available)
	fmt.Printf("  buffer percentage: %d%%\n", vaultCfg.BufferPercentage)
	fmt.Printf("  controlled mode:   %v\n", vaultCfg.ControlledMode)
	fmt.Printf("  emergency paused:  %v\n", vaultCfg.EmergencyPaused)
	fmt.Printf("  queue:             %d pending, %s total, estimated clear %s\n",
		queue.PendingCount, queue.TotalPendingAmount, formatUnixOrNever(queue.EstimatedClearTime))

	metrics.Domain().SetVaultGauges(dep.manifest.Vault, weiToFloat(vaultCfg.Available), queue.PendingCount, vaultCfg.ControlledMode)

	for _, p := range dep.manifest.Properties {
		engine, ok := dep.properties[p.Address]
		if !ok {
			continue
		}
		meta, err := engine.GetMetadata()
		if err != nil {
			return fmt.Errorf("property %s metadata: %w", p.Name, err)
		}
		activeTokens, err := engine.TotalActiveTokens()
		if err != nil {
			return fmt.Errorf("property %s active tokens: %w", p.Name, err)
		}
		stats, err := dep.vault.GetPropertyStats(engine.Address())
		if err != nil {
			return fmt.Errorf("property %s stats: %w", p.Name, err)
		}
		fmt.Printf("\nProperty %s (%s)\n", meta.Name, meta.Symbol)
		fmt.Printf("  address:            %s\n", p.Address)
		fmt.Printf("  total supply:       %s\n", meta.TotalSupply)
		fmt.Printf("  active tokens:      %s\n", activeTokens)
		fmt.Printf("  token price:        %s\n", meta.TokenPrice)
		fmt.Printf("  active users:       %d\n", stats.ActiveUsers)
		fmt.Printf("  total liquidated:   %s\n", stats.TotalLiquidated)
	}

	return nil
}

func formatUnixOrNever(ts int64) string {
	if ts <= 0 {
		return "never"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func weiToFloat(amount interface{ String() string }) float64 {
	var f float64
	fmt.Sscan(amount.String(), &f)
	return f
}
