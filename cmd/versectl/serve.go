package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"verse/config"
	"verse/observability/metrics"
)

// runServe polls the seeded deployment's Vault on an interval and exposes its
// liquidity, queue-depth and controlled-mode gauges on /metrics until the
// process receives an interrupt.
func runServe(args []string) error {
	fs := flag.NewFlagSet(serveCommand, flag.ExitOnError)
	configPath := fs.String("config", "./config.toml", "Path to the versectl config file")
	listen := fs.String("listen", ":9102", "Address to serve /metrics on")
	interval := fs.Duration("interval", 15*time.Second, "Gauge refresh interval")
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go pollGauges(ctx, dep, *interval)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: *listen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Serving metrics for %s on %s\n", dep.manifest.Vault, *listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func pollGauges(ctx context.Context, dep *deployment, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		refreshGauges(dep)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func refreshGauges(dep *deployment) {
	now := time.Now().Unix()
	vaultCfg, err := dep.vault.GetConfig()
	if err != nil {
		return
	}
	queue, err := dep.vault.GetQueueStatus(now)
	if err != nil {
		return
	}
	metrics.Domain().SetVaultGauges(dep.manifest.Vault, weiToFloat(vaultCfg.Available), queue.PendingCount, vaultCfg.ControlledMode)
}
