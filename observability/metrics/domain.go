package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics bundles the business-level gauges and counters an embedder
// polls or updates after each Vault/Property state transition: liquidity
// levels, queue depth, controlled-mode toggles, and purchase/rollover/
// liquidation volume.
type DomainMetrics struct {
	availableLiquidity *prometheus.GaugeVec
	queueDepth         *prometheus.GaugeVec
	controlledMode     *prometheus.GaugeVec
	controlledModeFlips *prometheus.CounterVec
	tokensPurchased    *prometheus.CounterVec
	rolloversApplied   *prometheus.CounterVec
	liquidationsPaid   *prometheus.CounterVec
}

var (
	domainOnce     sync.Once
	domainRegistry *DomainMetrics
)

// Domain returns the lazily-initialised domain metrics registry.
func Domain() *DomainMetrics {
	domainOnce.Do(func() {
		domainRegistry = &DomainMetrics{
			availableLiquidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "verse_vault_available_liquidity",
				Help: "Current available liquidity in the vault, in smallest stablecoin units.",
			}, []string{"vault"}),
			queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "verse_vault_queue_depth",
				Help: "Current number of pending liquidation requests in the FIFO queue.",
			}, []string{"vault"}),
			controlledMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "verse_vault_controlled_mode",
				Help: "Whether the vault is currently in controlled mode (1) or not (0).",
			}, []string{"vault"}),
			controlledModeFlips: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "verse_vault_controlled_mode_flips_total",
				Help: "Count of controlled-mode activations and deactivations.",
			}, []string{"vault", "direction"}),
			tokensPurchased: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "verse_property_tokens_purchased_total",
				Help: "Count of token purchases by property.",
			}, []string{"property"}),
			rolloversApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "verse_property_rollovers_total",
				Help: "Count of position rollovers by property and trigger.",
			}, []string{"property", "trigger"}),
			liquidationsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "verse_property_liquidations_total",
				Help: "Count of position liquidations by property and execution mode.",
			}, []string{"property", "mode"}),
		}
		prometheus.MustRegister(
			domainRegistry.availableLiquidity,
			domainRegistry.queueDepth,
			domainRegistry.controlledMode,
			domainRegistry.controlledModeFlips,
			domainRegistry.tokensPurchased,
			domainRegistry.rolloversApplied,
			domainRegistry.liquidationsPaid,
		)
	})
	return domainRegistry
}

// SetVaultGauges updates the liquidity, queue depth and controlled-mode
// gauges for the named vault.
func (m *DomainMetrics) SetVaultGauges(vault string, available float64, queueDepth uint64, controlledMode bool) {
	if m == nil {
		return
	}
	m.availableLiquidity.WithLabelValues(vault).Set(available)
	m.queueDepth.WithLabelValues(vault).Set(float64(queueDepth))
	if controlledMode {
		m.controlledMode.WithLabelValues(vault).Set(1)
	} else {
		m.controlledMode.WithLabelValues(vault).Set(0)
	}
}

// RecordControlledModeFlip increments the activation/deactivation counter for
// the named vault. direction should be "activated" or "deactivated".
func (m *DomainMetrics) RecordControlledModeFlip(vault, direction string) {
	if m == nil {
		return
	}
	m.controlledModeFlips.WithLabelValues(vault, direction).Inc()
}

// RecordTokensPurchased increments the purchase counter for the named
// property.
func (m *DomainMetrics) RecordTokensPurchased(property string) {
	if m == nil {
		return
	}
	m.tokensPurchased.WithLabelValues(property).Inc()
}

// RecordRollover increments the rollover counter for the named property,
// tagged by whether the user or the admin triggered it.
func (m *DomainMetrics) RecordRollover(property, trigger string) {
	if m == nil {
		return
	}
	m.rolloversApplied.WithLabelValues(property, trigger).Inc()
}

// RecordLiquidation increments the liquidation counter for the named
// property, tagged by instant vs. queued execution.
func (m *DomainMetrics) RecordLiquidation(property, mode string) {
	if m == nil {
		return
	}
	m.liquidationsPaid.WithLabelValues(property, mode).Inc()
}
