// Package metrics exposes Prometheus counters for long-running simulations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registry keeps simulation metrics separate from the default Go collectors.
var registry = prometheus.NewRegistry()

var (
	// StepsTotal counts completed simulation steps.
	StepsTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "agora",
		Name:      "steps_total",
		Help:      "Completed simulation steps.",
	})

	// TradesTotal counts matched trades, each counted once.
	TradesTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "agora",
		Name:      "trades_total",
		Help:      "Matched trades executed.",
	})

	// FeesCollected accumulates transaction fees in currency units.
	FeesCollected = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "agora",
		Name:      "fees_collected",
		Help:      "Transaction fees collected.",
	})

	// TaxesCollected accumulates taxes in currency units.
	TaxesCollected = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "agora",
		Name:      "taxes_collected",
		Help:      "Taxes collected on trade proceeds.",
	})

	// ActiveEntities tracks how many entities are still trading.
	ActiveEntities = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "agora",
		Name:      "active_entities",
		Help:      "Entities currently active in the simulation.",
	})
)

// Handler serves the simulation metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
