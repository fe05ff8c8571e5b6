// Package metrics provides the centralized Prometheus metrics registry for
// the decision engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SimulationsRunTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "simulations_run_total",
		Help:      "Total number of simulation runs executed",
	})
	ConvergenceAchievedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "convergence_achieved_total",
		Help:      "Total number of simulations that stopped early on convergence",
	})
	DecisionsComputedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "decisions_computed_total",
		Help:      "Total number of approved market decisions",
	})
	DecisionsBlockedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "decisions_blocked_total",
		Help:      "Total number of blocked market decisions by release status",
	}, []string{"release_status"})
	ClassifierTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "classifier_transitions_total",
		Help:      "Total number of exposure state transitions by target state",
	}, []string{"state"})
	PriceMovedTransitionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "price_moved_transitions_total",
		Help:      "Total number of cached results invalidated by line movement",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "cache_hits_total",
		Help:      "Total number of simulation cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_engine",
		Name:      "cache_misses_total",
		Help:      "Total number of simulation cache misses",
	})
)

// Gauge metrics
var (
	KillSwitchActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "edge_engine",
		Name:      "kill_switch_active",
		Help:      "Whether the kill switch is currently active (1) or not (0)",
	}, []string{"scope"})
	InFlightSimulations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edge_engine",
		Name:      "in_flight_simulations",
		Help:      "Number of simulation computations currently in flight",
	})
	MonitoredMarkets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edge_engine",
		Name:      "monitored_markets",
		Help:      "Number of markets registered with the market monitor",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edge_engine",
		Name:      "simulation_duration_seconds",
		Help:      "Duration of simulation runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	SimulationTrials = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edge_engine",
		Name:      "simulation_trials",
		Help:      "Trial counts actually run per simulation",
		Buckets:   []float64{1000, 5000, 10000, 25000, 50000, 100000},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(SimulationsRunTotal)
		registry.MustRegister(ConvergenceAchievedTotal)
		registry.MustRegister(DecisionsComputedTotal)
		registry.MustRegister(DecisionsBlockedTotal)
		registry.MustRegister(ClassifierTransitionsTotal)
		registry.MustRegister(PriceMovedTransitionsTotal)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)

		registry.MustRegister(KillSwitchActive)
		registry.MustRegister(InFlightSimulations)
		registry.MustRegister(MonitoredMarkets)

		registry.MustRegister(SimulationDuration)
		registry.MustRegister(SimulationTrials)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSimulation records one completed simulation run.
func RecordSimulation(durationSeconds float64, trials int, converged bool) {
	SimulationsRunTotal.Inc()
	SimulationDuration.Observe(durationSeconds)
	SimulationTrials.Observe(float64(trials))
	if converged {
		ConvergenceAchievedTotal.Inc()
	}
}

// RecordClassifierTransition records the state a classification landed on.
func RecordClassifierTransition(state string) {
	ClassifierTransitionsTotal.WithLabelValues(state).Inc()
}

// SetKillSwitch updates the kill switch gauge for a scope.
func SetKillSwitch(scope string, active bool) {
	if active {
		KillSwitchActive.WithLabelValues(scope).Set(1)
	} else {
		KillSwitchActive.WithLabelValues(scope).Set(0)
	}
}
