package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	fundContributions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sementesplay",
			Subsystem: "fund",
			Name:      "contributions_total",
			Help:      "Contributions added to the active fund.",
		},
	)

	fundCreations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sementesplay",
			Subsystem: "fund",
			Name:      "creations_total",
			Help:      "Active funds created, by trigger.",
		},
		[]string{"reason"},
	)

	integrityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sementesplay",
			Subsystem: "fund",
			Name:      "integrity_checks_total",
			Help:      "Fund integrity checks, by outcome.",
		},
		[]string{"healthy"},
	)

	activeFunds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sementesplay",
			Subsystem: "fund",
			Name:      "active_funds",
			Help:      "Undistributed funds seen by the last integrity check.",
		},
	)

	rankingPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sementesplay",
			Subsystem: "ranking",
			Name:      "passes_total",
			Help:      "Level recomputation passes, by outcome.",
		},
		[]string{"success"},
	)

	levelChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sementesplay",
			Subsystem: "ranking",
			Name:      "level_changes_total",
			Help:      "Creator level writes, by new level.",
		},
		[]string{"level"},
	)
)

func init() {
	Registry.MustRegister(
		fundContributions,
		fundCreations,
		integrityChecks,
		activeFunds,
		rankingPasses,
		levelChanges,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordContribution() { fundContributions.Inc() }

func RecordFundCreated(reason string) { fundCreations.WithLabelValues(reason).Inc() }

func RecordIntegrityCheck(healthy bool, activeFundCount int64) {
	integrityChecks.WithLabelValues(strconv.FormatBool(healthy)).Inc()
	activeFunds.Set(float64(activeFundCount))
}

func RecordRankingPass(success bool) {
	rankingPasses.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordLevelChange(level string) { levelChanges.WithLabelValues(level).Inc() }
