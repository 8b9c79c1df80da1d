package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pontual",
			Name:      "cache_ops_total",
			Help:      "Count of cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	cacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pontual",
			Name:      "cache_evictions_total",
			Help:      "Count of cache entries removed by reason.",
		},
		[]string{"reason"},
	)

	cacheSweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pontual",
			Name:      "cache_sweeps_total",
			Help:      "Count of expired-entry sweeps.",
		},
	)

	recordsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pontual",
			Name:      "records_saved_total",
			Help:      "Count of time records persisted.",
		},
	)

	recordDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pontual",
			Name:      "record_decision_total",
			Help:      "Count of manager decisions over time records.",
		},
		[]string{"decision"},
	)

	keepAlivePings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pontual",
			Name:      "keepalive_pings_total",
			Help:      "Count of keep-alive queries by status.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(cacheOps, cacheEvictions, cacheSweeps, recordsSaved, recordDecision, keepAlivePings)
	})
}

func IncCacheHit()  { cacheOps.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheOps.WithLabelValues("miss").Inc() }

// IncCacheEviction records a removed entry: "expired", "mismatch" or "corrupt".
func IncCacheEviction(reason string) { cacheEvictions.WithLabelValues(reason).Inc() }

func IncCacheSweep() { cacheSweeps.Inc() }

func IncRecordSaved() { recordsSaved.Inc() }

func IncRecordDecision(decision string) { recordDecision.WithLabelValues(decision).Inc() }

func IncKeepAlivePing(status string) { keepAlivePings.WithLabelValues(status).Inc() }
