package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	CacheInsertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_cache_inserts_total",
		Help: "Insert attempts against shared caches, by outcome (stored or rejected).",
	}, []string{"outcome"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_cache_lookups_total",
		Help: "Cache lookups, by result (hit or miss).",
	}, []string{"result"})

	CacheEnsureRacesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "typewalk_cache_ensure_races_total",
		Help: "Ensure calls whose computed value lost to a concurrent insert.",
	})

	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_definition_resolutions_total",
		Help: "Definition lookups, by outcome (found, unresolved, exhausted).",
	}, []string{"outcome"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_diagnostics_total",
		Help: "Diagnostics emitted while building type forms, by error kind.",
	}, []string{"kind"})

	FileCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "typewalk_file_check_seconds",
		Help:    "Time spent parsing, binding and evaluating annotations for one file.",
		Buckets: prometheus.DefBuckets,
	})

	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "typewalk_parsing_seconds",
		Help:    "Time spent parsing a Python source file.",
		Buckets: prometheus.DefBuckets,
	})

	ParsersLeased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "typewalk_parsers_leased",
		Help: "Tree-sitter parsers currently checked out of the pool.",
	})

	WatchBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "typewalk_watch_batches_total",
		Help: "File change batches seen by the watcher, by outcome (checked, throttled, failed).",
	}, []string{"outcome"})
)
