// Package metrics provides Prometheus instrumentation for the poster.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationsTotal counts generation attempts by provider and outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Total generation attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"}, // outcome: "success" or "failure"
	)

	// GenerationLatency tracks end-to-end generation latency in seconds.
	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_seconds",
			Help:    "End-to-end generation latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// KeyRotationsTotal counts credential rotations in the fallback pool.
	KeyRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "key_rotations_total",
			Help: "Total credential rotations in the fallback key pool.",
		},
	)

	// PrimaryHealth reports the cached primary health: 1 healthy, 0 unhealthy,
	// -1 unknown.
	PrimaryHealth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "primary_health",
			Help: "Cached primary provider health: 1=healthy, 0=unhealthy, -1=unknown.",
		},
	)

	// PostsPublishedTotal counts publish attempts by site and status.
	PostsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_published_total",
			Help: "Total publish attempts by site and status.",
		},
		[]string{"site", "status"}, // status: "posted" or "failed"
	)

	// CatalogLookupsTotal counts product catalog searches by cache status.
	CatalogLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Total product catalog lookups by cache status.",
		},
		[]string{"cache"}, // "hit", "miss", "bypass"
	)
)
