package knowledge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CollectionsOpened counts collection open attempts by outcome mode.
	// Labels: mode (ready, degraded, failed)
	CollectionsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kompow",
			Subsystem: "knowledge",
			Name:      "collections_opened_total",
			Help:      "Total number of collection open attempts by mode",
		},
		[]string{"mode"},
	)

	// DocumentsAdded counts document add attempts.
	// Labels: result (success, error, no_embedder)
	DocumentsAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kompow",
			Subsystem: "knowledge",
			Name:      "documents_added_total",
			Help:      "Total number of document add attempts",
		},
		[]string{"result"},
	)

	// SearchesTotal counts search operations.
	// Labels: result (success, error, degraded, empty)
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kompow",
			Subsystem: "knowledge",
			Name:      "searches_total",
			Help:      "Total number of search operations",
		},
		[]string{"result"},
	)
)
