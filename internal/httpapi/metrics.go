package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestsTotal counts HTTP requests.
// Labels: method, path (route pattern, not raw URI), status
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kompow",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	},
	[]string{"method", "path", "status"},
)
