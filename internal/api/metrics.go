package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for the HTTP surface.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec // Requests by endpoint and status class
	RequestDuration  *prometheus.HistogramVec
	SnapshotsStored  prometheus.Counter
	UnitsStored      prometheus.Counter
	RetrievalResults prometheus.Histogram
}

// NewMetrics creates and registers the API metrics. The registerer
// parameter allows flexible registration (global registry in production,
// a private registry in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "temblor_api_requests_total",
		Help: "Total API requests by endpoint and status code",
	}, []string{"endpoint", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "temblor_api_request_duration_seconds",
		Help:    "API request duration by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	snapshotsStored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "temblor_snapshots_stored_total",
		Help: "Total decision snapshots stored",
	})

	unitsStored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "temblor_experience_units_stored_total",
		Help: "Total experience units stored",
	})

	retrievalResults := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "temblor_retrieval_results",
		Help:    "Number of results returned per retrieval",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	reg.MustRegister(requestsTotal, requestDuration, snapshotsStored, unitsStored, retrievalResults)

	return &Metrics{
		RequestsTotal:    requestsTotal,
		RequestDuration:  requestDuration,
		SnapshotsStored:  snapshotsStored,
		UnitsStored:      unitsStored,
		RetrievalResults: retrievalResults,
	}
}
