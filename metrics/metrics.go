package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// QdrantConnectDurationMilliseconds is the metric
	QdrantConnectDurationMilliseconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vectaro_qdrant_connect_duration_milliseconds",
		Help:    "latency of establishing a connection to a qdrant cluster",
		Buckets: []float64{5, 10, 25, 50, 75, 100, 200, 500, 800, 1000, 3000, 5000, 10000},
	}, []string{"cluster"})

	// QdrantConnectErrorsTotal is the metric
	QdrantConnectErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vectaro_qdrant_connect_errors_total",
		Help: "total number of failed connection attempts by cluster",
	}, []string{"cluster"})

	// QdrantClientLookupsTotal is the metric
	QdrantClientLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vectaro_qdrant_client_lookups_total",
		Help: "total number of registry client lookups by cluster",
	}, []string{"cluster"})
)

func init() {
	prometheus.MustRegister(QdrantConnectDurationMilliseconds)
	prometheus.MustRegister(QdrantConnectErrorsTotal)
	prometheus.MustRegister(QdrantClientLookupsTotal)
	prometheus.MustRegister(prometheus.NewBuildInfoCollector())
}
