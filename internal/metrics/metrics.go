package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// GenerationsTotal counts generation invocations by input method and outcome.
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studygeni",
		Name:      "generations_total",
		Help:      "Generation backend invocations by input method and outcome.",
	}, []string{"input_method", "outcome"})

	// HistoryAppendsTotal counts history persistence attempts by outcome.
	HistoryAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studygeni",
		Name:      "history_appends_total",
		Help:      "History entry writes by outcome.",
	}, []string{"outcome"})

	// GenerationDuration observes round-trip time to the generation backend.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studygeni",
		Name:      "generation_duration_seconds",
		Help:      "Round-trip latency of generation backend calls.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"input_method"})
)

// Handler returns the Prometheus scrape endpoint as a Gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
