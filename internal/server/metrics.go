package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments used by the narrator API.
type Metrics struct {
	Narrations       prometheus.Counter
	SegmentsPerReply prometheus.Histogram
	SynthesisErrors  prometheus.Counter
	UpstreamErrors   *prometheus.CounterVec
	NarrateLatency   prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Narrations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrations_total",
			Help:      "Completed narration requests.",
		}),
		SegmentsPerReply: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segments_per_reply",
			Help:      "Number of segments produced per narration.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		SynthesisErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_errors_total",
			Help:      "Segments whose TTS synthesis failed.",
		}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream provider errors by provider.",
		}, []string{"provider"}),
		NarrateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "narrate_latency_seconds",
			Help:      "End-to-end latency of /api/narrate.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
