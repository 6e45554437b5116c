package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "speechgate"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// requestsTotal counts handled speech requests by outcome.
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of speech requests handled",
		},
		[]string{"model", "code", "error_kind"},
	)

	// requestDuration is the wall time spent serving a speech request.
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of speech requests in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream synthesis calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream synthesis calls",
		},
		[]string{"provider", "model", "status"}, // status: success, error
	)

	upstreamAudioBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_audio_bytes_total",
			Help:      "Total bytes of decoded audio returned by upstream",
		},
		[]string{"provider", "model"},
	)

	allMetrics = []prometheus.Collector{
		requestsTotal,
		requestDuration,
		upstreamRequestDuration,
		upstreamRequestsTotal,
		upstreamAudioBytesTotal,
	}
)

// NewRegistry returns a registry holding every speechgate collector plus the
// Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	for _, collector := range allMetrics {
		reg.MustRegister(collector)
	}

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordRequest records a finished speech request. errorKind is empty for
// successful requests.
func RecordRequest(model string, statusCode int, errorKind string, durationSeconds float64) {
	requestsTotal.WithLabelValues(model, strconv.Itoa(statusCode), errorKind).Inc()
	requestDuration.WithLabelValues(model).Observe(durationSeconds)
}

func RecordUpstreamRequest(provider, model, status string, durationSeconds float64) {
	upstreamRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	upstreamRequestsTotal.WithLabelValues(provider, model, status).Inc()
}

func RecordUpstreamAudio(provider, model string, size int) {
	if size > 0 {
		upstreamAudioBytesTotal.WithLabelValues(provider, model).Add(float64(size))
	}
}
