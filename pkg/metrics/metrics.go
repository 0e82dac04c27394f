package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spark",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP requests sent to the remote API, by method and status class.",
		},
		[]string{"method", "status"},
	)

	EmitsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spark",
			Subsystem: "ws",
			Name:      "emits_dropped_total",
			Help:      "Outbound events dropped because the channel was not connected or the buffer was full.",
		},
		[]string{"event"},
	)

	FramesUndecodable = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spark",
			Subsystem: "ws",
			Name:      "frames_undecodable_total",
			Help:      "Inbound envelopes or payloads that could not be decoded.",
		},
	)

	OptimisticReverts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spark",
			Subsystem: "feed",
			Name:      "optimistic_reverts_total",
			Help:      "Optimistic like/save updates rolled back after the server call failed.",
		},
		[]string{"field"},
	)
)

func init() {
	Registry.MustRegister(APIRequests)
	Registry.MustRegister(EmitsDropped)
	Registry.MustRegister(FramesUndecodable)
	Registry.MustRegister(OptimisticReverts)
}

// StatusClass maps an HTTP status to "2xx", "4xx" and so on. Zero means the
// request never got a response.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
