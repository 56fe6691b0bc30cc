package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"ironview/backend/ivd/internal/machines"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivd_http_requests_total",
			Help: "HTTP requests served, by method and status.",
		},
		[]string{"method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ivd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	storageOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivd_storage_ops_total",
			Help: "Storage mutations applied, by operation.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(storageOpsTotal)
}

// MetricsSink wraps an event sink so every applied storage mutation is
// also counted. Use it when constructing the machines manager.
func MetricsSink(next machines.EventSink) machines.EventSink {
	return metricsSink{next: next}
}

type metricsSink struct {
	next machines.EventSink
}

func (s metricsSink) Append(machineID, op, detail string) {
	storageOpsTotal.WithLabelValues(op).Inc()
	if s.next != nil {
		s.next.Append(machineID, op, detail)
	}
}

func recordRequest(method string, status int) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// mountMetricsRoute exposes the default registry in the Prometheus
// text format.
func mountMetricsRoute(r chi.Router) {
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
		mfs, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			http.Error(w, "gather failed", http.StatusInternalServerError)
			return
		}
		for _, mf := range mfs {
			_ = enc.Encode(mf)
		}
	})
}
