package machines

import (
	"github.com/prometheus/client_golang/prometheus"

	"ironview/backend/ivd/internal/storageview"
)

var (
	projectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ivd_projections_total",
			Help: "Storage view projections computed.",
		},
	)
	projectionRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivd_projection_rows_total",
			Help: "Rows emitted by projections, by section.",
		},
		[]string{"section"},
	)
)

func init() {
	prometheus.MustRegister(projectionsTotal)
	prometheus.MustRegister(projectionRowsTotal)
}

func recordProjection(p storageview.ProjectionResult) {
	projectionsTotal.Inc()
	projectionRowsTotal.WithLabelValues(SectionFilesystems).Add(float64(len(p.Filesystems)))
	projectionRowsTotal.WithLabelValues(SectionCacheSets).Add(float64(len(p.CacheSets)))
	projectionRowsTotal.WithLabelValues(SectionAvailable).Add(float64(len(p.Available)))
	projectionRowsTotal.WithLabelValues("used").Add(float64(len(p.Used)))
}
