// metrics/build.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pagesRendered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "termsite_pages_rendered_total",
		Help: "Pages rendered by site builds.",
	})

	controllerResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termsite_controller_resolutions_total",
			Help: "Controller module resolutions, by result.",
		},
		[]string{"result"},
	)

	buildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "termsite_build_duration_seconds",
			Help:    "Duration of site builds.",
			Buckets: []float64{0.05, 0.25, 1, 5, 30},
		},
		[]string{"outcome"},
	)
)

// PageRendered counts one rendered page.
func PageRendered() { pagesRendered.Inc() }

// ControllerResolved counts one controller resolution.
func ControllerResolved(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	controllerResolutions.WithLabelValues(result).Inc()
}

// ObserveBuild records how long a build took and whether it failed.
func ObserveBuild(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	buildDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
