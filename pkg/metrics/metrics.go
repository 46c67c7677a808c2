package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Run metrics
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_runs_total",
			Help: "Total number of bootstrap runs by result",
		},
		[]string{"result"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_run_duration_seconds",
			Help:    "Bootstrap run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// Step metrics
	StepsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_steps_applied_total",
			Help: "Total number of step applies by step name",
		},
		[]string{"step"},
	)

	StepsSatisfied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_steps_satisfied_total",
			Help: "Total number of steps found already satisfied by step name",
		},
		[]string{"step"},
	)

	StepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_step_failures_total",
			Help: "Total number of failed step attempts by step name",
		},
		[]string{"step"},
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burrow_step_duration_seconds",
			Help:    "Step apply duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	// Download metrics
	DownloadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_download_bytes_total",
			Help: "Total bytes downloaded from release hosts",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(StepsApplied)
	prometheus.MustRegister(StepsSatisfied)
	prometheus.MustRegister(StepFailures)
	prometheus.MustRegister(StepDuration)
	prometheus.MustRegister(DownloadBytesTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr for the duration of a run. Errors other
// than server shutdown are reported on the returned channel.
func Serve(addr string) (*http.Server, <-chan error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return srv, errCh
}
