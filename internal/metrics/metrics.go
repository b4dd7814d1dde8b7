package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PostsSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postcraft_posts_saved_total",
		Help: "Total posts saved",
	})
	PostsScheduled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postcraft_posts_scheduled_total",
		Help: "Total schedule entries created",
	})
	PostsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postcraft_posts_published_total",
		Help: "Total posts published, by platform",
	}, []string{"platform"})
	PipelineFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postcraft_pipeline_failures_total",
		Help: "Total pipeline step failures, by step",
	}, []string{"step"})
	ChainDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "postcraft_chain_duration_seconds",
		Help:    "Duration of chained save/schedule/publish actions",
		Buckets: prometheus.DefBuckets,
	})
	GenerationRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postcraft_generation_runs_total",
		Help: "Total content generation calls",
	})
	ResearchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postcraft_research_failures_total",
		Help: "Total research fetches that degraded to no-research",
	})
)

func init() {
	prometheus.MustRegister(PostsSaved, PostsScheduled, PostsPublished,
		PipelineFailures, ChainDuration, GenerationRuns, ResearchFailures)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveChainDuration records a chained action duration.
func ObserveChainDuration(start time.Time) {
	ChainDuration.Observe(time.Since(start).Seconds())
}

// IncFailure increments the failure counter for a pipeline step.
func IncFailure(step string) { PipelineFailures.WithLabelValues(step).Inc() }
