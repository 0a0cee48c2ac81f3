package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbiratu",
			Name:      "pages_processed_total",
			Help:      "Total pages processed by result (rotated, upright, failed)",
		},
		[]string{"result"},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbiratu",
			Name:      "rotation_decisions_total",
			Help:      "Rotation decisions by winning source and rotation applied",
		},
		[]string{"source", "rotation"},
	)

	voteInvocations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfbiratu",
			Name:      "ocr_vote_invocations_total",
			Help:      "Number of pages that required the four-way OCR vote",
		},
	)

	detectorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbiratu",
			Name:      "detector_failures_total",
			Help:      "Detector calls that degraded to no-opinion, by detector",
		},
		[]string{"detector"},
	)

	detectorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfbiratu",
			Name:      "detector_duration_seconds",
			Help:      "Duration of individual detector calls by detector",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"detector"},
	)

	pageLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfbiratu",
			Name:      "page_duration_seconds",
			Help:      "End-to-end duration of per-page processing",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	rebuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbiratu",
			Name:      "rebuilds_total",
			Help:      "Artifact rebuilds by mode (pdf, image, zip) and result",
		},
		[]string{"mode", "result"},
	)

	cacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfbiratu",
			Name:      "decision_cache_events_total",
			Help:      "Decision cache hits and misses",
		},
		[]string{"event"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(pagesProcessed, decisions, voteInvocations, detectorFailures, detectorLatency, pageLatency, rebuilds, cacheEvents)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncPage(result string) { pagesProcessed.WithLabelValues(result).Inc() }

func IncDecision(source, rotation string) { decisions.WithLabelValues(source, rotation).Inc() }

func IncVote() { voteInvocations.Inc() }

func IncDetectorFailure(detector string) { detectorFailures.WithLabelValues(detector).Inc() }

func ObserveDetector(detector string, dur time.Duration) {
	detectorLatency.WithLabelValues(detector).Observe(dur.Seconds())
}

func ObservePage(dur time.Duration) { pageLatency.Observe(dur.Seconds()) }

func IncRebuild(mode, result string) { rebuilds.WithLabelValues(mode, result).Inc() }

func CacheHit()  { cacheEvents.WithLabelValues("hit").Inc() }
func CacheMiss() { cacheEvents.WithLabelValues("miss").Inc() }
