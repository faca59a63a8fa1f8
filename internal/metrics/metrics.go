package metrics

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bigMackD/Glyloop-sub002/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Event logging

	EventsLoggedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glyloop",
		Name:      "events_logged_total",
		Help:      "Total user events logged, by kind.",
	}, []string{"kind"})

	// CGM link lifecycle

	LinksCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "glyloop",
		Name:      "cgm_links_created_total",
		Help:      "Total CGM account links established.",
	})

	LinksUnlinkedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glyloop",
		Name:      "cgm_links_unlinked_total",
		Help:      "Total CGM links removed, by whether a data purge was requested.",
	}, []string{"purge"})

	LinkRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glyloop",
		Name:      "cgm_link_refreshes_total",
		Help:      "Total token refresh attempts, by outcome.",
	}, []string{"outcome"})

	RefreshCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "glyloop",
		Name:      "refresh_cycle_duration_seconds",
		Help:      "Time taken for one token refresher cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// Domain-event dispatch

	DomainEventsDispatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glyloop",
		Name:      "domain_events_dispatched_total",
		Help:      "Domain events handed to subscribers after commit.",
	}, []string{"event"})

	DomainEventFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glyloop",
		Name:      "domain_event_failures_total",
		Help:      "Subscriber failures while handling a dispatched event.",
	}, []string{"event"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "glyloop",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glyloop",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		EventsLoggedTotal,
		LinksCreatedTotal,
		LinksUnlinkedTotal,
		LinkRefreshesTotal,
		RefreshCycleDuration,
		DomainEventsDispatchedTotal,
		DomainEventFailuresTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// HealthReporter is implemented by health.Checker.
type HealthReporter interface {
	Liveness(ctx context.Context) health.HealthResult
	Readiness(ctx context.Context) health.HealthResult
}

func NewServer(addr string, checker HealthReporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
