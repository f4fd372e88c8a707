package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/openlistings/claimsvc/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Claim flow metrics

	CodesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "claimsvc",
		Name:      "codes_issued_total",
		Help:      "Total verification codes generated and stored.",
	})

	CodeVerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimsvc",
		Name:      "code_verifications_total",
		Help:      "Code submissions, by outcome.",
	}, []string{"outcome"})

	ClaimsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "claimsvc",
		Name:      "claims_completed_total",
		Help:      "Total listings successfully claimed.",
	})

	EmailSendFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "claimsvc",
		Name:      "email_send_failures_total",
		Help:      "Verification emails that could not be delivered.",
	})

	// Store metrics

	StoreFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimsvc",
		Name:      "store_fallback_total",
		Help:      "Verification store operations served by the in-process fallback.",
	}, []string{"op"})

	// Reaper metrics

	ReapedCodesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimsvc",
		Name:      "reaped_codes_total",
		Help:      "Expired verification codes removed by the reaper.",
	}, []string{"store"})

	ReaperCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "claimsvc",
		Name:      "reaper_cycle_duration_seconds",
		Help:      "Time taken for one reaper cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "claimsvc",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimsvc",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		CodesIssuedTotal,
		CodeVerificationsTotal,
		ClaimsCompletedTotal,
		EmailSendFailuresTotal,
		StoreFallbackTotal,
		ReapedCodesTotal,
		ReaperCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus the liveness and readiness probes on the
// internal port.
func NewServer(addr string, checker *health.Checker) *http.Server {
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
