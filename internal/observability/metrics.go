package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	remoteRequestsTotal  *prometheus.CounterVec
	remoteLatencySeconds *prometheus.HistogramVec
	fileRejectedTotal    *prometheus.CounterVec
	submissionsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors of the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusubmit_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edusubmit_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusubmit_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		remoteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusubmit_sheets_requests_total",
			Help: "Requests sent to the spreadsheet endpoint by action and outcome.",
		}, []string{"action", "outcome"})

		remoteLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edusubmit_sheets_latency_seconds",
			Help:    "Round trip latency of spreadsheet endpoint calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"action"})

		fileRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusubmit_file_rejected_total",
			Help: "Attached files rejected before encoding, by reason.",
		}, []string{"reason"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusubmit_submissions_total",
			Help: "Submission attempts by role and outcome.",
		}, []string{"role", "outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			remoteRequestsTotal,
			remoteLatencySeconds,
			fileRejectedTotal,
			submissionsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// RemoteRequests exposes the counter for spreadsheet calls.
func RemoteRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return remoteRequestsTotal
}

// RemoteLatency exposes the latency histogram for spreadsheet calls.
func RemoteLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return remoteLatencySeconds
}

// FileRejected exposes the counter for rejected attachments.
func FileRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return fileRejectedTotal
}

// Submissions exposes the counter for submission attempts.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}
