package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec
	solanaRPCRetries      *prometheus.CounterVec

	// Funding Transfer Metrics
	fundingTransfersTotal  *prometheus.CounterVec
	fundingLamportsTotal   *prometheus.CounterVec
	confirmationDuration   *prometheus.HistogramVec
	confirmationTimeouts   *prometheus.CounterVec

	// Launch Metrics
	launchAttemptsTotal *prometheus.CounterVec
	priceProbesTotal    *prometheus.CounterVec

	// Workflow Metrics
	launchWorkflowDuration        *prometheus.HistogramVec
	launchWorkflowExecutionsTotal *prometheus.CounterVec
	launchActivityDuration        *prometheus.HistogramVec

	// Database Metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		solanaRPCRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_retries_total",
				Help: "Total number of Solana RPC retry attempts",
			},
			[]string{"method", "reason"},
		),

		// Funding Transfer Metrics
		fundingTransfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funding_transfers_total",
				Help: "Total number of funding transfers by outcome",
			},
			[]string{"status"},
		),
		fundingLamportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funding_lamports_total",
				Help: "Total lamports moved by confirmed funding transfers",
			},
			[]string{},
		),
		confirmationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transfer_confirmation_duration_seconds",
				Help:    "Time from submission to confirmation for funding transfers",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 90},
			},
			[]string{},
		),
		confirmationTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transfer_confirmation_timeouts_total",
				Help: "Total number of transfers whose confirmation window expired",
			},
			[]string{},
		),

		// Launch Metrics
		launchAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launch_attempts_total",
				Help: "Total number of pump.fun operation attempts by outcome",
			},
			[]string{"operation", "status"},
		),
		priceProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_probes_total",
				Help: "Total number of initial price probes by outcome",
			},
			[]string{"status"},
		),

		// Workflow Metrics
		launchWorkflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launch_workflow_duration_seconds",
				Help:    "Duration of token launch workflow execution in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		launchWorkflowExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launch_workflow_executions_total",
				Help: "Total number of token launch workflow executions",
			},
			[]string{"status"},
		),
		launchActivityDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "launch_activity_duration_seconds",
				Help:    "Duration of token launch workflow activities in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"activity"},
		),

		// Database Metrics
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordRPCRetry records a retry attempt.
func (m *Metrics) RecordRPCRetry(method, reason string) {
	m.solanaRPCRetries.WithLabelValues(method, reason).Inc()
}

// Funding transfer metric helpers

// RecordFundingTransfer records a funding transfer outcome. Confirmed
// transfers also add to the lamport total.
func (m *Metrics) RecordFundingTransfer(status string, lamports uint64) {
	m.fundingTransfersTotal.WithLabelValues(status).Inc()
	if status == "confirmed" {
		m.fundingLamportsTotal.WithLabelValues().Add(float64(lamports))
	}
}

// RecordConfirmationDuration records the submission-to-confirmation latency.
func (m *Metrics) RecordConfirmationDuration(duration float64) {
	m.confirmationDuration.WithLabelValues().Observe(duration)
}

// RecordConfirmationTimeout records an expired confirmation window.
func (m *Metrics) RecordConfirmationTimeout() {
	m.confirmationTimeouts.WithLabelValues().Inc()
}

// Launch metric helpers

// RecordLaunchAttempt records one pump.fun operation attempt.
func (m *Metrics) RecordLaunchAttempt(operation, status string) {
	m.launchAttemptsTotal.WithLabelValues(operation, status).Inc()
}

// RecordPriceProbe records an initial price probe outcome ("found" or "unknown").
func (m *Metrics) RecordPriceProbe(status string) {
	m.priceProbesTotal.WithLabelValues(status).Inc()
}

// Workflow metric helpers

// RecordWorkflowDuration records workflow execution duration.
func (m *Metrics) RecordWorkflowDuration(status string, duration float64) {
	m.launchWorkflowDuration.WithLabelValues(status).Observe(duration)
	m.launchWorkflowExecutionsTotal.WithLabelValues(status).Inc()
}

// RecordActivityDuration records activity execution duration.
func (m *Metrics) RecordActivityDuration(activity string, duration float64) {
	m.launchActivityDuration.WithLabelValues(activity).Observe(duration)
}

// Database metric helpers

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
