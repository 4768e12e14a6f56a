/*-------------------------------------------------------------------------
 *
 * prometheus.go
 *    Relay metrics
 *
 * Copyright (c) 2024-2026, ClawbackX, Inc. <support@clawbackx.com>
 *
 * IDENTIFICATION
 *    approval-relay/internal/metrics/prometheus.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	/* Poll cycle metrics */
	pollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_relay_poll_cycles_total",
			Help: "Total number of poll cycles by outcome",
		},
		[]string{"outcome"},
	)

	pollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "approval_relay_poll_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	pendingApprovals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "approval_relay_pending_approvals",
			Help: "Pending approval requests seen on the last cycle",
		},
	)

	/* Gateway metrics */
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_relay_gateway_requests_total",
			Help: "Total gateway API calls by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	/* Delivery metrics */
	messagesDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_relay_messages_delivered_total",
			Help: "Messages durably handed off, by delivery path",
		},
		[]string{"via"},
	)

	deliveryFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "approval_relay_delivery_failures_total",
			Help: "Messages that failed both delivery paths in one cycle",
		},
	)

	/* Checkpoint metrics */
	checkpointFlushErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "approval_relay_checkpoint_flush_errors_total",
			Help: "Checkpoint file writes that failed",
		},
	)
)

/* RecordCycle records a completed poll cycle */
func RecordCycle(outcome string, duration time.Duration) {
	pollCyclesTotal.WithLabelValues(outcome).Inc()
	pollCycleDuration.Observe(duration.Seconds())
}

/* SetPendingApprovals records the pending count seen on the last cycle */
func SetPendingApprovals(n int) {
	pendingApprovals.Set(float64(n))
}

/* RecordGatewayRequest records one gateway API call */
func RecordGatewayRequest(method, outcome string) {
	gatewayRequestsTotal.WithLabelValues(method, outcome).Inc()
}

/* RecordDelivery records a durable hand-off via the given path */
func RecordDelivery(via string) {
	messagesDeliveredTotal.WithLabelValues(via).Inc()
}

/* RecordDeliveryFailure records a message that failed both paths */
func RecordDeliveryFailure() {
	deliveryFailuresTotal.Inc()
}

/* RecordCheckpointFlushError records a failed checkpoint write */
func RecordCheckpointFlushError() {
	checkpointFlushErrorsTotal.Inc()
}

/* Handler returns the HTTP handler for the metrics endpoint */
func Handler() http.Handler {
	return promhttp.Handler()
}
