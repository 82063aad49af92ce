// Package metrics exposes Prometheus collectors for the webhook
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymconnect_webhooks_received_total",
		Help: "Inbound webhook deliveries by platform.",
	}, []string{"platform"})

	WebhooksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymconnect_webhooks_processed_total",
		Help: "Pipeline outcomes by platform: ok, ignored, rejected or failed.",
	}, []string{"platform", "outcome"})

	RepliesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymconnect_replies_generated_total",
		Help: "Replies by source: llm, escalation or fallback.",
	}, []string{"source"})

	OutboundSendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymconnect_outbound_send_failures_total",
		Help: "Failed outbound sends by platform.",
	}, []string{"platform"})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gymconnect_pipeline_duration_seconds",
		Help:    "End-to-end webhook pipeline latency.",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
