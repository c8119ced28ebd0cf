package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForwardCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forward_count",
			Help: "Total number of inbound emails processed by the forwarder",
		},
		[]string{"status"}, // status: forwarded, failed, skipped
	)

	RelaySendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_send_latency_ms",
			Help:    "Relay send API call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"status"},
	)

	DNSLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dns_lookup_duration_seconds",
			Help:    "DNS lookup duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"record_type", "outcome"},
	)

	VerificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_verification_count",
			Help: "Total number of domain verification runs",
		},
		[]string{"status"}, // status: verified, partial, pending
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"routing_key", "queue"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

// IncrementForward counts one processed inbound email.
func IncrementForward(status string) {
	ForwardCount.WithLabelValues(status).Inc()
}

// RecordRelaySendLatency records one relay send API call.
func RecordRelaySendLatency(status string, duration time.Duration) {
	RelaySendLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

// RecordDNSLookup records one DNS lookup.
func RecordDNSLookup(recordType, outcome string, duration time.Duration) {
	DNSLookupDuration.WithLabelValues(recordType, outcome).Observe(duration.Seconds())
}

// IncrementVerification counts one verification run by resulting status.
func IncrementVerification(status string) {
	VerificationCount.WithLabelValues(status).Inc()
}

// RecordMQConsumeLatency records one consumed MQ message.
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequestDuration records one handled HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
