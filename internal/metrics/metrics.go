package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "orderpay"

// Registry holds every collector the service exposes on /metrics.
var Registry = prometheus.NewRegistry()

var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders persisted after a successful gateway order creation.",
	})

	PaymentVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verifications_total",
		Help:      "Payment verification outcomes.",
	}, []string{"result"})

	GatewayRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Latency of payment gateway API calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

const (
	ResultPaid          = "paid"
	ResultAlreadyPaid   = "already_paid"
	ResultFailed        = "failed"
	ResultError         = "error"
	OutcomeSuccess      = "success"
	OutcomeError        = "error"
	OutcomeTimeout      = "timeout"
	OperationCreate     = "create_order"
	OperationVerifySign = "verify_signature"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		OrdersCreated,
		PaymentVerifications,
		GatewayRequestDuration,
		HTTPRequests,
		HTTPRequestDuration,
	)
}
