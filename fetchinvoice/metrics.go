package fetchinvoice

import "github.com/prometheus/client_golang/prometheus"

// metrics are the engine's prometheus counters and gauge, registered by
// the embedding binary (cmd/offerd follows lnd.go's pattern of wiring
// subsystem collectors centrally at startup).
var (
	requestsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lnoffer",
		Subsystem: "fetchinvoice",
		Name:      "requests_sent_total",
		Help:      "Total invoice_requests sent.",
	})

	requestsTimedOut = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lnoffer",
		Subsystem: "fetchinvoice",
		Name:      "requests_timed_out_total",
		Help:      "Total requests that hit their deadline with no reply.",
	})

	invoicesValidated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lnoffer",
		Subsystem: "fetchinvoice",
		Name:      "invoices_validated_total",
		Help:      "Total invoices that passed validation.",
	})

	invoicesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lnoffer",
		Subsystem: "fetchinvoice",
		Name:      "invoices_rejected_total",
		Help:      "Total invoices rejected, labeled by the failing field.",
	}, []string{"field"})

	outstandingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lnoffer",
		Subsystem: "fetchinvoice",
		Name:      "outstanding_requests",
		Help:      "Current count of in-flight invoice_request exchanges.",
	})
)

// MetricsCollectors returns every collector this package registers, for
// the embedding binary's prometheus registry.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		requestsSent, requestsTimedOut, invoicesValidated, invoicesRejected,
		outstandingGauge,
	}
}
