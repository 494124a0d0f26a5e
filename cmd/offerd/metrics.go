package main

import (
	"github.com/lightninglabs/lnoffer/fetchinvoice"
	"github.com/prometheus/client_golang/prometheus"
)

// metricsCollectors gathers every lnoffer subsystem's prometheus
// collectors. offerd's commands are short-lived CLI invocations rather
// than a long-running daemon, so registering them here doesn't yet serve
// an HTTP endpoint; a persistent offerd mode would add a --metrics-addr
// flag and expose this same registry over promhttp.
func metricsCollectors() []prometheus.Collector {
	return fetchinvoice.MetricsCollectors()
}
