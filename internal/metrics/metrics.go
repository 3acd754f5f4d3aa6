// Package metrics provides the facilitator's request counters and their
// Prometheus text rendering.
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics holds atomic counters for the facilitator endpoints.
type Metrics struct {
	verifyRequestsTotal atomic.Uint64
	settleRequestsTotal atomic.Uint64
	verifyErrorsTotal   atomic.Uint64
	settleErrorsTotal   atomic.Uint64
	rateLimitHitsTotal  atomic.Uint64
	rpcCallsTotal       atomic.Uint64
	rpcErrorsTotal      atomic.Uint64
}

// New creates a metrics collector.
func New() *Metrics {
	return &Metrics{}
}

// ObserveVerify records a verify request and its outcome.
func (m *Metrics) ObserveVerify(err error) {
	m.verifyRequestsTotal.Add(1)
	if err != nil {
		m.verifyErrorsTotal.Add(1)
	}
}

// ObserveSettle records a settle request and its outcome.
func (m *Metrics) ObserveSettle(err error) {
	m.settleRequestsTotal.Add(1)
	if err != nil {
		m.settleErrorsTotal.Add(1)
	}
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit() {
	m.rateLimitHitsTotal.Add(1)
}

// ObserveRPCCall records an RPC call to the Miden node.
func (m *Metrics) ObserveRPCCall(err error) {
	m.rpcCallsTotal.Add(1)
	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// counter is one rendered Prometheus counter.
type counter struct {
	name  string
	help  string
	value uint64
}

// Render produces the Prometheus text exposition of all counters.
func (m *Metrics) Render() string {
	counters := []counter{
		{"verify_requests_total", "Total number of verify requests received.", m.verifyRequestsTotal.Load()},
		{"settle_requests_total", "Total number of settle requests received.", m.settleRequestsTotal.Load()},
		{"verify_errors_total", "Total number of verify errors.", m.verifyErrorsTotal.Load()},
		{"settle_errors_total", "Total number of settle errors.", m.settleErrorsTotal.Load()},
		{"rate_limit_hits_total", "Total number of rate limited requests.", m.rateLimitHitsTotal.Load()},
		{"miden_rpc_calls_total", "Total number of RPC calls to the Miden node.", m.rpcCallsTotal.Load()},
		{"miden_rpc_errors_total", "Total number of failed RPC calls to the Miden node.", m.rpcErrorsTotal.Load()},
	}

	var b strings.Builder
	for _, c := range counters {
		fmt.Fprintf(&b, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(&b, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(&b, "%s %d\n", c.name, c.value)
	}
	return b.String()
}
