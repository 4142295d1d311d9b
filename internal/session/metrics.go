// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import "github.com/prometheus/client_golang/prometheus"

// Line results.
const (
	ResultHandled   = "handled"
	ResultUnhandled = "unhandled"
	ResultPanic     = "panic"
)

// LinesTotal counts lines read from the host by kind and result.
var LinesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emline_lines_total",
		Help: "Total number of protocol lines processed by kind and result",
	},
	[]string{"kind", "result"},
)

// HandlerPanics counts handler panics recovered by the session loop.
var HandlerPanics = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "emline_handler_panics_total",
		Help: "Total number of handler panics recovered while dispatching a line",
	},
)

// RegisterMetrics registers session metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LinesTotal)
	reg.MustRegister(HandlerPanics)
}

func recordLine(kind, result string) {
	LinesTotal.WithLabelValues(kind, result).Inc()
}
