// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import "github.com/prometheus/client_golang/prometheus"

// Dispatch results.
const (
	ResultHandled   = "handled"
	ResultUnhandled = "unhandled"
)

// Reply statuses.
const (
	ReplyStatusSent  = "sent"
	ReplyStatusError = "error"
)

// HandlerInvocations counts handler calls.
// Use RegisterMetrics to register this with a Prometheus registry.
var HandlerInvocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emline_handler_invocations_total",
		Help: "Total number of handler invocations",
	},
	[]string{"registry", "handler"},
)

// Dispatches counts registry dispatches by outcome. For requests a dispatch
// is handled only when a reply was produced.
var Dispatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emline_dispatch_total",
		Help: "Total number of registry dispatches by outcome",
	},
	[]string{"registry", "result"},
)

// Replies counts reply deliveries.
var Replies = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emline_replies_total",
		Help: "Total number of request replies by delivery status",
	},
	[]string{"status"},
)

// RegisterMetrics registers handler package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HandlerInvocations)
	reg.MustRegister(Dispatches)
	reg.MustRegister(Replies)
}

func recordInvocation(registry, name string) {
	HandlerInvocations.WithLabelValues(registry, name).Inc()
}

func recordDispatch(registry string, handled bool) {
	result := ResultUnhandled
	if handled {
		result = ResultHandled
	}
	Dispatches.WithLabelValues(registry, result).Inc()
}

func recordReply(status string) {
	Replies.WithLabelValues(status).Inc()
}
