// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import "github.com/prometheus/client_golang/prometheus"

// ScriptErrors counts Lua errors raised by bundle handlers.
var ScriptErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emline_script_errors_total",
		Help: "Total number of Lua errors raised by bundle handlers",
	},
	[]string{"bundle"},
)

// RegisterMetrics registers script metrics with the given registerer.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ScriptErrors)
}

func recordScriptError(bundle string) {
	ScriptErrors.WithLabelValues(bundle).Inc()
}
