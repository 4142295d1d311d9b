// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import "github.com/holomush/emline/internal/protocol"

// EventHandler is called with the receiver it was registered with and the
// event arguments, excluding the event name.
type EventHandler func(receiver any, args []string)

// EventRegistry fans events out to EventHandlers.
type EventRegistry struct {
	Registry[EventHandler]
}

// Compile-time interface check.
var _ protocol.EventSink = (*EventRegistry)(nil)

// NewEventRegistry creates an empty event registry.
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{Registry: newRegistry[EventHandler](KindEvent)}
}

// Dispatch runs every handler whose filter matches topic, in priority order,
// and reports whether any ran. A panicking handler aborts the dispatch.
func (r *EventRegistry) Dispatch(topic string, args []string) bool {
	ran := r.each(topic, func(_ string, e *entry[EventHandler]) {
		e.callback(e.receiver, args)
	})
	recordDispatch(KindEvent, ran)
	return ran
}

// OnEvent treats args[0] as the event name and dispatches the rest.
func (r *EventRegistry) OnEvent(args []string) bool {
	if len(args) == 0 {
		recordDispatch(KindEvent, false)
		return false
	}
	return r.Dispatch(args[0], args[1:])
}
