// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package handler provides the priority-ordered callback registries that
// EVENT and REQUEST lines are fanned out to.
package handler

import (
	"cmp"
	"log/slog"
	"slices"
)

// Registry kinds, used in logs and metric labels.
const (
	KindEvent   = "event"
	KindRequest = "request"
)

type entry[F any] struct {
	filter   Filter
	callback F
	receiver any
}

type orderKey struct {
	name     string
	priority int
}

// Registry is a named set of callbacks kept in ascending priority order.
// Handlers with equal priority keep their insertion order.
//
// Registry is not safe for concurrent use. Handlers may add or remove
// entries while a dispatch is running: removed handlers are skipped, added
// ones take effect on the next dispatch.
type Registry[F any] struct {
	kind    string
	entries map[string]*entry[F]
	order   []orderKey
}

func newRegistry[F any](kind string) Registry[F] {
	return Registry[F]{
		kind:    kind,
		entries: make(map[string]*entry[F]),
	}
}

// Add registers callback under name. It returns false and leaves the
// registry unchanged if name is already registered.
func (r *Registry[F]) Add(name string, priority int, filter Filter, callback F, receiver any) bool {
	if _, exists := r.entries[name]; exists {
		slog.Warn("handler already registered",
			"registry", r.kind,
			"handler", name)
		return false
	}

	r.entries[name] = &entry[F]{
		filter:   filter,
		callback: callback,
		receiver: receiver,
	}

	// In-flight dispatches iterate the previous slice; never mutate it.
	order := make([]orderKey, len(r.order), len(r.order)+1)
	copy(order, r.order)
	order = append(order, orderKey{name: name, priority: priority})
	slices.SortStableFunc(order, func(a, b orderKey) int {
		return cmp.Compare(a.priority, b.priority)
	})
	r.order = order

	slog.Debug("handler registered",
		"registry", r.kind,
		"handler", name,
		"priority", priority,
		"filter", filter.String())
	return true
}

// Remove unregisters name. It returns false if name is not registered.
func (r *Registry[F]) Remove(name string) bool {
	if _, exists := r.entries[name]; !exists {
		return false
	}
	delete(r.entries, name)

	order := make([]orderKey, 0, len(r.order))
	for _, k := range r.order {
		if k.name != name {
			order = append(order, k)
		}
	}
	r.order = order

	slog.Debug("handler removed", "registry", r.kind, "handler", name)
	return true
}

// Has reports whether name is registered.
func (r *Registry[F]) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Len returns the number of registered handlers.
func (r *Registry[F]) Len() int {
	return len(r.entries)
}

// Names returns handler names in dispatch order.
func (r *Registry[F]) Names() []string {
	names := make([]string, len(r.order))
	for i, k := range r.order {
		names[i] = k.name
	}
	return names
}

// each calls fn for every handler matching topic, in priority order, and
// reports whether any matched.
func (r *Registry[F]) each(topic string, fn func(name string, e *entry[F])) bool {
	ran := false
	for _, k := range r.order {
		e, ok := r.entries[k.name]
		if !ok || !e.filter.Matches(topic) {
			continue
		}
		recordInvocation(r.kind, k.name)
		fn(k.name, e)
		ran = true
	}
	return ran
}
