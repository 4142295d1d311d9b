// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

// Filter selects which event or request names a handler runs for. It is
// either match-all or an exact name; the zero value matches only the empty
// name.
type Filter struct {
	topic string
	all   bool
}

// MatchAll returns a filter that matches every name.
func MatchAll() Filter {
	return Filter{all: true}
}

// MatchTopic returns a filter that matches exactly topic.
func MatchTopic(topic string) Filter {
	return Filter{topic: topic}
}

// All reports whether f matches every name.
func (f Filter) All() bool {
	return f.all
}

// Topic returns the name f matches. It is empty for match-all filters.
func (f Filter) Topic() string {
	return f.topic
}

// Matches reports whether a handler with this filter runs for topic.
func (f Filter) Matches(topic string) bool {
	return f.all || f.topic == topic
}

func (f Filter) String() string {
	if f.all {
		return "*"
	}
	return f.topic
}
