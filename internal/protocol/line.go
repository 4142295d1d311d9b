// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protocol

import "regexp"

var (
	eventPattern   = regexp.MustCompile(`^EVENT \[[^\]]*\] (.*)$`)
	requestPattern = regexp.MustCompile(`^REQUEST-([^ ]+) \[[^\]]*\] (.*)$`)
)

// Kind identifies the grammar a line matched.
type Kind uint8

// Line kinds.
const (
	KindUnknown Kind = iota
	KindEvent
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Line is a classified protocol line.
type Line struct {
	Kind    Kind
	Cookie  string // set for requests only
	Payload string // text after the bracketed instance field
}

// Parse classifies a raw line. The event grammar is tried before the
// request grammar.
func Parse(line string) (Line, bool) {
	if m := eventPattern.FindStringSubmatch(line); m != nil {
		return Line{Kind: KindEvent, Payload: m[1]}, true
	}
	if m := requestPattern.FindStringSubmatch(line); m != nil {
		return Line{Kind: KindRequest, Cookie: m[1], Payload: m[2]}, true
	}
	return Line{}, false
}

// EventSink receives the split payload of an EVENT line. By convention
// args[0] is the event name.
type EventSink interface {
	OnEvent(args []string) bool
}

// RequestSink receives a REQUEST line as its cookie followed by the split
// payload. By convention args[1] is the request name.
type RequestSink interface {
	OnRequest(args []string) bool
}

// EventFunc adapts a function to EventSink.
type EventFunc func(args []string) bool

// OnEvent calls f(args).
func (f EventFunc) OnEvent(args []string) bool { return f(args) }

// RequestFunc adapts a function to RequestSink.
type RequestFunc func(args []string) bool

// OnRequest calls f(args).
func (f RequestFunc) OnRequest(args []string) bool { return f(args) }

// Dispatch matches line against the EVENT grammar, then the REQUEST grammar,
// and hands the split payload to the corresponding sink. A nil sink disables
// its grammar. Lines that match nothing, or only a disabled grammar, return
// false without side effects. Otherwise the sink's result is returned.
func Dispatch(line string, events EventSink, requests RequestSink) bool {
	if events != nil {
		if m := eventPattern.FindStringSubmatch(line); m != nil {
			return events.OnEvent(Split(m[1]))
		}
	}
	if requests != nil {
		if m := requestPattern.FindStringSubmatch(line); m != nil {
			args := append([]string{m[1]}, Split(m[2])...)
			return requests.OnRequest(args)
		}
	}
	return false
}
