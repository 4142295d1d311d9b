// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	events   [][]string
	requests [][]string
	result   bool
}

func (r *recordingSink) OnEvent(args []string) bool {
	r.events = append(r.events, args)
	return r.result
}

func (r *recordingSink) OnRequest(args []string) bool {
	r.requests = append(r.requests, args)
	return r.result
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Line
		wantOK bool
	}{
		{
			name:   "event",
			input:  `EVENT [main] LOAD_COMMIT "http://x"`,
			want:   Line{Kind: KindEvent, Payload: `LOAD_COMMIT "http://x"`},
			wantOK: true,
		},
		{
			name:   "event with empty instance",
			input:  "EVENT [] PING",
			want:   Line{Kind: KindEvent, Payload: "PING"},
			wantOK: true,
		},
		{
			name:   "request",
			input:  "REQUEST-42 [main] get_title a",
			want:   Line{Kind: KindRequest, Cookie: "42", Payload: "get_title a"},
			wantOK: true,
		},
		{
			name:  "missing instance brackets",
			input: "EVENT PING",
		},
		{
			name:  "request without cookie",
			input: "REQUEST- [main] x",
		},
		{
			name:  "reply is not an incoming line",
			input: "REPLY-42 'x'",
		},
		{
			name:  "leading space",
			input: " EVENT [main] PING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "event", KindEvent.String())
	assert.Equal(t, "request", KindRequest.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestDispatch_EventWithEventSink(t *testing.T) {
	sink := &recordingSink{result: true}

	ok := Dispatch(`EVENT [ctx] foo "bar baz"`, sink, nil)

	assert.True(t, ok)
	assert.Equal(t, [][]string{{"foo", "bar baz"}}, sink.events)
}

func TestDispatch_EventWithoutEventSink(t *testing.T) {
	sink := &recordingSink{result: true}

	ok := Dispatch(`EVENT [ctx] foo "bar baz"`, nil, sink)

	assert.False(t, ok)
	assert.Empty(t, sink.requests)
}

func TestDispatch_RequestPrependsCookie(t *testing.T) {
	sink := &recordingSink{result: true}

	ok := Dispatch(`REQUEST-c1 [ctx] get 'a b' c`, sink, sink)

	assert.True(t, ok)
	assert.Empty(t, sink.events)
	assert.Equal(t, [][]string{{"c1", "get", "a b", "c"}}, sink.requests)
}

func TestDispatch_RequestWithoutRequestSink(t *testing.T) {
	sink := &recordingSink{result: true}

	assert.False(t, Dispatch("REQUEST-c1 [ctx] get", sink, nil))
	assert.Empty(t, sink.events)
}

func TestDispatch_ReturnsSinkResult(t *testing.T) {
	sink := &recordingSink{result: false}

	assert.False(t, Dispatch("EVENT [x] PING", sink, sink))
	assert.Len(t, sink.events, 1)
}

func TestDispatch_UnmatchedLine(t *testing.T) {
	sink := &recordingSink{result: true}

	assert.False(t, Dispatch("garbage", sink, sink))
	assert.Empty(t, sink.events)
	assert.Empty(t, sink.requests)
}

func TestDispatch_EmptyPayload(t *testing.T) {
	sink := &recordingSink{result: true}

	Dispatch("EVENT [x] ", sink, nil)

	assert.Equal(t, [][]string{{}}, sink.events)
}

func TestDispatch_FuncAdapters(t *testing.T) {
	var gotEvent, gotRequest []string
	events := EventFunc(func(args []string) bool {
		gotEvent = args
		return true
	})
	requests := RequestFunc(func(args []string) bool {
		gotRequest = args
		return true
	})

	assert.True(t, Dispatch("EVENT [x] A b", events, requests))
	assert.True(t, Dispatch("REQUEST-7 [x] B c", events, requests))

	assert.Equal(t, []string{"A", "b"}, gotEvent)
	assert.Equal(t, []string{"7", "B", "c"}, gotRequest)
}
