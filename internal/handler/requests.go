// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import (
	"log/slog"

	"github.com/holomush/emline/internal/protocol"
	"github.com/holomush/emline/pkg/errutil"
)

// Replier delivers the reply to a request identified by cookie.
type Replier interface {
	Reply(cookie, value string) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(cookie, value string) error

// Reply calls f(cookie, value).
func (f ReplierFunc) Reply(cookie, value string) error { return f(cookie, value) }

// Response is shared by every handler of a single request. Handlers call
// Set to provide the reply and Clear to withdraw it; the last call wins.
type Response struct {
	Request string            // request name
	Args    []string          // arguments after the request name
	Kwargs  map[string]string // keyed arguments, empty unless a handler adds some

	value string
	set   bool
}

// Set records value as the reply.
func (r *Response) Set(value string) {
	r.value = value
	r.set = true
}

// Clear withdraws any reply set so far.
func (r *Response) Clear() {
	r.value = ""
	r.set = false
}

// Value returns the reply and whether one was set.
func (r *Response) Value() (string, bool) {
	return r.value, r.set
}

// RequestHandler is called with the receiver it was registered with and the
// response for the request being dispatched.
type RequestHandler func(receiver any, resp *Response)

// RequestRegistry fans requests out to RequestHandlers and sends at most one
// reply per request.
type RequestRegistry struct {
	Registry[RequestHandler]
	replier Replier
}

// Compile-time interface check.
var _ protocol.RequestSink = (*RequestRegistry)(nil)

// NewRequestRegistry creates an empty request registry that sends replies
// through replier. Panics if replier is nil.
func NewRequestRegistry(replier Replier) *RequestRegistry {
	if replier == nil {
		panic("handler.NewRequestRegistry: replier cannot be nil")
	}
	return &RequestRegistry{
		Registry: newRegistry[RequestHandler](KindRequest),
		replier:  replier,
	}
}

// Dispatch runs every handler whose filter matches request, in priority
// order. If none of them set a reply it returns false and nothing is sent.
// Otherwise the reply is delivered for cookie exactly once and Dispatch
// returns true. Reply delivery failures are logged and counted.
func (r *RequestRegistry) Dispatch(cookie, request string, args []string) bool {
	resp := &Response{
		Request: request,
		Args:    args,
		Kwargs:  make(map[string]string),
	}

	ran := r.each(request, func(_ string, e *entry[RequestHandler]) {
		e.callback(e.receiver, resp)
	})

	value, ok := resp.Value()
	if !ok {
		recordDispatch(KindRequest, false)
		if ran {
			slog.Debug("request handled without reply",
				"request", request,
				"cookie", cookie)
		}
		return false
	}

	recordDispatch(KindRequest, true)
	if err := r.replier.Reply(cookie, value); err != nil {
		recordReply(ReplyStatusError)
		errutil.LogError(slog.Default(), "failed to deliver reply", err)
		return true
	}
	recordReply(ReplyStatusSent)
	return true
}

// OnRequest treats args[0] as the cookie and args[1] as the request name and
// dispatches the rest.
func (r *RequestRegistry) OnRequest(args []string) bool {
	if len(args) < 2 {
		recordDispatch(KindRequest, false)
		return false
	}
	return r.Dispatch(args[0], args[1], args[2:])
}
