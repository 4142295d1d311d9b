// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"io"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/emline/internal/handler"
	"github.com/holomush/emline/internal/protocol"
)

// Error codes for outbound writes.
const (
	CodeInvalidCommand = "INVALID_COMMAND"
	CodeInvalidReply   = "INVALID_REPLY"
	CodeWriteFailed    = "WRITE_FAILED"
)

// Outbox writes commands and replies to the host, one line each.
// It is safe for concurrent use.
type Outbox struct {
	mu sync.Mutex
	w  io.Writer
}

// Compile-time interface check.
var _ handler.Replier = (*Outbox)(nil)

// NewOutbox creates an outbox writing to w.
func NewOutbox(w io.Writer) *Outbox {
	return &Outbox{w: w}
}

// Send writes cmd as a single line. Commands containing a line break are
// rejected.
func (o *Outbox) Send(cmd string) error {
	if strings.ContainsAny(cmd, "\r\n") {
		return oops.In("session").
			Code(CodeInvalidCommand).
			With("command", cmd).
			Errorf("command contains a line break")
	}
	return o.writeLine(cmd)
}

// Reply writes REPLY-<cookie> '<value>' for a request. The value is quoted
// with protocol.QuoteReply.
func (o *Outbox) Reply(cookie, value string) error {
	if cookie == "" || strings.ContainsAny(cookie, " \t\r\n") {
		return oops.In("session").
			Code(CodeInvalidReply).
			With("cookie", cookie).
			Errorf("invalid reply cookie %q", cookie)
	}
	if strings.ContainsAny(value, "\r\n") {
		return oops.In("session").
			Code(CodeInvalidReply).
			With("cookie", cookie).
			Errorf("reply contains a line break")
	}
	return o.writeLine("REPLY-" + cookie + " " + protocol.QuoteReply(value))
}

func (o *Outbox) writeLine(line string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := io.WriteString(o.w, line+"\n"); err != nil {
		return oops.In("session").Code(CodeWriteFailed).Wrap(err)
	}
	return nil
}
