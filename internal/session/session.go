// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package session runs the line loop between the host process and the
// handler registries.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/emline/internal/protocol"
	"github.com/holomush/emline/pkg/errutil"
)

var tracer = otel.Tracer("emline/session")

// DefaultMaxLineBytes is the longest line accepted from the host.
const DefaultMaxLineBytes = 1 << 20

// Error codes for the read loop.
const (
	CodeLineTooLong  = "LINE_TOO_LONG"
	CodeReadFailed   = "READ_FAILED"
	CodeHandlerPanic = "HANDLER_PANIC"
)

// Option configures a Session.
type Option func(*Session)

// WithMaxLineBytes sets the longest accepted line. Non-positive values keep
// the default.
func WithMaxLineBytes(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxLineBytes = n
		}
	}
}

// WithLogger sets the logger. The session id is added to it.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session reads protocol lines from the host and dispatches them one at a
// time. Either sink may be nil to ignore that kind of line.
type Session struct {
	id           ulid.ULID
	r            io.Reader
	events       protocol.EventSink
	requests     protocol.RequestSink
	maxLineBytes int
	logger       *slog.Logger
}

// New creates a session reading from r.
func New(r io.Reader, events protocol.EventSink, requests protocol.RequestSink, opts ...Option) *Session {
	s := &Session{
		id:           ulid.Make(),
		r:            r,
		events:       events,
		requests:     requests,
		maxLineBytes: DefaultMaxLineBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id.String())
	return s
}

// ID returns the session id.
func (s *Session) ID() ulid.ULID {
	return s.id
}

// Run dispatches lines until the reader is exhausted, fails, or ctx is
// cancelled. It returns nil at EOF and ctx.Err() on cancellation. Run does
// not close the reader; a read blocked at cancellation ends when the caller
// closes it.
func (s *Session) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "session started")

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go s.read(lines, readErr, done)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session cancelled")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				if err != nil {
					errutil.LogErrorContext(ctx, s.logger, "session read failed", err)
					return err
				}
				s.logger.InfoContext(ctx, "session ended")
				return nil
			}
			s.handleLine(ctx, line)
		}
	}
}

func (s *Session) read(lines chan<- string, readErr chan<- error, done <-chan struct{}) {
	defer close(lines)

	scanner := bufio.NewScanner(s.r)
	initial := min(64*1024, s.maxLineBytes)
	scanner.Buffer(make([]byte, 0, initial), s.maxLineBytes)

	for scanner.Scan() {
		select {
		case lines <- strings.TrimSuffix(scanner.Text(), "\r"):
		case <-done:
			readErr <- nil
			return
		}
	}

	err := scanner.Err()
	switch {
	case err == nil:
		readErr <- nil
	case errors.Is(err, bufio.ErrTooLong):
		readErr <- oops.In("session").
			Code(CodeLineTooLong).
			With("max_line_bytes", s.maxLineBytes).
			Wrapf(err, "line exceeds %d bytes", s.maxLineBytes)
	default:
		readErr <- oops.In("session").Code(CodeReadFailed).Wrap(err)
	}
}

// handleLine dispatches one line inside a span. A handler panic is recovered,
// logged and counted; the loop continues with the next line.
func (s *Session) handleLine(ctx context.Context, line string) {
	parsed, _ := protocol.Parse(line)
	kind := parsed.Kind.String()

	attrs := []attribute.KeyValue{attribute.String("line.kind", kind)}
	if parsed.Cookie != "" {
		attrs = append(attrs, attribute.String("line.cookie", parsed.Cookie))
	}
	ctx, span := tracer.Start(ctx, "session.line", trace.WithAttributes(attrs...))
	defer span.End()

	var handled bool
	err := oops.In("session").
		Code(CodeHandlerPanic).
		With("kind", kind).
		With("cookie", parsed.Cookie).
		Recoverf(func() {
			handled = protocol.Dispatch(line, s.events, s.requests)
		}, "handler panicked")
	if err != nil {
		HandlerPanics.Inc()
		recordLine(kind, ResultPanic)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		errutil.LogErrorContext(ctx, s.logger, "handler panicked", err)
		return
	}

	span.SetAttributes(attribute.Bool("line.handled", handled))
	if handled {
		recordLine(kind, ResultHandled)
		return
	}
	recordLine(kind, ResultUnhandled)
	s.logger.DebugContext(ctx, "line not handled", "kind", kind)
}
