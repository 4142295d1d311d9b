// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// CodeDialFailed is returned when the host socket cannot be reached.
const CodeDialFailed = "DIAL_FAILED"

// maxDialBackoff caps the delay between dial attempts.
const maxDialBackoff = 5 * time.Second

// Dial connects to the host socket, retrying with exponential backoff
// starting at base. At most attempts connections are tried; values below
// one mean a single attempt.
func Dial(ctx context.Context, network, addr string, attempts int, base time.Duration) (net.Conn, error) {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	backoff := retry.NewExponential(base)
	backoff = retry.WithCappedDuration(maxDialBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(attempts-1), backoff)

	var conn net.Conn
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var d net.Dialer
		c, err := d.DialContext(ctx, network, addr)
		if err != nil {
			slog.DebugContext(ctx, "dial failed",
				"network", network,
				"addr", addr,
				"attempt", attempt,
				"error", err)
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, oops.In("session").
			Code(CodeDialFailed).
			With("network", network).
			With("addr", addr).
			With("attempts", attempt).
			Wrap(err)
	}

	slog.DebugContext(ctx, "connected to host", "network", network, "addr", addr, "attempt", attempt)
	return conn, nil
}
