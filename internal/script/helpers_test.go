// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeBundle creates dir/<name> with the given manifest and files.
func writeBundle(t *testing.T, dir, name, manifest string, files map[string]string) string {
	t.Helper()
	bundleDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(bundleDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundleDir, "emscript.yaml"), []byte(manifest), 0o600))
	for rel, content := range files {
		path := filepath.Join(bundleDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return bundleDir
}

type reply struct {
	cookie string
	value  string
}

// recordingOutbox captures everything scripts send.
type recordingOutbox struct {
	sent    []string
	replies []reply
	err     error
}

func (o *recordingOutbox) Send(cmd string) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, cmd)
	return nil
}

func (o *recordingOutbox) Reply(cookie, value string) error {
	if o.err != nil {
		return o.err
	}
	o.replies = append(o.replies, reply{cookie: cookie, value: value})
	return nil
}

var errOutboxClosed = errors.New("outbox closed")
