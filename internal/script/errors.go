// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import "github.com/samber/oops"

// Error codes for bundle loading and execution failures.
const (
	CodeInvalidManifest = "INVALID_MANIFEST"
	CodeAPIMismatch     = "API_MISMATCH"
	CodeInvalidPath     = "INVALID_PATH"
	CodeInvalidPattern  = "INVALID_PATTERN"
	CodeScriptError     = "SCRIPT_ERROR"
	CodeBundleLoaded    = "BUNDLE_ALREADY_LOADED"
	CodeHostClosed      = "HOST_CLOSED"

	CodeInvalidBundleConfig = "INVALID_BUNDLE_CONFIG"
)

// ErrInvalidManifest creates an error for a manifest that fails validation.
func ErrInvalidManifest(reason string, args ...any) error {
	return oops.In("script").
		Code(CodeInvalidManifest).
		Errorf(reason, args...)
}

// ErrInvalidPath creates an error for a bundle-relative path that escapes
// the bundle or is absolute.
func ErrInvalidPath(path string) error {
	return oops.In("script").
		Code(CodeInvalidPath).
		With("path", path).
		Errorf("invalid path: %s", path)
}
