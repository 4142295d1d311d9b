// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package script

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// Bundle configuration lives at <config dir>/em/<bundle>/config.json and is
// exposed to the bundle as the config global.
const (
	BundleConfigFile = "config.json"
	ConfigGlobal     = "config"
)

// bundleConfigPath returns where the configuration for bundle is read from.
func (h *Host) bundleConfigPath(bundle string) string {
	return filepath.Join(h.configDir, "em", bundle, BundleConfigFile)
}

// loadBundleConfig sets the config global from the bundle's config file. A
// missing file, or a host without a config dir, leaves config unset.
func (h *Host) loadBundleConfig(L *lua.LState, lb *loaded) error {
	if h.configDir == "" {
		return nil
	}
	name := lb.bundle.Manifest.Name
	path := h.bundleConfigPath(name)

	data, err := os.ReadFile(path) //nolint:gosec // path is built from the config dir and a validated bundle name
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return oops.In("script").
			Code(CodeInvalidBundleConfig).
			With("bundle", name).
			With("path", path).
			Wrapf(err, "read bundle config")
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return oops.In("script").
			Code(CodeInvalidBundleConfig).
			With("bundle", name).
			With("path", path).
			Wrapf(err, "parse bundle config")
	}
	L.SetGlobal(ConfigGlobal, fromJSON(L, value))
	return nil
}

// fromJSON converts a decoded JSON value to Lua. Arrays become sequences and
// objects become tables keyed by string; null becomes nil.
func fromJSON(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case bool:
		return lua.LBool(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []any:
		t := L.CreateTable(len(x), 0)
		for i, e := range x {
			t.RawSetInt(i+1, fromJSON(L, e))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(x))
		for k, e := range x {
			t.RawSetString(k, fromJSON(L, e))
		}
		return t
	default:
		return lua.LNil
	}
}
