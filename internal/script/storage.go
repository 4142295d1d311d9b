// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package script

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/emline/internal/xdg"
)

// Storage areas under <data dir>/em/<bundle>/. content holds files the user
// installs for the bundle and the directories the bundle creates; data holds
// what the bundle writes with em.write.
const (
	areaContent = "content"
	areaData    = "data"
)

const storageFileMode = 0o600

// storagePath resolves a bundle-relative path inside one storage area.
func (h *Host) storagePath(lb *loaded, area, rel string) (string, error) {
	if h.dataDir == "" {
		return "", oops.In("script").
			With("bundle", lb.bundle.Manifest.Name).
			New("storage not configured")
	}
	if err := ValidatePath(rel); err != nil {
		return "", err
	}
	root := filepath.Join(h.dataDir, "em", lb.bundle.Manifest.Name, area)
	return filepath.Join(root, filepath.FromSlash(rel)), nil
}

// readArea returns a function reading files from area.
func (h *Host) readArea(lb *loaded, area string) lua.LGFunction {
	return func(L *lua.LState) int {
		path, err := h.storagePath(lb, area, L.CheckString(1))
		if err != nil {
			return pushError(L, err.Error())
		}
		data, err := os.ReadFile(path) //nolint:gosec // path is confined to the bundle storage area
		if err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, lua.LString(data))
	}
}

func (h *Host) writeFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		path, err := h.storagePath(lb, areaData, L.CheckString(1))
		if err != nil {
			return pushError(L, err.Error())
		}
		data := L.CheckString(2)
		if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
			return pushError(L, err.Error())
		}
		if err := os.WriteFile(path, []byte(data), storageFileMode); err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, lua.LTrue)
	}
}

func (h *Host) existsFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		path, err := h.storagePath(lb, areaContent, L.CheckString(1))
		if err != nil {
			return pushError(L, err.Error())
		}
		_, err = os.Stat(path)
		switch {
		case err == nil:
			return pushSuccess(L, lua.LTrue)
		case errors.Is(err, fs.ErrNotExist):
			return pushSuccess(L, lua.LFalse)
		default:
			return pushError(L, err.Error())
		}
	}
}

func (h *Host) mkdirFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		path, err := h.storagePath(lb, areaContent, L.CheckString(1))
		if err != nil {
			return pushError(L, err.Error())
		}
		if err := xdg.EnsureDir(path); err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, lua.LTrue)
	}
}

// unlinkFn removes a content path. A missing path is not an error. A
// non-empty directory is removed only when the second argument is true.
func (h *Host) unlinkFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		rel := L.CheckString(1)
		recursive := L.OptBool(2, false)
		path, err := h.storagePath(lb, areaContent, rel)
		if err != nil {
			return pushError(L, err.Error())
		}

		info, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return pushSuccess(L, lua.LTrue)
		}
		if err != nil {
			return pushError(L, err.Error())
		}

		if err := os.Remove(path); err != nil {
			if !info.IsDir() {
				return pushError(L, err.Error())
			}
			if !recursive {
				return pushError(L, "not removing a non-empty directory: "+rel)
			}
			if err := os.RemoveAll(path); err != nil {
				return pushError(L, err.Error())
			}
		}
		return pushSuccess(L, lua.LTrue)
	}
}
