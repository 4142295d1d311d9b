// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package script

import (
	"log/slog"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// Default limits for bundle states.
const (
	DefaultCallStackSize = 256
	DefaultRegistrySize  = 4096
	DefaultRegistryMax   = 64 * 1024
)

// bundleLibraries are opened in every bundle state. os, io, debug and
// package are never opened.
var bundleLibraries = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// removedGlobals reach the filesystem or compile arbitrary chunks. Bundles
// load more code through em.import.
var removedGlobals = []string{"require", "dofile", "loadfile", "loadstring", "load"}

// StateFactory creates the sandboxed Lua states bundles run in.
type StateFactory struct {
	callStackSize int
	registrySize  int
	registryMax   int
}

// FactoryOption configures a StateFactory.
type FactoryOption func(*StateFactory)

// WithCallStackSize limits the Lua call depth of each bundle.
func WithCallStackSize(n int) FactoryOption {
	return func(f *StateFactory) {
		if n > 0 {
			f.callStackSize = n
		}
	}
}

// WithRegistrySize sets the initial and maximum size of each bundle's value
// stack.
func WithRegistrySize(initial, maximum int) FactoryOption {
	return func(f *StateFactory) {
		if initial > 0 {
			f.registrySize = initial
		}
		if maximum >= f.registrySize {
			f.registryMax = maximum
		}
	}
}

// NewStateFactory creates a factory with the default limits.
func NewStateFactory(opts ...FactoryOption) *StateFactory {
	f := &StateFactory{
		callStackSize: DefaultCallStackSize,
		registrySize:  DefaultRegistrySize,
		registryMax:   DefaultRegistryMax,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.registryMax < f.registrySize {
		f.registryMax = f.registrySize
	}
	return f
}

// NewState creates a state for bundle. Only the base, table, string and math
// libraries are available, and print writes to the log with the bundle name
// attached.
func (f *StateFactory) NewState(bundle string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:    true,
		CallStackSize:   f.callStackSize,
		RegistrySize:    f.registrySize,
		RegistryMaxSize: f.registryMax,
	})

	for _, lib := range bundleLibraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.In("script").
				Code(CodeScriptError).
				With("bundle", bundle).
				With("library", lib.name).
				Wrapf(err, "open library %s", lib.name)
		}
	}

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(printFn(bundle)))

	return L, nil
}

// printFn logs its arguments joined by tabs, the way print would write them.
func printFn(bundle string) lua.LGFunction {
	return func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		slog.Info(strings.Join(parts, "\t"), "bundle", bundle, "source", "print")
		return 0
	}
}
