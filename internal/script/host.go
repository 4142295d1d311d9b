// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package script loads Lua event-manager bundles and binds them to the
// handler registries.
package script

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/emline/internal/handler"
)

// Outbox carries commands and replies from scripts back to the host process.
type Outbox interface {
	Send(cmd string) error
	Reply(cookie, value string) error
}

// Option configures a Host.
type Option func(*Host)

// WithDataDir sets the root of bundle-private storage. Without it the em
// storage functions report an error.
func WithDataDir(dir string) Option {
	return func(h *Host) {
		h.dataDir = dir
	}
}

// WithConfigDir sets the directory bundle config.json files are read from.
// Without it bundles get no config global.
func WithConfigDir(dir string) Option {
	return func(h *Host) {
		h.configDir = dir
	}
}

// WithStateFactory overrides the factory used to create bundle states.
func WithStateFactory(f *StateFactory) Option {
	return func(h *Host) {
		h.factory = f
	}
}

// loaded is a running bundle: its Lua state and the handler names it owns.
type loaded struct {
	bundle   Bundle
	state    *lua.LState
	events   map[string]bool
	requests map[string]bool
	imports  map[string]lua.LValue
}

// Host runs script bundles. Each bundle gets its own sandboxed Lua state that
// lives until the bundle is unloaded.
//
// Handlers registered by bundles are invoked from the dispatching goroutine.
// Lua states are not safe for concurrent use, so a Host must be driven by a
// single dispatch loop.
type Host struct {
	factory   *StateFactory
	events    *handler.EventRegistry
	requests  *handler.RequestRegistry
	outbox    Outbox
	dataDir   string
	configDir string

	mu      sync.Mutex
	bundles map[string]*loaded
	closed  bool
}

// NewHost creates a host that registers bundle handlers in events and
// requests and sends their output through outbox. Panics if any of them is
// nil.
func NewHost(events *handler.EventRegistry, requests *handler.RequestRegistry, outbox Outbox, opts ...Option) *Host {
	if events == nil || requests == nil {
		panic("script.NewHost: registries cannot be nil")
	}
	if outbox == nil {
		panic("script.NewHost: outbox cannot be nil")
	}
	h := &Host{
		factory:  NewStateFactory(),
		events:   events,
		requests: requests,
		outbox:   outbox,
		bundles:  make(map[string]*loaded),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load starts a bundle: it checks the manifest against the host API version,
// creates the bundle state, sets its config global and runs the entry file. On failure every handler
// the bundle registered is removed again.
func (h *Host) Load(ctx context.Context, b Bundle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if b.Manifest == nil {
		return ErrInvalidManifest("bundle in %s has no manifest", b.Dir)
	}
	name := b.Manifest.Name
	if h.closed {
		return oops.In("script").Code(CodeHostClosed).With("bundle", name).New("host is closed")
	}
	if _, ok := h.bundles[name]; ok {
		return oops.In("script").Code(CodeBundleLoaded).With("bundle", name).Errorf("bundle %s already loaded", name)
	}
	if err := b.Manifest.CheckAPI(APIVersion); err != nil {
		return err
	}

	L, err := h.factory.NewState(name)
	if err != nil {
		return err
	}

	lb := &loaded{
		bundle:   b,
		state:    L,
		events:   make(map[string]bool),
		requests: make(map[string]bool),
		imports:  make(map[string]lua.LValue),
	}
	h.register(L, lb)
	if err := h.loadBundleConfig(L, lb); err != nil {
		h.release(lb)
		return err
	}

	entry := b.Manifest.EntryFile()
	if _, err := h.runFile(L, lb, entry); err != nil {
		h.release(lb)
		return err
	}

	h.bundles[name] = lb
	slog.InfoContext(ctx, "bundle loaded",
		"bundle", name,
		"version", b.Manifest.Version,
		"event_handlers", len(lb.events),
		"request_handlers", len(lb.requests))
	return nil
}

// Unload removes a bundle's handlers and closes its state.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	lb, ok := h.bundles[name]
	if !ok {
		return oops.In("script").With("bundle", name).With("operation", "unload").New("bundle not loaded")
	}
	delete(h.bundles, name)
	h.release(lb)
	return nil
}

// Bundles returns the names of loaded bundles, sorted.
func (h *Host) Bundles() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.bundles))
	for name := range h.bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close unloads every bundle. Further loads fail.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, lb := range h.bundles {
		h.release(lb)
		delete(h.bundles, name)
	}
	h.closed = true
	return nil
}

func (h *Host) release(lb *loaded) {
	for name := range lb.events {
		h.events.Remove(name)
	}
	for name := range lb.requests {
		h.requests.Remove(name)
	}
	lb.state.Close()
}

// runFile executes a bundle-relative Lua file and returns its first result.
func (h *Host) runFile(L *lua.LState, lb *loaded, rel string) (lua.LValue, error) {
	name := lb.bundle.Manifest.Name
	if err := ValidatePath(rel); err != nil {
		return lua.LNil, err
	}

	path := filepath.Join(lb.bundle.Dir, filepath.FromSlash(rel))
	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return lua.LNil, oops.In("script").
			Code(CodeScriptError).
			With("bundle", name).
			With("path", rel).
			Hint("failed to read script file").
			Wrap(err)
	}

	fn, err := L.LoadString(string(code))
	if err != nil {
		return lua.LNil, oops.In("script").
			Code(CodeScriptError).
			With("bundle", name).
			With("path", rel).
			Hint("syntax error").
			Wrap(err)
	}

	top := L.GetTop()
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return lua.LNil, oops.In("script").
			Code(CodeScriptError).
			With("bundle", name).
			With("path", rel).
			Wrap(err)
	}
	ret := L.Get(-1)
	L.SetTop(top)
	return ret, nil
}
