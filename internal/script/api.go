// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package script

import (
	"log/slog"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/emline/internal/handler"
	"github.com/holomush/emline/internal/protocol"
)

// ModuleName is the global the em module is installed under.
const ModuleName = "em"

// register installs the em module in L for bundle lb.
func (h *Host) register(L *lua.LState, lb *loaded) {
	mod := L.NewTable()

	L.SetField(mod, "version", lua.LString(APIVersion))
	L.SetField(mod, "name", lua.LString(lb.bundle.Manifest.Name))

	// Text helpers
	L.SetField(mod, "split", L.NewFunction(splitFn))
	L.SetField(mod, "escape", L.NewFunction(escapeFn))
	L.SetField(mod, "expand", L.NewFunction(expandFn))

	// Handler registration
	L.SetField(mod, "add_event_handler", L.NewFunction(h.addEventHandlerFn(lb)))
	L.SetField(mod, "remove_event_handler", L.NewFunction(h.removeEventHandlerFn(lb)))
	L.SetField(mod, "add_request_handler", L.NewFunction(h.addRequestHandlerFn(lb)))
	L.SetField(mod, "remove_request_handler", L.NewFunction(h.removeRequestHandlerFn(lb)))

	// Host output
	L.SetField(mod, "send", L.NewFunction(h.sendFn()))
	L.SetField(mod, "reply", L.NewFunction(h.replyFn()))
	L.SetField(mod, "log", L.NewFunction(logFn(lb.bundle.Manifest.Name)))

	// Bundle files
	L.SetField(mod, "import", L.NewFunction(h.importFn(lb)))
	L.SetField(mod, "load", L.NewFunction(h.readArea(lb, areaContent)))
	L.SetField(mod, "read", L.NewFunction(h.readArea(lb, areaData)))
	L.SetField(mod, "write", L.NewFunction(h.writeFn(lb)))
	L.SetField(mod, "exists", L.NewFunction(h.existsFn(lb)))
	L.SetField(mod, "mkdir", L.NewFunction(h.mkdirFn(lb)))
	L.SetField(mod, "unlink", L.NewFunction(h.unlinkFn(lb)))

	L.SetGlobal(ModuleName, mod)
}

func splitFn(L *lua.LState) int {
	L.Push(toTable(L, protocol.Split(L.CheckString(1))))
	return 1
}

func escapeFn(L *lua.LState) int {
	L.Push(lua.LString(protocol.Escape(L.CheckString(1))))
	return 1
}

func expandFn(L *lua.LState) int {
	template := L.CheckString(1)
	var args []string
	if t := L.OptTable(2, nil); t != nil {
		args = fromTable(t)
	}
	L.Push(lua.LString(protocol.Expand(template, args)))
	return 1
}

// checkFilter reads a handler filter: true matches everything, a string
// matches one topic. Anything else raises.
func checkFilter(L *lua.LState, n int) handler.Filter {
	switch v := L.Get(n).(type) {
	case lua.LBool:
		if bool(v) {
			return handler.MatchAll()
		}
	case lua.LString:
		return handler.MatchTopic(string(v))
	}
	L.ArgError(n, "filter must be true or a string")
	return handler.Filter{}
}

func (h *Host) addEventHandlerFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		priority := L.CheckInt(2)
		filter := checkFilter(L, 3)
		fn := L.CheckFunction(4)
		receiver := L.Get(5)

		cb := func(recv any, args []string) {
			h.callEvent(lb, name, fn, recv, args)
		}
		ok := h.events.Add(name, priority, filter, cb, receiver)
		if ok {
			lb.events[name] = true
		}
		L.Push(lua.LBool(ok))
		return 1
	}
}

func (h *Host) removeEventHandlerFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		if !lb.events[name] {
			L.Push(lua.LFalse)
			return 1
		}
		delete(lb.events, name)
		L.Push(lua.LBool(h.events.Remove(name)))
		return 1
	}
}

func (h *Host) addRequestHandlerFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		priority := L.CheckInt(2)
		filter := checkFilter(L, 3)
		fn := L.CheckFunction(4)
		receiver := L.Get(5)

		cb := func(recv any, resp *handler.Response) {
			h.callRequest(lb, name, fn, recv, resp)
		}
		ok := h.requests.Add(name, priority, filter, cb, receiver)
		if ok {
			lb.requests[name] = true
		}
		L.Push(lua.LBool(ok))
		return 1
	}
}

func (h *Host) removeRequestHandlerFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		if !lb.requests[name] {
			L.Push(lua.LFalse)
			return 1
		}
		delete(lb.requests, name)
		L.Push(lua.LBool(h.requests.Remove(name)))
		return 1
	}
}

// callEvent invokes a Lua event handler as fn(receiver, args). A Lua error
// panics with a SCRIPT_ERROR so the dispatch is aborted.
func (h *Host) callEvent(lb *loaded, name string, fn *lua.LFunction, recv any, args []string) {
	L := lb.state
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, luaValue(recv), toTable(L, args)); err != nil {
		panic(handlerError(lb, handler.KindEvent, name, err))
	}
}

// callRequest invokes a Lua request handler as fn(receiver, req). Every
// handler of a request sees the response and kwargs left by the previous one;
// setting req.response to nil withdraws the reply. A response that is not a
// string or number raises a SCRIPT_ERROR.
func (h *Host) callRequest(lb *loaded, name string, fn *lua.LFunction, recv any, resp *handler.Response) {
	L := lb.state

	req := L.NewTable()
	L.SetField(req, "request", lua.LString(resp.Request))
	L.SetField(req, "args", toTable(L, resp.Args))
	kwargs := L.NewTable()
	for k, v := range resp.Kwargs {
		L.SetField(kwargs, k, lua.LString(v))
	}
	L.SetField(req, "kwargs", kwargs)
	if v, ok := resp.Value(); ok {
		L.SetField(req, "response", lua.LString(v))
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, luaValue(recv), req); err != nil {
		panic(handlerError(lb, handler.KindRequest, name, err))
	}

	switch v := L.GetField(req, "response").(type) {
	case *lua.LNilType:
		resp.Clear()
	case lua.LString, lua.LNumber:
		resp.Set(v.String())
	default:
		panic(handlerError(lb, handler.KindRequest, name,
			oops.Errorf("response must be a string, got %s", v.Type())))
	}

	clear(resp.Kwargs)
	if t, ok := L.GetField(req, "kwargs").(*lua.LTable); ok {
		t.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				resp.Kwargs[string(ks)] = lua.LVAsString(v)
			}
		})
	}
}

func handlerError(lb *loaded, kind, name string, err error) error {
	recordScriptError(lb.bundle.Manifest.Name)
	return oops.In("script").
		Code(CodeScriptError).
		With("bundle", lb.bundle.Manifest.Name).
		With("registry", kind).
		With("handler", name).
		Wrapf(err, "%s handler %s failed", kind, name)
}

func (h *Host) sendFn() lua.LGFunction {
	return func(L *lua.LState) int {
		cmd := L.CheckString(1)
		if err := h.outbox.Send(cmd); err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, lua.LTrue)
	}
}

func (h *Host) replyFn() lua.LGFunction {
	return func(L *lua.LState) int {
		cookie := L.CheckString(1)
		value := L.CheckString(2)
		if err := h.outbox.Reply(cookie, value); err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, lua.LTrue)
	}
}

func logFn(bundle string) lua.LGFunction {
	return func(L *lua.LState) int {
		level := L.CheckString(1)
		message := L.CheckString(2)

		logger := slog.Default().With("bundle", bundle)
		switch level {
		case "debug":
			logger.Debug(message)
		case "warn":
			logger.Warn(message)
		case "error":
			logger.Error(message)
		default:
			logger.Info(message)
		}
		return 0
	}
}

// importFn runs another file from the bundle once and returns its result.
// Later imports of the same path return the cached result.
func (h *Host) importFn(lb *loaded) lua.LGFunction {
	return func(L *lua.LState) int {
		rel := L.CheckString(1)
		if v, ok := lb.imports[rel]; ok {
			L.Push(v)
			return 1
		}
		ret, err := h.runFile(L, lb, rel)
		if err != nil {
			L.RaiseError("import %s: %s", rel, err.Error())
			return 0
		}
		if ret == lua.LNil {
			ret = lua.LTrue
		}
		lb.imports[rel] = ret
		L.Push(ret)
		return 1
	}
}

// pushError pushes nil followed by an error string and returns 2.
func pushError(L *lua.LState, msg string) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(msg))
	return 2
}

// pushSuccess pushes value followed by nil and returns 2.
func pushSuccess(L *lua.LState, value lua.LValue) int {
	L.Push(value)
	L.Push(lua.LNil)
	return 2
}

func toTable(L *lua.LState, values []string) *lua.LTable {
	t := L.CreateTable(len(values), 0)
	for _, v := range values {
		t.Append(lua.LString(v))
	}
	return t
}

func fromTable(t *lua.LTable) []string {
	n := t.Len()
	values := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		values = append(values, lua.LVAsString(t.RawGetInt(i)))
	}
	return values
}

func luaValue(v any) lua.LValue {
	if lv, ok := v.(lua.LValue); ok && lv != nil {
		return lv
	}
	return lua.LNil
}
