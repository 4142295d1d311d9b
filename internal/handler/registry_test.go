// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	all := MatchAll()
	assert.True(t, all.All())
	assert.True(t, all.Matches("LOAD_START"))
	assert.True(t, all.Matches(""))
	assert.Equal(t, "*", all.String())

	topic := MatchTopic("LOAD_START")
	assert.False(t, topic.All())
	assert.Equal(t, "LOAD_START", topic.Topic())
	assert.True(t, topic.Matches("LOAD_START"))
	assert.False(t, topic.Matches("LOAD_FINISH"))
	assert.Equal(t, "LOAD_START", topic.String())

	var zero Filter
	assert.True(t, zero.Matches(""))
	assert.False(t, zero.Matches("x"))
}

func TestRegistry_AddOrdersByPriority(t *testing.T) {
	r := NewEventRegistry()

	require.True(t, r.Add("a", 5, MatchAll(), func(any, []string) {}, nil))
	require.True(t, r.Add("b", 1, MatchAll(), func(any, []string) {}, nil))

	assert.Equal(t, []string{"b", "a"}, r.Names())
}

func TestRegistry_EqualPrioritiesKeepInsertionOrder(t *testing.T) {
	r := NewEventRegistry()
	for _, name := range []string{"first", "second", "third"} {
		require.True(t, r.Add(name, 10, MatchAll(), func(any, []string) {}, nil))
	}
	require.True(t, r.Add("early", -1, MatchAll(), func(any, []string) {}, nil))
	require.True(t, r.Add("fourth", 10, MatchAll(), func(any, []string) {}, nil))

	assert.Equal(t, []string{"early", "first", "second", "third", "fourth"}, r.Names())
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	r := NewEventRegistry()
	var calls []string

	require.True(t, r.Add("a", 5, MatchAll(), func(any, []string) { calls = append(calls, "original") }, nil))
	assert.False(t, r.Add("a", 0, MatchAll(), func(any, []string) { calls = append(calls, "replacement") }, nil))

	assert.Equal(t, 1, r.Len())
	r.Dispatch("X", nil)
	assert.Equal(t, []string{"original"}, calls)
}

func TestRegistry_Remove(t *testing.T) {
	r := NewEventRegistry()
	require.True(t, r.Add("a", 1, MatchAll(), func(any, []string) {}, nil))
	require.True(t, r.Add("b", 2, MatchAll(), func(any, []string) {}, nil))

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Has("a"))
	assert.Equal(t, []string{"b"}, r.Names())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RemoveMissing(t *testing.T) {
	r := NewEventRegistry()
	require.True(t, r.Add("a", 1, MatchAll(), func(any, []string) {}, nil))

	assert.False(t, r.Remove("nope"))
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestRegistry_ReAddAfterRemove(t *testing.T) {
	r := NewEventRegistry()
	require.True(t, r.Add("a", 1, MatchAll(), func(any, []string) {}, nil))
	require.True(t, r.Remove("a"))

	assert.True(t, r.Add("a", 3, MatchAll(), func(any, []string) {}, nil))
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestEventRegistry_DispatchOrderAndFilter(t *testing.T) {
	r := NewEventRegistry()
	var calls []string
	record := func(name string) EventHandler {
		return func(_ any, _ []string) { calls = append(calls, name) }
	}

	require.True(t, r.Add("a", 5, MatchAll(), record("a"), nil))
	require.True(t, r.Add("b", 1, MatchAll(), record("b"), nil))
	require.True(t, r.Add("only-load", 3, MatchTopic("LOAD_START"), record("only-load"), nil))

	assert.True(t, r.Dispatch("LOAD_START", nil))
	assert.Equal(t, []string{"b", "only-load", "a"}, calls)

	calls = nil
	assert.True(t, r.Dispatch("OTHER", nil))
	assert.Equal(t, []string{"b", "a"}, calls)
}

func TestEventRegistry_DispatchPassesReceiverAndArgs(t *testing.T) {
	r := NewEventRegistry()
	type counter struct{ n int }
	recv := &counter{}
	var gotArgs []string

	require.True(t, r.Add("count", 0, MatchTopic("TICK"), func(receiver any, args []string) {
		receiver.(*counter).n++
		gotArgs = args
	}, recv))

	r.Dispatch("TICK", []string{"1", "2"})
	r.Dispatch("TICK", nil)

	assert.Equal(t, 2, recv.n)
	assert.Nil(t, gotArgs)
}

func TestEventRegistry_DispatchWithoutMatch(t *testing.T) {
	r := NewEventRegistry()
	require.True(t, r.Add("a", 0, MatchTopic("A"), func(any, []string) {}, nil))

	assert.False(t, r.Dispatch("B", nil))
	assert.False(t, NewEventRegistry().Dispatch("A", nil))
}

func TestEventRegistry_OnEventSplitsTopic(t *testing.T) {
	r := NewEventRegistry()
	var got []string
	require.True(t, r.Add("a", 0, MatchTopic("foo"), func(_ any, args []string) { got = args }, nil))

	assert.True(t, r.OnEvent([]string{"foo", "bar baz"}))
	assert.Equal(t, []string{"bar baz"}, got)

	assert.False(t, r.OnEvent(nil))
}

func TestEventRegistry_PanicAbortsDispatch(t *testing.T) {
	r := NewEventRegistry()
	var calls []string
	require.True(t, r.Add("boom", 0, MatchAll(), func(any, []string) { panic("handler failed") }, nil))
	require.True(t, r.Add("after", 1, MatchAll(), func(any, []string) { calls = append(calls, "after") }, nil))

	assert.PanicsWithValue(t, "handler failed", func() { r.Dispatch("X", nil) })
	assert.Empty(t, calls)
}

func TestEventRegistry_RemoveDuringDispatchSkipsHandler(t *testing.T) {
	r := NewEventRegistry()
	var calls []string
	require.True(t, r.Add("remover", 0, MatchAll(), func(any, []string) {
		calls = append(calls, "remover")
		r.Remove("victim")
	}, nil))
	require.True(t, r.Add("victim", 1, MatchAll(), func(any, []string) { calls = append(calls, "victim") }, nil))

	assert.True(t, r.Dispatch("X", nil))
	assert.Equal(t, []string{"remover"}, calls)
}

func TestEventRegistry_AddDuringDispatchRunsNextTime(t *testing.T) {
	r := NewEventRegistry()
	var calls []string
	require.True(t, r.Add("adder", 0, MatchAll(), func(any, []string) {
		calls = append(calls, "adder")
		r.Add("late", 1, MatchAll(), func(any, []string) { calls = append(calls, "late") }, nil)
	}, nil))

	r.Dispatch("X", nil)
	assert.Equal(t, []string{"adder"}, calls)

	calls = nil
	r.Dispatch("X", nil)
	assert.Equal(t, []string{"adder", "late"}, calls)
}
