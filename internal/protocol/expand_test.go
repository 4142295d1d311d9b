// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		args     []string
		want     string
	}{
		{
			name:     "no placeholders",
			template: "reload",
			want:     "reload",
		},
		{
			name:     "positional and quoted all-args",
			template: "run %1 %r",
			args:     []string{"foo", "bar baz"},
			want:     "run foo 'foo bar baz'",
		},
		{
			name:     "verbatim all-args",
			template: "uri %s",
			args:     []string{"http://a", "b"},
			want:     "uri http://a b",
		},
		{
			name:     "escaped percent",
			template: "%%done",
			want:     "%done",
		},
		{
			name:     "trailing percent is dropped",
			template: "trailing%",
			want:     "trailing",
		},
		{
			name:     "unknown specifier prints the character",
			template: "a%xb",
			want:     "axb",
		},
		{
			name:     "zero is not a positional placeholder",
			template: "%0",
			args:     []string{"a"},
			want:     "0",
		},
		{
			name:     "missing positional argument expands to empty",
			template: "[%3]",
			args:     []string{"a"},
			want:     "[]",
		},
		{
			name:     "positional argument is escaped",
			template: "echo %1",
			args:     []string{"it's"},
			want:     "echo it''s",
		},
		{
			name:     "all-args escape applies to the joined string",
			template: "%r",
			args:     []string{"a'b", "c'd"},
			want:     "'a''b c'd'",
		},
		{
			name:     "empty args",
			template: "x%sy%ry",
			want:     "xy''y",
		},
		{
			name:     "ninth argument",
			template: "%9",
			args:     []string{"1", "2", "3", "4", "5", "6", "7", "8", "nine"},
			want:     "nine",
		},
		{
			name:     "multibyte character after percent",
			template: "%é!",
			want:     "é!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.template, tt.args))
		})
	}
}

func TestExpand_QuotedArgumentRoundTripsThroughSplit(t *testing.T) {
	for _, arg := range []string{"single", "two words", "tabs\tand spaces"} {
		got := Split(Expand("%r", []string{arg}))
		require.Len(t, got, 1, "arg %q", arg)
		assert.Equal(t, arg, got[0])
	}
}

func TestExpand_PositionalArgumentRoundTripsThroughSplit(t *testing.T) {
	got := Split(Expand("%1", []string{"token"}))
	assert.Equal(t, []string{"token"}, got)
}
