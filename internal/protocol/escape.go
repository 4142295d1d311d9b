// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protocol

import "strings"

// escapeLevel repeats character level times.
type escapeLevel struct {
	character string
	level     int
}

// escapeLevels is applied in order. Backslash comes first so the rules after
// it never see a backslash it introduced.
var escapeLevels = []escapeLevel{
	{character: `\`, level: 3},
	{character: `'`, level: 2},
	{character: `"`, level: 2},
	{character: `@`, level: 1},
}

// Escape prepares a value for embedding as a single host command argument.
//
// Each rule replaces only the first occurrence of its character. Later
// occurrences pass through unchanged, and callers that need every occurrence
// escaped must not rely on Escape for it.
func Escape(s string) string {
	for _, lvl := range escapeLevels {
		s = strings.Replace(s, lvl.character, strings.Repeat(lvl.character, lvl.level), 1)
	}
	return s
}

// QuoteReply renders a reply value as a single-quoted argument. Every
// backslash and single quote is backslash-escaped, so Split on the
// receiving side yields the original value as one token.
func QuoteReply(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '\\' || c == '\'' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('\'')
	return b.String()
}
