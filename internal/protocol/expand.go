// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package protocol

import "strings"

// Expand substitutes placeholders in a command template.
//
//	%s      all arguments joined by a space, verbatim
//	%r      all arguments joined by a space, escaped and single-quoted
//	%1..%9  the nth argument, escaped; empty when there is no such argument
//	%%      a literal percent sign
//
// A percent sign followed by any other character yields that character. A
// trailing percent sign ends the expansion and is dropped.
func Expand(template string, args []string) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(template) {
			break
		}

		c = template[i]
		switch {
		case c == 's':
			b.WriteString(strings.Join(args, " "))
		case c == 'r':
			b.WriteByte('\'')
			b.WriteString(Escape(strings.Join(args, " ")))
			b.WriteByte('\'')
		case c >= '1' && c <= '9':
			b.WriteString(Escape(positional(args, int(c-'1'))))
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

func positional(args []string, idx int) string {
	if idx < len(args) {
		return args[idx]
	}
	return ""
}
