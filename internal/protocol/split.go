// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package protocol implements the host line protocol: argument splitting,
// escaping, command template expansion, and EVENT/REQUEST line dispatch.
package protocol

import (
	"regexp"
	"strings"
)

var (
	// separatorPattern matches either a whitespace run or a quoted region.
	// Quoted regions are captured so they survive the split as fragments.
	// Whitespace covers ASCII blanks, the Unicode space separators, U+2028,
	// U+2029 and U+FEFF.
	separatorPattern = regexp.MustCompile(whitespaceClass + `+|("(?:\\.|[^"])*?"|'(?:\\.|[^'])*?')`)
	escapedPattern   = regexp.MustCompile(`\\(.)`)
)

const (
	quoteCharacters = `"'`
	whitespaceClass = `[\t\n\v\f\r \x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`
)

// Split tokenizes a payload into its arguments.
//
// Whitespace separates arguments unless it sits inside a single- or
// double-quoted region. One pair of surrounding quotes is removed from each
// argument, then every backslash escape is replaced by the escaped character.
// Malformed quoting never fails; the offending fragment is kept as-is.
func Split(line string) []string {
	args := make([]string, 0)
	for _, frag := range fragments(line) {
		if frag == "" {
			continue
		}
		args = append(args, unescape(removeQuotes(frag)))
	}
	return args
}

// fragments returns the text between separators interleaved with the
// captured quoted regions, in input order.
func fragments(line string) []string {
	var out []string
	last := 0
	for _, m := range separatorPattern.FindAllStringSubmatchIndex(line, -1) {
		out = append(out, line[last:m[0]])
		if m[2] >= 0 {
			out = append(out, line[m[2]:m[3]])
		}
		last = m[1]
	}
	return append(out, line[last:])
}

func removeQuotes(s string) string {
	if len(s) < 2 || !strings.ContainsRune(quoteCharacters, rune(s[0])) {
		return s
	}
	if s[len(s)-1] != s[0] {
		return s
	}
	return s[1 : len(s)-1]
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return escapedPattern.ReplaceAllString(s, "$1")
}
