// Package sanitize prepares raw source text for analysis: it strips
// directive pragmas and, for the heuristic front end, removes comments
// and optionally string-literal contents while preserving line breaks
// and column alignment.
package sanitize

import "strings"

// pragmaPrefixes are directive lines blanked by StripPragmas. Matching is
// prefix-based on the trimmed line.
var pragmaPrefixes = []string{
	"'use strict'",
	"\"use strict\"",
	"#!",
	"#pragma",
	"#nullable",
	"#region",
	"#endregion",
	"#define",
	"#undef",
}

// StripPragmas blanks leading directive lines without shifting subsequent
// line numbers: a matched line is replaced by an empty line, everything
// else is returned verbatim.
func StripPragmas(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !isPragma(trimmed) {
			break
		}
		lines[i] = ""
	}
	return strings.Join(lines, "\n")
}

func isPragma(trimmed string) bool {
	for _, p := range pragmaPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// Options controls the character-level sanitizer.
type Options struct {
	// StripStrings replaces string-literal interiors with one space per
	// character so line and column based heuristics stay valid.
	StripStrings bool
}

// state of the character-level walk.
type state int

const (
	stateCode state = iota
	stateLineComment
	stateBlockComment
	stateString
	stateRawString
	stateChar
)

// Strip removes line and block comments and, when opts.StripStrings is
// set, string-literal contents. Newlines are always preserved verbatim;
// removed characters inside a line become single spaces so column
// positions do not shift.
func Strip(src string, opts Options) string {
	var b strings.Builder
	b.Grow(len(src))

	st := stateCode
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '\n' {
			// Line breaks survive every state; a line comment ends here
			// and an unterminated ordinary string is abandoned.
			if st == stateLineComment || st == stateString || st == stateChar {
				st = stateCode
			}
			escaped = false
			b.WriteByte('\n')
			continue
		}
		if c == '\r' {
			b.WriteByte('\r')
			continue
		}

		switch st {
		case stateCode:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				st = stateLineComment
				b.WriteByte(' ')
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				st = stateBlockComment
				b.WriteByte(' ')
			case c == '@' && i+1 < len(src) && src[i+1] == '"':
				st = stateRawString
				b.WriteByte('@')
				b.WriteByte('"')
				i++
			case c == '"':
				st = stateString
				escaped = false
				b.WriteByte('"')
			case c == '\'':
				st = stateChar
				escaped = false
				b.WriteByte('\'')
			default:
				b.WriteByte(c)
			}

		case stateLineComment, stateBlockComment:
			if st == stateBlockComment && c == '*' && i+1 < len(src) && src[i+1] == '/' {
				st = stateCode
				b.WriteByte(' ')
				b.WriteByte(' ')
				i++
				continue
			}
			b.WriteByte(' ')

		case stateString, stateChar:
			delim := byte('"')
			if st == stateChar {
				delim = '\''
			}
			switch {
			case escaped:
				escaped = false
				writeLiteral(&b, c, opts.StripStrings)
			case c == '\\':
				escaped = true
				writeLiteral(&b, c, opts.StripStrings)
			case c == delim:
				st = stateCode
				b.WriteByte(delim)
			default:
				writeLiteral(&b, c, opts.StripStrings)
			}

		case stateRawString:
			if c == '"' {
				// Doubled delimiter is the only escape a verbatim string
				// honors.
				if i+1 < len(src) && src[i+1] == '"' {
					writeLiteral(&b, '"', opts.StripStrings)
					writeLiteral(&b, '"', opts.StripStrings)
					i++
					continue
				}
				st = stateCode
				b.WriteByte('"')
				continue
			}
			writeLiteral(&b, c, opts.StripStrings)
		}
	}

	return b.String()
}

func writeLiteral(b *strings.Builder, c byte, strip bool) {
	if strip {
		b.WriteByte(' ')
		return
	}
	b.WriteByte(c)
}
