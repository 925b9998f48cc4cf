package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripPragmas(t *testing.T) {
	src := "'use strict';\n#pragma warning disable\nlet x = 1;\n"
	got := StripPragmas(src)

	assert.Equal(t, "\n\nlet x = 1;\n", got)
	assert.Equal(t, strings.Count(src, "\n"), strings.Count(got, "\n"))
}

func TestStripPragmas_StopsAtFirstCodeLine(t *testing.T) {
	src := "let x = 1;\n#pragma not-a-leading-pragma\n"
	assert.Equal(t, src, StripPragmas(src))
}

func TestStrip_LineComment(t *testing.T) {
	src := "int x; // trailing\nint y;"
	got := Strip(src, Options{})

	assert.Equal(t, len(src), len(got))
	assert.Equal(t, "int x;", strings.TrimRight(strings.SplitN(got, "\n", 2)[0], " "))
	assert.NotContains(t, got, "trailing")
}

func TestStrip_BlockCommentPreservesLines(t *testing.T) {
	src := "a /* one\ntwo */ b"
	got := Strip(src, Options{})

	assert.Equal(t, strings.Count(src, "\n"), strings.Count(got, "\n"))
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
	assert.NotContains(t, got, "one")
	assert.NotContains(t, got, "two")
}

func TestStrip_StringsKeptByDefault(t *testing.T) {
	src := `var s = "hello // not a comment";`
	assert.Equal(t, src, Strip(src, Options{}))
}

func TestStrip_StringContentsBlanked(t *testing.T) {
	src := `var s = "hello";`
	got := Strip(src, Options{StripStrings: true})

	// Columns must not shift: one space per stripped character.
	assert.Equal(t, len(src), len(got))
	assert.Equal(t, `var s = "     ";`, got)
}

func TestStrip_EscapedQuote(t *testing.T) {
	src := `a("he said \"hi\"") // done`
	got := Strip(src, Options{StripStrings: true})

	assert.Equal(t, len(src), len(got))
	assert.Contains(t, got, `a("`)
	assert.Contains(t, got, `")`)
	assert.NotContains(t, got, "done")
}

func TestStrip_VerbatimString(t *testing.T) {
	// Verbatim strings honor only doubled-quote escaping; backslash is a
	// plain character.
	src := `var p = @"C:\temp\""x""";` + "\nnext();"
	got := Strip(src, Options{StripStrings: true})

	assert.Equal(t, strings.Count(src, "\n"), strings.Count(got, "\n"))
	assert.Contains(t, got, "next();")
	assert.NotContains(t, got, `C:\temp`)
}

func TestStrip_NewlineInsideStringLiteralPreserved(t *testing.T) {
	// An unterminated string is abandoned at the line break so line-based
	// heuristics keep working.
	src := "var s = \"broken\nDoWork();"
	got := Strip(src, Options{StripStrings: true})

	assert.Contains(t, got, "DoWork();")
	assert.Equal(t, strings.Count(src, "\n"), strings.Count(got, "\n"))
}
