package markup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Variations9/srcfacts/pkg/parser"
)

func extract(t *testing.T, path, src string, lang parser.Language) ([]string, []string) {
	t.Helper()
	a := New()
	t.Cleanup(a.Close)
	result, diag := a.Analyze(context.Background(), path, src, lang)
	require.Empty(t, diag)
	return result.Dependencies.Sorted(), result.DataFlow.EventListeners.Sorted()
}

func TestHTMLReferences(t *testing.T) {
	src := `<!doctype html>
<html>
<head>
  <link href="style.css" rel="stylesheet">
  <script src="app.js"></script>
</head>
<body>
  <img src="logo.png" alt="logo">
  <a href="https://example.com/docs">docs</a>
  <button onclick="save()">Save</button>
</body>
</html>`
	deps, events := extract(t, "index.html", src, parser.LangHTML)

	assert.Equal(t, []string{"app.js", "https://example.com/docs", "logo.png", "style.css"}, deps)
	assert.Equal(t, []string{"click"}, events)
}

func TestCSSReferences(t *testing.T) {
	src := `@import "reset.css";
body { background: url('bg.png'); }
.icon { background-image: url( "sprites.svg" ); }
`
	deps, _ := extract(t, "style.css", src, parser.LangCSS)

	assert.Equal(t, []string{"bg.png", "reset.css", "sprites.svg"}, deps)
}

func TestJSONReferences(t *testing.T) {
	src := `{
  "main": "dist/index.js",
  "icon": "assets/icon.png",
  "homepage": "https://example.com",
  "count": 3,
  "name": "just a plain sentence"
}`
	deps, _ := extract(t, "package.json", src, parser.LangJSON)

	assert.Contains(t, deps, "dist/index.js")
	assert.Contains(t, deps, "assets/icon.png")
	assert.Contains(t, deps, "https://example.com")
	assert.NotContains(t, deps, "just a plain sentence")
}

func TestYAMLReferences(t *testing.T) {
	src := `entry: src/main.ts
assets:
  - img/one.svg
  - img/two.svg
replicas: 2
`
	deps, _ := extract(t, "deploy.yaml", src, parser.LangYAML)

	assert.Equal(t, []string{"img/one.svg", "img/two.svg", "src/main.ts"}, deps)
}

func TestXMLReferences(t *testing.T) {
	src := `<project><module src="core/module.xml"/><doc href="README.md"/></project>`
	deps, _ := extract(t, "build.xml", src, parser.LangXML)

	assert.Equal(t, []string{"README.md", "core/module.xml"}, deps)
}

func TestMarkdownReferences(t *testing.T) {
	src := "See [the guide](docs/guide.md) and ![shot](img/shot.png).\n"
	deps, _ := extract(t, "README.md", src, parser.LangMarkdown)

	assert.Equal(t, []string{"docs/guide.md", "img/shot.png"}, deps)
}

func TestMarkupNeverAnalyzed(t *testing.T) {
	a := New()
	t.Cleanup(a.Close)

	result, diag := a.Analyze(context.Background(), "index.html", "<p>hi</p>", parser.LangHTML)
	require.Empty(t, diag)
	assert.False(t, result.Analyzed)
	assert.Equal(t, "", result.SideEffectsCell(), "markup has no side-effect analysis, not PURE")
}

func TestMalformedJSONDiagnostic(t *testing.T) {
	a := New()
	t.Cleanup(a.Close)

	result, diag := a.Analyze(context.Background(), "bad.json", "{not json", parser.LangJSON)
	require.NotNil(t, result)
	assert.NotEmpty(t, diag)
	assert.Equal(t, 0, result.Dependencies.Len())
}
