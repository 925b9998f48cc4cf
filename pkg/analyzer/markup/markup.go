// Package markup handles languages with no executable code: HTML, CSS,
// and structured-data formats. Instead of the full analysis pipeline it
// extracts embedded references (asset URLs, imports, links) and, for
// HTML, inline event handler names. Side effects are never analyzed
// here; the side-effect cell stays empty rather than PURE.
package markup

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"gopkg.in/yaml.v3"

	"github.com/Variations9/srcfacts/pkg/facts"
	"github.com/Variations9/srcfacts/pkg/parser"
)

// Analyzer extracts references from markup and data files. Not safe
// for concurrent use.
type Analyzer struct {
	parser *parser.Parser
}

// New creates an analyzer.
func New() *Analyzer {
	return &Analyzer{parser: parser.New()}
}

// Close releases parser resources.
func (a *Analyzer) Close() {
	a.parser.Close()
}

// refAttrs are HTML attributes whose values reference external assets.
var refAttrs = map[string]struct{}{
	"src":      {},
	"href":     {},
	"action":   {},
	"poster":   {},
	"data-src": {},
	"srcset":   {},
}

var (
	cssURLRx    = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)
	cssImportRx = regexp.MustCompile(`@import\s+['"]([^'"]+)['"]`)
	mdLinkRx    = regexp.MustCompile(`!?\[[^\]]*\]\(([^)\s]+)`)
	xmlAttrRx   = regexp.MustCompile(`(?:src|href|uri|location)\s*=\s*"([^"]+)"`)
	urlRx       = regexp.MustCompile(`^(?:https?|wss?|ftp)://`)
)

// Analyze dispatches on the language tag. Unparsable input yields an
// empty result and a diagnostic, never an error.
func (a *Analyzer) Analyze(ctx context.Context, path, src string, lang parser.Language) (*facts.Result, string) {
	result := facts.NewResult()

	switch lang {
	case parser.LangHTML:
		if diag := a.extractHTML(ctx, path, src, result); diag != "" {
			return result, diag
		}
	case parser.LangCSS:
		extractCSS(src, result)
	case parser.LangJSON:
		if diag := extractJSON(path, src, result); diag != "" {
			return result, diag
		}
	case parser.LangYAML:
		if diag := extractYAML(path, src, result); diag != "" {
			return result, diag
		}
	case parser.LangXML:
		extractXML(src, result)
	case parser.LangMarkdown:
		extractMarkdown(src, result)
	default:
		return result, fmt.Sprintf("%s: no reference extractor for %s", path, lang)
	}

	return result, ""
}

// extractHTML walks the parsed document collecting asset references
// and inline handler names.
func (a *Analyzer) extractHTML(ctx context.Context, path, src string, result *facts.Result) string {
	parsed, err := a.parser.Parse(ctx, []byte(src), parser.LangHTML, path)
	if err != nil {
		return fmt.Sprintf("%s: %v", path, err)
	}
	defer parsed.Tree.Close()

	parser.Walk(parsed.Tree.RootNode(), parsed.Source, func(n *sitter.Node, source []byte) bool {
		if n.Type() != "attribute" {
			return true
		}
		name := ""
		value := ""
		for i := range int(n.ChildCount()) {
			child := n.Child(i)
			switch child.Type() {
			case "attribute_name":
				name = parser.GetNodeText(child, source)
			case "quoted_attribute_value", "attribute_value":
				value = strings.Trim(parser.GetNodeText(child, source), `'"`)
			}
		}
		name = strings.ToLower(name)
		if _, ok := refAttrs[name]; ok && value != "" {
			result.Dependencies.Add(value)
		}
		if strings.HasPrefix(name, "on") && len(name) > 2 {
			result.DataFlow.EventListeners.Add(name[2:])
		}
		return true
	})
	return ""
}

func extractCSS(src string, result *facts.Result) {
	for _, m := range cssURLRx.FindAllStringSubmatch(src, -1) {
		result.Dependencies.Add(strings.TrimSpace(m[1]))
	}
	for _, m := range cssImportRx.FindAllStringSubmatch(src, -1) {
		result.Dependencies.Add(m[1])
	}
}

func extractJSON(path, src string, result *facts.Result) string {
	var doc any
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		return fmt.Sprintf("%s: %v", path, err)
	}
	collectStrings(doc, result)
	return ""
}

func extractYAML(path, src string, result *facts.Result) string {
	var doc any
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return fmt.Sprintf("%s: %v", path, err)
	}
	collectStrings(doc, result)
	return ""
}

func extractXML(src string, result *facts.Result) {
	for _, m := range xmlAttrRx.FindAllStringSubmatch(src, -1) {
		result.Dependencies.Add(m[1])
	}
}

func extractMarkdown(src string, result *facts.Result) {
	for _, m := range mdLinkRx.FindAllStringSubmatch(src, -1) {
		result.Dependencies.Add(m[1])
	}
}

// collectStrings walks a decoded document and keeps string values that
// look like references to other files or services.
func collectStrings(doc any, result *facts.Result) {
	switch v := doc.(type) {
	case map[string]any:
		for _, item := range v {
			collectStrings(item, result)
		}
	case []any:
		for _, item := range v {
			collectStrings(item, result)
		}
	case string:
		if looksLikeReference(v) {
			result.Dependencies.Add(v)
		}
	}
}

// assetExts are file extensions worth recording from data values.
var assetExts = map[string]struct{}{
	".js": {}, ".mjs": {}, ".cjs": {}, ".ts": {}, ".tsx": {}, ".jsx": {},
	".css": {}, ".html": {}, ".htm": {}, ".json": {}, ".yaml": {}, ".yml": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".ico": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".wasm": {}, ".py": {}, ".cs": {},
}

func looksLikeReference(s string) bool {
	if s == "" || strings.ContainsAny(s, " \n\t") {
		return false
	}
	if urlRx.MatchString(s) {
		return true
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		if _, ok := assetExts[strings.ToLower(s[i:])]; ok {
			return true
		}
	}
	return false
}
