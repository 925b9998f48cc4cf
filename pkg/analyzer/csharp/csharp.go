// Package csharp is the heuristic lexical front end for C# source. No
// parser is available here, so declarations, calls, and dependencies are
// recovered with regexes and a bounded state machine. Every loop carries
// an explicit cap: the analyzer trades completeness for guaranteed
// termination on pathological input.
package csharp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Variations9/srcfacts/pkg/config"
	"github.com/Variations9/srcfacts/pkg/facts"
	"github.com/Variations9/srcfacts/pkg/sanitize"
)

// Analyzer scans C# source lexically within the configured bounds.
type Analyzer struct {
	caps config.HeuristicsConfig

	// Compiled from the chain and generic caps; the other bounds are
	// enforced at scan time.
	methodDeclRx *regexp.Regexp
	callRx       *regexp.Regexp
}

// New creates an analyzer with the given heuristic caps.
func New(caps config.HeuristicsConfig) *Analyzer {
	return &Analyzer{
		caps:         caps,
		methodDeclRx: compileMethodDeclRx(caps.MaxGenericArgLen),
		callRx:       compileCallRx(caps.MaxChainSegments, caps.MaxGenericArgLen),
	}
}

// typeFrame tracks one enclosing type while scanning. depth is the brace
// depth of the type body, or -1 until the opening brace is seen.
type typeFrame struct {
	name  string
	depth int
}

// scanState carries the bounded per-pass bookkeeping.
type scanState struct {
	budget    int
	boundHits int
}

func (s *scanState) spend() bool {
	if s.budget <= 0 {
		return false
	}
	s.budget--
	return true
}

// Analyze extracts facts from one C# source unit. It never fails: when a
// heuristic bound is hit the current match is abandoned and scanning
// continues; the diagnostic reports how often that happened.
func (a *Analyzer) Analyze(path, src string) (*facts.Result, string) {
	result := facts.NewResult()
	result.Analyzed = true

	clean := sanitize.Strip(sanitize.StripPragmas(src), sanitize.Options{StripStrings: true})
	lines := strings.Split(clean, "\n")

	st := &scanState{budget: a.caps.MaxIterations}

	a.extractDependencies(lines, result)
	a.extractDeclarations(clean, lines, st, result)
	a.extractCalls(clean, st, result)
	a.extractSharedState(lines, result)
	a.classifyFlexPatterns(clean, result)

	var diag string
	if st.boundHits > 0 {
		diag = fmt.Sprintf("%s: %d heuristic bound(s) exceeded, matches abandoned", path, st.boundHits)
	}
	return result, diag
}

// extractDependencies collects namespace imports, including aliased,
// static, and global variants.
func (a *Analyzer) extractDependencies(lines []string, result *facts.Result) {
	for _, line := range lines {
		if len(line) > a.caps.MaxLineLength {
			continue
		}
		if m := usingStaticRx.FindStringSubmatch(line); m != nil {
			result.Dependencies.Add(m[1])
			continue
		}
		if m := usingAliasRx.FindStringSubmatch(line); m != nil {
			result.Dependencies.Add(m[1])
			continue
		}
		if m := usingRx.FindStringSubmatch(line); m != nil {
			result.Dependencies.Add(m[1])
		}
	}
}

// extractDeclarations finds method and constructor declarations
// line-by-line, validating each candidate by locating the matching close
// paren and checking the token that follows it.
func (a *Analyzer) extractDeclarations(clean string, lines []string, st *scanState, result *facts.Result) {
	var typeStack []typeFrame
	depth := 0
	offset := 0

	for _, line := range lines {
		lineOK := len(line) <= a.caps.MaxLineLength

		var declName string
		declParen := -1
		if lineOK {
			if m := a.methodDeclRx.FindStringSubmatchIndex(line); m != nil {
				declName = line[m[2]:m[3]]
				declParen = offset + m[1] - 1
			} else if m := ctorDeclRx.FindStringSubmatchIndex(line); m != nil {
				name := line[m[2]:m[3]]
				if cur := currentType(typeStack); cur != "" && name == cur {
					declName = name
					declParen = offset + m[1] - 1
				}
			}
		}

		typeDecls := typeDeclRx.FindAllStringSubmatchIndex(line, -1)
		nextDecl := 0

		for i := 0; i < len(line); i++ {
			for nextDecl < len(typeDecls) && typeDecls[nextDecl][0] == i {
				typeStack = append(typeStack, typeFrame{
					name:  line[typeDecls[nextDecl][2]:typeDecls[nextDecl][3]],
					depth: -1,
				})
				nextDecl++
			}
			switch line[i] {
			case '{':
				depth++
				for j := len(typeStack) - 1; j >= 0; j-- {
					if typeStack[j].depth == -1 {
						typeStack[j].depth = depth
						break
					}
				}
			case '}':
				if n := len(typeStack); n > 0 && typeStack[n-1].depth == depth {
					typeStack = typeStack[:n-1]
				}
				if depth > 0 {
					depth--
				}
			}
		}

		if declName != "" && isControlFlowKeyword(declName) {
			declName = ""
		}
		if declName != "" {
			if a.validDeclaration(clean, declParen, st) {
				if cur := currentType(typeStack); cur != "" {
					result.Functions.Add(cur + "." + declName)
				} else {
					result.Functions.Add(declName)
				}
			}
		}

		offset += len(line) + 1
	}
}

// validDeclaration checks that the open paren has a bounded matching
// close paren followed by a block open, an expression arrow, a
// constructor initializer, or a generic constraint.
func (a *Analyzer) validDeclaration(clean string, open int, st *scanState) bool {
	if open < 0 || open >= len(clean) || clean[open] != '(' {
		return false
	}
	closeIdx, ok := a.matchParen(clean, open, st)
	if !ok {
		return false
	}
	tok := nextToken(clean, closeIdx+1)
	switch {
	case strings.HasPrefix(tok, "{"), strings.HasPrefix(tok, "=>"), strings.HasPrefix(tok, ":"):
		return true
	case strings.HasPrefix(tok, "where"):
		return true
	case strings.HasPrefix(tok, ";"):
		// Abstract or interface member.
		return true
	}
	return false
}

// matchParen locates the close paren matching clean[open] within the
// configured nesting depth and character window.
func (a *Analyzer) matchParen(clean string, open int, st *scanState) (int, bool) {
	depth := 0
	limit := open + a.caps.MaxScanWindow
	if limit > len(clean) {
		limit = len(clean)
	}
	for i := open; i < limit; i++ {
		if !st.spend() {
			st.boundHits++
			return 0, false
		}
		switch clean[i] {
		case '(':
			depth++
			if depth > a.caps.MaxParenDepth {
				st.boundHits++
				return 0, false
			}
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	st.boundHits++
	return 0, false
}

// extractCalls records call events in source encounter order, bounded to
// the configured dotted-chain length and generic-argument size. A match
// is a call, not a declaration, when the token after the matching close
// paren is neither a block open nor an expression arrow and the match is
// not preceded by a type name.
func (a *Analyzer) extractCalls(clean string, st *scanState, result *facts.Result) {
	matches := a.callRx.FindAllStringIndex(clean, -1)
	for _, m := range matches {
		if !st.spend() {
			st.boundHits++
			return
		}
		start, end := m[0], m[1]

		// Reject matches that begin mid-chain or mid-identifier.
		if start > 0 {
			prev := clean[start-1]
			if prev == '.' || isWordByte(prev) {
				continue
			}
		}

		chain := strings.TrimSpace(clean[start : end-1])
		if i := strings.IndexByte(chain, '<'); i >= 0 {
			chain = chain[:i]
		}
		chain = strings.TrimSpace(chain)
		first := chain
		if i := strings.IndexByte(chain, '.'); i >= 0 {
			first = chain[:i]
		}
		if isControlFlowKeyword(first) {
			continue
		}

		closeIdx, ok := a.matchParen(clean, end-1, st)
		if !ok {
			continue
		}
		tok := nextToken(clean, closeIdx+1)
		if strings.HasPrefix(tok, "{") || strings.HasPrefix(tok, "=>") {
			continue // declaration, handled by extractDeclarations
		}
		if precededByTypeName(clean, start) {
			continue
		}

		result.Call(chain)
		a.classifyCall(chain, result)
	}
}

// precededByTypeName reports whether the identifier at start follows
// another identifier, which marks a declaration (`void Foo(`); keyword
// predecessors like `new` or `return` still indicate a call.
func precededByTypeName(clean string, start int) bool {
	i := start - 1
	for i >= 0 && (clean[i] == ' ' || clean[i] == '\t') {
		i--
	}
	if i < 0 || !isWordOrBracket(clean[i]) {
		return false
	}
	end := i + 1
	for i >= 0 && isWordOrBracket(clean[i]) {
		i--
	}
	word := strings.Trim(clean[i+1:end], "[]?<>,.")
	switch word {
	case "new", "return", "await", "yield", "else", "in", "case", "do":
		return false
	}
	return word != ""
}

// classifyCall applies the fixed API table to one flattened chain.
func (a *Analyzer) classifyCall(chain string, result *facts.Result) {
	for _, rule := range apiRules {
		if chain != rule.prefix && !strings.HasPrefix(chain, rule.prefix+".") {
			continue
		}
		detail := rule.label + ":" + chain + "()"
		switch rule.kind {
		case kindInput:
			result.IO.Inputs.Add(detail)
		case kindOutput:
			result.IO.Outputs.Add(detail)
		}
		result.SideEffects.Add(rule.tag)
		return
	}
}

// classifyFlexPatterns runs the regex-labeled rules over the whole unit.
// Each rule contributes one canonical label no matter which concrete
// spelling matched.
func (a *Analyzer) classifyFlexPatterns(clean string, result *facts.Result) {
	for _, rule := range flexRules {
		if !rule.rx.MatchString(clean) {
			continue
		}
		switch rule.kind {
		case kindInput:
			result.IO.Inputs.Add(rule.label)
		case kindOutput:
			result.IO.Outputs.Add(rule.label)
		}
		result.SideEffects.Add(rule.tag)
	}
	for _, rule := range propRules {
		if rule.rx.MatchString(clean) {
			result.SideEffects.Add(rule.tag)
		}
	}
}

// extractSharedState records static field names as shared state.
func (a *Analyzer) extractSharedState(lines []string, result *facts.Result) {
	for _, line := range lines {
		if len(line) > a.caps.MaxLineLength {
			continue
		}
		if m := staticFieldRx.FindStringSubmatch(line); m != nil {
			result.DataFlow.SharedState.Add(m[1])
		}
	}
}

func currentType(stack []typeFrame) string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].depth != -1 {
			return stack[i].name
		}
	}
	if len(stack) > 0 {
		return stack[len(stack)-1].name
	}
	return ""
}

// nextToken returns up to eight characters of the next non-whitespace
// run after pos.
func nextToken(clean string, pos int) string {
	i := pos
	for i < len(clean) && (clean[i] == ' ' || clean[i] == '\t' || clean[i] == '\n' || clean[i] == '\r') {
		i++
	}
	end := i + 8
	if end > len(clean) {
		end = len(clean)
	}
	return clean[i:end]
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isWordOrBracket(c byte) bool {
	return isWordByte(c) || c == ']' || c == '>' || c == '?' || c == '.'
}

func isControlFlowKeyword(name string) bool {
	_, ok := controlFlowKeywords[name]
	return ok
}
