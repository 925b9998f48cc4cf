// Package ecmascript is the AST front end for the JavaScript and
// TypeScript family. It parses with tree-sitter, drives the scope
// resolver over the tree, and classifies flattened call chains against
// fixed category tables.
package ecmascript

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Variations9/srcfacts/pkg/facts"
	"github.com/Variations9/srcfacts/pkg/parser"
	"github.com/Variations9/srcfacts/pkg/sanitize"
	"github.com/Variations9/srcfacts/pkg/scope"
)

// Analyzer analyzes one source unit at a time. It is not safe for
// concurrent use; the underlying tree-sitter parser is stateful.
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

// Analyze parses the unit and extracts the full fact bundle. A unit the
// grammar cannot make sense of degrades to an empty, unanalyzed result
// with a diagnostic; it never fails the batch.
func (a *Analyzer) Analyze(ctx context.Context, path, src string, lang parser.Language) (*facts.Result, string) {
	clean := sanitize.StripPragmas(src)

	parsed, err := a.parser.Parse(ctx, []byte(clean), lang, path)
	if err != nil {
		return facts.NewResult(), fmt.Sprintf("%s: %v", path, err)
	}
	defer parsed.Tree.Close()

	root := parsed.Tree.RootNode()
	if root.HasError() {
		return facts.NewResult(), fmt.Sprintf("%s: syntax error, analysis skipped", path)
	}

	w := &walker{
		src:     parsed.Source,
		result:  facts.NewResult(),
		scope:   scope.NewResolver(),
		imports: make(map[string]struct{}),
		called:  facts.NewSet(),
	}
	w.result.Analyzed = true

	w.visit(root)

	// Import bindings count as functions only when something invoked
	// them; unused imports stay out of the catalog.
	for name := range w.imports {
		if w.called.Has(name) {
			w.result.Functions.Add(name)
		}
	}

	w.result.DataFlow.GlobalsRead = w.scope.GlobalReads()
	w.result.DataFlow.GlobalsWritten = w.scope.GlobalWrites()

	return w.result, ""
}

// walker carries the traversal state for one unit.
type walker struct {
	src    []byte
	result *facts.Result
	scope  *scope.Resolver

	// className is the enclosing class during class-body traversal,
	// used to qualify method names.
	className string

	// imports maps locally bound import names; called records every
	// base segment observed at a call site.
	imports map[string]struct{}
	called  facts.Set
}

func (w *walker) text(n *sitter.Node) string {
	return parser.GetNodeText(n, w.src)
}

func (w *walker) visitChildren(n *sitter.Node) {
	for i := range int(n.ChildCount()) {
		w.visit(n.Child(i))
	}
}

func (w *walker) visit(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "import_statement":
		w.handleImport(n)

	case "function_declaration", "generator_function_declaration":
		name := w.text(n.ChildByFieldName("name"))
		w.scope.Declare(name)
		w.addFunction(w.qualify(name))
		w.visitFunctionLike(n)

	case "class_declaration", "class":
		name := w.text(n.ChildByFieldName("name"))
		w.scope.Declare(name)
		prev := w.className
		w.className = name
		w.visit(n.ChildByFieldName("body"))
		w.className = prev

	case "method_definition":
		w.handleMethod(n)

	case "field_definition", "public_field_definition":
		w.handleField(n)

	case "pair":
		w.handlePair(n)

	case "variable_declarator":
		w.handleDeclarator(n)

	case "assignment_expression":
		w.handleAssignment(n)

	case "augmented_assignment_expression":
		left := n.ChildByFieldName("left")
		if left != nil && left.Type() == "identifier" {
			w.scope.Write(w.text(left))
		} else {
			w.handleMemberWrite(left)
		}
		w.visit(n.ChildByFieldName("right"))

	case "update_expression":
		arg := n.ChildByFieldName("argument")
		if arg != nil && arg.Type() == "identifier" {
			w.scope.Write(w.text(arg))
		} else {
			w.handleMemberWrite(arg)
		}

	case "call_expression":
		w.handleCall(n)

	case "new_expression":
		w.handleNew(n)

	case "member_expression":
		// The left side of a property access is a reference; the
		// property name itself is not.
		w.visit(n.ChildByFieldName("object"))

	case "subscript_expression":
		w.visit(n.ChildByFieldName("object"))
		w.visit(n.ChildByFieldName("index"))

	case "identifier", "shorthand_property_identifier":
		w.scope.Read(w.text(n))

	case "statement_block":
		w.scope.Push(scope.KindBlock)
		w.visitChildren(n)
		w.scope.Pop()

	case "for_statement":
		w.scope.Push(scope.KindBlock)
		w.visitChildren(n)
		w.scope.Pop()

	case "for_in_statement":
		w.scope.Push(scope.KindBlock)
		w.declarePattern(n.ChildByFieldName("left"))
		w.visit(n.ChildByFieldName("right"))
		w.visit(n.ChildByFieldName("body"))
		w.scope.Pop()

	case "catch_clause":
		w.scope.Push(scope.KindBlock)
		if param := n.ChildByFieldName("parameter"); param != nil {
			w.declarePattern(param)
		}
		w.visit(n.ChildByFieldName("body"))
		w.scope.Pop()

	case "arrow_function", "function", "function_expression", "generator_function":
		w.visitFunctionLike(n)

	case "template_string":
		for i := range int(n.ChildCount()) {
			if child := n.Child(i); child.Type() == "template_substitution" {
				w.visitChildren(child)
			}
		}

	case "property_identifier", "private_property_identifier",
		"string", "number", "regex", "comment",
		"type_annotation", "type_arguments", "type_parameters",
		"interface_declaration", "type_alias_declaration",
		"import", "true", "false", "null", "undefined":
		// Not references.

	default:
		w.visitChildren(n)
	}
}

// qualify prefixes a name with the enclosing class, when any.
func (w *walker) qualify(name string) string {
	if name == "" {
		return ""
	}
	if w.className != "" {
		return w.className + "." + name
	}
	return name
}

func (w *walker) addFunction(name string) {
	w.result.Functions.Add(name)
}

// visitFunctionLike opens a function scope, declares the parameters,
// and walks the body.
func (w *walker) visitFunctionLike(n *sitter.Node) {
	w.scope.Push(scope.KindFunction)
	if params := n.ChildByFieldName("parameters"); params != nil {
		w.declareParams(params)
	} else if param := n.ChildByFieldName("parameter"); param != nil {
		// Single-identifier arrow parameter.
		w.declarePattern(param)
	}
	w.visit(n.ChildByFieldName("body"))
	w.scope.Pop()
}

func (w *walker) declareParams(params *sitter.Node) {
	for i := range int(params.ChildCount()) {
		child := params.Child(i)
		switch child.Type() {
		case "required_parameter", "optional_parameter":
			// TypeScript wraps the pattern and its type annotation.
			if pat := child.ChildByFieldName("pattern"); pat != nil {
				w.declarePattern(pat)
			}
			if val := child.ChildByFieldName("value"); val != nil {
				w.visit(val)
			}
		default:
			w.declarePattern(child)
		}
	}
}

// declarePattern registers every name bound by a binding pattern and
// returns them. Default values inside patterns are visited as ordinary
// expressions after the names register.
func (w *walker) declarePattern(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		name := w.text(n)
		w.scope.Declare(name)
		return []string{name}
	case "object_pattern", "array_pattern":
		var names []string
		for i := range int(n.ChildCount()) {
			names = append(names, w.declarePattern(n.Child(i))...)
		}
		return names
	case "pair_pattern":
		return w.declarePattern(n.ChildByFieldName("value"))
	case "rest_pattern":
		var names []string
		for i := range int(n.ChildCount()) {
			names = append(names, w.declarePattern(n.Child(i))...)
		}
		return names
	case "assignment_pattern":
		names := w.declarePattern(n.ChildByFieldName("left"))
		w.visit(n.ChildByFieldName("right"))
		return names
	}
	return nil
}

// handleImport records the module specifier as a dependency and the
// bound local names at module scope.
func (w *walker) handleImport(n *sitter.Node) {
	if src := n.ChildByFieldName("source"); src != nil {
		w.result.Dependencies.Add(stripQuotes(w.text(src)))
	}
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if child.Type() != "import_clause" {
			continue
		}
		w.collectImportNames(child)
	}
}

func (w *walker) collectImportNames(n *sitter.Node) {
	switch n.Type() {
	case "identifier":
		name := w.text(n)
		w.scope.Declare(name)
		w.imports[name] = struct{}{}
	case "import_specifier":
		bound := n.ChildByFieldName("alias")
		if bound == nil {
			bound = n.ChildByFieldName("name")
		}
		name := w.text(bound)
		w.scope.Declare(name)
		w.imports[name] = struct{}{}
	default:
		for i := range int(n.ChildCount()) {
			w.collectImportNames(n.Child(i))
		}
	}
}

// handleMethod catalogs a class or object-literal method. Constructors
// are traversed for facts but excluded from the catalog; a private
// method keeps its hash prefix as the privacy marker.
func (w *walker) handleMethod(n *sitter.Node) {
	name := w.text(n.ChildByFieldName("name"))
	if name != "" && name != "constructor" {
		w.addFunction(w.qualify(name))
	}
	w.visitFunctionLike(n)
}

func (w *walker) handleField(n *sitter.Node) {
	value := n.ChildByFieldName("value")
	if value != nil && isFunctionNode(value.Type()) {
		name := w.text(n.ChildByFieldName("property"))
		w.addFunction(w.qualify(name))
	}
	w.visit(value)
}

func (w *walker) handlePair(n *sitter.Node) {
	value := n.ChildByFieldName("value")
	if value != nil && isFunctionNode(value.Type()) {
		key := n.ChildByFieldName("key")
		if key != nil && key.Type() == "property_identifier" {
			w.addFunction(w.text(key))
		}
	}
	w.visit(value)
}

// handleDeclarator registers the bound names before visiting the
// initializer. A module-level initialized binding is a global write; a
// function-valued binding joins the function catalog under the
// variable's name.
func (w *walker) handleDeclarator(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	value := n.ChildByFieldName("value")

	names := w.declarePattern(nameNode)
	if value != nil && w.scope.Depth() == 1 {
		for _, name := range names {
			w.scope.Write(name)
		}
	}
	if value != nil && isFunctionNode(value.Type()) &&
		nameNode != nil && nameNode.Type() == "identifier" {
		w.addFunction(w.text(nameNode))
	}
	w.visit(value)
}

func (w *walker) handleAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	if left != nil && left.Type() == "identifier" {
		w.scope.Write(w.text(left))
	} else {
		w.handleMemberWrite(left)
	}
	w.visit(n.ChildByFieldName("right"))
}

// handleMemberWrite classifies a member-target assignment: known
// element properties count as DOM modification, and the receiver is an
// ordinary read reference.
func (w *walker) handleMemberWrite(left *sitter.Node) {
	if left == nil {
		return
	}
	if left.Type() == "member_expression" {
		prop := w.text(left.ChildByFieldName("property"))
		if _, ok := domMutationProps[prop]; ok {
			w.result.DataFlow.DOMModified.Add(prop)
			w.result.SideEffects.Add("DOM:modify")
		}
	}
	w.visit(left)
}

// handleCall records the flattened chain in encounter order and runs
// category classification. The callee subtree is visited first so that
// chained calls keep source order and receiver identifiers register as
// reads.
func (w *walker) handleCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")

	if fn != nil && fn.Type() == "import" {
		// Dynamic import: the specifier is a dependency, not a call.
		if spec := firstString(args, w.src); spec != "" {
			w.result.Dependencies.Add(spec)
		}
		w.visit(args)
		return
	}

	// A bare callee identifier is captured by the call event itself;
	// composite callees are visited so receivers register as reads and
	// chained calls keep source order.
	if fn != nil && fn.Type() != "identifier" {
		w.visit(fn)
	}

	chain := flattenChain(fn, w.src)
	if chain != "" {
		w.result.Call(chain)
		w.called.Add(baseSegment(chain))
		w.classifyCall(chain, firstString(args, w.src))
	}

	if chain == "require" {
		if spec := firstString(args, w.src); spec != "" {
			w.result.Dependencies.Add(spec)
		}
	}

	w.visit(args)
}

func (w *walker) handleNew(n *sitter.Node) {
	ctor := n.ChildByFieldName("constructor")
	chain := flattenChain(ctor, w.src)
	if chain != "" {
		w.result.Call(chain)
		w.called.Add(baseSegment(chain))
		if chain == "Date" {
			w.result.SideEffects.Add("TIME")
		}
		if _, ok := networkCtors[chain]; ok {
			w.result.SideEffects.Add("NETWORK:request")
			w.result.IO.Inputs.Add("NETWORK:" + chain + "()")
		}
	}
	w.visit(n.ChildByFieldName("arguments"))
}

// classifyCall matches one flattened chain against the category tables.
// arg is the first string argument, used as the recorded detail where a
// selector, key, or event name is more informative than the chain.
func (w *walker) classifyCall(chain, arg string) {
	res := w.result
	last := lastSegment(chain)
	base := baseSegment(chain)

	switch {
	case inSet(domCreateCalls, chain):
		res.DataFlow.DOMCreated.Add(detailOr(arg, chain))
		res.SideEffects.Add("DOM:create")
	case inSet(domQueryCalls, chain), inSet(domQueryMethods, last) && strings.Contains(chain, "."):
		res.DataFlow.DOMQueried.Add(detailOr(arg, chain))
	case inSet(domModifyMethods, last) && strings.Contains(chain, "."):
		res.DataFlow.DOMModified.Add(last)
		res.SideEffects.Add("DOM:modify")
	case inSet(eventListenMethods, last):
		res.DataFlow.EventListeners.Add(detailOr(arg, chain))
		res.SideEffects.Add("EVENT:listen")
	case inSet(eventDispatchMethods, last) && strings.Contains(chain, "."):
		res.SideEffects.Add("EVENT:dispatch")
	case inSet(storageRoots, base) && chain != base:
		if inSet(storageReadMethods, last) {
			res.DataFlow.StorageReads.Add(last)
			res.IO.Inputs.Add("STORAGE:" + chain + "()")
			res.SideEffects.Add("STORAGE:read")
		} else if inSet(storageWriteMethods, last) {
			res.DataFlow.StorageWrites.Add(last)
			res.IO.Outputs.Add("STORAGE:" + chain + "()")
			res.SideEffects.Add("STORAGE:write")
		}
	case base == "console":
		res.IO.Outputs.Add("LOG:" + chain + "()")
		res.SideEffects.Add("LOG:print")
	case inSet(networkCalls, chain), inSet(networkRoots, base):
		res.IO.Inputs.Add("NETWORK:" + chain + "()")
		res.SideEffects.Add("NETWORK:request")
	case inSet(fsReadCalls, chain):
		res.IO.Inputs.Add("FILE:" + chain + "()")
		res.SideEffects.Add("FILE:read")
	case inSet(fsWriteCalls, chain):
		res.IO.Outputs.Add("FILE:" + chain + "()")
		res.SideEffects.Add("FILE:write")
	case inSet(timerCalls, chain):
		res.SideEffects.Add("TIMER:schedule")
	case inSet(timeCalls, chain):
		res.SideEffects.Add("TIME")
	case inSet(randomCalls, chain):
		res.SideEffects.Add("RANDOM")
	case inSet(userInputCalls, chain):
		res.IO.Inputs.Add("USER:" + chain + "()")
		res.SideEffects.Add("USER:input")
	case inSet(userOutputCalls, chain):
		res.IO.Outputs.Add("USER:" + chain + "()")
		res.SideEffects.Add("USER:output")
	case last == "setState":
		res.DataFlow.SharedState.Add(chain)
		res.SideEffects.Add("STATE:mutation")
	case chain == "dispatch", strings.HasPrefix(chain, "store.commit"), strings.HasPrefix(chain, "store.dispatch"):
		res.DataFlow.SharedState.Add(chain)
		res.SideEffects.Add("STATE:mutation")
	}
}

func inSet(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func detailOr(arg, fallback string) string {
	if arg != "" {
		return arg
	}
	return fallback
}

func isFunctionNode(t string) bool {
	switch t {
	case "function", "function_expression", "arrow_function", "generator_function":
		return true
	}
	return false
}

// flattenChain renders a callee as a dot-joined chain. A computed or
// call-valued receiver contributes nothing; the chain restarts at the
// following property.
func flattenChain(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "this", "super":
		return parser.GetNodeText(n, src)
	case "member_expression":
		prop := parser.GetNodeText(n.ChildByFieldName("property"), src)
		obj := flattenChain(n.ChildByFieldName("object"), src)
		if obj == "" {
			return prop
		}
		return obj + "." + prop
	case "subscript_expression":
		return flattenChain(n.ChildByFieldName("object"), src)
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return flattenChain(n.NamedChild(0), src)
		}
	case "non_null_expression", "as_expression":
		if n.NamedChildCount() > 0 {
			return flattenChain(n.NamedChild(0), src)
		}
	}
	return ""
}

func baseSegment(chain string) string {
	if i := strings.IndexByte(chain, '.'); i >= 0 {
		return chain[:i]
	}
	return chain
}

func lastSegment(chain string) string {
	if i := strings.LastIndexByte(chain, '.'); i >= 0 {
		return chain[i+1:]
	}
	return chain
}

// firstString returns the unquoted text of the first string literal
// argument, or empty when none is present.
func firstString(args *sitter.Node, src []byte) string {
	if args == nil {
		return ""
	}
	for i := range int(args.NamedChildCount()) {
		child := args.NamedChild(i)
		switch child.Type() {
		case "string":
			return stripQuotes(parser.GetNodeText(child, src))
		case "template_string":
			text := parser.GetNodeText(child, src)
			if !strings.Contains(text, "${") {
				return strings.Trim(text, "`")
			}
		}
	}
	return ""
}

func stripQuotes(s string) string {
	return strings.Trim(s, `'"`)
}
