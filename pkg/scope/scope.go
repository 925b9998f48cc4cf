// Package scope tracks the chain of lexical scopes during an AST
// traversal and classifies identifier references as declared-local,
// free-read, or free-write.
package scope

import "github.com/Variations9/srcfacts/pkg/facts"

// Kind labels a pushed scope.
type Kind int

const (
	// KindModule is the outermost scope. Names declared here are module
	// globals: writes and reads against them are reported as such.
	KindModule Kind = iota
	// KindFunction is opened by any function-like node.
	KindFunction
	// KindBlock is opened by block statements, loops, and catch clauses.
	KindBlock
)

// hostGlobals is the fixed allowlist of host-provided names. References
// that resolve to nothing and appear here are not recorded as free
// globals; category tables pick them up instead.
var hostGlobals = map[string]struct{}{
	"window": {}, "document": {}, "globalThis": {}, "self": {},
	"console": {}, "navigator": {}, "location": {}, "history": {},
	"localStorage": {}, "sessionStorage": {},
	"fetch": {}, "XMLHttpRequest": {}, "WebSocket": {},
	"setTimeout": {}, "setInterval": {}, "clearTimeout": {}, "clearInterval": {},
	"requestAnimationFrame": {}, "alert": {}, "prompt": {}, "confirm": {},
	"Math": {}, "JSON": {}, "Date": {}, "Object": {}, "Array": {},
	"String": {}, "Number": {}, "Boolean": {}, "RegExp": {}, "Error": {},
	"TypeError": {}, "RangeError": {}, "Promise": {}, "Symbol": {},
	"Map": {}, "Set": {}, "WeakMap": {}, "WeakSet": {}, "Proxy": {},
	"Reflect": {}, "Infinity": {}, "NaN": {}, "undefined": {},
	"parseInt": {}, "parseFloat": {}, "isNaN": {}, "isFinite": {},
	"encodeURIComponent": {}, "decodeURIComponent": {},
	"require": {}, "module": {}, "exports": {}, "process": {},
	"__dirname": {}, "__filename": {}, "arguments": {}, "this": {}, "super": {},
}

// IsHostGlobal reports whether name is on the host-provided allowlist.
func IsHostGlobal(name string) bool {
	_, ok := hostGlobals[name]
	return ok
}

type scopeFrame struct {
	kind  Kind
	names map[string]struct{}
}

// Resolver maintains the active scope chain for one resolution pass.
// Once a reference is classified the classification is final for the
// pass; declarations seen later in sibling scopes never reclassify it.
type Resolver struct {
	stack  []scopeFrame
	reads  facts.Set
	writes facts.Set
}

// NewResolver returns a resolver with the module scope already open.
func NewResolver() *Resolver {
	r := &Resolver{reads: facts.NewSet(), writes: facts.NewSet()}
	r.stack = append(r.stack, scopeFrame{kind: KindModule, names: make(map[string]struct{})})
	return r
}

// Push opens a nested scope.
func (r *Resolver) Push(kind Kind) {
	r.stack = append(r.stack, scopeFrame{kind: kind, names: make(map[string]struct{})})
}

// Pop closes the innermost scope. The module scope is never popped.
func (r *Resolver) Pop() {
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// Depth returns the number of open scopes including the module scope.
func (r *Resolver) Depth() int { return len(r.stack) }

// Declare registers a name in the current scope. Declarations register
// before their initializers are visited.
func (r *Resolver) Declare(name string) {
	if name == "" {
		return
	}
	r.stack[len(r.stack)-1].names[name] = struct{}{}
}

// Read classifies a read reference. A name resolving to a function or
// block scope is local and ignored; one resolving to module scope or to
// nothing (and absent from the host allowlist) is a free global read.
func (r *Resolver) Read(name string) {
	if r.isGlobal(name) {
		r.reads.Add(name)
	}
}

// Write classifies a write reference, mirroring Read.
func (r *Resolver) Write(name string) {
	if r.isGlobal(name) {
		r.writes.Add(name)
	}
}

func (r *Resolver) isGlobal(name string) bool {
	if name == "" {
		return false
	}
	for i := len(r.stack) - 1; i >= 1; i-- {
		if _, ok := r.stack[i].names[name]; ok {
			return false
		}
	}
	if _, ok := r.stack[0].names[name]; ok {
		return true
	}
	return !IsHostGlobal(name)
}

// GlobalReads returns the free global reads recorded so far.
func (r *Resolver) GlobalReads() facts.Set { return r.reads }

// GlobalWrites returns the free global writes recorded so far.
func (r *Resolver) GlobalWrites() facts.Set { return r.writes }
