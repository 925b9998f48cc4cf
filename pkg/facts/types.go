// Package facts defines the normalized fact bundle produced by every
// language front end, plus its canonical string rendering.
package facts

import "sort"

// SourceUnit is one file handed to the dispatcher: path, declared
// language tag, and raw text. It is immutable input owned by the caller.
type SourceUnit struct {
	Path     string
	Language string
	Raw      string
}

// Set is a string set. The zero value is not usable; call NewSet.
type Set map[string]struct{}

// NewSet creates a set from optional initial items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts an item. Empty strings are ignored.
func (s Set) Add(item string) {
	if item == "" {
		return
	}
	s[item] = struct{}{}
}

// Has reports whether the item is present.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items.
func (s Set) Len() int { return len(s) }

// Sorted returns the items in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// Merge adds every item of other into s.
func (s Set) Merge(other Set) {
	for it := range other {
		s[it] = struct{}{}
	}
}

// DataFlowFacts groups data-flow and state-management observations.
// Each field is a set of labeled strings.
type DataFlowFacts struct {
	GlobalsWritten Set
	GlobalsRead    Set
	DOMCreated     Set
	DOMQueried     Set
	DOMModified    Set
	EventListeners Set
	StorageReads   Set
	StorageWrites  Set
	SharedState    Set
}

// NewDataFlowFacts returns an empty, usable DataFlowFacts.
func NewDataFlowFacts() DataFlowFacts {
	return DataFlowFacts{
		GlobalsWritten: NewSet(),
		GlobalsRead:    NewSet(),
		DOMCreated:     NewSet(),
		DOMQueried:     NewSet(),
		DOMModified:    NewSet(),
		EventListeners: NewSet(),
		StorageReads:   NewSet(),
		StorageWrites:  NewSet(),
		SharedState:    NewSet(),
	}
}

// Empty reports whether no data-flow fact was recorded.
func (d DataFlowFacts) Empty() bool {
	return d.GlobalsWritten.Len() == 0 && d.GlobalsRead.Len() == 0 &&
		d.DOMCreated.Len() == 0 && d.DOMQueried.Len() == 0 &&
		d.DOMModified.Len() == 0 && d.EventListeners.Len() == 0 &&
		d.StorageReads.Len() == 0 && d.StorageWrites.Len() == 0 &&
		d.SharedState.Len() == 0
}

// IOFacts records input and output touchpoints as CATEGORY:detail strings.
type IOFacts struct {
	Inputs  Set
	Outputs Set
}

// NewIOFacts returns an empty, usable IOFacts.
func NewIOFacts() IOFacts {
	return IOFacts{Inputs: NewSet(), Outputs: NewSet()}
}

// Result is the normalized bundle returned to the caller for one source
// unit. It has no identity beyond one dispatch call; front ends must not
// cache it, with the single exception of the out-of-process analyzer's
// run-scoped per-path cache.
type Result struct {
	// Functions holds qualified declared-function names (class-qualified
	// when nested). Rendered sorted and deduplicated.
	Functions Set

	// CallOrder is the append-only call sequence in source encounter
	// order. Order and duplicates both matter; it is never sorted.
	CallOrder []string

	// Dependencies holds external dependency specifiers.
	Dependencies Set

	DataFlow DataFlowFacts
	IO       IOFacts

	// SideEffects holds CATEGORY or CATEGORY:detail tags. An analyzed
	// unit with zero tags renders as the literal marker PURE, which is
	// distinct from "not analyzed" (Analyzed == false, empty cell).
	SideEffects Set

	// Analyzed reports whether a code front end actually examined the
	// unit for side effects.
	Analyzed bool
}

// NewResult returns an empty Result with all sets initialized.
func NewResult() *Result {
	return &Result{
		Functions:    NewSet(),
		Dependencies: NewSet(),
		DataFlow:     NewDataFlowFacts(),
		IO:           NewIOFacts(),
		SideEffects:  NewSet(),
	}
}

// Call appends one call event in encounter order.
func (r *Result) Call(chain string) {
	if chain == "" {
		return
	}
	r.CallOrder = append(r.CallOrder, chain)
}
