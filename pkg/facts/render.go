package facts

import (
	"fmt"
	"strings"
)

// Pure is the marker rendered when a side-effect analysis ran and found
// nothing. Consumers persist cells bit-exact, so this literal is part of
// the external contract.
const Pure = "PURE"

// Category names used across front ends.
const (
	CategoryGlobals = "Globals"
	CategoryDOM     = "DOM"
	CategoryEvents  = "Events"
	CategoryStorage = "Storage"
	CategoryState   = "State"
	CategoryInputs  = "Inputs"
	CategoryOutputs = "Outputs"
)

// dataFlowOrder is the fixed category order for data-flow cells.
var dataFlowOrder = []string{
	CategoryGlobals, CategoryDOM, CategoryEvents, CategoryStorage, CategoryState,
}

// ioOrder is the fixed category order for I/O cells.
var ioOrder = []string{CategoryInputs, CategoryOutputs}

// RenderCategories renders category->item-set maps as the canonical
// `Cat{a; b} | Cat2{c}` string. Categories appear in the given order,
// items are deduplicated and sorted, and empty categories are omitted.
func RenderCategories(order []string, cats map[string]Set) string {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		items := cats[name]
		if items.Len() == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s{%s}", name, strings.Join(items.Sorted(), "; ")))
	}
	return strings.Join(parts, " | ")
}

// FunctionsCell renders the function catalog sorted and deduplicated.
func (r *Result) FunctionsCell() string {
	return strings.Join(r.Functions.Sorted(), ", ")
}

// CallOrderCell renders the call sequence in encounter order. Duplicates
// are preserved.
func (r *Result) CallOrderCell() string {
	return strings.Join(r.CallOrder, ", ")
}

// DependenciesCell renders dependencies sorted and deduplicated. The
// rendering is idempotent: identical input yields a byte-identical cell.
func (r *Result) DependenciesCell() string {
	return strings.Join(r.Dependencies.Sorted(), ", ")
}

// DataFlowCell renders the data-flow facts, e.g.
// `Globals{read=[a]; write=[x, y]} | Storage{read=[open]}`.
func (r *Result) DataFlowCell() string {
	cats := map[string]Set{
		CategoryGlobals: groupItems(map[string]Set{
			"read":  r.DataFlow.GlobalsRead,
			"write": r.DataFlow.GlobalsWritten,
		}),
		CategoryDOM: groupItems(map[string]Set{
			"create": r.DataFlow.DOMCreated,
			"query":  r.DataFlow.DOMQueried,
			"modify": r.DataFlow.DOMModified,
		}),
		CategoryEvents: r.DataFlow.EventListeners,
		CategoryStorage: groupItems(map[string]Set{
			"read":  r.DataFlow.StorageReads,
			"write": r.DataFlow.StorageWrites,
		}),
		CategoryState: r.DataFlow.SharedState,
	}
	return RenderCategories(dataFlowOrder, cats)
}

// IOCell renders inputs and outputs, e.g.
// `Inputs{FILE:File.ReadAllText()} | Outputs{LOG:Console.WriteLine()}`.
func (r *Result) IOCell() string {
	return RenderCategories(ioOrder, map[string]Set{
		CategoryInputs:  r.IO.Inputs,
		CategoryOutputs: r.IO.Outputs,
	})
}

// SideEffectsCell renders side-effect tags, the PURE marker for an
// analyzed unit with none, or an empty cell when the unit was never
// analyzed by a code front end.
func (r *Result) SideEffectsCell() string {
	if !r.Analyzed {
		return ""
	}
	if r.SideEffects.Len() == 0 {
		return Pure
	}
	return fmt.Sprintf("SideEffects{%s}", strings.Join(r.SideEffects.Sorted(), "; "))
}

// groupItems folds keyed sets into `key=[a, b]` items with sorted,
// deduplicated members. Empty keys are omitted.
func groupItems(groups map[string]Set) Set {
	out := NewSet()
	for key, items := range groups {
		if items.Len() == 0 {
			continue
		}
		out.Add(fmt.Sprintf("%s=[%s]", key, strings.Join(items.Sorted(), ", ")))
	}
	return out
}
