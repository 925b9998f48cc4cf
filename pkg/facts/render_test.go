package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunctionsCell_SortedDeduplicated(t *testing.T) {
	r := NewResult()
	r.Functions.Add("zeta")
	r.Functions.Add("alpha")
	r.Functions.Add("Widget.render")
	r.Functions.Add("alpha")

	assert.Equal(t, "Widget.render, alpha, zeta", r.FunctionsCell())
}

func TestCallOrderCell_PreservesOrderAndDuplicates(t *testing.T) {
	r := NewResult()
	r.Call("setup")
	r.Call("db.open")
	r.Call("setup")
	r.Call("db.close")

	assert.Equal(t, "setup, db.open, setup, db.close", r.CallOrderCell())
}

func TestDependenciesCell_Idempotent(t *testing.T) {
	build := func() string {
		r := NewResult()
		r.Dependencies.Add("System.IO")
		r.Dependencies.Add("System.Net.Http")
		r.Dependencies.Add("System.IO")
		return r.DependenciesCell()
	}

	first := build()
	assert.Equal(t, "System.IO, System.Net.Http", first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, build())
	}
}

func TestSideEffectsCell(t *testing.T) {
	tests := []struct {
		name     string
		analyzed bool
		tags     []string
		want     string
	}{
		{"not analyzed", false, nil, ""},
		{"analyzed pure", true, nil, "PURE"},
		{"single file write", true, []string{"FILE:write"}, "SideEffects{FILE:write}"},
		{"sorted tags", true, []string{"LOG:print", "FILE:write"}, "SideEffects{FILE:write; LOG:print}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult()
			r.Analyzed = tt.analyzed
			for _, tag := range tt.tags {
				r.SideEffects.Add(tag)
			}
			assert.Equal(t, tt.want, r.SideEffectsCell())
		})
	}
}

func TestDataFlowCell(t *testing.T) {
	r := NewResult()
	r.DataFlow.GlobalsWritten.Add("y")
	r.DataFlow.GlobalsWritten.Add("x")
	r.DataFlow.StorageReads.Add("open")

	assert.Equal(t, "Globals{write=[x, y]} | Storage{read=[open]}", r.DataFlowCell())
}

func TestDataFlowCell_EmptyCategoriesOmitted(t *testing.T) {
	r := NewResult()
	assert.Equal(t, "", r.DataFlowCell())

	r.DataFlow.DOMCreated.Add("div")
	assert.Equal(t, "DOM{create=[div]}", r.DataFlowCell())
}

func TestIOCell(t *testing.T) {
	r := NewResult()
	r.IO.Inputs.Add("FILE:File.ReadAllText()")
	r.IO.Outputs.Add("LOG:Console.WriteLine()")
	r.IO.Outputs.Add("FILE:File.WriteAllText()")

	assert.Equal(t,
		"Inputs{FILE:File.ReadAllText()} | Outputs{FILE:File.WriteAllText(); LOG:Console.WriteLine()}",
		r.IOCell())
}

func TestRenderCategories_FixedOrder(t *testing.T) {
	cats := map[string]Set{
		"B": NewSet("two"),
		"A": NewSet("one"),
	}
	assert.Equal(t, "A{one} | B{two}", RenderCategories([]string{"A", "B"}, cats))
	assert.Equal(t, "B{two} | A{one}", RenderCategories([]string{"B", "A"}, cats))
}

func TestSetMerge(t *testing.T) {
	a := NewSet("x")
	a.Merge(NewSet("y", "x"))
	assert.ElementsMatch(t, []string{"x", "y"}, a.Sorted())
}
