package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleDeclarationIsGlobal(t *testing.T) {
	r := NewResolver()
	r.Declare("counter")
	r.Write("counter")

	assert.True(t, r.GlobalWrites().Has("counter"))
}

func TestFunctionLocalIsNotGlobal(t *testing.T) {
	r := NewResolver()
	r.Push(KindFunction)
	r.Declare("counter")
	r.Read("counter")
	r.Write("counter")
	r.Pop()

	assert.False(t, r.GlobalReads().Has("counter"))
	assert.False(t, r.GlobalWrites().Has("counter"))
}

func TestFreeVariableResolvesOutward(t *testing.T) {
	r := NewResolver()
	r.Declare("counter")
	r.Push(KindFunction)
	r.Write("counter") // counter += 1 inside the function
	r.Pop()

	assert.True(t, r.GlobalWrites().Has("counter"))
}

func TestShadowingDoesNotLeak(t *testing.T) {
	r := NewResolver()
	r.Declare("counter")

	// function local() { const counter = 5; return counter; }
	r.Push(KindFunction)
	r.Declare("counter")
	r.Read("counter")
	r.Pop()

	assert.False(t, r.GlobalReads().Has("counter"))
}

func TestClassificationIsSticky(t *testing.T) {
	r := NewResolver()
	r.Push(KindFunction)
	r.Read("later")
	r.Pop()

	// A sibling-scope declaration after the fact must not retroactively
	// reclassify the earlier reference.
	r.Push(KindFunction)
	r.Declare("later")
	r.Pop()

	assert.True(t, r.GlobalReads().Has("later"))
}

func TestHostGlobalsSuppressed(t *testing.T) {
	r := NewResolver()
	r.Read("document")
	r.Read("console")
	r.Write("window")

	assert.Equal(t, 0, r.GlobalReads().Len())
	assert.Equal(t, 0, r.GlobalWrites().Len())
}

func TestBlockScopeDeclaration(t *testing.T) {
	r := NewResolver()
	r.Push(KindFunction)
	r.Push(KindBlock)
	r.Declare("i")
	r.Read("i")
	r.Pop()
	r.Pop()

	assert.False(t, r.GlobalReads().Has("i"))
}

func TestPopNeverRemovesModuleScope(t *testing.T) {
	r := NewResolver()
	r.Pop()
	r.Pop()
	assert.Equal(t, 1, r.Depth())

	r.Declare("x")
	r.Read("x")
	assert.True(t, r.GlobalReads().Has("x"))
}
