package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/values"
)

func newGlobalScope(t *testing.T, h *heap.Heap) heap.Ref[*Scope] {
	t.Helper()
	globalRef, err := heap.Alloc[*values.Object](h, values.NewObject(heap.Ref[*values.Object]{}))
	require.NoError(t, err)
	rootRef, err := NewRoot(h, globalRef)
	require.NoError(t, err)
	return rootRef
}

func TestGetWalksChainToGlobal(t *testing.T) {
	h := heap.New()
	rootRef := newGlobalScope(t, h)
	rootRef.Payload().DefineLocal(h, "x", values.Number(1))

	local, err := heap.Alloc[*values.Object](h, values.NewObject(heap.Ref[*values.Object]{}))
	require.NoError(t, err)
	heap.Root(h, rootRef) // consumed by the Push below
	childRef, err := Push(h, rootRef, NewObjectFrame(local))
	require.NoError(t, err)

	v, ok := childRef.Payload().Get("x")
	assert.True(t, ok)
	assert.Equal(t, values.Number(1), v)
}

func TestGetReturnsFalseWhenUnbound(t *testing.T) {
	h := heap.New()
	rootRef := newGlobalScope(t, h)
	_, ok := rootRef.Payload().Get("missing")
	assert.False(t, ok)
}

func TestDefineLocalNeverMutatesParentScope(t *testing.T) {
	h := heap.New()
	rootRef := newGlobalScope(t, h)

	local, err := heap.Alloc[*values.Object](h, values.NewObject(heap.Ref[*values.Object]{}))
	require.NoError(t, err)
	heap.Root(h, rootRef) // consumed by the Push below
	childRef, err := Push(h, rootRef, NewObjectFrame(local))
	require.NoError(t, err)

	childRef.Payload().DefineLocal(h, "y", values.Number(9))
	_, ok := rootRef.Payload().Get("y")
	assert.False(t, ok, "DefineLocal must not leak into the parent frame")

	v, ok := childRef.Payload().Get("y")
	assert.True(t, ok)
	assert.Equal(t, values.Number(9), v)
}

func TestSetAssignsNearestDeclaringFrame(t *testing.T) {
	h := heap.New()
	rootRef := newGlobalScope(t, h)
	rootRef.Payload().DefineLocal(h, "counter", values.Number(1))

	local, err := heap.Alloc[*values.Object](h, values.NewObject(heap.Ref[*values.Object]{}))
	require.NoError(t, err)
	heap.Root(h, rootRef) // consumed by the Push below
	childRef, err := Push(h, rootRef, NewObjectFrame(local))
	require.NoError(t, err)

	childRef.Payload().Set(h, "counter", values.Number(2))
	v, ok := rootRef.Payload().Get("counter")
	assert.True(t, ok)
	assert.Equal(t, values.Number(2), v, "Set on an undeclared-locally name must reach the declaring frame")
}

func TestSetCreatesOnGlobalWhenUndeclaredAnywhere(t *testing.T) {
	h := heap.New()
	rootRef := newGlobalScope(t, h)
	rootRef.Payload().Set(h, "implicit", values.Number(5))
	v, ok := rootRef.Payload().Get("implicit")
	assert.True(t, ok)
	assert.Equal(t, values.Number(5), v)
}

func TestDeleteRemovesFirstOwningFrame(t *testing.T) {
	h := heap.New()
	rootRef := newGlobalScope(t, h)
	rootRef.Payload().DefineLocal(h, "z", values.Number(3))

	assert.True(t, rootRef.Payload().Delete("z"))
	_, ok := rootRef.Payload().Get("z")
	assert.False(t, ok)
}
