package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// leaf is a Traceable with no outgoing handles, for isolated cell tests.
type leaf struct{}

func (leaf) Mark(h *Heap)   {}
func (leaf) Root(h *Heap)   {}
func (leaf) Unroot(h *Heap) {}

// node points at one other cell, to exercise Mark/Root/Unroot propagation.
type node struct {
	child Ref[leaf]
}

func (n *node) Mark(h *Heap)   { Mark(h, n.child) }
func (n *node) Root(h *Heap)   { Root(h, n.child) }
func (n *node) Unroot(h *Heap) { Unroot(h, n.child) }

func TestAllocUnrootsOwnedHandles(t *testing.T) {
	h := New()
	childRef, err := Alloc[leaf](h, leaf{})
	require.NoError(t, err)

	Root(h, childRef) // standalone hold, before nodeRef takes ownership
	_, err = Alloc[*node](h, &node{child: childRef})
	require.NoError(t, err)

	// Dropping the standalone root leaves nodeRef's containment as the only
	// reason childRef survives collection.
	Unroot(h, childRef)
	stats := h.Collect()
	assert.Equal(t, 2, stats.Live)
	assert.Equal(t, 0, stats.Freed)
}

func TestCollectSweepsUnreachableCells(t *testing.T) {
	h := New()
	ref, err := Alloc[leaf](h, leaf{})
	require.NoError(t, err)
	Unroot(h, ref) // nothing else holds it

	stats := h.Collect()
	assert.Equal(t, 0, stats.Live)
	assert.Equal(t, 1, stats.Freed)
}

func TestCollectKeepsRootedCells(t *testing.T) {
	h := New()
	_, err := Alloc[leaf](h, leaf{})
	require.NoError(t, err)

	stats := h.Collect()
	assert.Equal(t, 1, stats.Live)
	assert.Equal(t, 0, stats.Freed)
}

func TestCollectExtraRootsKeepsOtherwiseUnreachable(t *testing.T) {
	h := New()
	ref, err := Alloc[leaf](h, leaf{})
	require.NoError(t, err)
	Unroot(h, ref)

	holder := &node{child: ref}
	stats := h.Collect(holder)
	assert.Equal(t, 1, stats.Live)
	assert.Equal(t, 0, stats.Freed)
}

func TestAllocExhausted(t *testing.T) {
	h := New()
	h.MaxCells = 1
	_, err := Alloc[leaf](h, leaf{})
	require.NoError(t, err)
	_, err = Alloc[leaf](h, leaf{})
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestScriptDigestIsDeterministic(t *testing.T) {
	a := ScriptDigest([]byte("hello"))
	b := ScriptDigest([]byte("hello"))
	c := ScriptDigest([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestEqualComparesIdentity(t *testing.T) {
	h := New()
	a, err := Alloc[leaf](h, leaf{})
	require.NoError(t, err)
	b, err := Alloc[leaf](h, leaf{})
	require.NoError(t, err)
	assert.True(t, Equal(a, a))
	assert.False(t, Equal(a, b))
}
