package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-flash/avmore-go/internal/heap"
)

func TestObjectSetGetOwnProperty(t *testing.T) {
	h := heap.New()
	o := NewObject(heap.Ref[*Object]{})
	o.Set(h, "x", Number(1))
	assert.Equal(t, Number(1), o.Get("x"))
	assert.True(t, o.HasProperty("x"))
}

func TestObjectPrototypeChainGet(t *testing.T) {
	h := heap.New()
	protoRef, err := heap.Alloc[*Object](h, NewObject(heap.Ref[*Object]{}))
	require.NoError(t, err)
	protoRef.Payload().Set(h, "shared", Number(7))

	heap.Root(h, protoRef) // consumed by child's NewObject below
	child := NewObject(protoRef)
	assert.Equal(t, Number(7), child.Get("shared"))
	assert.True(t, child.HasProperty("shared"))
	_, ownOk := child.GetOwnProperty("shared")
	assert.False(t, ownOk)
}

func TestObjectReadOnlyBlocksSet(t *testing.T) {
	h := heap.New()
	o := NewObject(heap.Ref[*Object]{})
	o.SetWithAttributes(h, "frozen", Property{Value: Number(1), ReadOnly: true})
	o.Set(h, "frozen", Number(2))
	assert.Equal(t, Number(1), o.Get("frozen"))
}

func TestObjectDeleteRespectsDontDelete(t *testing.T) {
	h := heap.New()
	o := NewObject(heap.Ref[*Object]{})
	o.Set(h, "a", Number(1))
	o.SetWithAttributes(h, "b", Property{Value: Number(2), DontDelete: true})

	assert.True(t, o.Delete("a"))
	assert.False(t, o.HasProperty("a"))
	assert.False(t, o.Delete("b"))
	assert.True(t, o.HasProperty("b"))
}

func TestObjectOwnEnumerableKeysSkipsDontEnum(t *testing.T) {
	h := heap.New()
	o := NewObject(heap.Ref[*Object]{})
	o.Set(h, "visible", Number(1))
	o.SetWithAttributes(h, "hidden", Property{Value: Number(2), DontEnum: true})
	assert.Equal(t, []string{"visible"}, o.OwnEnumerableKeys())
}

func TestObjectOwnEnumerableKeysPreservesInsertionOrder(t *testing.T) {
	h := heap.New()
	o := NewObject(heap.Ref[*Object]{})
	o.Set(h, "c", Number(1))
	o.Set(h, "a", Number(2))
	o.Set(h, "b", Number(3))
	assert.Equal(t, []string{"c", "a", "b"}, o.OwnEnumerableKeys())
}

func TestFunctionObjectIsCallable(t *testing.T) {
	fn := NewHostFunction(func(ctx Context, this Value, args []Value) (Value, *Value, error) {
		return Number(42), nil, nil
	})
	o := NewFunctionObject(heap.Ref[*Object]{}, fn)
	callable, ok := o.GetCallable()
	require.True(t, ok)
	result, thrown, err := callable.Call(fakeContext{swfVersion: 6}, Undefined, nil)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, Number(42), result)
}
