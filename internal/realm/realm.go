// Package realm bootstraps the minimal built-in object graph an AVM1
// script's global scope needs before any bytecode runs,
// grounded on the Rust port source's `realm.rs`: an Object.prototype, a
// Function.prototype chained to it, Object/Function constructor function
// objects, and a global object whose own `Object`/`Function` properties
// point at those constructors.
package realm

import (
	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/values"
)

// Realm holds the handles a freshly bootstrapped object graph needs to
// stay reachable, plus everything the interpreter wires the global scope's
// frame to.
type Realm struct {
	ObjectPrototype   heap.Ref[*values.Object]
	FunctionPrototype heap.Ref[*values.Object]
	Global            heap.Ref[*values.Object]
}

// Bootstrap allocates the realm's built-in object graph on h. swfVersion
// controls nothing here directly, but is accepted so future built-ins
// that vary by version have a natural home.
func Bootstrap(h *heap.Heap, swfVersion uint8) (*Realm, error) {
	objectProto, err := heap.Alloc[*values.Object](h, values.NewObject(heap.Ref[*values.Object]{}))
	if err != nil {
		return nil, err
	}

	functionProto, err := heap.Alloc[*values.Object](h, values.NewObject(objectProto))
	if err != nil {
		return nil, err
	}

	toStringFn := values.NewHostFunction(func(ctx values.Context, this values.Value, args []values.Value) (values.Value, *values.Value, error) {
		if this.Kind() != values.KindObject {
			v, err := values.NewStringValue(h, "[object Object]")
			return v, nil, err
		}
		v, err := values.NewStringValue(h, "[object "+this.ObjectHandle().Payload().Class()+"]")
		return v, nil, err
	})
	toStringRef, err := heap.Alloc[*values.Object](h, values.NewFunctionObject(functionProto, toStringFn))
	if err != nil {
		return nil, err
	}
	objectProto.Payload().SetWithAttributes(h, "toString", values.Property{
		Value: values.ObjectRef(toStringRef), DontEnum: true,
	})

	objectCtor := values.NewHostFunction(func(ctx values.Context, this values.Value, args []values.Value) (values.Value, *values.Value, error) {
		heap.Root(h, objectProto) // this closure runs on every `new Object()` call, each needing its own install
		ref, err := heap.Alloc[*values.Object](h, values.NewObject(objectProto))
		if err != nil {
			return values.Undefined, nil, err
		}
		return values.ObjectRef(ref), nil, nil
	})
	heap.Root(h, functionProto) // consumed by objectCtorRef's Alloc below
	objectCtorRef, err := heap.Alloc[*values.Object](h, values.NewFunctionObject(functionProto, objectCtor))
	if err != nil {
		return nil, err
	}
	heap.Root(h, objectProto) // consumed by the "prototype" install below
	objectCtorRef.Payload().SetWithAttributes(h, "prototype", values.Property{
		Value: values.ObjectRef(objectProto), DontEnum: true, DontDelete: true, ReadOnly: true,
	})

	functionCtor := values.NewHostFunction(func(ctx values.Context, this values.Value, args []values.Value) (values.Value, *values.Value, error) {
		// Constructing `new Function(...)` from dynamic source is not
		// supported; this repository has no bytecode compiler, only a
		// decoder for already-assembled action byte-code.
		return values.Undefined, nil, nil
	})
	heap.Root(h, functionProto) // consumed by functionCtorRef's Alloc below
	functionCtorRef, err := heap.Alloc[*values.Object](h, values.NewFunctionObject(functionProto, functionCtor))
	if err != nil {
		return nil, err
	}
	heap.Root(h, functionProto) // consumed by the "prototype" install below
	functionCtorRef.Payload().SetWithAttributes(h, "prototype", values.Property{
		Value: values.ObjectRef(functionProto), DontEnum: true, DontDelete: true, ReadOnly: true,
	})

	heap.Root(h, objectProto) // consumed by global's Alloc below
	global, err := heap.Alloc[*values.Object](h, values.NewObject(objectProto))
	if err != nil {
		return nil, err
	}
	global.Payload().SetWithAttributes(h, "Object", values.Property{
		Value: values.ObjectRef(objectCtorRef), DontEnum: true,
	})
	global.Payload().SetWithAttributes(h, "Function", values.Property{
		Value: values.ObjectRef(functionCtorRef), DontEnum: true,
	})

	return &Realm{
		ObjectPrototype:   objectProto,
		FunctionPrototype: functionProto,
		Global:            global,
	}, nil
}
