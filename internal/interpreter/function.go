package interpreter

import (
	"strconv"

	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/scope"
	"github.com/open-flash/avmore-go/internal/values"
)

// avm1Function is the Callable payload for a function defined by
// DefineFunction/DefineFunction2: a byte-code slice carved out of its
// enclosing script, the scope it closed over, and enough parameter
// metadata to bind arguments on each call. It implements values.Callable
// (so values.Object can hold it) and heap.Traceable (so the closed-over
// scope stays reachable only through this object's containment, per the
// heap's trace discipline).
type avm1Function struct {
	machine *Machine

	body  []byte
	scope heap.Ref[*scope.Scope]

	params              []string
	registerAssignments []byte // parallel to params; 0 = ordinary scope binding
	registerCount       byte
	preloadThis         bool
	preloadArguments    bool
	preloadSuper        bool
}

// newAVM1Function builds the callable for a DefineFunction action: no
// register preloading, parameters bound purely by scope lookup.
func newAVM1Function(m *Machine, body []byte, scopeRef heap.Ref[*scope.Scope], params []string) *avm1Function {
	return &avm1Function{machine: m, body: body, scope: scopeRef, params: params}
}

// newAVM1Function2 builds the callable for a DefineFunction2 action, which
// additionally may preload this/arguments/super into fixed registers and
// bind individual parameters into registers instead of the scope.
func newAVM1Function2(m *Machine, body []byte, scopeRef heap.Ref[*scope.Scope], params []string, regAssign []byte, regCount byte, preload uint16) *avm1Function {
	const (
		preloadThisFlag      = 1 << 0
		_                    = 1 << 1 // SuppressThis, not modeled: no movie-clip `this`
		preloadArgumentsFlag = 1 << 2
		_                    = 1 << 3 // SuppressArguments
		preloadSuperFlag     = 1 << 4
	)
	return &avm1Function{
		machine:             m,
		body:                body,
		scope:               scopeRef,
		params:              params,
		registerAssignments: regAssign,
		registerCount:       regCount,
		preloadThis:         preload&preloadThisFlag != 0,
		preloadArguments:    preload&preloadArgumentsFlag != 0,
		preloadSuper:        preload&preloadSuperFlag != 0,
	}
}

// Call implements values.Callable: binds this, parameters, and any
// DefineFunction2 register preloads into a fresh call activation scoped to
// the closure, then runs its body to completion.
func (fn *avm1Function) Call(_ values.Context, this values.Value, args []values.Value) (values.Value, *values.Value, error) {
	m := fn.machine
	// A function's activation record needs its own bindable object, since
	// scope.Frame requires an Object to hold variables.
	heap.Root(m.Heap, m.Realm.ObjectPrototype) // consumed by the Alloc below
	localObj, err := heap.Alloc[*values.Object](m.Heap, values.NewObject(m.Realm.ObjectPrototype))
	if err != nil {
		return values.Undefined, nil, err
	}
	heap.Root(m.Heap, localObj) // consumed by the scope.Push Alloc below
	heap.Root(m.Heap, fn.scope) // fn.scope outlives this call (the closure is reused on every invocation)
	localScope, err := scope.Push(m.Heap, fn.scope, scope.NewObjectFrame(localObj))
	if err != nil {
		return values.Undefined, nil, err
	}

	if fn.registerAssignments == nil {
		for i, p := range fn.params {
			var v values.Value
			if i < len(args) {
				v = args[i]
			} else {
				v = values.Undefined
			}
			localObj.Payload().Set(m.Heap, p, v)
		}
	}

	frame := NewFrame(fn.body, localScope, this, nil)
	if fn.registerAssignments != nil {
		// Register 0 always means "bind by scope lookup" (see
		// bytecode.Action.RegisterAssignments); this/arguments/super
		// preload into registers 1/2/3 instead, matching the Adobe
		// player's own register numbering for preloaded activation state.
		for i, p := range fn.params {
			var v values.Value
			if i < len(args) {
				v = args[i]
			} else {
				v = values.Undefined
			}
			reg := 0
			if i < len(fn.registerAssignments) {
				reg = int(fn.registerAssignments[i])
			}
			if reg == 0 {
				localObj.Payload().Set(m.Heap, p, v)
			} else {
				frame.setRegister(reg, v)
			}
		}
		if fn.preloadThis {
			frame.setRegister(1, this)
		}
		if fn.preloadArguments {
			argsObj, err := m.newArgumentsObject(args)
			if err == nil {
				frame.setRegister(2, values.ObjectRef(argsObj))
			}
		}
		if fn.preloadSuper {
			// No class hierarchy is modeled beyond Extends' prototype
			// wiring; `super` preloads Undefined rather than failing.
			frame.setRegister(3, values.Undefined)
		}
	}

	result, thrown, err := m.runFrame(frame)
	return result, thrown, err
}

func (fn *avm1Function) Mark(h *heap.Heap) { heap.Mark(h, fn.scope) }

func (fn *avm1Function) Root(h *heap.Heap) { heap.Root(h, fn.scope) }

func (fn *avm1Function) Unroot(h *heap.Heap) { heap.Unroot(h, fn.scope) }

// newArgumentsObject allocates a plain object whose own enumerable
// properties "0".."length-1" hold args, matching ECMA's informal arguments
// object closely enough for DefineFunction2's `arguments` register preload.
func (m *Machine) newArgumentsObject(args []values.Value) (heap.Ref[*values.Object], error) {
	heap.Root(m.Heap, m.Realm.ObjectPrototype) // consumed by the Alloc below
	ref, err := heap.Alloc[*values.Object](m.Heap, values.NewObject(m.Realm.ObjectPrototype))
	if err != nil {
		return heap.Ref[*values.Object]{}, err
	}
	obj := ref.Payload()
	for i, v := range args {
		obj.Set(m.Heap, strconv.Itoa(i), v)
	}
	obj.SetWithAttributes(m.Heap, "length", values.Property{Value: values.Number(float64(len(args))), DontEnum: true})
	return ref, nil
}
