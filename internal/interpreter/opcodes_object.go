package interpreter

import (
	"strconv"

	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/values"
)

// execInitObject implements spec.md §4.3 "InitObject": pop a count N, then
// N (value, key) pairs, coerce each key to string, and install them on a
// fresh object — last-write-wins on duplicate keys, matching the order
// values.Object.Set already gives plain assignment.
func (m *Machine) execInitObject(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	count := int(frame.Pop().LegacyToNumber())
	heap.Root(m.Heap, m.Realm.ObjectPrototype) // consumed by the Alloc below
	ref, err := heap.Alloc[*values.Object](m.Heap, values.NewObject(m.Realm.ObjectPrototype))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	obj := ref.Payload()
	for i := 0; i < count; i++ {
		value := frame.Pop()
		key, err := frame.Pop().ToGoString(m.Heap, ctx)
		if err != nil {
			return outcomeContinue, values.Undefined, err
		}
		obj.Set(m.Heap, key, value)
	}
	frame.Push(values.ObjectRef(ref))
	return outcomeContinue, values.Undefined, nil
}

// execInitArray pops a count N then N values (top of stack is the last
// element) and installs them as own enumerable properties "0".."N-1" plus
// a "length" property, the array-object convention this implementation
// uses in place of a distinct Array intrinsic (spec.md §1: display-list and
// richer Array APIs are out of scope, but array literals still need a
// representable value).
func (m *Machine) execInitArray(frame *Frame) (outcome, values.Value, error) {
	count := int(frame.Pop().LegacyToNumber())
	elems := make([]values.Value, count)
	for i := count - 1; i >= 0; i-- {
		elems[i] = frame.Pop()
	}
	heap.Root(m.Heap, m.Realm.ObjectPrototype) // consumed by the Alloc below
	ref, err := heap.Alloc[*values.Object](m.Heap, values.NewObject(m.Realm.ObjectPrototype))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	obj := ref.Payload()
	obj.SetClass("Array")
	for i, v := range elems {
		obj.Set(m.Heap, strconv.Itoa(i), v)
	}
	obj.SetWithAttributes(m.Heap, "length", values.Property{
		Value: values.Number(float64(count)), DontEnum: true,
	})
	frame.Push(values.ObjectRef(ref))
	return outcomeContinue, values.Undefined, nil
}

// construct implements ECMA-262-3 §13.2.2 ([[Construct]]): a fresh object
// whose prototype is the constructor's own "prototype" property (or
// Object.prototype if absent) is passed as `this`; if the constructor
// returns an object, that object is used instead of the fresh one.
func (m *Machine) construct(ctor values.Value, args []values.Value) (values.Value, *values.Value, error) {
	if ctor.Kind() != values.KindObject {
		return values.Undefined, nil, nil
	}
	callable, ok := ctor.ObjectHandle().Payload().GetCallable()
	if !ok {
		return values.Undefined, nil, nil
	}
	proto := ctor.ObjectHandle().Payload().Get("prototype")
	var protoRef heap.Ref[*values.Object]
	if proto.Kind() == values.KindObject {
		protoRef = proto.ObjectHandle()
		heap.Root(m.Heap, protoRef) // consumed by the instance's Alloc below
	} else {
		protoRef = m.Realm.ObjectPrototype
		heap.Root(m.Heap, protoRef)
	}
	instRef, err := heap.Alloc[*values.Object](m.Heap, values.NewObject(protoRef))
	if err != nil {
		return values.Undefined, nil, err
	}
	this := values.ObjectRef(instRef)
	result, thrown, err := callable.Call(m.ContextWithThis(this), this, args)
	if err != nil || thrown != nil {
		return values.Undefined, thrown, err
	}
	if result.Kind() == values.KindObject {
		return result, nil, nil
	}
	return this, nil, nil
}

// execNewObject implements `new Ctor(args...)` where Ctor is resolved by
// name through the scope chain.
func (m *Machine) execNewObject(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	args, err := m.popArgs(frame)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	ctor, ok := frame.Scope().Get(name)
	if !ok {
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	}
	result, thrown, err := m.construct(ctor, args)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	if thrown != nil {
		return outcomeThrow, *thrown, nil
	}
	frame.Push(result)
	return outcomeContinue, values.Undefined, nil
}

// execNewMethod implements `new obj.Ctor(args...)`: the constructor is
// resolved as a member of an explicit receiver rather than via the scope
// chain.
func (m *Machine) execNewMethod(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	methodName, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	receiver := frame.Pop()
	args, err := m.popArgs(frame)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	if receiver.Kind() != values.KindObject {
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	}
	var ctor values.Value
	if methodName == "" {
		ctor = receiver
	} else {
		ctor = receiver.ObjectHandle().Payload().Get(methodName)
	}
	result, thrown, err := m.construct(ctor, args)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	if thrown != nil {
		return outcomeThrow, *thrown, nil
	}
	frame.Push(result)
	return outcomeContinue, values.Undefined, nil
}

// popArgs implements the argument-count-then-arguments stack convention
// shared by CallFunction/CallMethod/NewObject/NewMethod: pop a count, then
// that many values, returning them in original left-to-right call order
// (the AVM1 compiler pushes them in reverse so that a LIFO pop restores
// declaration order).
func (m *Machine) popArgs(frame *Frame) ([]values.Value, error) {
	count := int(frame.Pop().LegacyToNumber())
	if count < 0 {
		count = 0
	}
	args := make([]values.Value, count)
	for i := 0; i < count; i++ {
		args[i] = frame.Pop()
	}
	return args, nil
}
