package interpreter

import (
	"github.com/open-flash/avmore-go/internal/bytecode"
	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/values"
)

// execDefineFunction implements DefineFunction: the function body is the
// BodySize bytes immediately following this action in the enclosing code
// buffer, so the opcode both carves out that slice and skips the frame's
// instruction pointer past it (the body is only ever reached through a
// call, never by falling through). The closure's scope is the defining
// frame's live scope chain.
func (m *Machine) execDefineFunction(frame *Frame, a bytecode.Action) (outcome, values.Value, error) {
	bodyStart := frame.IP
	bodyEnd := bodyStart + a.BodySize
	if bodyEnd > len(frame.Code) {
		bodyEnd = len(frame.Code)
	}
	body := frame.Code[bodyStart:bodyEnd]
	frame.IP = bodyEnd

	heap.Root(m.Heap, frame.ScopeRef) // fn.scope; the closure keeps this scope alive beyond the frame
	fn := newAVM1Function(m, body, frame.ScopeRef, a.Parameters)
	heap.Root(m.Heap, m.Realm.FunctionPrototype) // consumed by the Alloc below
	ref, err := heap.Alloc[*values.Object](m.Heap, values.NewFunctionObject(m.Realm.FunctionPrototype, fn))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	fnValue := values.ObjectRef(ref)
	if a.FunctionName == "" {
		frame.Push(fnValue)
	} else {
		frame.Scope().DefineLocal(m.Heap, a.FunctionName, fnValue)
	}
	return outcomeContinue, values.Undefined, nil
}

// execDefineFunction2 is DefineFunction with register-based parameter
// binding and this/arguments/super preload, per spec.md §4.3's
// "DefineFunction2 register preloading".
func (m *Machine) execDefineFunction2(frame *Frame, a bytecode.Action) (outcome, values.Value, error) {
	bodyStart := frame.IP
	bodyEnd := bodyStart + a.BodySize
	if bodyEnd > len(frame.Code) {
		bodyEnd = len(frame.Code)
	}
	body := frame.Code[bodyStart:bodyEnd]
	frame.IP = bodyEnd

	heap.Root(m.Heap, frame.ScopeRef)
	fn := newAVM1Function2(m, body, frame.ScopeRef, a.Parameters, a.RegisterAssignments, a.RegisterCount, a.PreloadFlags)
	heap.Root(m.Heap, m.Realm.FunctionPrototype) // consumed by the Alloc below
	ref, err := heap.Alloc[*values.Object](m.Heap, values.NewFunctionObject(m.Realm.FunctionPrototype, fn))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	fnValue := values.ObjectRef(ref)
	if a.FunctionName == "" {
		frame.Push(fnValue)
	} else {
		frame.Scope().DefineLocal(m.Heap, a.FunctionName, fnValue)
	}
	return outcomeContinue, values.Undefined, nil
}

// execCallFunction implements CallFunction: name resolved through the
// scope chain, receiver is the current frame's `this` (global functions
// called unqualified run against the same `this` as their caller).
func (m *Machine) execCallFunction(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	args, err := m.popArgs(frame)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	callee, ok := frame.Scope().Get(name)
	if !ok || callee.Kind() != values.KindObject {
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	}
	callable, ok := callee.ObjectHandle().Payload().GetCallable()
	if !ok {
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	}
	result, thrown, err := callable.Call(m.ContextWithThis(frame.This), frame.This, args)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	if thrown != nil {
		return outcomeThrow, *thrown, nil
	}
	frame.Push(result)
	return outcomeContinue, values.Undefined, nil
}

// execCallMethod implements CallMethod: the receiver is an explicit
// operand and becomes the callee's `this`; an empty method name calls the
// receiver itself (the `obj(args)` form AVM1 compiles this way).
func (m *Machine) execCallMethod(frame *Frame) (outcome, values.Value, error) {
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
	var callee values.Value
	if methodName == "" {
		callee = receiver
	} else {
		callee = receiver.ObjectHandle().Payload().Get(methodName)
	}
	if callee.Kind() != values.KindObject {
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	}
	callable, ok := callee.ObjectHandle().Payload().GetCallable()
	if !ok {
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	}
	result, thrown, err := callable.Call(m.ContextWithThis(receiver), receiver, args)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	if thrown != nil {
		return outcomeThrow, *thrown, nil
	}
	frame.Push(result)
	return outcomeContinue, values.Undefined, nil
}

// execCall implements the legacy Call opcode: invokes a frame label (an
// in-place GOTO-and-return) rather than a named function value. Display-
// list-bound frame labels are out of scope (spec.md §1 Non-goals), so this
// pops its operand and is otherwise a no-op.
func (m *Machine) execCall(frame *Frame) (outcome, values.Value, error) {
	frame.Pop()
	return outcomeContinue, values.Undefined, nil
}
