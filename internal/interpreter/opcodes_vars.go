package interpreter

import (
	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/host"
	"github.com/open-flash/avmore-go/internal/values"
)

// execGetVariable implements spec.md §4.3 "Variable resolution": walk the
// scope chain innermost-first; an unresolved name warns the host (with a
// "did you mean" suggestion drawn from the own enumerable names bound along
// the chain) and yields Undefined.
func (m *Machine) execGetVariable(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	if v, ok := frame.Scope().Get(name); ok {
		frame.Push(v)
		return outcomeContinue, values.Undefined, nil
	}
	m.Host.Warn(host.ReferenceToUndeclaredVariable{
		Variable:   name,
		DidYouMean: host.SuggestName(name, frame.Scope().Names()),
	})
	frame.Push(values.Undefined)
	return outcomeContinue, values.Undefined, nil
}

// execSetVariable implements spec.md §4.3: assigns to the nearest enclosing
// scope that already binds name, creating it on the global scope otherwise.
func (m *Machine) execSetVariable(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	value := frame.Pop()
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Scope().Set(m.Heap, name, value)
	return outcomeContinue, values.Undefined, nil
}

// execDefineLocal implements DefineLocal: always binds in the current
// (innermost) scope frame, never a parent (spec.md §8 invariant 6).
func (m *Machine) execDefineLocal(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	value := frame.Pop()
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Scope().DefineLocal(m.Heap, name, value)
	return outcomeContinue, values.Undefined, nil
}

// execDefineLocal2 declares name in the current scope with value Undefined,
// without assigning it (the `var name;` form, as distinct from DefineLocal's
// `var name = value;`).
func (m *Machine) execDefineLocal2(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Scope().DefineLocal(m.Heap, name, values.Undefined)
	return outcomeContinue, values.Undefined, nil
}

// execGetMember implements [[Get]] through an object's prototype chain.
// Non-object receivers are a documented open point (spec.md §4.3): they
// yield Undefined rather than erroring.
func (m *Machine) execGetMember(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	key, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	receiver := frame.Pop()
	if receiver.Kind() != values.KindObject {
		frame.Push(values.Undefined)
		return outcomeContinue, values.Undefined, nil
	}
	frame.Push(receiver.ObjectHandle().Payload().Get(key))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execSetMember(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	value := frame.Pop()
	key, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	receiver := frame.Pop()
	if receiver.Kind() != values.KindObject {
		return outcomeContinue, values.Undefined, nil
	}
	receiver.ObjectHandle().Payload().Set(m.Heap, key, value)
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execDelete(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	key, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	receiver := frame.Pop()
	removed := false
	if receiver.Kind() == values.KindObject {
		removed = receiver.ObjectHandle().Payload().Delete(key)
	}
	frame.Push(values.Boolean(removed))
	return outcomeContinue, values.Undefined, nil
}

// execDelete2 deletes name resolved through the scope chain rather than an
// explicit object operand.
func (m *Machine) execDelete2(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	removed := frame.Scope().Delete(name)
	frame.Push(values.Boolean(removed))
	return outcomeContinue, values.Undefined, nil
}

// execTargetPath has no display-list target in this implementation (Non-
// goal per spec.md §1); it pops its operand and pushes an empty string,
// balancing the stack the way the real player's bytecode expects.
func (m *Machine) execTargetPath(frame *Frame) (outcome, values.Value, error) {
	frame.Pop()
	v, err := values.NewStringValue(m.Heap, "")
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(v)
	return outcomeContinue, values.Undefined, nil
}

// execCastOp implements `obj instanceof Ctor ? obj : null` per AVM1's cast
// semantics.
func (m *Machine) execCastOp(frame *Frame) (outcome, values.Value, error) {
	ctor := frame.Pop()
	obj := frame.Pop()
	if isInstanceOf(obj, ctor) {
		frame.Push(obj)
	} else {
		frame.Push(values.Null)
	}
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execInstanceOf(frame *Frame) (outcome, values.Value, error) {
	ctor := frame.Pop()
	obj := frame.Pop()
	frame.Push(values.Boolean(isInstanceOf(obj, ctor)))
	return outcomeContinue, values.Undefined, nil
}

// isInstanceOf walks obj's prototype chain looking for ctor's own
// "prototype" property object, per ECMA-262-3 §15.3.5.3
// ([[HasInstance]]).
func isInstanceOf(obj, ctor values.Value) bool {
	if obj.Kind() != values.KindObject || ctor.Kind() != values.KindObject {
		return false
	}
	ctorProto := ctor.ObjectHandle().Payload().Get("prototype")
	if ctorProto.Kind() != values.KindObject {
		return false
	}
	for cur := obj.ObjectHandle().Payload().Prototype(); !cur.IsNil(); cur = cur.Payload().Prototype() {
		if heap.Equal(cur, ctorProto.ObjectHandle()) {
			return true
		}
	}
	return false
}

// execExtends implements AVM1's class-inheritance helper: subclass's
// prototype becomes a fresh object chained to superclass's prototype,
// matching spec.md §9's design note on cyclic/chained prototype graphs.
func (m *Machine) execExtends(frame *Frame) (outcome, values.Value, error) {
	superclass := frame.Pop()
	subclass := frame.Pop()
	if superclass.Kind() != values.KindObject || subclass.Kind() != values.KindObject {
		return outcomeContinue, values.Undefined, nil
	}
	superProto := superclass.ObjectHandle().Payload().Get("prototype")
	var protoParent heap.Ref[*values.Object]
	if superProto.Kind() == values.KindObject {
		protoParent = superProto.ObjectHandle()
		heap.Root(m.Heap, protoParent) // consumed by NewObject's containing Alloc below
	}
	newProtoRef, err := heap.Alloc[*values.Object](m.Heap, values.NewObject(protoParent))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	newProtoRef.Payload().SetWithAttributes(m.Heap, "__constructor__", values.Property{
		Value: superclass, DontEnum: true,
	})
	subclass.ObjectHandle().Payload().SetWithAttributes(m.Heap, "prototype", values.Property{
		Value: values.ObjectRef(newProtoRef), DontEnum: true, DontDelete: true,
	})
	return outcomeContinue, values.Undefined, nil
}

// execImplementsOp pops the constructor, the interface count, and that many
// interfaces, and discards them: nothing is recorded and no runtime
// interface-conformance checking is implemented.
func (m *Machine) execImplementsOp(frame *Frame) (outcome, values.Value, error) {
	ctor := frame.Pop()
	count := int(frame.Pop().LegacyToNumber())
	interfaces := make([]values.Value, 0, count)
	for i := 0; i < count; i++ {
		interfaces = append(interfaces, frame.Pop())
	}
	if ctor.Kind() != values.KindObject {
		return outcomeContinue, values.Undefined, nil
	}
	return outcomeContinue, values.Undefined, nil
}

// execEnumerate pushes a single Null and then the target object's own
// enumerable keys (as strings) in reverse declaration order, so that
// popping yields the keys in declaration order followed by the Null
// terminator, for a ForIn loop compiled against a named variable.
func (m *Machine) execEnumerate(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	name, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	v, ok := frame.Scope().Get(name)
	if !ok || v.Kind() != values.KindObject {
		frame.Push(values.Null)
		return outcomeContinue, values.Undefined, nil
	}
	return outcomeContinue, values.Undefined, m.pushEnumerationKeys(frame, v)
}

// execEnumerate2 is Enumerate against an object operand directly rather
// than a variable name.
func (m *Machine) execEnumerate2(frame *Frame) (outcome, values.Value, error) {
	v := frame.Pop()
	if v.Kind() != values.KindObject {
		frame.Push(values.Null)
		return outcomeContinue, values.Undefined, nil
	}
	return outcomeContinue, values.Undefined, m.pushEnumerationKeys(frame, v)
}

func (m *Machine) pushEnumerationKeys(frame *Frame, v values.Value) error {
	keys := v.ObjectHandle().Payload().OwnEnumerableKeys()
	frame.Push(values.Null)
	for i := len(keys) - 1; i >= 0; i-- {
		kv, err := values.NewStringValue(m.Heap, keys[i])
		if err != nil {
			return err
		}
		frame.Push(kv)
	}
	return nil
}
