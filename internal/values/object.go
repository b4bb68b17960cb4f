package values

import "github.com/open-flash/avmore-go/internal/heap"

// Property attributes, matching AVM1's ASSetPropFlags bitfield:
// an enumerable, deletable, writable triple carried per own property.
type Property struct {
	Value      Value
	DontEnum   bool
	DontDelete bool
	ReadOnly   bool
}

// Callable is implemented by anything an Object can invoke: a native
// host-backed function (HostFunction, below) or a bytecode-backed user
// function (implemented by the interpreter package, which alone knows how
// to run a script body and so alone can satisfy this without an import
// cycle back into values).
type Callable interface {
	Call(ctx Context, this Value, args []Value) (result Value, thrown *Value, err error)
}

// propTable is an insertion-ordered property map: AVM1's for-in enumeration
// order is declaration order, not any sorted order, so a plain Go map alone
// is not enough.
type propTable struct {
	order []string
	props map[string]*Property
}

func newPropTable() *propTable {
	return &propTable{props: make(map[string]*Property)}
}

func (t *propTable) get(name string) (*Property, bool) {
	p, ok := t.props[name]
	return p, ok
}

func (t *propTable) set(name string, p *Property) {
	if _, exists := t.props[name]; !exists {
		t.order = append(t.order, name)
	}
	t.props[name] = p
}

func (t *propTable) delete(name string) bool {
	p, ok := t.props[name]
	if !ok || p.DontDelete {
		return false
	}
	delete(t.props, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Object is the heap payload backing every AVM1 Object value: plain
// objects, Array/String/Number wrapper objects, and function objects alike.
// A function object additionally carries a non-nil callable.
type Object struct {
	prototype  heap.Ref[*Object]
	class      string
	extensible bool
	cell       *heap.BorrowCell[*propTable]
	callable   Callable
}

// NewObject creates a plain object with the given prototype (may be the nil
// Ref, meaning no prototype).
func NewObject(prototype heap.Ref[*Object]) *Object {
	return &Object{
		prototype:  prototype,
		class:      "Object",
		extensible: true,
		cell:       heap.NewBorrowCell(newPropTable()),
	}
}

// NewFunctionObject creates a function object: an ordinary object whose
// [[Call]] slot is populated, since AVM1 function values are themselves
// objects.
func NewFunctionObject(prototype heap.Ref[*Object], callable Callable) *Object {
	o := NewObject(prototype)
	o.class = "Function"
	o.callable = callable
	return o
}

// Class reports the internal [[Class]] string ("Object", "Function", ...).
func (o *Object) Class() string { return o.class }

// SetClass overrides [[Class]]; used by InitArray to tag array objects as
// "Array".
func (o *Object) SetClass(class string) { o.class = class }

// Prototype returns the object's prototype handle (nil Ref if none).
func (o *Object) Prototype() heap.Ref[*Object] { return o.prototype }

// SetPrototype rewrites the prototype link.
func (o *Object) SetPrototype(h *heap.Heap, prototype heap.Ref[*Object]) {
	heap.Unroot(h, prototype)
	o.prototype = prototype
}

// GetCallable returns the object's [[Call]] implementation, if it is callable.
func (o *Object) GetCallable() (Callable, bool) {
	if o.callable == nil {
		return nil, false
	}
	return o.callable, true
}

// Get implements [[Get]]: look up an own property, then walk the prototype
// chain. Returns Undefined if nowhere found.
func (o *Object) Get(name string) Value {
	for cur := o; cur != nil; {
		var found Value
		var ok bool
		heap.With(cur.cell, func(t **propTable) {
			if p, exists := (*t).get(name); exists {
				found, ok = p.Value, true
			}
		})
		if ok {
			return found
		}
		if cur.prototype.IsNil() {
			return Undefined
		}
		cur = cur.prototype.Payload()
	}
	return Undefined
}

// GetOwnProperty returns only an own property, without walking the
// prototype chain; used by HasProperty, the ReadOnly check, and scope
// deletion.
func (o *Object) GetOwnProperty(name string) (Property, bool) {
	var out Property
	var ok bool
	heap.With(o.cell, func(t **propTable) {
		if p, exists := (*t).get(name); exists {
			out, ok = *p, true
		}
	})
	return out, ok
}

// isReadOnlyAnywhere reports whether name is ReadOnly on o or any ancestor,
// the approximation AVM1's simplified property model uses when deciding
// whether a plain assignment is allowed to shadow an inherited property.
func (o *Object) isReadOnlyAnywhere(name string) bool {
	for cur := o; cur != nil; {
		if p, ok := cur.GetOwnProperty(name); ok {
			return p.ReadOnly
		}
		if cur.prototype.IsNil() {
			return false
		}
		cur = cur.prototype.Payload()
	}
	return false
}

// Set implements [[Put]]: creates or overwrites an own property, unless an
// own or inherited ReadOnly flag blocks it. value is unrooted at install
// time, matching the heap's containment discipline: it is
// now reachable only through this Object's cell.
func (o *Object) Set(h *heap.Heap, name string, value Value) {
	if o.isReadOnlyAnywhere(name) {
		return
	}
	value.Unroot(h)
	heap.WithMut(o.cell, func(t **propTable) {
		if existing, ok := (*t).get(name); ok {
			existing.Value = value
			return
		}
		(*t).set(name, &Property{Value: value})
	})
}

// SetWithAttributes installs an own property with explicit attributes,
// bypassing the ReadOnly check (used by realm bootstrapping to install
// built-ins as DontEnum).
func (o *Object) SetWithAttributes(h *heap.Heap, name string, p Property) {
	p.Value.Unroot(h)
	heap.WithMut(o.cell, func(t **propTable) {
		(*t).set(name, &p)
	})
}

// HasProperty reports whether name resolves anywhere on the prototype chain.
func (o *Object) HasProperty(name string) bool {
	for cur := o; cur != nil; {
		if _, ok := cur.GetOwnProperty(name); ok {
			return true
		}
		if cur.prototype.IsNil() {
			return false
		}
		cur = cur.prototype.Payload()
	}
	return false
}

// Delete implements [[Delete]] on own properties only, per ECMA semantics;
// returns false if the property is DontDelete or absent.
func (o *Object) Delete(name string) bool {
	var removed bool
	heap.WithMut(o.cell, func(t **propTable) {
		removed = (*t).delete(name)
	})
	return removed
}

// OwnEnumerableKeys returns own property names in declaration order,
// skipping DontEnum entries, for the ForIn/Enumerate opcodes.
func (o *Object) OwnEnumerableKeys() []string {
	var keys []string
	heap.With(o.cell, func(t **propTable) {
		for _, name := range (*t).order {
			if p := (*t).props[name]; !p.DontEnum {
				keys = append(keys, name)
			}
		}
	})
	return keys
}

func (o *Object) Mark(h *heap.Heap) {
	heap.Mark(h, o.prototype)
	heap.With(o.cell, func(t **propTable) {
		for _, name := range (*t).order {
			(*t).props[name].Value.Mark(h)
		}
	})
	if tr, ok := o.callable.(heap.Traceable); ok {
		tr.Mark(h)
	}
}

func (o *Object) Root(h *heap.Heap) {
	heap.Root(h, o.prototype)
	if tr, ok := o.callable.(heap.Traceable); ok {
		tr.Root(h)
	}
}

func (o *Object) Unroot(h *heap.Heap) {
	heap.Unroot(h, o.prototype)
	if tr, ok := o.callable.(heap.Traceable); ok {
		tr.Unroot(h)
	}
}

// HostFunction adapts a plain Go closure into a Callable. It owns no heap
// handles, so its trace methods are no-ops.
type HostFunction struct {
	fn func(ctx Context, this Value, args []Value) (Value, *Value, error)
}

// NewHostFunction wraps fn as a Callable.
func NewHostFunction(fn func(ctx Context, this Value, args []Value) (Value, *Value, error)) *HostFunction {
	return &HostFunction{fn: fn}
}

func (f *HostFunction) Call(ctx Context, this Value, args []Value) (Value, *Value, error) {
	return f.fn(ctx, this, args)
}
