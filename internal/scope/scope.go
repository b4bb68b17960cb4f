// Package scope implements the AVM1 lexical scope chain: an ordered list of binding frames searched
// innermost-first for GetVariable/SetVariable, with the outermost frame
// always the global object.
package scope

import (
	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/values"
)

// Frame is one link in a scope chain: an AVM1 Object whose properties
// double as bindings (the global object, a function's local activation
// object, or a `with` target).
type Frame struct {
	object heap.Ref[*values.Object]
}

// NewObjectFrame wraps an existing object (the global object, or the
// target of a `with` block) as a scope frame.
func NewObjectFrame(object heap.Ref[*values.Object]) Frame {
	return Frame{object: object}
}

// Scope is a heap-allocated, immutable cons-list of frames: the head is the
// innermost frame, parent is the rest of the chain. A closure captures the
// Scope ref active at its DefineFunction/DefineFunction2 site.
type Scope struct {
	frame  Frame
	parent heap.Ref[*Scope]
}

// NewRoot allocates the outermost scope, backed by the global object.
func NewRoot(h *heap.Heap, global heap.Ref[*values.Object]) (heap.Ref[*Scope], error) {
	return heap.Alloc[*Scope](h, &Scope{frame: NewObjectFrame(global)})
}

// Push allocates a new innermost frame on top of parent (used for `with`
// blocks and fresh call activation records).
func Push(h *heap.Heap, parent heap.Ref[*Scope], frame Frame) (heap.Ref[*Scope], error) {
	return heap.Alloc[*Scope](h, &Scope{frame: frame, parent: parent})
}

// Get resolves name by walking the chain innermost-first. ok is false if no
// frame's object has the property anywhere on its own prototype chain.
func (s *Scope) Get(name string) (values.Value, bool) {
	for cur := s; cur != nil; {
		if !cur.frame.object.IsNil() {
			obj := cur.frame.object.Payload()
			if obj.HasProperty(name) {
				return obj.Get(name), true
			}
		}
		if cur.parent.IsNil() {
			return values.Undefined, false
		}
		cur = cur.parent.Payload()
	}
	return values.Undefined, false
}

// Set resolves name along the chain and assigns to the first frame that
// already declares it; if no frame declares it, it is created on the
// outermost (global) frame, matching AVM1's implicit-global assignment
// behavior.
func (s *Scope) Set(h *heap.Heap, name string, value values.Value) {
	outer := s
	for cur := s; cur != nil; {
		if !cur.frame.object.IsNil() {
			obj := cur.frame.object.Payload()
			if obj.HasProperty(name) {
				obj.Set(h, name, value)
				return
			}
		}
		outer = cur
		if cur.parent.IsNil() {
			break
		}
		cur = cur.parent.Payload()
	}
	if !outer.frame.object.IsNil() {
		outer.frame.object.Payload().Set(h, name, value)
	}
}

// DefineLocal creates or overwrites name on the innermost frame
// unconditionally, used by DefineLocal/DefineLocal2 and function parameter
// binding.
func (s *Scope) DefineLocal(h *heap.Heap, name string, value values.Value) {
	if s.frame.object.IsNil() {
		return
	}
	s.frame.object.Payload().Set(h, name, value)
}

// Delete walks the chain for the first frame whose object owns name and
// deletes it there, matching AVM1's Delete2 (unqualified delete by name).
func (s *Scope) Delete(name string) bool {
	for cur := s; cur != nil; {
		if !cur.frame.object.IsNil() {
			obj := cur.frame.object.Payload()
			if _, ok := obj.GetOwnProperty(name); ok {
				return obj.Delete(name)
			}
		}
		if cur.parent.IsNil() {
			return false
		}
		cur = cur.parent.Payload()
	}
	return false
}

// Names returns the own enumerable property names of every frame object
// along the chain, innermost frame's bindings first, for "did you mean"
// suggestion support. DontEnum bindings and names a frame object only
// inherits through its prototype chain are not included.
func (s *Scope) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for cur := s; cur != nil; {
		if !cur.frame.object.IsNil() {
			for _, n := range cur.frame.object.Payload().OwnEnumerableKeys() {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
		if cur.parent.IsNil() {
			break
		}
		cur = cur.parent.Payload()
	}
	return names
}

func (s *Scope) Mark(h *heap.Heap) {
	heap.Mark(h, s.frame.object)
	heap.Mark(h, s.parent)
}

func (s *Scope) Root(h *heap.Heap) {
	heap.Root(h, s.frame.object)
	heap.Root(h, s.parent)
}

func (s *Scope) Unroot(h *heap.Heap) {
	heap.Unroot(h, s.frame.object)
	heap.Unroot(h, s.parent)
}
