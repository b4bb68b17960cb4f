// Package heap implements the mark-and-sweep tracing collector that backs
// every AVM1 string and object. It mirrors the rooted-handle design of the
// original Rust `scoped_gc` crate this interpreter is ported from: every
// live cell carries a root count, collection marks from positive-root cells
// and sweeps the rest, and payloads stored inside another managed cell must
// be unrooted at install time so reachability comes only through containment.
package heap

import (
	"errors"

	"github.com/open-flash/avmore-go/internal/invariant"
	"golang.org/x/crypto/blake2b"
)

// ErrExhausted is returned by Alloc when the heap refuses further growth.
// The interpreter currently treats it as fatal.
var ErrExhausted = errors.New("heap: allocation exhausted")

// Traceable is implemented by every payload type a cell can hold. Mark must
// invoke heap.Mark on every handle the payload can reach. Root and Unroot
// must invoke the matching operation on every handle the payload owns.
type Traceable interface {
	Mark(h *Heap)
	Root(h *Heap)
	Unroot(h *Heap)
}

type cell struct {
	roots   int
	marked  bool
	next    *cell
	payload Traceable
}

// Heap owns every allocated cell via an intrusive linked list, matching the
// original collector's allocation bookkeeping.
type Heap struct {
	head  *cell
	live  int
	freed int

	// MaxCells bounds allocation; zero means unbounded. Used by embedders
	// that want Exhausted to be reachable in tests without a real memory cap.
	MaxCells int
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{}
}

// Ref is a handle to a heap-allocated cell of payload type T. The zero value
// is the nil handle (no cell).
type Ref[T Traceable] struct {
	c *cell
}

// IsNil reports whether r refers to no cell.
func (r Ref[T]) IsNil() bool { return r.c == nil }

// Payload returns the live payload. Calling this on a swept (or nil) handle
// is a programming error, not an AVM1 condition: panics via invariant.
func (r Ref[T]) Payload() T {
	invariant.NotNil(r.c, "heap.Ref")
	return r.c.payload.(T)
}

// Equal reports whether two refs point at the same cell (object identity,
// used by StrictEquals on objects).
func Equal[T Traceable](a, b Ref[T]) bool { return a.c == b.c }

// Alloc allocates payload as a fresh rooted cell and returns a handle to it.
//
// Any handle the payload itself owns is unrooted at install time: it is now
// reachable only by containment through the cell being created, so its
// standalone root contribution must not count twice.
func Alloc[T Traceable](h *Heap, payload T) (Ref[T], error) {
	if h.MaxCells > 0 && h.live >= h.MaxCells {
		return Ref[T]{}, ErrExhausted
	}
	payload.Unroot(h)
	c := &cell{roots: 1, payload: payload, next: h.head}
	h.head = c
	h.live++
	return Ref[T]{c: c}, nil
}

// Root increments r's root count, marking it (and anything it transitively
// reaches) as reachable independent of containment.
func Root[T Traceable](h *Heap, r Ref[T]) {
	if r.c == nil {
		return
	}
	r.c.roots++
}

// Unroot decrements r's root count. Called when a handle stops being held
// directly (a local variable goes out of scope, or the handle is installed
// inside another managed cell).
func Unroot[T Traceable](h *Heap, r Ref[T]) {
	if r.c == nil {
		return
	}
	invariant.Invariant(r.c.roots > 0, "heap: unroot of cell with non-positive root count")
	r.c.roots--
}

// Mark marks r and recursively traces its payload's outgoing handles. Called
// by a payload's own Mark implementation for every handle it holds.
func Mark[T Traceable](h *Heap, r Ref[T]) {
	if r.c == nil || r.c.marked {
		return
	}
	r.c.marked = true
	r.c.payload.Mark(h)
}

// Stats reports live and freed cell counts, for diagnostics only; no
// interpreter semantics depend on these numbers. In the value Collect
// returns, Freed is that collection's count; in Heap.Stats it is the
// cumulative count across all collections.
type Stats struct {
	Live  int
	Freed int
}

// Collect performs a full mark-and-sweep pass. Safe to call only between
// opcode dispatches: no payload may be mutated concurrently.
//
// extraRoots lets the interpreter mark values that are not themselves held
// in a rooted cell but are nonetheless live right now — the operand stack,
// the active call frame chain, in-flight arguments — without root-counting
// every stack push and pop. Each extraRoot's Mark is invoked exactly like a
// rooted cell's would be.
func (h *Heap) Collect(extraRoots ...Traceable) Stats {
	for _, t := range extraRoots {
		if t != nil {
			t.Mark(h)
		}
	}
	for c := h.head; c != nil; c = c.next {
		if c.roots > 0 {
			markCell(h, c)
		}
	}

	var prev *cell
	freed := 0
	for c := h.head; c != nil; {
		next := c.next
		if c.marked {
			c.marked = false
			prev = c
		} else {
			if prev == nil {
				h.head = next
			} else {
				prev.next = next
			}
			freed++
		}
		c = next
	}
	h.live -= freed
	h.freed += freed
	return Stats{Live: h.live, Freed: freed}
}

func markCell(h *Heap, c *cell) {
	if c.marked {
		return
	}
	c.marked = true
	c.payload.Mark(h)
}

// LiveCount returns the number of cells currently allocated, for the CLI's
// --dump-state output and internal slog diagnostics.
func (h *Heap) LiveCount() int { return h.live }

// TotalFreed returns the cumulative number of cells freed across all
// collections run on this heap.
func (h *Heap) TotalFreed() int { return h.freed }

// Stats reports the current live/total-freed counters without performing a
// collection, for --dump-state and slog diagnostics that want a snapshot
// between GC cycles rather than triggering one.
func (h *Heap) Stats() Stats { return Stats{Live: h.live, Freed: h.freed} }

// ScriptDigest content-addresses a registered script's byte-code. The
// script registry records it so the CLI's --dump-state snapshot can
// identify scripts without echoing their full byte-code; registering
// identical code again is not deduplicated and gets a fresh id.
func ScriptDigest(code []byte) [32]byte {
	return blake2b.Sum256(code)
}
