package heap

import "github.com/open-flash/avmore-go/internal/invariant"

// BorrowCell wraps a payload with a single-threaded, runtime-checked borrow
// discipline: at most one outstanding mutable borrow, or any number of
// immutable borrows, at a time. Objects use it to guard their property
// tables so that a bug which tries to mutate a cell while
// it is being traced (or re-enter a mutable borrow) is caught immediately
// instead of corrupting state silently.
type BorrowCell[T any] struct {
	value    T
	borrows  int // count of outstanding immutable borrows
	borrowed bool // an outstanding mutable borrow
}

// NewBorrowCell wraps value for shared, checked mutable access.
func NewBorrowCell[T any](value T) *BorrowCell[T] {
	return &BorrowCell[T]{value: value}
}

// Borrow grants read access. release must be called exactly once.
func (c *BorrowCell[T]) Borrow() (value *T, release func()) {
	invariant.Invariant(!c.borrowed, "heap: immutable borrow while mutably borrowed")
	c.borrows++
	return &c.value, func() {
		invariant.Invariant(c.borrows > 0, "heap: unbalanced borrow release")
		c.borrows--
	}
}

// BorrowMut grants exclusive write access. release must be called exactly
// once before any other borrow of the same cell.
func (c *BorrowCell[T]) BorrowMut() (value *T, release func()) {
	invariant.Invariant(!c.borrowed && c.borrows == 0, "heap: mutable borrow while already borrowed")
	c.borrowed = true
	return &c.value, func() {
		invariant.Invariant(c.borrowed, "heap: unbalanced mutable borrow release")
		c.borrowed = false
	}
}

// With is a convenience wrapper around Borrow for a single read.
func With[T any](c *BorrowCell[T], fn func(*T)) {
	v, release := c.Borrow()
	defer release()
	fn(v)
}

// WithMut is a convenience wrapper around BorrowMut for a single mutation.
func WithMut[T any](c *BorrowCell[T], fn func(*T)) {
	v, release := c.BorrowMut()
	defer release()
	fn(v)
}
