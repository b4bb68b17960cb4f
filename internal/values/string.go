package values

import "github.com/open-flash/avmore-go/internal/heap"

// AvmString is the heap payload backing a String value. It holds no outgoing
// handles, so its Traceable methods are no-ops beyond satisfying the
// interface.
type AvmString struct {
	value string
}

// NewAvmString wraps a Go string for heap allocation.
func NewAvmString(value string) *AvmString { return &AvmString{value: value} }

// Value returns the underlying Go string.
func (s *AvmString) Value() string { return s.value }

func (s *AvmString) Mark(h *heap.Heap)   {}
func (s *AvmString) Root(h *heap.Heap)   {}
func (s *AvmString) Unroot(h *heap.Heap) {}
