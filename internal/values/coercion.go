package values

import (
	"math"
	"strings"

	"github.com/open-flash/avmore-go/internal/heap"
)

// AbstractEquals implements ECMA-262-3 §11.9.3, the full type-coercing
// dispatch table behind AVM1's Equals2 opcode (the legacy Equals opcode
// compares LegacyToNumber results instead).
func AbstractEquals(h *heap.Heap, ctx Context, a, b Value) (bool, error) {
	if a.kind == b.kind {
		return StrictEquals(a, b), nil
	}
	switch {
	case a.kind == KindNull && b.kind == KindUndefined,
		a.kind == KindUndefined && b.kind == KindNull:
		return true, nil
	case a.kind == KindNumber && b.kind == KindString:
		return a.n == b.ToNumber(), nil
	case a.kind == KindString && b.kind == KindNumber:
		return a.ToNumber() == b.n, nil
	case a.kind == KindBoolean:
		return AbstractEquals(h, ctx, Number(a.ToNumber()), b)
	case b.kind == KindBoolean:
		return AbstractEquals(h, ctx, a, Number(b.ToNumber()))
	case (a.kind == KindNumber || a.kind == KindString) && b.kind == KindObject:
		prim, err := b.ToPrimitive(h, ctx, HintDefault)
		if err != nil {
			return false, err
		}
		return AbstractEquals(h, ctx, a, prim)
	case a.kind == KindObject && (b.kind == KindNumber || b.kind == KindString):
		prim, err := a.ToPrimitive(h, ctx, HintDefault)
		if err != nil {
			return false, err
		}
		return AbstractEquals(h, ctx, prim, b)
	default:
		return false, nil
	}
}

// AbstractLess implements ECMA-262-3 §11.8.5 ("The Abstract Relational
// Comparison Algorithm") for `a < b`. ok is false when the comparison is
// ECMA-undefined (NaN involved), in which case result must be treated as
// not-less-than by every relational opcode.
func AbstractLess(h *heap.Heap, ctx Context, a, b Value) (result, ok bool, err error) {
	pa, err := a.ToPrimitive(h, ctx, HintNumber)
	if err != nil {
		return false, false, err
	}
	pb, err := b.ToPrimitive(h, ctx, HintNumber)
	if err != nil {
		return false, false, err
	}
	if pa.Kind() == KindString && pb.Kind() == KindString {
		sa, sb := stringValue(pa.str), stringValue(pb.str)
		return strings.Compare(sa, sb) < 0, true, nil
	}
	na, nb := pa.ToNumber(), pb.ToNumber()
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, false, nil
	}
	return na < nb, true, nil
}
