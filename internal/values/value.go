// Package values implements the AVM1 value model: the six-variant tagged
// union, its ECMA-262-3 coercion algebra, and the Object/Property/Callable
// machinery built on top of it. The
// object type lives in this same package, not a separate one, because it and
// Value are mutually referential (a Value can hold an Object handle, and an
// Object's properties hold Values) — mirroring how the original Rust source
// keeps `values::object` as a submodule of `values` rather than a sibling
// crate.
package values

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/open-flash/avmore-go/internal/heap"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union from Primitive variants carry their
// payload inline; String and Object carry heap handles. The zero Value is
// Undefined.
type Value struct {
	kind Kind
	b    bool
	n    float64
	str  heap.Ref[*AvmString]
	obj  heap.Ref[*Object]
}

var Undefined = Value{kind: KindUndefined}
var Null = Value{kind: KindNull}

// Boolean returns a Boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Number returns a Number value. NaN and -0 are passed through unchanged and
// never canonicalized.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// StringRef wraps a heap-allocated string handle as a Value.
func StringRef(ref heap.Ref[*AvmString]) Value { return Value{kind: KindString, str: ref} }

// ObjectRef wraps a heap-allocated object handle as a Value.
func ObjectRef(ref heap.Ref[*Object]) Value { return Value{kind: KindObject, obj: ref} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsObject() bool    { return v.kind == KindObject }
func (v Value) IsString() bool    { return v.kind == KindString }

// BooleanValue returns the raw bool payload; only meaningful if Kind() == KindBoolean.
func (v Value) BooleanValue() bool { return v.b }

// NumberValue returns the raw float64 payload; only meaningful if Kind() == KindNumber.
func (v Value) NumberValue() float64 { return v.n }

// StringHandle returns the raw string handle; only meaningful if Kind() == KindString.
func (v Value) StringHandle() heap.Ref[*AvmString] { return v.str }

// ObjectHandle returns the raw object handle; only meaningful if Kind() == KindObject.
func (v Value) ObjectHandle() heap.Ref[*Object] { return v.obj }

// Mark implements the traceable contribution of a Value embedded in a cell
// payload (an Object's properties, a Scope's variables, a call frame's
// operand stack entry copied into a closure, etc).
func (v Value) Mark(h *heap.Heap) {
	switch v.kind {
	case KindString:
		heap.Mark(h, v.str)
	case KindObject:
		heap.Mark(h, v.obj)
	}
}

// Root roots every handle v owns.
func (v Value) Root(h *heap.Heap) {
	switch v.kind {
	case KindString:
		heap.Root(h, v.str)
	case KindObject:
		heap.Root(h, v.obj)
	}
}

// Unroot unroots every handle v owns. Called when a Value is installed
// inside another managed cell.
func (v Value) Unroot(h *heap.Heap) {
	switch v.kind {
	case KindString:
		heap.Unroot(h, v.str)
	case KindObject:
		heap.Unroot(h, v.obj)
	}
}

// DataEquals implements the internal data-equality relation used for
// caching/invariants: NaN equals NaN here, unlike ECMA
// equality.
func DataEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindNumber:
		if math.IsNaN(a.n) && math.IsNaN(b.n) {
			return true
		}
		return a.n == b.n
	case KindString:
		return stringValue(a.str) == stringValue(b.str)
	case KindObject:
		return heap.Equal(a.obj, b.obj)
	}
	return false
}

// StrictEquals implements ECMA-262-3 strict equality: same
// type required, NaN is never strictly equal to itself, ±0 compare equal,
// objects compare by identity.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n // Go float64 == already: NaN!=NaN, -0==0
	case KindString:
		return stringValue(a.str) == stringValue(b.str)
	case KindObject:
		return heap.Equal(a.obj, b.obj)
	}
	return false
}

func stringValue(ref heap.Ref[*AvmString]) string {
	if ref.IsNil() {
		return ""
	}
	return ref.Payload().value
}

// ToBoolean converts a primitive Value to bool.
//
// ECMA-262-3 has no ToBoolean(String) clause in the abstract operations the
// interpreter otherwise follows closely; this resolves it as
// non-empty-string-is-true, the informal rule every later ES dialect and
// the Adobe player both use.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.b
	case KindNumber:
		return !(math.IsNaN(v.n) || v.n == 0)
	case KindString:
		return stringValue(v.str) != ""
	case KindObject:
		return true
	}
	return false
}

// ToNumber implements ECMA-262-3 §9.3 ("ToNumber") for primitives. Object
// must go through ToPrimitive first; call ToNumberCtx for that case.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		return stringToNumber(stringValue(v.str))
	case KindObject:
		// Callers that can reach an Object must use ToNumberCtx; calling
		// ToNumber directly on one is an interpreter bug.
		return math.NaN()
	}
	return math.NaN()
}

// LegacyToNumber implements the pre-Add2 "legacy" numberizing rule used by
// Add/Subtract/Multiply/Divide/comparison opcodes: numbers
// pass through, booleans become 0/1, everything else (including strings and
// objects) becomes 0. This matches `legacy_to_avm_number` in the original
// source exactly, TODO-string-parsing note and all.
func (v Value) LegacyToNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.n
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// stringToNumber implements ECMA-262-3 §9.3.1's StringNumericLiteral
// grammar, informally: trim whitespace, accept Infinity/-Infinity, hex
// (0x/0X) and decimal literals, empty string is +0, anything else is NaN.
func stringToNumber(s string) float64 {
	t := strings.TrimFunc(s, isECMAWhitespace)
	if t == "" {
		return 0
	}
	neg := false
	switch {
	case strings.HasPrefix(t, "+"):
		t = t[1:]
	case strings.HasPrefix(t, "-"):
		neg = true
		t = t[1:]
	}
	if t == "Infinity" {
		if neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	if len(t) > 1 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X') {
		n, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		if neg {
			return -float64(n)
		}
		return float64(n)
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	if neg {
		return -n
	}
	return n
}

func isECMAWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', 0x00A0, 0xFEFF, 0x2028, 0x2029:
		return true
	}
	return false
}

// Hint selects the preferred type for ToPrimitive, per ECMA-262-3 §9.1.
type Hint int

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// TypeErrorValue is the sentinel thrown by [[DefaultValue]] when neither
// toString nor valueOf yields a primitive. It is represented as a Value
// carrying the string "TypeError" rather than a distinct exception type, so
// it can flow through the same Throw/Try machinery as user-level throws.
func TypeErrorValue(h *heap.Heap) (Value, error) {
	return NewStringValue(h, "TypeError")
}

// NewStringValue allocates s on the heap and wraps it as a Value.
func NewStringValue(h *heap.Heap, s string) (Value, error) {
	ref, err := heap.Alloc[*AvmString](h, NewAvmString(s))
	if err != nil {
		return Undefined, err
	}
	return StringRef(ref), nil
}

// ToPrimitive implements ECMA-262-3 §9.1. Primitives return themselves;
// objects delegate to [[DefaultValue]](hint).
func (v Value) ToPrimitive(h *heap.Heap, ctx Context, hint Hint) (Value, error) {
	if v.kind != KindObject {
		return v, nil
	}
	return defaultValue(h, ctx, v.obj, hint)
}

// ToNumberCtx converts v to Number, routing Objects through ToPrimitive
// first (ECMA §9.3's final clause: ToNumber(ToPrimitive(v, Number))).
func (v Value) ToNumberCtx(h *heap.Heap, ctx Context) (float64, error) {
	if v.kind != KindObject {
		return v.ToNumber(), nil
	}
	prim, err := v.ToPrimitive(h, ctx, HintNumber)
	if err != nil {
		return math.NaN(), err
	}
	return prim.ToNumber(), nil
}

// ToGoString converts v to a Go string following ECMA-262-3 §9.8's ToString
// algorithm, including the SWF-version-dependent Undefined rule (empty
// string before SWF 7) and routing Objects through ToPrimitive(String)
// first.
func (v Value) ToGoString(h *heap.Heap, ctx Context) (string, error) {
	switch v.kind {
	case KindUndefined:
		if ctx.SWFVersion() >= 7 {
			return "undefined", nil
		}
		return "", nil
	case KindNull:
		return "null", nil
	case KindBoolean:
		if v.b {
			return "true", nil
		}
		return "false", nil
	case KindNumber:
		return formatNumber(v.n), nil
	case KindString:
		return stringValue(v.str), nil
	case KindObject:
		prim, err := defaultValue(h, ctx, v.obj, HintString)
		if err != nil {
			return "", err
		}
		return prim.ToGoString(h, ctx)
	}
	return "", nil
}

// formatNumber implements ECMA-262-3 §9.8.1 closely enough for interpreter
// purposes: NaN/Infinity literals, integral values without a decimal point,
// Go's shortest round-tripping decimal otherwise.
func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == 0 {
		if math.Signbit(n) {
			return "0" // ECMA ToString never prints a signed zero
		}
		return "0"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// LegacyBoolean implements AVM1's "legacy boolean" rule: under SWF < 5 a
// conceptually-boolean opcode result is pushed as Number 0/1; under SWF >= 5
// it is pushed as Boolean. Centralized here so every caller shares one
// policy.
func LegacyBoolean(value bool, swfVersion uint8) Value {
	if swfVersion < 5 {
		if value {
			return Number(1)
		}
		return Number(0)
	}
	return Boolean(value)
}

// Context is the facade passed to host-implemented functions and consulted
// by the coercion algebra whenever a conversion may call back into user
// code ([[DefaultValue]]) or needs the declared SWF version.
type Context interface {
	// Apply invokes callable with the given this and arguments. A non-nil
	// thrown value indicates the callee threw.
	Apply(callable, this Value, args []Value) (result Value, thrown *Value, err error)
	SWFVersion() uint8
}

// CallContext additionally exposes the active `this` binding, passed to a
// HostFunction body.
type CallContext interface {
	Context
	This() Value
}

// defaultValue implements ECMA-262-3 §8.6.2.6 [[DefaultValue]](hint): hint
// String/Default try toString then valueOf; hint Number swaps the order.
func defaultValue(h *heap.Heap, ctx Context, objRef heap.Ref[*Object], hint Hint) (Value, error) {
	methods := [2]string{"toString", "valueOf"}
	if hint == HintNumber {
		methods = [2]string{"valueOf", "toString"}
	}
	self := ObjectRef(objRef)
	for _, name := range methods {
		method := objRef.Payload().Get(name)
		if !method.IsObject() {
			continue
		}
		result, thrown, err := ctx.Apply(method, self, nil)
		if err != nil {
			return Undefined, err
		}
		if thrown != nil {
			return Undefined, fmt.Errorf("avm1: uncaught throw while computing default value")
		}
		if result.Kind() != KindObject {
			return result, nil
		}
	}
	return TypeErrorValue(h)
}
