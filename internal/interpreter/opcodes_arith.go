package interpreter

import (
	"math"

	"github.com/open-flash/avmore-go/internal/values"
)

// execAdd implements the legacy (pre-Add2) Add opcode: both operands
// numberized unconditionally and added, per spec.md §4.3 "Add2 rationale".
func (m *Machine) execAdd(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	frame.Push(values.Number(left + right))
	return outcomeContinue, values.Undefined, nil
}

// execAdd2 implements ECMA-262-3 §11.6.1 via spec.md §4.3's "Add2
// rationale": coerce both to primitives with no hint; if either is a
// string, stringify and concatenate both; otherwise numberize and add.
func (m *Machine) execAdd2(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop()
	left := frame.Pop()
	ctx := m.ContextWithThis(frame.This)
	lp, err := left.ToPrimitive(m.Heap, ctx, values.HintDefault)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	rp, err := right.ToPrimitive(m.Heap, ctx, values.HintDefault)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	if lp.Kind() == values.KindString || rp.Kind() == values.KindString {
		ls, err := lp.ToGoString(m.Heap, ctx)
		if err != nil {
			return outcomeContinue, values.Undefined, err
		}
		rs, err := rp.ToGoString(m.Heap, ctx)
		if err != nil {
			return outcomeContinue, values.Undefined, err
		}
		v, err := values.NewStringValue(m.Heap, ls+rs)
		if err != nil {
			return outcomeContinue, values.Undefined, err
		}
		frame.Push(v)
		return outcomeContinue, values.Undefined, nil
	}
	frame.Push(values.Number(lp.ToNumber() + rp.ToNumber()))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execSubtract(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	frame.Push(values.Number(left - right))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execMultiply(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	frame.Push(values.Number(left * right))
	return outcomeContinue, values.Undefined, nil
}

// execDivide implements the SWF-version-dependent divide-by-zero rule from
// spec.md §4.2/§7: the string "#ERROR#" for SWF < 5, IEEE-754
// infinity/NaN otherwise.
func (m *Machine) execDivide(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	if right == 0 && m.SWFVersion < 5 {
		v, err := values.NewStringValue(m.Heap, "#ERROR#")
		if err != nil {
			return outcomeContinue, values.Undefined, err
		}
		frame.Push(v)
		return outcomeContinue, values.Undefined, nil
	}
	frame.Push(values.Number(left / right))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execModulo(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	frame.Push(values.Number(math.Mod(left, right)))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execIncrement(frame *Frame) (outcome, values.Value, error) {
	n, err := frame.Pop().ToNumberCtx(m.Heap, m.ContextWithThis(frame.This))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(values.Number(n + 1))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execDecrement(frame *Frame) (outcome, values.Value, error) {
	n, err := frame.Pop().ToNumberCtx(m.Heap, m.ContextWithThis(frame.This))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(values.Number(n - 1))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execBitwise(frame *Frame, op func(l, r int32) int32) (outcome, values.Value, error) {
	right := int32(int64(frame.Pop().LegacyToNumber()))
	left := int32(int64(frame.Pop().LegacyToNumber()))
	frame.Push(values.Number(float64(op(left, right))))
	return outcomeContinue, values.Undefined, nil
}

// execShift implements BitLShift/BitRShift/BitURShift: the amount is
// masked to 5 bits per ECMA-262-3 §11.7.
func (m *Machine) execShift(frame *Frame, left bool, signed bool) (outcome, values.Value, error) {
	amount := uint32(int64(frame.Pop().LegacyToNumber())) & 0x1F
	value := int32(int64(frame.Pop().LegacyToNumber()))
	var result int32
	switch {
	case left:
		result = value << amount
	case signed:
		result = value >> amount
	default:
		result = int32(uint32(value) >> amount)
	}
	frame.Push(values.Number(float64(result)))
	return outcomeContinue, values.Undefined, nil
}
