package interpreter

import "github.com/open-flash/avmore-go/internal/values"

// legacyBool pushes value through spec.md §4.5's "legacy boolean" rule:
// Number 0/1 under SWF < 5, Boolean under SWF >= 5.
func (m *Machine) legacyBool(frame *Frame, value bool) {
	frame.Push(values.LegacyBoolean(value, m.SWFVersion))
}

func (m *Machine) execAnd(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	m.legacyBool(frame, left != 0 && right != 0)
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execOr(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	m.legacyBool(frame, left != 0 || right != 0)
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execNot(frame *Frame) (outcome, values.Value, error) {
	value := frame.Pop().LegacyToNumber()
	m.legacyBool(frame, value == 0)
	return outcomeContinue, values.Undefined, nil
}

// execEquals implements the legacy (pre-Equals2) numeric Equals opcode.
func (m *Machine) execEquals(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	m.legacyBool(frame, left == right)
	return outcomeContinue, values.Undefined, nil
}

// execEquals2 implements ECMA-262-3 §11.9.3 abstract equality.
func (m *Machine) execEquals2(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop()
	left := frame.Pop()
	eq, err := values.AbstractEquals(m.Heap, m.ContextWithThis(frame.This), left, right)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	m.legacyBool(frame, eq)
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execStrictEquals(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop()
	left := frame.Pop()
	frame.Push(values.Boolean(values.StrictEquals(left, right)))
	return outcomeContinue, values.Undefined, nil
}

// execLess implements the legacy numeric Less opcode.
func (m *Machine) execLess(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop().LegacyToNumber()
	left := frame.Pop().LegacyToNumber()
	m.legacyBool(frame, left < right)
	return outcomeContinue, values.Undefined, nil
}

// execLess2 implements ECMA-262-3 §11.8.5 abstract relational comparison
// for `a < b`; a NaN-involved (ECMA-undefined) result is "not less than".
func (m *Machine) execLess2(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop()
	left := frame.Pop()
	result, ok, err := values.AbstractLess(m.Heap, m.ContextWithThis(frame.This), left, right)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	m.legacyBool(frame, ok && result)
	return outcomeContinue, values.Undefined, nil
}

// execGreater implements `a > b` as `b < a` per ECMA-262-3 §11.8.2.
func (m *Machine) execGreater(frame *Frame) (outcome, values.Value, error) {
	right := frame.Pop()
	left := frame.Pop()
	result, ok, err := values.AbstractLess(m.Heap, m.ContextWithThis(frame.This), right, left)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	m.legacyBool(frame, ok && result)
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execStringEquals(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	right, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	left, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	m.legacyBool(frame, left == right)
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execStringLess(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	right, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	left, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	m.legacyBool(frame, left < right)
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execStringGreater(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	right, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	left, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	m.legacyBool(frame, left > right)
	return outcomeContinue, values.Undefined, nil
}
