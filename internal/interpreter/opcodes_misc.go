package interpreter

import (
	"math"

	"github.com/open-flash/avmore-go/internal/values"
)

// execTrace implements ActionTrace: pops one operand and reports its
// ToString rendering to the host, including the SWF-version-dependent
// Undefined rule ("undefined" from SWF 7 on, "" before it).
func (m *Machine) execTrace(frame *Frame) (outcome, values.Value, error) {
	v := frame.Pop()
	s, err := v.ToGoString(m.Heap, m.ContextWithThis(frame.This))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	m.Host.Trace(s)
	return outcomeContinue, values.Undefined, nil
}

// execTypeOf implements the `typeof` operator. AVM1 reports "movieclip" for
// display-list objects, but since this implementation carries no display
// list (spec.md §1 Non-goals) every Object reports "object" unless it is
// callable, matching ECMA's "function" carve-out.
func (m *Machine) execTypeOf(frame *Frame) (outcome, values.Value, error) {
	v := frame.Pop()
	var typeName string
	switch v.Kind() {
	case values.KindUndefined:
		typeName = "undefined"
	case values.KindNull:
		typeName = "null"
	case values.KindBoolean:
		typeName = "boolean"
	case values.KindNumber:
		typeName = "number"
	case values.KindString:
		typeName = "string"
	case values.KindObject:
		if _, ok := v.ObjectHandle().Payload().GetCallable(); ok {
			typeName = "function"
		} else {
			typeName = "object"
		}
	}
	s, err := values.NewStringValue(m.Heap, typeName)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(s)
	return outcomeContinue, values.Undefined, nil
}

// execToInteger implements ECMA-262-3 §9.4 ToInteger: NaN becomes 0,
// infinities pass through, finite values truncate toward zero.
func (m *Machine) execToInteger(frame *Frame) (outcome, values.Value, error) {
	n, err := frame.Pop().ToNumberCtx(m.Heap, m.ContextWithThis(frame.This))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(values.Number(toInteger(n)))
	return outcomeContinue, values.Undefined, nil
}

func toInteger(n float64) float64 {
	if math.IsNaN(n) {
		return 0
	}
	if math.IsInf(n, 0) {
		return n
	}
	return math.Trunc(n)
}

func (m *Machine) execToNumber(frame *Frame) (outcome, values.Value, error) {
	n, err := frame.Pop().ToNumberCtx(m.Heap, m.ContextWithThis(frame.This))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(values.Number(n))
	return outcomeContinue, values.Undefined, nil
}

func (m *Machine) execToString(frame *Frame) (outcome, values.Value, error) {
	s, err := frame.Pop().ToGoString(m.Heap, m.ContextWithThis(frame.This))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	v, err := values.NewStringValue(m.Heap, s)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(v)
	return outcomeContinue, values.Undefined, nil
}

// execRandomNumber pushes a pseudo-random integer in [0, n), per
// ActionRandomNumber; n <= 0 yields 0 rather than dividing by zero.
func (m *Machine) execRandomNumber(frame *Frame) (outcome, values.Value, error) {
	n := int64(frame.Pop().LegacyToNumber())
	if n <= 0 {
		frame.Push(values.Number(0))
		return outcomeContinue, values.Undefined, nil
	}
	frame.Push(values.Number(float64(m.nextRandom() % n)))
	return outcomeContinue, values.Undefined, nil
}
