package interpreter

import (
	"strings"

	"github.com/open-flash/avmore-go/internal/values"
)

// execStringAdd concatenates two operands after ToString coercion,
// distinct from ActionAdd2's ToPrimitive-then-maybe-numeric rule: this
// opcode is always a string concatenation.
func (m *Machine) execStringAdd(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	right, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	left, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	v, err := values.NewStringValue(m.Heap, left+right)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(v)
	return outcomeContinue, values.Undefined, nil
}

// execStringLength pushes the UTF-16 code-unit count of the operand's
// string coercion, matching the Flash Player's string length (not Go's
// byte length or rune count).
func (m *Machine) execStringLength(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	s, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(values.Number(float64(utf16Len(s))))
	return outcomeContinue, values.Undefined, nil
}

// execStringExtract implements StringExtract/MBStringExtract: pops
// (string, index, count) and pushes the substring, clamped to the
// string's bounds rather than erroring on out-of-range operands.
func (m *Machine) execStringExtract(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	count := int(frame.Pop().LegacyToNumber())
	index := int(frame.Pop().LegacyToNumber())
	s, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	units := toUTF16(s)
	if index < 0 {
		index = 0
	}
	if index > len(units) {
		index = len(units)
	}
	end := index + count
	if count < 0 || end > len(units) {
		end = len(units)
	}
	v, err := values.NewStringValue(m.Heap, fromUTF16(units[index:end]))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(v)
	return outcomeContinue, values.Undefined, nil
}

// execCharToAscii pushes the UTF-16 code unit of the first character of
// the operand's string coercion (0 for an empty string), matching
// CharToAscii/MBCharToAscii's historical "ASCII" naming despite actually
// operating on 16-bit code units.
func (m *Machine) execCharToAscii(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	s, err := frame.Pop().ToGoString(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	units := toUTF16(s)
	if len(units) == 0 {
		frame.Push(values.Number(0))
		return outcomeContinue, values.Undefined, nil
	}
	frame.Push(values.Number(float64(units[0])))
	return outcomeContinue, values.Undefined, nil
}

// execAsciiToChar pushes the one-character string for the operand's code
// unit.
func (m *Machine) execAsciiToChar(frame *Frame) (outcome, values.Value, error) {
	ctx := m.ContextWithThis(frame.This)
	code, err := frame.Pop().ToNumberCtx(m.Heap, ctx)
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	v, err := values.NewStringValue(m.Heap, fromUTF16([]uint16{uint16(int64(code))}))
	if err != nil {
		return outcomeContinue, values.Undefined, err
	}
	frame.Push(v)
	return outcomeContinue, values.Undefined, nil
}

// toUTF16/fromUTF16/utf16Len give StringExtract/CharToAscii/AsciiToChar
// the code-unit-indexed view of a string the Flash Player's string
// opcodes use, rather than Go's byte or rune indexing.
func toUTF16(s string) []uint16 {
	var out []uint16
	for _, r := range s {
		if r <= 0xFFFF {
			out = append(out, uint16(r))
			continue
		}
		r -= 0x10000
		out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
	}
	return out
}

func fromUTF16(units []uint16) string {
	var b strings.Builder
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) && units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF {
			r := (rune(u)-0xD800)<<10 | (rune(units[i+1]) - 0xDC00) + 0x10000
			b.WriteRune(r)
			i++
			continue
		}
		b.WriteRune(rune(u))
	}
	return b.String()
}

func utf16Len(s string) int { return len(toUTF16(s)) }
