package interpreter

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-flash/avmore-go/internal/heap"
	"github.com/open-flash/avmore-go/internal/host"
	"github.com/open-flash/avmore-go/internal/realm"
)

// Raw action tag bytes, for assembling test byte-code directly rather than
// importing the bytecode package's unexported encoder (there is none —
// bytecode only decodes). Mirrors the tag table in bytecode/action.go.
const (
	tagAdd2       = 0x47
	tagDivide     = 0x0D
	tagEquals     = 0x0E
	tagGetVar     = 0x1C
	tagTrace      = 0x26
	tagInitObject = 0x43
	tagGetMember  = 0x4E
	tagPush       = 0x96
)

const (
	pushTypeString = 0
	pushTypeDouble = 6
)

func pushStringOperand(s string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(pushTypeString)
	buf.WriteString(s)
	buf.WriteByte(0)
	return buf.Bytes()
}

func pushDoubleOperand(n float64) []byte {
	var buf bytes.Buffer
	buf.WriteByte(pushTypeDouble)
	bits := make([]byte, 8)
	binary.LittleEndian.PutUint64(bits, math.Float64bits(n))
	buf.Write(bits)
	return buf.Bytes()
}

// pushAction assembles a single ActionPush with the given raw operand
// encodings concatenated in push order.
func pushAction(operands ...[]byte) []byte {
	var payload bytes.Buffer
	for _, op := range operands {
		payload.Write(op)
	}
	return withLength(tagPush, payload.Bytes())
}

func withLength(tag byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(tag)
	length := make([]byte, 2)
	binary.LittleEndian.PutUint16(length, uint16(len(payload)))
	buf.Write(length)
	buf.Write(payload)
	return buf.Bytes()
}

func simple(tag byte) []byte { return []byte{tag} }

func concat(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}

func newTestMachine(t *testing.T, swfVersion uint8) (*Machine, *host.LoggingHost) {
	t.Helper()
	h := heap.New()
	rm, err := realm.Bootstrap(h, swfVersion)
	require.NoError(t, err)
	loggingHost := host.NewLoggingHost()
	m := NewMachine(h, loggingHost, swfVersion, rm, 1000, nil)
	return m, loggingHost
}

func TestHelloWorld(t *testing.T) {
	m, logs := newTestMachine(t, 6)
	code := concat(
		pushAction(pushStringOperand("Hello, World!")),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"Hello, World!"}, logs.Logs)
}

func TestArithmeticCoercion(t *testing.T) {
	m, logs := newTestMachine(t, 6)
	code := concat(
		pushAction(pushStringOperand("1 + 1 = "), pushDoubleOperand(1), pushDoubleOperand(1)),
		simple(tagAdd2),
		simple(tagAdd2),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"1 + 1 = 2"}, logs.Logs)
}

func TestObjectMember(t *testing.T) {
	m, logs := newTestMachine(t, 6)
	// InitObject pops value then key per property, so the key/value pair
	// must be pushed key-then-value for a single-property object.
	code := concat(
		pushAction(pushStringOperand("foo"), pushStringOperand("Hello, World!"), pushDoubleOperand(1)),
		simple(tagInitObject),
		pushAction(pushStringOperand("foo")),
		simple(tagGetMember),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"Hello, World!"}, logs.Logs)
}

func TestLegacyBooleanUnderSWF4(t *testing.T) {
	m, logs := newTestMachine(t, 4)
	code := concat(
		pushAction(pushDoubleOperand(1), pushDoubleOperand(1)),
		simple(tagEquals),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"1"}, logs.Logs)
}

func TestLegacyBooleanUnderSWF5(t *testing.T) {
	m, logs := newTestMachine(t, 5)
	code := concat(
		pushAction(pushDoubleOperand(1), pushDoubleOperand(1)),
		simple(tagEquals),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"true"}, logs.Logs)
}

func TestDivideByZeroUnderSWF4(t *testing.T) {
	m, logs := newTestMachine(t, 4)
	code := concat(
		pushAction(pushDoubleOperand(1), pushDoubleOperand(0)),
		simple(tagDivide),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"#ERROR#"}, logs.Logs)
}

func TestDivideByZeroUnderSWF5(t *testing.T) {
	m, logs := newTestMachine(t, 5)
	code := concat(
		pushAction(pushDoubleOperand(1), pushDoubleOperand(0)),
		simple(tagDivide),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Equal(t, []string{"Infinity"}, logs.Logs)
}

func TestUndeclaredVariableWarningSWF7(t *testing.T) {
	m, logs := newTestMachine(t, 7)
	code := concat(
		pushAction(pushStringOperand("x")),
		simple(tagGetVar),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	require.Len(t, logs.Logs, 2)
	assert.Equal(t, "Warning: Reference to undeclared variable, 'x'", logs.Logs[0])
	assert.Equal(t, "undefined", logs.Logs[1])
}

func TestUndeclaredVariableWarningBeforeSWF7TracesEmptyString(t *testing.T) {
	m, logs := newTestMachine(t, 6)
	code := concat(
		pushAction(pushStringOperand("x")),
		simple(tagGetVar),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	require.Len(t, logs.Logs, 2)
	assert.Equal(t, "", logs.Logs[1], "SWF 6 has not yet crossed the >=7 threshold for ToString(Undefined)")
}

func TestUndeclaredVariableWarningSWF4TracesEmptyString(t *testing.T) {
	m, logs := newTestMachine(t, 4)
	code := concat(
		pushAction(pushStringOperand("x")),
		simple(tagGetVar),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	require.Len(t, logs.Logs, 2)
	assert.Equal(t, "", logs.Logs[1])
}

func TestStackDepthInvariantPushThenPop(t *testing.T) {
	m, _ := newTestMachine(t, 6)
	code := concat(
		pushAction(pushDoubleOperand(1)),
		simple(0x17), // Pop
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
}

func TestActionCapStopsExecution(t *testing.T) {
	h := heap.New()
	rm, err := realm.Bootstrap(h, 6)
	require.NoError(t, err)
	loggingHost := host.NewLoggingHost()
	m := NewMachine(h, loggingHost, 6, rm, 1, nil)
	code := concat(
		pushAction(pushStringOperand("first")),
		simple(tagTrace),
		pushAction(pushStringOperand("second")),
		simple(tagTrace),
	)
	_, thrown, err := m.RunScript(code)
	require.NoError(t, err)
	assert.Nil(t, thrown)
	assert.Empty(t, loggingHost.Logs)
}
