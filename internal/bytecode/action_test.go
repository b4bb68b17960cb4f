package bytecode

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionSimple(t *testing.T) {
	rest, action, err := ParseAction([]byte{0x0A, 0x26})
	require.NoError(t, err)
	assert.Equal(t, ActionAdd, action.Kind)
	assert.Equal(t, []byte{0x26}, rest)
}

func TestParseActionUnknownTagDoesNotFail(t *testing.T) {
	_, action, err := ParseAction([]byte{0x02})
	require.NoError(t, err)
	assert.Equal(t, ActionUnknown, action.Kind)
	assert.Equal(t, byte(0x02), action.RawTag)
}

func TestParseActionPushString(t *testing.T) {
	payload := append([]byte{0x00}, []byte("hi\x00")...)
	code := withLengthPrefix(0x96, payload)
	_, action, err := ParseAction(code)
	require.NoError(t, err)
	require.Len(t, action.PushValues, 1)
	assert.Equal(t, PushString, action.PushValues[0].Kind)
	assert.Equal(t, "hi", action.PushValues[0].Str)
}

func TestParseActionPushMixedKinds(t *testing.T) {
	var payload []byte
	payload = append(payload, 3) // undefined
	payload = append(payload, 2) // null
	payload = append(payload, 5, 1) // boolean true

	f64 := make([]byte, 8)
	binary.LittleEndian.PutUint64(f64, math.Float64bits(2.5))
	payload = append(payload, 6)
	payload = append(payload, f64...)

	code := withLengthPrefix(0x96, payload)
	_, action, err := ParseAction(code)
	require.NoError(t, err)
	require.Len(t, action.PushValues, 4)
	assert.Equal(t, PushUndefined, action.PushValues[0].Kind)
	assert.Equal(t, PushNull, action.PushValues[1].Kind)
	assert.Equal(t, PushBoolean, action.PushValues[2].Kind)
	assert.True(t, action.PushValues[2].Bool)
	assert.Equal(t, PushDouble, action.PushValues[3].Kind)
	assert.Equal(t, 2.5, action.PushValues[3].Num)
}

func TestParseActionConstantPool(t *testing.T) {
	var payload []byte
	payload = binary.LittleEndian.AppendUint16(payload, 2)
	payload = append(payload, []byte("foo\x00bar\x00")...)
	code := withLengthPrefix(0x88, payload)
	_, action, err := ParseAction(code)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, action.Constants)
}

func TestParseActionDefineFunction(t *testing.T) {
	var payload []byte
	payload = append(payload, []byte("f\x00")...)
	payload = binary.LittleEndian.AppendUint16(payload, 1)
	payload = append(payload, []byte("a\x00")...)
	payload = binary.LittleEndian.AppendUint16(payload, 5)
	code := withLengthPrefix(0x9B, payload)
	_, action, err := ParseAction(code)
	require.NoError(t, err)
	assert.Equal(t, ActionDefineFunction, action.Kind)
	assert.Equal(t, "f", action.FunctionName)
	assert.Equal(t, []string{"a"}, action.Parameters)
	assert.Equal(t, 5, action.BodySize)
}

func TestParseActionJumpOffsetIsSigned(t *testing.T) {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, uint16(int16(-4)))
	code := withLengthPrefix(0x99, payload)
	_, action, err := ParseAction(code)
	require.NoError(t, err)
	assert.Equal(t, int16(-4), action.Offset)
}

func TestParseActionTruncatedLengthPrefixErrors(t *testing.T) {
	_, _, err := ParseAction([]byte{0x96, 0x01})
	assert.Error(t, err)
}

func TestParseActionEmptyBufferErrors(t *testing.T) {
	_, _, err := ParseAction(nil)
	assert.Error(t, err)
}

func withLengthPrefix(tag byte, payload []byte) []byte {
	code := make([]byte, 0, 3+len(payload))
	code = append(code, tag)
	code = binary.LittleEndian.AppendUint16(code, uint16(len(payload)))
	code = append(code, payload...)
	return code
}
