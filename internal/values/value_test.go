package values

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-flash/avmore-go/internal/heap"
)

type fakeContext struct {
	swfVersion uint8
}

func (c fakeContext) SWFVersion() uint8 { return c.swfVersion }
func (c fakeContext) Apply(callable, this Value, args []Value) (Value, *Value, error) {
	return Undefined, nil, nil
}

func TestToBoolean(t *testing.T) {
	assert.False(t, Undefined.ToBoolean())
	assert.False(t, Null.ToBoolean())
	assert.False(t, Number(0).ToBoolean())
	assert.False(t, Number(math.NaN()).ToBoolean())
	assert.True(t, Number(1).ToBoolean())
	assert.True(t, Boolean(true).ToBoolean())
	assert.False(t, Boolean(false).ToBoolean())

	h := heap.New()
	empty, err := NewStringValue(h, "")
	require.NoError(t, err)
	assert.False(t, empty.ToBoolean())
	nonEmpty, err := NewStringValue(h, "x")
	require.NoError(t, err)
	assert.True(t, nonEmpty.ToBoolean())
}

func TestToNumber(t *testing.T) {
	assert.True(t, math.IsNaN(Undefined.ToNumber()))
	assert.Equal(t, float64(0), Null.ToNumber())
	assert.Equal(t, float64(1), Boolean(true).ToNumber())
	assert.Equal(t, float64(0), Boolean(false).ToNumber())
	assert.Equal(t, float64(42), Number(42).ToNumber())

	h := heap.New()
	s, err := NewStringValue(h, "  3.5  ")
	require.NoError(t, err)
	assert.Equal(t, 3.5, s.ToNumber())

	empty, err := NewStringValue(h, "")
	require.NoError(t, err)
	assert.Equal(t, float64(0), empty.ToNumber())

	hex, err := NewStringValue(h, "0x10")
	require.NoError(t, err)
	assert.Equal(t, float64(16), hex.ToNumber())

	garbage, err := NewStringValue(h, "not a number")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(garbage.ToNumber()))
}

func TestLegacyToNumber(t *testing.T) {
	h := heap.New()
	s, err := NewStringValue(h, "123")
	require.NoError(t, err)
	// LegacyToNumber treats strings (and objects) as 0, unlike ToNumber.
	assert.Equal(t, float64(0), s.LegacyToNumber())
	assert.Equal(t, float64(1), Boolean(true).LegacyToNumber())
	assert.Equal(t, float64(7), Number(7).LegacyToNumber())
}

func TestStrictEquals(t *testing.T) {
	assert.True(t, StrictEquals(Number(1), Number(1)))
	assert.False(t, StrictEquals(Number(math.NaN()), Number(math.NaN())))
	assert.True(t, StrictEquals(Number(0), Number(math.Copysign(0, -1))))
	assert.False(t, StrictEquals(Number(1), Boolean(true)))
	assert.True(t, StrictEquals(Undefined, Undefined))
	assert.True(t, StrictEquals(Null, Null))
	assert.False(t, StrictEquals(Undefined, Null))
}

func TestDataEqualsTreatsNaNAsEqual(t *testing.T) {
	assert.True(t, DataEquals(Number(math.NaN()), Number(math.NaN())))
	assert.False(t, StrictEquals(Number(math.NaN()), Number(math.NaN())))
}

func TestAbstractEqualsNullUndefined(t *testing.T) {
	h := heap.New()
	ctx := fakeContext{swfVersion: 6}
	ok, err := AbstractEquals(h, ctx, Null, Undefined)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAbstractEqualsNumberString(t *testing.T) {
	h := heap.New()
	ctx := fakeContext{swfVersion: 6}
	s, err := NewStringValue(h, "1")
	require.NoError(t, err)
	ok, err := AbstractEquals(h, ctx, Number(1), s)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAbstractLessStringCompare(t *testing.T) {
	h := heap.New()
	ctx := fakeContext{swfVersion: 6}
	a, err := NewStringValue(h, "a")
	require.NoError(t, err)
	b, err := NewStringValue(h, "b")
	require.NoError(t, err)
	result, ok, err := AbstractLess(h, ctx, a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, result)
}

func TestAbstractLessNaNIsUndefined(t *testing.T) {
	h := heap.New()
	ctx := fakeContext{swfVersion: 6}
	_, ok, err := AbstractLess(h, ctx, Number(math.NaN()), Number(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToGoStringUndefinedBySWFVersion(t *testing.T) {
	h := heap.New()
	s, err := Undefined.ToGoString(h, fakeContext{swfVersion: 6})
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = Undefined.ToGoString(h, fakeContext{swfVersion: 7})
	require.NoError(t, err)
	assert.Equal(t, "undefined", s)
}

func TestLegacyBoolean(t *testing.T) {
	assert.Equal(t, Number(1), LegacyBoolean(true, 4))
	assert.Equal(t, Number(0), LegacyBoolean(false, 4))
	assert.Equal(t, Boolean(true), LegacyBoolean(true, 5))
	assert.Equal(t, Boolean(false), LegacyBoolean(false, 6))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "NaN", formatNumber(math.NaN()))
	assert.Equal(t, "Infinity", formatNumber(math.Inf(1)))
	assert.Equal(t, "-Infinity", formatNumber(math.Inf(-1)))
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "2", formatNumber(2))
	assert.Equal(t, "2.5", formatNumber(2.5))
}
