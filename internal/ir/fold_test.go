package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiki/internal/errors"
)

func TestAddConstFold(t *testing.T) {
	a := NewIntImm(Int(32), 7)
	b := NewIntImm(Int(32), 5)
	res := OpAdd(a, b)

	imm, ok := res.(*IntImm)
	require.True(t, ok, "constant addition should fold")
	assert.Equal(t, int64(12), imm.Value)
}

func TestAddIdentityFold(t *testing.T) {
	x := NewVar("x", Int(32))
	res := OpAdd(x, NewIntImm(Int(32), 0))
	assert.Same(t, x, res, "x + 0 should fold to x")

	res = OpAdd(NewIntImm(Int(32), 0), x)
	assert.Same(t, x, res, "0 + x should fold to x")
}

func TestMulZeroAndOneFold(t *testing.T) {
	x := NewVar("x", Int(32))

	res := OpMul(x, NewIntImm(Int(32), 1))
	assert.Same(t, x, res)

	res = OpMul(x, NewIntImm(Int(32), 0))
	imm, ok := res.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(0), imm.Value)
}

func TestFoldNarrowDtypeWraps(t *testing.T) {
	a := NewIntImm(Int(8), 127)
	b := NewIntImm(Int(8), 1)
	res := OpAdd(a, b)

	imm, ok := res.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(-128), imm.Value, "i8 addition wraps like the target width")
}

func TestDivideByZeroPanics(t *testing.T) {
	a := NewIntImm(Int(32), 10)
	zero := NewIntImm(Int(32), 0)

	assert.PanicsWithError(t, errors.ValueCode(errors.ErrorDivideByZero, "division by zero").Error(), func() {
		OpTruncDiv(a, zero)
	})
	assert.Panics(t, func() { OpFloorDiv(a, zero) })
	assert.Panics(t, func() { OpTruncMod(a, zero) })
	assert.Panics(t, func() { OpFloorMod(a, zero) })
}

func TestFloorDivFold(t *testing.T) {
	cases := []struct {
		a, b, div, mod int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
	}
	for _, tc := range cases {
		div := OpFloorDiv(NewIntImm(Int(32), tc.a), NewIntImm(Int(32), tc.b))
		imm, ok := div.(*IntImm)
		require.True(t, ok)
		assert.Equal(t, tc.div, imm.Value, "floordiv(%d, %d)", tc.a, tc.b)

		mod := OpFloorMod(NewIntImm(Int(32), tc.a), NewIntImm(Int(32), tc.b))
		imm, ok = mod.(*IntImm)
		require.True(t, ok)
		assert.Equal(t, tc.mod, imm.Value, "floormod(%d, %d)", tc.a, tc.b)
	}
}

func TestTruncDivFoldKeepsCSemantics(t *testing.T) {
	div := OpTruncDiv(NewIntImm(Int(32), -7), NewIntImm(Int(32), 2))
	imm, ok := div.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(-3), imm.Value)

	mod := OpTruncMod(NewIntImm(Int(32), -7), NewIntImm(Int(32), 2))
	imm, ok = mod.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(-1), imm.Value)
}

func TestShiftRangeCheck(t *testing.T) {
	x := NewVar("x", Int(32))
	assert.Panics(t, func() {
		OpLeftShift(x, NewIntImm(Int(32), 32))
	})
	assert.Panics(t, func() {
		OpRightShift(x, NewIntImm(Int(32), -1))
	})
	res := OpLeftShift(NewIntImm(Int(32), 1), NewIntImm(Int(32), 4))
	imm, ok := res.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(16), imm.Value)
}

func TestComparisonFold(t *testing.T) {
	res := OpLT(NewIntImm(Int(32), 3), NewIntImm(Int(32), 4))
	imm, ok := res.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(1), imm.Value)
	assert.True(t, imm.Dtype.IsBool())

	res = OpGE(NewIntImm(Int(32), 3), NewIntImm(Int(32), 4))
	imm, ok = res.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(0), imm.Value)
}

func TestBooleanFold(t *testing.T) {
	x := NewVar("c", Bool())
	res := OpAnd(NewBoolImm(true), x)
	assert.Same(t, x, res)

	res = OpAnd(NewBoolImm(false), x)
	imm, ok := res.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(0), imm.Value)

	res = OpOr(x, NewBoolImm(true))
	imm, ok = res.(*IntImm)
	require.True(t, ok)
	assert.Equal(t, int64(1), imm.Value)
}

func TestMinValueMaxValue(t *testing.T) {
	maxI8, err := MaxValue(Int(8))
	require.NoError(t, err)
	assert.Equal(t, int64(127), maxI8.(*IntImm).Value)

	minI8, err := MinValue(Int(8))
	require.NoError(t, err)
	assert.Equal(t, int64(-128), minI8.(*IntImm).Value)

	minU32, err := MinValue(UInt(32))
	require.NoError(t, err)
	assert.Equal(t, int64(0), minU32.(*IntImm).Value)

	_, err = MaxValue(Int(32).WithLanes(4))
	assert.Error(t, err, "vector dtypes have no max_value")
}

func TestSelectRequiresBoolCondition(t *testing.T) {
	x := NewVar("x", Int(32))
	assert.Panics(t, func() {
		OpSelect(x, x, x)
	})
}

func TestBroadcastTypePromotion(t *testing.T) {
	x := NewVar("x", Int(32))
	v := OpBroadcast(NewIntImm(Int(32), 3), 4)
	res := OpAdd(x, v)
	assert.Equal(t, int16(4), res.Type().Lanes, "scalar operand broadcasts to vector lanes")

	wide := NewVar("w", Int(64))
	mixed := OpAdd(x, wide)
	assert.Equal(t, Int(64), mixed.Type(), "narrow int promotes to the wider int")
}
