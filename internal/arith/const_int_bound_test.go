package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiki/internal/ir"
)

func i32(v int64) ir.Expr { return ir.ConstScalar(ir.Int(32), v) }

func TestConstIntBoundConstants(t *testing.T) {
	ana := NewAnalyzer()
	bd := ana.ConstIntBound.Query(i32(42))
	assert.Equal(t, ConstIntBound{Min: 42, Max: 42}, bd)
}

func TestConstIntBoundUnboundVar(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	bd := ana.ConstIntBound.Query(x)
	assert.Equal(t, int64(-(1 << 31)), bd.Min)
	assert.Equal(t, int64((1<<31)-1), bd.Max)
}

func TestConstIntBoundShapeVarDefaults(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewShapeVar("n", ir.Int(32))
	bd := ana.ConstIntBound.Query(n)
	assert.Equal(t, int64(0), bd.Min)
	assert.Equal(t, ir.PosInf, bd.Max)
}

func TestConstIntBoundRangeBind(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewVar("n", ir.Int(32))
	// n in [0, 10): min 0, extent 10
	ana.ConstIntBound.Bind(n, ir.NewRange(i32(0), i32(10)), false)
	bd := ana.ConstIntBound.Query(n)
	assert.Equal(t, ConstIntBound{Min: 0, Max: 9}, bd)
}

func TestConstIntBoundArith(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 10}, false)
	ana.ConstIntBound.Update(y, ConstIntBound{Min: -3, Max: 4}, false)

	bd := ana.ConstIntBound.Query(ir.OpAdd(x, y))
	assert.Equal(t, ConstIntBound{Min: -3, Max: 14}, bd)

	bd = ana.ConstIntBound.Query(ir.OpSub(x, y))
	assert.Equal(t, ConstIntBound{Min: -4, Max: 13}, bd)

	bd = ana.ConstIntBound.Query(ir.OpMul(x, y))
	assert.Equal(t, ConstIntBound{Min: -30, Max: 40}, bd)

	bd = ana.ConstIntBound.Query(ir.OpMin(x, y))
	assert.Equal(t, ConstIntBound{Min: -3, Max: 4}, bd)

	bd = ana.ConstIntBound.Query(ir.OpMax(x, y))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 10}, bd)
}

func TestConstIntBoundSaturatesOnOverflow(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(64))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 1 << 62, Max: ir.PosInf}, false)
	bd := ana.ConstIntBound.Query(ir.OpMul(x, ir.ConstScalar(ir.Int(64), 4)))
	assert.Equal(t, ir.PosInf, bd.Max)
	assert.Equal(t, ir.PosInf, bd.Min, "overflowing finite min saturates upward")
}

func TestConstIntBoundDivisorExcludesZero(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewShapeVar("n", ir.Int(32))
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 100}, false)
	// n >= 0 is assumed n > 0 where it appears as a divisor
	bd := ana.ConstIntBound.Query(ir.OpFloorDiv(x, n))
	assert.Equal(t, int64(0), bd.Min)
	assert.Equal(t, int64(100), bd.Max)
}

func TestConstIntBoundTruncModRules(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	b := ir.NewVar("b", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 3}, false)
	ana.ConstIntBound.Update(b, ConstIntBound{Min: 8, Max: 16}, false)

	// dividend already below the divisor's minimum
	bd := ana.ConstIntBound.Query(ir.OpTruncMod(x, b))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 3}, bd)

	y := ir.NewVar("y", ir.Int(32))
	ana.ConstIntBound.Update(y, ConstIntBound{Min: -100, Max: 100}, false)
	bd = ana.ConstIntBound.Query(ir.OpTruncMod(y, b))
	assert.Equal(t, ConstIntBound{Min: -15, Max: 15}, bd)
}

func TestConstIntBoundFloorModNonNegative(t *testing.T) {
	ana := NewAnalyzer()
	y := ir.NewVar("y", ir.Int(32))
	ana.ConstIntBound.Update(y, ConstIntBound{Min: -100, Max: 100}, false)
	bd := ana.ConstIntBound.Query(ir.OpFloorMod(y, i32(8)))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 7}, bd)
}

func TestConstIntBoundSelectUnion(t *testing.T) {
	ana := NewAnalyzer()
	c := ir.NewVar("c", ir.Bool())
	bd := ana.ConstIntBound.Query(ir.OpSelect(c, i32(3), i32(9)))
	assert.Equal(t, ConstIntBound{Min: 3, Max: 9}, bd)
}

func TestConstIntBoundCastIntersects(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	bd := ana.ConstIntBound.Query(ir.OpCast(ir.Int(8), x))
	assert.Equal(t, ConstIntBound{Min: -128, Max: 127}, bd)
}

func TestConstIntBoundRampEndpoints(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 10}, false)
	ramp := ir.OpRamp(x, i32(2), 4)
	bd := ana.ConstIntBound.Query(ramp)
	assert.Equal(t, ConstIntBound{Min: 0, Max: 16}, bd)
}

func TestConstIntBoundBitwiseAnd(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 1000}, false)
	bd := ana.ConstIntBound.Query(ir.OpBitwiseAnd(x, ir.NewVar("m", ir.Int(32))))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 1000}, bd)
}

func TestConstIntBoundShifts(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 16}, false)

	bd := ana.ConstIntBound.Query(ir.OpLeftShift(x, i32(2)))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 64}, bd)

	bd = ana.ConstIntBound.Query(ir.OpRightShift(x, i32(2)))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 4}, bd)
}

func TestConstIntBoundEnterConstraintRestores(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	recover := ana.ConstIntBound.EnterConstraint(ir.OpLE(x, i32(5)))
	require.NotNil(t, recover)
	bd := ana.ConstIntBound.Query(x)
	assert.Equal(t, int64(5), bd.Max)

	recover()
	bd = ana.ConstIntBound.Query(x)
	assert.Equal(t, int64((1<<31)-1), bd.Max, "recovery restores the pre-constraint state")
}

func TestConstIntBoundConstraintConjunction(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	cond := ir.OpAnd(ir.OpGE(x, i32(2)), ir.OpLT(x, i32(9)))
	recover := ana.ConstIntBound.EnterConstraint(cond)
	require.NotNil(t, recover)
	defer recover()

	bd := ana.ConstIntBound.Query(x)
	assert.Equal(t, ConstIntBound{Min: 2, Max: 8}, bd)
}

func TestConstIntBoundLetBinding(t *testing.T) {
	ana := NewAnalyzer()
	v := ir.NewVar("v", ir.Int(32))
	body := ir.OpAdd(v, i32(1))
	let := ir.OpLet(v, i32(41), body)
	bd := ana.ConstIntBound.Query(let)
	assert.Equal(t, ConstIntBound{Min: 42, Max: 42}, bd)
}

func TestConstIntBoundMemoizedQuery(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 7}, false)
	m := NewBoundMap()
	expr := ir.OpAdd(x, i32(1))
	bd := ana.ConstIntBound.QueryMemoized(expr, m)
	assert.Equal(t, ConstIntBound{Min: 1, Max: 8}, bd)

	memo, ok := m.Get(expr)
	require.True(t, ok)
	assert.Equal(t, bd, memo)
}

func TestConstIntBoundConflictingUpdatePanics(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 7}, false)
	assert.Panics(t, func() {
		ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 8}, false)
	})
	assert.NotPanics(t, func() {
		ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: 8}, true)
	})
}
