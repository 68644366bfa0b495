package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiki/internal/ir"
)

func TestRewriteCancellation(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))

	res := ana.Rewrite.Simplify(ir.OpAdd(ir.OpSub(x, y), y))
	assert.Same(t, ir.Expr(x), res, "(x - y) + y cancels to x")

	res = ana.Rewrite.Simplify(ir.OpSub(ir.OpAdd(x, y), y))
	assert.Same(t, ir.Expr(x), res, "(x + y) - y cancels to x")

	res = ana.Rewrite.Simplify(ir.OpSub(x, x))
	assert.True(t, ir.IsConstInt(res, 0))
}

func TestRewriteConstantReassociation(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	res := ana.Rewrite.Simplify(ir.OpAdd(ir.OpAdd(x, i32(3)), i32(4)))
	assert.Equal(t, "(x + 7)", res.String())

	res = ana.Rewrite.Simplify(ir.OpMul(ir.OpMul(x, i32(3)), i32(4)))
	assert.Equal(t, "(x*12)", res.String())

	res = ana.Rewrite.Simplify(ir.OpAdd(x, x))
	assert.Equal(t, "(x*2)", res.String())
}

func TestRewriteDivModRecombination(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	// x/7*7 + x%7 reassembles x
	expr := ir.OpAdd(
		ir.OpMul(ir.OpTruncDiv(x, i32(7)), i32(7)),
		ir.OpTruncMod(x, i32(7)))
	res := ana.Rewrite.Simplify(expr)
	assert.Same(t, ir.Expr(x), res)

	expr = ir.OpAdd(
		ir.OpMul(ir.OpFloorDiv(x, i32(7)), i32(7)),
		ir.OpFloorMod(x, i32(7)))
	res = ana.Rewrite.Simplify(expr)
	assert.Same(t, ir.Expr(x), res)
}

func TestRewriteMinMax(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))

	res := ana.Rewrite.Simplify(ir.OpMin(x, x))
	assert.Same(t, ir.Expr(x), res)

	// absorption: min(x, max(x, y)) == x
	res = ana.Rewrite.Simplify(ir.OpMin(x, ir.OpMax(x, y)))
	assert.Same(t, ir.Expr(x), res)

	// min(c1 - x, c2 - x) selects by constant
	res = ana.Rewrite.Simplify(ir.OpMin(ir.OpSub(i32(5), x), ir.OpSub(i32(9), x)))
	assert.Equal(t, "(5 - x)", res.String())

	// interval-disjoint collapse
	a := ir.NewVar("a", ir.Int(32))
	b := ir.NewVar("b", ir.Int(32))
	ana.ConstIntBound.Update(a, ConstIntBound{Min: 0, Max: 10}, false)
	ana.ConstIntBound.Update(b, ConstIntBound{Min: 10, Max: 20}, false)
	res = ana.Rewrite.Simplify(ir.OpMin(a, b))
	assert.Same(t, ir.Expr(a), res)
	res = ana.Rewrite.Simplify(ir.OpMax(a, b))
	assert.Same(t, ir.Expr(b), res)
}

func TestRewriteMinDistribution(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	z := ir.NewVar("z", ir.Int(32))

	res := ana.Rewrite.Simplify(ir.OpMin(ir.OpAdd(y, x), ir.OpAdd(z, x)))
	assert.Equal(t, "(min(y, z) + x)", res.String())

	res = ana.Rewrite.Simplify(ir.OpMin(ir.OpMul(y, i32(4)), ir.OpMul(z, i32(4))))
	assert.Equal(t, "(min(y, z)*4)", res.String())
}

func TestRewriteModDropsNonNegativeMultiple(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: ir.PosInf}, false)

	// (x*4 + 3) % 4 drops the non-negative multiple x*4 and folds 3 % 4 to 3
	expr := ir.OpTruncMod(ir.OpAdd(ir.OpMul(x, i32(4)), i32(3)), i32(4))
	res := ana.Rewrite.Simplify(expr)
	assert.True(t, ir.IsConstInt(res, 3), "got %s", res)
}

func TestRewriteTruncModNegativeDivisorCanonicalizes(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	res := ana.Rewrite.Simplify(ir.OpTruncMod(x, i32(-7)))
	assert.Equal(t, "(x % 7)", res.String())
}

func TestRewriteComparisons(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewVar("n", ir.Int(32))
	ana.ConstIntBound.Update(n, ConstIntBound{Min: 0, Max: 30}, false)

	res := ana.Rewrite.Simplify(ir.OpLT(ir.OpAdd(n, i32(1)), i32(32)))
	assert.True(t, ir.IsConstInt(res, 1), "n + 1 < 32 proves true, got %s", res)

	res = ana.Rewrite.Simplify(ir.OpLT(ir.OpAdd(n, i32(1)), i32(31)))
	_, stillSymbolic := res.(*ir.LT)
	assert.True(t, stillSymbolic, "n + 1 < 31 stays symbolic, got %s", res)

	res = ana.Rewrite.Simplify(ir.OpGE(n, i32(0)))
	assert.True(t, ir.IsConstInt(res, 1))
}

func TestRewriteScaledComparison(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	// x*8 < 17 becomes x < 3 via ceildiv
	res := ana.Rewrite.Simplify(ir.OpLT(ir.OpMul(x, i32(8)), i32(17)))
	require.IsType(t, &ir.LT{}, res)
	lt := res.(*ir.LT)
	assert.Same(t, ir.Expr(x), lt.A)
	assert.True(t, ir.IsConstInt(lt.B, 3))
}

func TestRewriteEQDerivations(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	res := ana.Rewrite.Simplify(ir.OpEQ(x, x))
	assert.True(t, ir.IsConstInt(res, 1))

	// a != b under a known a <= b tightens to a < b
	i := ir.NewVar("i", ir.Int(32))
	j := ir.NewVar("j", ir.Int(32))
	recover := ana.TransitiveComparisons.EnterConstraint(ir.OpLE(i, j))
	defer recover()
	res = ana.Rewrite.Simplify(ir.OpNE(i, j))
	require.IsType(t, &ir.LT{}, res, "got %s", res)
}

func TestRewriteBooleanRules(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))

	res := ana.Rewrite.Simplify(ir.OpAnd(ir.OpLE(x, y), ir.OpLT(y, x)))
	assert.True(t, ir.IsConstInt(res, 0))

	res = ana.Rewrite.Simplify(ir.OpOr(ir.OpLE(x, y), ir.OpLT(y, x)))
	assert.True(t, ir.IsConstInt(res, 1))

	res = ana.Rewrite.Simplify(ir.OpOr(ir.OpLT(x, y), ir.OpLT(y, x)))
	require.IsType(t, &ir.NE{}, res)

	res = ana.Rewrite.Simplify(ir.OpNot(ir.OpLT(x, y)))
	require.IsType(t, &ir.LE{}, res)
	le := res.(*ir.LE)
	assert.Same(t, ir.Expr(y), le.A)
	assert.Same(t, ir.Expr(x), le.B)
}

func TestRewriteNotPushesThroughConnectives(t *testing.T) {
	ana := NewAnalyzer()
	a := ir.NewVar("a", ir.Bool())
	b := ir.NewVar("b", ir.Bool())

	res := ana.Rewrite.Simplify(&ir.Not{A: &ir.And{A: a, B: b}})
	require.IsType(t, &ir.Or{}, res)

	res = ana.Rewrite.Simplify(&ir.Not{A: &ir.Or{A: a, B: b}})
	require.IsType(t, &ir.And{}, res)
}

func TestRewriteSelect(t *testing.T) {
	ana := NewAnalyzer()
	c := ir.NewVar("c", ir.Bool())
	x := ir.NewVar("x", ir.Int(32))

	res := ana.Rewrite.Simplify(&ir.Select{Cond: c, TrueValue: x, FalseValue: x})
	assert.Same(t, ir.Expr(x), res)
}

func TestRewriteSelectBranchConstraint(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewVar("n", ir.Int(32))

	// inside the true branch of n < 10, the comparison n < 20 is known
	expr := &ir.Select{
		Cond:       ir.OpLT(n, i32(10)),
		TrueValue:  ir.OpSelect(ir.OpLT(n, i32(20)), i32(1), i32(2)),
		FalseValue: i32(3),
	}
	res := ana.Rewrite.Simplify(expr)
	require.IsType(t, &ir.Select{}, res)
	sel := res.(*ir.Select)
	assert.True(t, ir.IsConstInt(sel.TrueValue, 1), "got %s", sel.TrueValue)
}

func TestRewriteLiteralConstraintTable(t *testing.T) {
	ana := NewAnalyzer()
	c := ir.NewVar("c", ir.Bool())

	recover := ana.Rewrite.EnterConstraint(c)
	res := ana.Rewrite.Simplify(c)
	assert.True(t, ir.IsConstInt(res, 1), "asserted booleans resolve to true")

	res = ana.Rewrite.Simplify(&ir.Not{A: c})
	assert.True(t, ir.IsConstInt(res, 0), "the negation resolves to false")
	recover()

	res = ana.Rewrite.Simplify(c)
	assert.Same(t, ir.Expr(c), res)
}

func TestRewriteVectorRules(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))

	res := ana.Rewrite.Simplify(ir.OpAdd(ir.OpBroadcast(x, 4), ir.OpBroadcast(y, 4)))
	require.IsType(t, &ir.Broadcast{}, res)
	assert.Equal(t, "broadcast((x + y), 4)", res.String())

	res = ana.Rewrite.Simplify(ir.OpAdd(
		ir.OpRamp(x, i32(1), 4), ir.OpRamp(y, i32(2), 4)))
	require.IsType(t, &ir.Ramp{}, res)
	assert.Equal(t, "ramp((x + y), 3, 4)", res.String())
}

func TestRewriteRampDivBroadcastCollapses(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: ir.PosInf}, false)
	ana.ModularSet.Update(x, ModularSet{Coeff: 8, Base: 0}, false)

	// all four lanes of ramp(x, 1, 4) / 8 land in the same quotient
	expr := ir.OpTruncDiv(ir.OpRamp(x, i32(1), 4), ir.OpBroadcast(i32(8), 4))
	res := ana.Rewrite.Simplify(expr)
	require.IsType(t, &ir.Broadcast{}, res, "got %s", res)
}

func TestRewriteStatsCounters(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.Rewrite.ResetStatsCounters()

	ana.Rewrite.Simplify(ir.OpAdd(ir.OpSub(x, i32(1)), i32(1)))
	stats := ana.Rewrite.Stats()
	assert.Greater(t, stats.NodesVisited, int64(0))
	assert.Greater(t, stats.RewritesAttempted, int64(0))
	assert.Greater(t, stats.RewritesPerformed, int64(0))
}

func TestRewriteConstraintStackDiscipline(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	before := len(ana.Rewrite.literalConstraints)
	outer := ana.Rewrite.EnterConstraint(ir.OpLT(x, i32(10)))
	inner := ana.Rewrite.EnterConstraint(ir.OpGE(x, i32(0)))
	inner()
	outer()
	assert.Equal(t, before, len(ana.Rewrite.literalConstraints),
		"constraint table returns to its pre-scope state")
}
