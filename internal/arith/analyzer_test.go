package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiki/internal/ir"
)

// Scenario: const-bound arithmetic over a bound loop variable.
func TestAnalyzerConstBoundComparison(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewVar("n", ir.Int(32))
	ana.BindRange(n, ir.NewRange(i32(0), i32(31)), false)

	res := ana.Simplify(ir.OpLT(ir.OpAdd(n, i32(1)), i32(32)), 2)
	assert.True(t, ir.IsConstInt(res, 1), "n + 1 < 32 proves true, got %s", res)

	res = ana.Simplify(ir.OpLT(ir.OpAdd(n, i32(1)), i32(31)), 2)
	_, symbolic := res.(*ir.LT)
	assert.True(t, symbolic, "n + 1 < 31 stays symbolic, got %s", res)
}

// Scenario: floor-div canonicalization eliminates a bounded remainder.
func TestAnalyzerFloorDivCanonicalization(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	ana.BindRange(y, ir.NewRange(i32(0), i32(8)), false)

	res := ana.Simplify(ir.OpFloorDiv(ir.OpAdd(ir.OpMul(x, i32(8)), y), i32(8)), 2)
	assert.Same(t, ir.Expr(x), res, "got %s", res)
}

// Scenario: trunc-mod fold through the modular set under x >= 0.
func TestAnalyzerTruncModFold(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: ir.PosInf}, false)

	res := ana.Simplify(ir.OpTruncMod(ir.OpAdd(ir.OpMul(x, i32(4)), i32(3)), i32(4)), 2)
	assert.True(t, ir.IsConstInt(res, 3), "got %s", res)
}

// Scenario: comparison of product and sum, extension enabled.
func TestAnalyzerComparisonOfProductAndSum(t *testing.T) {
	ana := NewAnalyzer()
	ana.Rewrite.SetEnabledExtensions(ExtComparisonOfProductAndSum)

	a := ir.NewVar("A", ir.Int(32))
	b := ir.NewVar("B", ir.Int(32))
	c := ir.NewVar("C", ir.Int(32))
	d := ir.NewVar("D", ir.Int(32))
	ana.ConstIntBound.Update(a, ConstIntBound{Min: 1, Max: 2}, false)
	ana.ConstIntBound.Update(b, ConstIntBound{Min: 1, Max: ir.PosInf}, false)
	ana.ConstIntBound.Update(c, ConstIntBound{Min: 6, Max: ir.PosInf}, false)
	ana.ConstIntBound.Update(d, ConstIntBound{Min: 1, Max: 1}, false)

	// with A*D bounded by C, (A+B)*C >= (A*B)*D holds for all values
	lhs := ir.OpMul(ir.OpAdd(a, b), c)
	rhs := ir.OpMul(ir.OpMul(a, b), d)
	assert.True(t, ana.CanProve(ir.OpGE(lhs, rhs), ProofDefault))

	// without the extension the same proof fails
	plain := NewAnalyzer()
	plain.ConstIntBound.Update(a, ConstIntBound{Min: 1, Max: 2}, false)
	plain.ConstIntBound.Update(b, ConstIntBound{Min: 1, Max: ir.PosInf}, false)
	plain.ConstIntBound.Update(c, ConstIntBound{Min: 6, Max: ir.PosInf}, false)
	plain.ConstIntBound.Update(d, ConstIntBound{Min: 1, Max: 1}, false)
	assert.False(t, plain.CanProve(ir.OpGE(lhs, rhs), ProofDefault))
}

// Scenario: transitive chain with the extension enabled.
func TestAnalyzerTransitiveChain(t *testing.T) {
	ana := NewAnalyzer()
	ana.Rewrite.SetEnabledExtensions(ExtTransitivelyProveInequalities)

	i := ir.NewVar("i", ir.Int(32))
	j := ir.NewVar("j", ir.Int(32))
	k := ir.NewVar("k", ir.Int(32))
	ctx := ana.EnterConstraint(ir.OpAnd(ir.OpLE(i, j), ir.OpLE(j, k)))
	defer ctx.Exit()

	assert.True(t, ana.CanProve(ir.OpLE(i, k), ProofDefault))
	assert.False(t, ana.CanProve(ir.OpLT(i, k), ProofDefault),
		"no strict edge is implied by the chain")
}

// Scenario: modular union through select.
func TestAnalyzerModularUnionThroughSelect(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	c := ir.NewVar("c", ir.Bool())

	expr := ir.OpSelect(c,
		ir.OpAdd(ir.OpMul(x, i32(4)), i32(2)),
		ir.OpAdd(ir.OpMul(x, i32(4)), i32(6)))
	res := ana.Simplify(expr, 2)
	m := ana.ModularSet.Query(res)
	assert.Equal(t, ModularSet{Coeff: 4, Base: 2}, m, "got %s with %s", res, m)
}

func TestAnalyzerSimplifyIdempotent(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	ana.BindRange(y, ir.NewRange(i32(0), i32(8)), false)

	exprs := []ir.Expr{
		ir.OpFloorDiv(ir.OpAdd(ir.OpMul(x, i32(8)), y), i32(8)),
		ir.OpAdd(ir.OpAdd(x, i32(3)), i32(4)),
		ir.OpMin(x, ir.OpMax(x, y)),
		ir.OpLT(ir.OpMul(x, i32(8)), i32(17)),
	}
	for _, expr := range exprs {
		once := ana.Simplify(expr, 2)
		twice := ana.Simplify(once, 2)
		assert.True(t, ir.DeepEqual(once, twice),
			"simplify is idempotent for %s: %s vs %s", expr, once, twice)
	}
}

func TestAnalyzerBindPropagatesEverywhere(t *testing.T) {
	ana := NewAnalyzer()
	m := ir.NewVar("m", ir.Int(32))
	n := ir.NewVar("n", ir.Int(32))
	ana.BindRange(n, ir.NewRange(i32(0), i32(8)), false)
	ana.Bind(m, ir.OpMul(n, i32(4)), false)

	assert.Equal(t, ConstIntBound{Min: 0, Max: 28}, ana.ConstIntBound.Query(m))
	assert.Equal(t, ModularSet{Coeff: 4, Base: 0}, ana.ModularSet.Query(m))
	res := ana.Simplify(m, 2)
	assert.Equal(t, "(n*4)", res.String(), "the rewrite simplifier inlines the binding")
}

func TestAnalyzerConstraintContextRestoresAll(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	boundBefore := ana.ConstIntBound.Query(x)
	ctx := ana.EnterConstraint(ir.OpAnd(ir.OpGE(x, i32(0)), ir.OpLT(x, i32(16))))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 15}, ana.ConstIntBound.Query(x))
	assert.True(t, ana.CanProve(ir.OpLT(x, i32(16)), ProofDefault))
	ctx.Exit()

	assert.Equal(t, boundBefore, ana.ConstIntBound.Query(x))
	assert.False(t, ana.CanProve(ir.OpLT(x, i32(16)), ProofDefault))
}

func TestAnalyzerNestedConstraintContexts(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	outer := ana.EnterConstraint(ir.OpGE(x, i32(0)))
	inner := ana.EnterConstraint(ir.OpLT(x, i32(10)))
	assert.Equal(t, ConstIntBound{Min: 0, Max: 9}, ana.ConstIntBound.Query(x))
	inner.Exit()
	bd := ana.ConstIntBound.Query(x)
	assert.Equal(t, int64(0), bd.Min)
	assert.NotEqual(t, int64(9), bd.Max)
	outer.Exit()
}

func TestAnalyzerMarkGlobalNonNeg(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewVar("n", ir.Int(32))

	// 8*n - 16 decomposes as n*8 + (-16); the bound installed on n is
	// n >= -offset = 16
	ana.MarkGlobalNonNeg(ir.OpSub(ir.OpMul(n, i32(8)), i32(16)))
	bd := ana.ConstIntBound.Query(n)
	assert.Equal(t, int64(16), bd.Min)
	assert.Equal(t, ir.PosInf, bd.Max)
}

func TestAnalyzerCanProveEqual(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	assert.True(t, ana.CanProveEqual(i32(3), i32(3)))
	assert.False(t, ana.CanProveEqual(i32(3), i32(4)))
	assert.True(t, ana.CanProveEqual(
		ir.OpAdd(x, i32(1)), ir.OpAdd(i32(1), x)))
}

func TestAnalyzerSymbolicBoundProof(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewShapeVar("n", ir.Int(32))
	i := ir.NewVar("i", ir.Int(32))
	ana.BindRange(i, ir.NewRange(i32(0), n), false)

	// i < n needs the interval set: constant bounds alone cannot relate
	// the two symbols
	assert.True(t, ana.CanProve(ir.OpLT(i, n), ProofSymbolicBound))
}

func TestAnalyzerCanProveLessEqualThanSymbolicShapeValue(t *testing.T) {
	ana := NewAnalyzer()
	n := ir.NewShapeVar("n", ir.Int(32))
	x := ir.NewVar("x", ir.Int(32))
	ana.BindRange(x, ir.NewRange(i32(0), i32(17)), false)

	// the shape value 32*n has constant factor 32, and x <= 16 <= 32
	shape := ir.OpMul(i32(32), n)
	assert.True(t, ana.CanProveLessEqualThanSymbolicShapeValue(x, shape))
}

func TestAnalyzerAndOfOrs(t *testing.T) {
	ana := NewAnalyzer()
	ana.Rewrite.SetEnabledExtensions(ExtConvertBooleanToAndOfOrs)
	a := ir.NewVar("a", ir.Bool())
	b := ir.NewVar("b", ir.Bool())
	c := ir.NewVar("c", ir.Bool())

	// (a && b) || c distributes to (a || c) && (b || c)
	res := ana.Rewrite.Simplify(ir.OpOr(ir.OpAnd(a, b), c))
	require.IsType(t, &ir.And{}, res, "got %s", res)
	assert.Equal(t, "((a || c) && (b || c))", res.String())
}

func TestAnalyzerApplyConstraintsToBooleanBranches(t *testing.T) {
	ana := NewAnalyzer()
	ana.Rewrite.SetEnabledExtensions(ExtApplyConstraintsToBooleanBranches)
	n := ir.NewVar("n", ir.Int(32))

	// (n < 10) && (n < 20): the second branch is implied by the first
	res := ana.Rewrite.Simplify(ir.OpAnd(
		ir.OpLT(n, i32(10)), ir.OpLT(n, i32(20))))
	require.IsType(t, &ir.LT{}, res, "got %s", res)
	assert.Equal(t, "(n < 10)", res.String())
}

func TestIntervalSetBasics(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.IntervalSet.Bind(x, ir.NewRange(i32(0), i32(10)), false)

	set := ana.IntervalSet.Query(ir.OpAdd(x, i32(5)))
	assert.Equal(t, "5", set.MinValue.String())
	assert.Equal(t, "14", set.MaxValue.String())

	set = ana.IntervalSet.Query(ir.OpMul(x, i32(2)))
	assert.Equal(t, "0", set.MinValue.String())
	assert.Equal(t, "18", set.MaxValue.String())
}

func TestIntervalSetUnboundVarIsSinglePoint(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	set := ana.IntervalSet.Query(x)
	assert.True(t, set.IsSinglePoint())
	assert.Same(t, ir.Expr(x), set.MinValue)
}

func TestIntervalSetSentinels(t *testing.T) {
	everything := IntervalSetEverything()
	assert.True(t, everything.IsEverything())
	assert.False(t, everything.HasLowerBound())
	assert.False(t, everything.HasUpperBound())

	empty := IntervalSetEmpty()
	assert.True(t, empty.IsEmpty())

	point := IntervalSetSinglePoint(ir.ConstScalar(ir.Int(32), 7))
	assert.True(t, point.IsSinglePoint())
	assert.True(t, point.HasLowerBound())
	assert.True(t, point.HasUpperBound())
}

func TestIntervalSetEnterConstraint(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	n := ir.NewVar("n", ir.Int(32))

	recover := ana.IntervalSet.EnterConstraint(ir.OpLT(x, n))
	require.NotNil(t, recover)
	set := ana.IntervalSet.Query(x)
	assert.True(t, set.HasUpperBound())
	assert.False(t, set.HasLowerBound())
	recover()

	set = ana.IntervalSet.Query(x)
	assert.True(t, set.IsSinglePoint(), "constraint removed on recovery")
}

func TestAnalyzerErrorsSurfaceToCaller(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	assert.Panics(t, func() {
		ana.Simplify(ir.OpTruncDiv(x, i32(0)), 2)
	}, "constant zero divisor surfaces as a value error")
}
