package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiki/internal/ir"
)

func TestSplitExprNormalize(t *testing.T) {
	x := ir.NewVar("x", ir.Int(32))
	split := &SplitExpr{
		Dtype:       ir.Int(32),
		Index:       x,
		LowerFactor: 4,
		UpperFactor: 16,
		Scale:       2,
		DivMode:     FloorDiv,
	}
	assert.Equal(t, "(floordiv(floormod(x, 16), 4)*2)", split.normalize().String())

	// degenerate factors omit the div and mod
	split = &SplitExpr{Dtype: ir.Int(32), Index: x, LowerFactor: 1, UpperFactor: ir.PosInf, Scale: 1, DivMode: TruncDiv}
	assert.Same(t, ir.Expr(x), split.normalize())

	split.Scale = 0
	res := split.normalize()
	assert.True(t, ir.IsConstInt(res, 0))
}

func TestSplitExprVerify(t *testing.T) {
	x := ir.NewVar("x", ir.Int(32))
	bad := &SplitExpr{Dtype: ir.Int(32), Index: x, LowerFactor: 4, UpperFactor: 6, Scale: 1}
	assert.Panics(t, func() { bad.verify() })

	good := &SplitExpr{Dtype: ir.Int(32), Index: x, LowerFactor: 4, UpperFactor: 16, Scale: 1}
	assert.NotPanics(t, func() { good.verify() })

	infinite := &SplitExpr{Dtype: ir.Int(32), Index: x, LowerFactor: 4, UpperFactor: ir.PosInf, Scale: 1}
	assert.NotPanics(t, func() { infinite.verify() })
}

func TestSumExprSegmentInvariant(t *testing.T) {
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	sum := &SumExpr{Dtype: ir.Int(32)}

	addTerm := func(index ir.Expr, lower int64) {
		sum.addSplit(&SplitExpr{
			Dtype: ir.Int(32), Index: index,
			LowerFactor: lower, UpperFactor: ir.PosInf, Scale: 1, DivMode: FloorDiv,
		}, 1)
	}
	addTerm(x, 1)
	addTerm(y, 4)
	addTerm(x, 8)
	addTerm(y, 2)

	require.Len(t, sum.Args, 4)
	// same-index entries stay contiguous, descending lower factor
	assert.Same(t, x, sum.Args[0].Index)
	assert.Equal(t, int64(8), sum.Args[0].LowerFactor)
	assert.Same(t, x, sum.Args[1].Index)
	assert.Equal(t, int64(1), sum.Args[1].LowerFactor)
	assert.Same(t, y, sum.Args[2].Index)
	assert.Equal(t, int64(4), sum.Args[2].LowerFactor)
	assert.Same(t, y, sum.Args[3].Index)
	assert.Equal(t, int64(2), sum.Args[3].LowerFactor)
}

func TestSumExprFusesCompatibleTerms(t *testing.T) {
	x := ir.NewVar("x", ir.Int(32))
	sum := &SumExpr{Dtype: ir.Int(32)}
	split := &SplitExpr{
		Dtype: ir.Int(32), Index: x,
		LowerFactor: 4, UpperFactor: ir.PosInf, Scale: 1, DivMode: FloorDiv,
	}
	sum.addSplit(split, 1)
	sum.addSplit(split, 2)

	require.Len(t, sum.Args, 1, "identical coefficients fuse")
	assert.Equal(t, int64(3), sum.Args[0].Scale)
}

func TestSimplifySplitExprsMergesDivModPair(t *testing.T) {
	// (x / 6) * 6 + ((x % 6) / 3) * 3 collapses to (x / 3) * 3
	x := ir.NewVar("x", ir.Int(32))
	args := []*SplitExpr{
		{Dtype: ir.Int(32), Index: x, LowerFactor: 6, UpperFactor: ir.PosInf, Scale: 6, DivMode: FloorDiv},
		{Dtype: ir.Int(32), Index: x, LowerFactor: 3, UpperFactor: 6, Scale: 3, DivMode: FloorDiv},
	}
	merged := simplifySplitExprs(args)
	var live []*SplitExpr
	for _, arg := range merged {
		if arg.Scale != 0 {
			live = append(live, arg)
		}
	}
	require.Len(t, live, 1)
	assert.Equal(t, int64(3), live[0].LowerFactor)
	assert.Equal(t, ir.PosInf, live[0].UpperFactor)
	assert.Equal(t, int64(3), live[0].Scale)
}

func TestCanonicalFloorDivElimination(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	ana.ConstIntBound.Update(y, ConstIntBound{Min: 0, Max: 7}, false)

	// floordiv(x*8 + y, 8) == x when y is in [0, 8)
	expr := ir.OpFloorDiv(ir.OpAdd(ir.OpMul(x, i32(8)), y), i32(8))
	res := ana.Canonical.Simplify(expr)
	assert.Same(t, ir.Expr(x), res, "got %s", res)
}

func TestCanonicalFloorModElimination(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	ana.ConstIntBound.Update(y, ConstIntBound{Min: 0, Max: 7}, false)

	expr := ir.OpFloorMod(ir.OpAdd(ir.OpMul(x, i32(8)), y), i32(8))
	res := ana.Canonical.Simplify(expr)
	assert.Same(t, ir.Expr(y), res, "got %s", res)
}

func TestCanonicalTruncModFold(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ConstIntBound.Update(x, ConstIntBound{Min: 0, Max: ir.PosInf}, false)

	expr := ir.OpTruncMod(ir.OpAdd(ir.OpMul(x, i32(4)), i32(3)), i32(4))
	res := ana.Canonical.Simplify(expr)
	assert.True(t, ir.IsConstInt(res, 3), "got %s", res)
}

func TestCanonicalAddCombinesTerms(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	// x*2 + x*3 combines into x*5
	expr := ir.OpAdd(ir.OpMul(x, i32(2)), ir.OpMul(x, i32(3)))
	res := ana.Canonical.Simplify(expr)
	assert.Equal(t, "(x*5)", res.String())

	// x + x*2 - x*3 cancels entirely
	expr = ir.OpSub(ir.OpAdd(x, ir.OpMul(x, i32(2))), ir.OpMul(x, i32(3)))
	res = ana.Canonical.Simplify(expr)
	assert.True(t, ir.IsConstInt(res, 0), "got %s", res)
}

func TestCanonicalDivDivFold(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	// floordiv(floordiv(x, 4), 2) == floordiv(x, 8)
	expr := ir.OpFloorDiv(ir.OpFloorDiv(x, i32(4)), i32(2))
	res := ana.Canonical.Simplify(expr)
	assert.Equal(t, "floordiv(x, 8)", res.String())
}

func TestCanonicalModUpperRefinement(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	// floormod(floormod(x, 16), 4) == floormod(x, 4)
	expr := ir.OpFloorMod(ir.OpFloorMod(x, i32(16)), i32(4))
	res := ana.Canonical.Simplify(expr)
	assert.Equal(t, "floormod(x, 4)", res.String())
}

func TestCanonicalSymbolicProdDivCancellation(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))

	// (x*y) / (y*x) cancels both symbols
	expr := ir.OpFloorDiv(ir.OpMul(x, y), ir.OpMul(y, x))
	res := ana.Canonical.Simplify(expr)
	assert.True(t, ir.IsConstInt(res, 1), "got %s", res)
}

func TestCanonicalCastPushUpcast(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	// upcasts always push into the sum
	expr := ir.OpCast(ir.Int(64), ir.OpAdd(ir.OpMul(x, i32(4)), i32(1)))
	res := ana.Canonical.Simplify(expr)
	assert.Equal(t, "((cast(i64, x)*i64(4)) + i64(1))", res.String())
}

func TestCanonicalLTDividesByGCD(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	ana.ConstIntBound.Update(y, ConstIntBound{Min: 0, Max: 7}, false)

	// x*8 + y < 16 with y in [0, 8) becomes x < 2
	expr := ir.OpLT(ir.OpAdd(ir.OpMul(x, i32(8)), y), i32(16))
	res := ana.Canonical.Simplify(expr)
	require.IsType(t, &ir.LT{}, res, "got %s", res)
	lt := res.(*ir.LT)
	assert.Same(t, ir.Expr(x), lt.A)
	assert.True(t, ir.IsConstInt(lt.B, 2), "got %s", res)
}

func TestCanonicalIdempotent(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))

	exprs := []ir.Expr{
		ir.OpFloorDiv(ir.OpAdd(ir.OpMul(x, i32(8)), y), i32(8)),
		ir.OpAdd(ir.OpMul(x, i32(2)), ir.OpMul(y, i32(3))),
		ir.OpFloorMod(ir.OpAdd(x, i32(9)), i32(4)),
	}
	for _, expr := range exprs {
		once := ana.Canonical.Simplify(expr)
		twice := ana.Canonical.Simplify(once)
		assert.True(t, ir.DeepEqual(once, twice), "canonical form of %s is stable: %s vs %s",
			expr, once, twice)
	}
}
