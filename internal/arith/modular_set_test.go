package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiki/internal/ir"
)

func TestModularSetConstant(t *testing.T) {
	ana := NewAnalyzer()
	m := ana.ModularSet.Query(i32(9))
	assert.Equal(t, ModularSet{Coeff: 0, Base: 9}, m)
}

func TestModularSetNormalization(t *testing.T) {
	m := newModularSet(-4, -6)
	assert.Equal(t, ModularSet{Coeff: 4, Base: 2}, m,
		"negative coefficients flip and the base reduces into [0, coeff)")
}

func TestModularSetLinearCombination(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	// x*4 + 2 is {4k + 2}
	m := ana.ModularSet.Query(ir.OpAdd(ir.OpMul(x, i32(4)), i32(2)))
	assert.Equal(t, ModularSet{Coeff: 4, Base: 2}, m)

	// (x*4 + 2) - (x*8 + 1) has coeff gcd(4, 8) = 4
	lhs := ir.OpAdd(ir.OpMul(x, i32(4)), i32(2))
	rhs := ir.OpAdd(ir.OpMul(x, i32(8)), i32(1))
	m = ana.ModularSet.Query(ir.OpSub(lhs, rhs))
	assert.Equal(t, ModularSet{Coeff: 4, Base: 1}, m)
}

func TestModularSetMul(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	y := ir.NewVar("y", ir.Int(32))
	ana.ModularSet.Update(x, ModularSet{Coeff: 4, Base: 1}, false)
	ana.ModularSet.Update(y, ModularSet{Coeff: 6, Base: 3}, false)

	// (4a+1)(6b+3): gcd(24, gcd(12, 6)) = 6, base 3
	m := ana.ModularSet.Query(ir.OpMul(x, y))
	assert.Equal(t, ModularSet{Coeff: 6, Base: 3}, m)
}

func TestModularSetFloorDivByConst(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ModularSet.Update(x, ModularSet{Coeff: 8, Base: 4}, false)

	m := ana.ModularSet.Query(ir.OpFloorDiv(x, i32(4)))
	assert.Equal(t, ModularSet{Coeff: 2, Base: 1}, m)
}

func TestModularSetModByConst(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ModularSet.Update(x, ModularSet{Coeff: 8, Base: 3}, false)

	m := ana.ModularSet.Query(ir.OpFloorMod(x, i32(4)))
	assert.Equal(t, ModularSet{Coeff: 4, Base: 3}, m)
}

func TestModularSetUnionThroughSelect(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	c := ir.NewVar("c", ir.Bool())
	a := ir.OpAdd(ir.OpMul(x, i32(4)), i32(2))
	b := ir.OpAdd(ir.OpMul(x, i32(4)), i32(6))
	m := ana.ModularSet.Query(ir.OpSelect(c, a, b))
	assert.Equal(t, ModularSet{Coeff: 4, Base: 2}, m)
}

func TestModularSetRightShift(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ModularSet.Update(x, ModularSet{Coeff: 8, Base: 0}, false)

	m := ana.ModularSet.Query(ir.OpRightShift(x, i32(2)))
	assert.Equal(t, ModularSet{Coeff: 2, Base: 0}, m)
}

func TestModularSetBitwiseAndMask(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ModularSet.Update(x, ModularSet{Coeff: 8, Base: 3}, false)

	// masking with 0b11 is mod 4
	m := ana.ModularSet.Query(ir.OpBitwiseAnd(x, i32(3)))
	assert.Equal(t, ModularSet{Coeff: 4, Base: 3}, m)
}

func TestModularSetEnterConstraint(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	recover := ana.ModularSet.EnterConstraint(
		ir.OpEQ(ir.OpFloorMod(x, i32(4)), i32(1)))
	require.NotNil(t, recover)
	m := ana.ModularSet.Query(x)
	assert.Equal(t, ModularSet{Coeff: 4, Base: 1}, m)

	recover()
	m = ana.ModularSet.Query(x)
	assert.Equal(t, modularEverything(), m)
}

func TestModularSetIntersectViaNestedConstraints(t *testing.T) {
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))

	outer := ana.ModularSet.EnterConstraint(ir.OpEQ(ir.OpFloorMod(x, i32(3)), i32(2)))
	require.NotNil(t, outer)
	inner := ana.ModularSet.EnterConstraint(ir.OpEQ(ir.OpFloorMod(x, i32(4)), i32(3)))
	require.NotNil(t, inner)

	// x == 2 mod 3 and x == 3 mod 4 is x == 11 mod 12
	m := ana.ModularSet.Query(x)
	assert.Equal(t, ModularSet{Coeff: 12, Base: 11}, m)

	inner()
	outer()
	assert.Equal(t, modularEverything(), ana.ModularSet.Query(x))
}

func TestModularSetSoundnessSample(t *testing.T) {
	// for assignments consistent with x = 4k+1, the concrete value of
	// x*6 + 3 must be congruent to base mod coeff
	ana := NewAnalyzer()
	x := ir.NewVar("x", ir.Int(32))
	ana.ModularSet.Update(x, ModularSet{Coeff: 4, Base: 1}, false)
	m := ana.ModularSet.Query(ir.OpAdd(ir.OpMul(x, i32(6)), i32(3)))
	require.NotZero(t, m.Coeff)
	for k := int64(-3); k <= 3; k++ {
		concrete := (4*k+1)*6 + 3
		assert.Equal(t, m.Base, ir.FloorMod64(concrete, m.Coeff))
	}
}
