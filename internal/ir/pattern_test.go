package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternBindsAndReusesVariables(t *testing.T) {
	a := NewVar("a", Int(32))
	b := NewVar("b", Int(32))

	x := NewPExpr()
	y := NewPExpr()
	// (a - b) + b matches (x - y) + y
	target := &Add{Dtype: Int(32), A: &Sub{Dtype: Int(32), A: a, B: b}, B: b}
	require.True(t, Match(PAdd(PSub(x, y), y), target))
	assert.Same(t, a, x.Value())
	assert.Same(t, b, y.Value())

	// (a - b) + a does not: y already bound to b
	target = &Add{Dtype: Int(32), A: &Sub{Dtype: Int(32), A: a, B: b}, B: a}
	assert.False(t, Match(PAdd(PSub(x, y), y), target))
}

func TestPatternConstOnlyMatchesImmediates(t *testing.T) {
	a := NewVar("a", Int(32))
	c := NewPConst()
	x := NewPExpr()

	target := &Add{Dtype: Int(32), A: a, B: NewIntImm(Int(32), 3)}
	require.True(t, Match(PAdd(x, c), target))
	assert.Equal(t, int64(3), c.Value())

	target = &Add{Dtype: Int(32), A: a, B: a}
	assert.False(t, Match(PAdd(x, c), target))
}

func TestPatternOneOfRollsBackBindings(t *testing.T) {
	a := NewVar("a", Int(32))
	b := NewVar("b", Int(32))
	x := NewPExpr()
	y := NewPExpr()

	// first alternative binds x to a before failing on b;
	// the second must see a clean scope
	p := POneOf(
		PAdd(x, x),
		PAdd(y, x),
	)
	target := &Add{Dtype: Int(32), A: a, B: b}
	require.True(t, Match(p, target))
	assert.Same(t, a, y.Value())
	assert.Same(t, b, x.Value())
}

func TestPatternMatchResetsPriorBindings(t *testing.T) {
	a := NewVar("a", Int(32))
	b := NewVar("b", Int(32))
	x := NewPExpr()

	require.True(t, Match(x, a))
	assert.Same(t, a, x.Value())
	require.True(t, Match(x, b), "a fresh Match clears old bindings")
	assert.Same(t, b, x.Value())
}

func TestPatternLanes(t *testing.T) {
	v := NewVar("v", Int(32))
	lanes := NewPLanes()
	x := NewPExpr()
	y := NewPExpr()

	bc := func(e Expr) Expr { return &Broadcast{Value: e, Lanes: 4} }
	target := &Add{
		Dtype: Int(32).WithLanes(4),
		A:     bc(v),
		B:     bc(NewIntImm(Int(32), 1)),
	}
	require.True(t, Match(PAdd(PBroadcast(x, lanes), PBroadcast(y, lanes)), target))
	assert.Equal(t, int64(4), lanes.Value())

	// differing lanes must not match a shared lanes variable
	target = &Add{
		Dtype: Int(32).WithLanes(4),
		A:     &Broadcast{Value: v, Lanes: 4},
		B:     &Broadcast{Value: v, Lanes: 8},
	}
	assert.False(t, Match(PAdd(PBroadcast(x, lanes), PBroadcast(y, lanes)), target))
}

func TestDeepEqualStructural(t *testing.T) {
	a := NewVar("a", Int(32))
	b := NewVar("b", Int(32))

	lhs := OpAdd(OpMul(a, NewIntImm(Int(32), 2)), b)
	rhs := OpAdd(OpMul(a, NewIntImm(Int(32), 2)), b)
	assert.True(t, DeepEqual(lhs, rhs))
	assert.Equal(t, StructuralHash(lhs), StructuralHash(rhs))

	other := OpAdd(OpMul(a, NewIntImm(Int(32), 3)), b)
	assert.False(t, DeepEqual(lhs, other))
}

func TestDeepEqualVarsByIdentity(t *testing.T) {
	a1 := NewVar("a", Int(32))
	a2 := NewVar("a", Int(32))
	assert.True(t, DeepEqual(a1, a1))
	assert.False(t, DeepEqual(a1, a2), "same-named vars are distinct variables")
}

func TestMutateChildrenReusesUnchangedNodes(t *testing.T) {
	a := NewVar("a", Int(32))
	b := NewVar("b", Int(32))
	expr := OpAdd(OpMul(a, b), NewIntImm(Int(32), 4))

	identity := &identityMutator{}
	res := MutateChildren(expr, identity)
	assert.Same(t, expr, res, "unchanged children return the original node")
}

type identityMutator struct{}

func (m *identityMutator) MutateExpr(e Expr) Expr { return e }

func TestSubstitute(t *testing.T) {
	a := NewVar("a", Int(32))
	b := NewVar("b", Int(32))
	expr := OpAdd(a, OpMul(b, NewIntImm(Int(32), 2)))

	res := Substitute(expr, map[*Var]Expr{a: NewIntImm(Int(32), 5)})
	assert.Equal(t, "(5 + (b*2))", res.String())
}

func TestExtractConstraints(t *testing.T) {
	a := NewVar("a", Bool())
	b := NewVar("b", Bool())
	c := NewVar("c", Bool())
	cond := &And{A: &And{A: a, B: b}, B: c}

	leaves := ExtractConstraints(cond, false)
	require.Len(t, leaves, 3)
	assert.Same(t, a, leaves[0])
	assert.Same(t, b, leaves[1])
	assert.Same(t, c, leaves[2])

	withComposite := ExtractConstraints(cond, true)
	assert.Len(t, withComposite, 5, "composite conjunctions are kept as well")
}

func TestExtractComponents(t *testing.T) {
	a := NewVar("a", Bool())
	b := NewVar("b", Bool())
	comps := ExtractComponents(&Or{A: a, B: b})
	require.Len(t, comps, 2)
	assert.Same(t, a, comps[0])
	assert.Same(t, b, comps[1])
}

func TestUnpackSum(t *testing.T) {
	a := NewVar("a", Int(32))
	b := NewVar("b", Int(32))
	c := NewVar("c", Int(32))
	// a - (b - c) yields a(+), b(-), c(+)
	expr := &Sub{Dtype: Int(32), A: a, B: &Sub{Dtype: Int(32), A: b, B: c}}

	type leaf struct {
		e    Expr
		sign int
	}
	var got []leaf
	UnpackSum(expr, func(e Expr, sign int) { got = append(got, leaf{e, sign}) })
	require.Len(t, got, 3)
	assert.Equal(t, leaf{a, 1}, got[0])
	assert.Equal(t, leaf{b, -1}, got[1])
	assert.Equal(t, leaf{c, 1}, got[2])
}

func TestConstantMulFactor(t *testing.T) {
	n := NewVar("n", Int(32))
	expr := &Mul{Dtype: Int(32), A: NewIntImm(Int(32), 32), B: n}
	assert.Equal(t, int64(32), ConstantMulFactor(expr))
}
