// SPDX-License-Identifier: Apache-2.0
package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiki/internal/ir"
)

func TestParseExprPrecedence(t *testing.T) {
	scope := NewScope()
	parsed, err := ParseExpr("test", "x*8 + y < 16")
	require.NoError(t, err)
	expr, err := parsed.Build(scope)
	require.NoError(t, err)
	assert.Equal(t, "(((x*8) + y) < 16)", expr.String())
}

func TestParseExprCalls(t *testing.T) {
	scope := NewScope()
	parsed, err := ParseExpr("test", "floordiv(x*8 + y, 8)")
	require.NoError(t, err)
	expr, err := parsed.Build(scope)
	require.NoError(t, err)
	require.IsType(t, &ir.FloorDiv{}, expr)
	assert.Equal(t, "floordiv(((x*8) + y), 8)", expr.String())
}

func TestParseExprBooleans(t *testing.T) {
	scope := NewScope()
	parsed, err := ParseExpr("test", "a < b && b < c || !(a == c)")
	require.NoError(t, err)
	expr, err := parsed.Build(scope)
	require.NoError(t, err)
	require.IsType(t, &ir.Or{}, expr)
}

func TestParseExprSelectAndCast(t *testing.T) {
	scope := NewScope()
	parsed, err := ParseExpr("test", "select(c == 0, i64(x), i64(y))")
	require.NoError(t, err)
	expr, err := parsed.Build(scope)
	require.NoError(t, err)
	require.IsType(t, &ir.Select{}, expr)
	assert.Equal(t, ir.Int(64), expr.Type())
}

func TestParseExprUnknownFunction(t *testing.T) {
	scope := NewScope()
	parsed, err := ParseExpr("test", "frobnicate(x)")
	require.NoError(t, err)
	_, err = parsed.Build(scope)
	assert.Error(t, err)
}

func TestScopeVariableIdentity(t *testing.T) {
	scope := NewScope()
	parsed, err := ParseExpr("test", "x + x")
	require.NoError(t, err)
	expr, err := parsed.Build(scope)
	require.NoError(t, err)

	add := expr.(*ir.Add)
	assert.Same(t, add.A, add.B, "the same name resolves to the same variable")
	assert.Same(t, ir.Expr(scope.Var("x")), add.A)
}

func TestParseScriptStatements(t *testing.T) {
	source := `
// bindings and queries
let n in [0, 31];
let m = n * 2;
shape s;
assume n % 4 == 2;
prove n + 1 < 33;
simplify floordiv(m, 2);
`
	script, err := ParseScript("test.shiki", source)
	require.NoError(t, err)
	require.Len(t, script.Statements, 6)

	assert.NotNil(t, script.Statements[0].Let)
	assert.NotNil(t, script.Statements[0].Let.Range)
	assert.NotNil(t, script.Statements[1].Let)
	assert.NotNil(t, script.Statements[1].Let.Value)
	assert.NotNil(t, script.Statements[2].Shape)
	assert.NotNil(t, script.Statements[3].Assume)
	assert.NotNil(t, script.Statements[4].Prove)
	assert.NotNil(t, script.Statements[5].Simplify)
}

func TestParseScriptRejectsGarbage(t *testing.T) {
	_, err := ParseScript("test.shiki", "let let let;")
	assert.Error(t, err)
}

func TestDeclareShapeConflict(t *testing.T) {
	scope := NewScope()
	scope.Var("n")
	_, err := scope.DeclareShape("n")
	assert.Error(t, err)

	v, err := scope.DeclareShape("s")
	require.NoError(t, err)
	assert.True(t, v.Shape)
}

func TestParseHexLiteral(t *testing.T) {
	scope := NewScope()
	parsed, err := ParseExpr("test", "x + 0x10")
	require.NoError(t, err)
	expr, err := parsed.Build(scope)
	require.NoError(t, err)
	assert.Equal(t, "(x + 16)", expr.String())
}
