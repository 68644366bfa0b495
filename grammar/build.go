package grammar

import (
	"strconv"
	"strings"

	"shiki/internal/errors"
	"shiki/internal/ir"
)

// Scope resolves identifiers to ir variables. Variables are identified by
// pointer in the analyzers, so the scope must hand out a stable *Var per
// name.
type Scope struct {
	vars map[string]*ir.Var
}

func NewScope() *Scope {
	return &Scope{vars: make(map[string]*ir.Var)}
}

// Var returns the variable named name, creating an i32 variable on first
// use.
func (s *Scope) Var(name string) *ir.Var {
	if v, ok := s.vars[name]; ok {
		return v
	}
	v := ir.NewVar(name, ir.Int(32))
	s.vars[name] = v
	return v
}

// DeclareShape creates a shape parameter. Re-declaring an ordinary
// variable as a shape is a lookup error.
func (s *Scope) DeclareShape(name string) (*ir.Var, error) {
	if v, ok := s.vars[name]; ok {
		if !v.Shape {
			return nil, errors.Keyf("%q is already declared as a plain variable", name)
		}
		return v, nil
	}
	v := ir.NewShapeVar(name, ir.Int(32))
	s.vars[name] = v
	return v, nil
}

func parseInt(text string) (int64, error) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return strconv.ParseInt(text[2:], 16, 64)
	}
	return strconv.ParseInt(text, 10, 64)
}

// Build converts a parsed expression into an ir expression over scope.
func (e *OrExpr) Build(scope *Scope) (ir.Expr, error) {
	lhs, err := e.Lhs.build(scope)
	if err != nil {
		return nil, err
	}
	for _, rest := range e.Rest {
		rhs, err := rest.build(scope)
		if err != nil {
			return nil, err
		}
		lhs = ir.OpOr(lhs, rhs)
	}
	return lhs, nil
}

func (e *AndExpr) build(scope *Scope) (ir.Expr, error) {
	lhs, err := e.Lhs.build(scope)
	if err != nil {
		return nil, err
	}
	for _, rest := range e.Rest {
		rhs, err := rest.build(scope)
		if err != nil {
			return nil, err
		}
		lhs = ir.OpAnd(lhs, rhs)
	}
	return lhs, nil
}

func (e *NotExpr) build(scope *Scope) (ir.Expr, error) {
	if e.Not != nil {
		inner, err := e.Not.build(scope)
		if err != nil {
			return nil, err
		}
		return ir.OpNot(inner), nil
	}
	return e.Comp.build(scope)
}

func (e *CmpExpr) build(scope *Scope) (ir.Expr, error) {
	lhs, err := e.Lhs.build(scope)
	if err != nil {
		return nil, err
	}
	if e.Rhs == nil {
		return lhs, nil
	}
	rhs, err := e.Rhs.build(scope)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "==":
		return ir.OpEQ(lhs, rhs), nil
	case "!=":
		return ir.OpNE(lhs, rhs), nil
	case "<":
		return ir.OpLT(lhs, rhs), nil
	case "<=":
		return ir.OpLE(lhs, rhs), nil
	case ">":
		return ir.OpGT(lhs, rhs), nil
	case ">=":
		return ir.OpGE(lhs, rhs), nil
	}
	return nil, errors.Valuef("unknown comparison operator %q", e.Op)
}

func (e *SumExpr) build(scope *Scope) (ir.Expr, error) {
	lhs, err := e.Lhs.build(scope)
	if err != nil {
		return nil, err
	}
	for _, tail := range e.Rest {
		rhs, err := tail.Rhs.build(scope)
		if err != nil {
			return nil, err
		}
		if tail.Op == "+" {
			lhs = ir.OpAdd(lhs, rhs)
		} else {
			lhs = ir.OpSub(lhs, rhs)
		}
	}
	return lhs, nil
}

func (e *MulExpr) build(scope *Scope) (ir.Expr, error) {
	lhs, err := e.Lhs.build(scope)
	if err != nil {
		return nil, err
	}
	for _, tail := range e.Rest {
		rhs, err := tail.Rhs.build(scope)
		if err != nil {
			return nil, err
		}
		switch tail.Op {
		case "*":
			lhs = ir.OpMul(lhs, rhs)
		case "/":
			lhs = ir.OpTruncDiv(lhs, rhs)
		case "%":
			lhs = ir.OpTruncMod(lhs, rhs)
		}
	}
	return lhs, nil
}

func (e *UnaryExpr) build(scope *Scope) (ir.Expr, error) {
	if e.Neg != nil {
		inner, err := e.Neg.build(scope)
		if err != nil {
			return nil, err
		}
		return ir.OpNeg(inner), nil
	}
	return e.Primary.build(scope)
}

func (e *PrimaryExpr) build(scope *Scope) (ir.Expr, error) {
	switch {
	case e.Call != nil:
		return e.Call.build(scope)
	case e.Integer != nil:
		v, err := parseInt(*e.Integer)
		if err != nil {
			return nil, errors.Valuef("invalid integer literal %q", *e.Integer)
		}
		return ir.ConstScalar(ir.Int(32), v), nil
	case e.Ident != nil:
		switch *e.Ident {
		case "true":
			return ir.NewBoolImm(true), nil
		case "false":
			return ir.NewBoolImm(false), nil
		}
		return scope.Var(*e.Ident), nil
	case e.Paren != nil:
		return e.Paren.Build(scope)
	}
	return nil, errors.Valuef("empty primary expression")
}

var castTargets = map[string]ir.DType{
	"i32": ir.Int(32),
	"i64": ir.Int(64),
	"u32": ir.UInt(32),
	"u64": ir.UInt(64),
}

func (e *CallExpr) build(scope *Scope) (ir.Expr, error) {
	args := make([]ir.Expr, len(e.Args))
	for i, arg := range e.Args {
		built, err := arg.Build(scope)
		if err != nil {
			return nil, err
		}
		args[i] = built
	}
	binary := func(f func(a, b ir.Expr) ir.Expr) (ir.Expr, error) {
		if len(args) != 2 {
			return nil, errors.Valuef("%s expects 2 arguments, got %d", e.Name, len(args))
		}
		return f(args[0], args[1]), nil
	}
	switch e.Name {
	case "floordiv":
		return binary(ir.OpFloorDiv)
	case "floormod":
		return binary(ir.OpFloorMod)
	case "truncdiv":
		return binary(ir.OpTruncDiv)
	case "truncmod":
		return binary(ir.OpTruncMod)
	case "min":
		return binary(ir.OpMin)
	case "max":
		return binary(ir.OpMax)
	case "left_shift":
		return binary(ir.OpLeftShift)
	case "right_shift":
		return binary(ir.OpRightShift)
	case "bitwise_and":
		return binary(ir.OpBitwiseAnd)
	case "bitwise_or":
		return binary(ir.OpBitwiseOr)
	case "bitwise_xor":
		return binary(ir.OpBitwiseXor)
	case "abs":
		if len(args) != 1 {
			return nil, errors.Valuef("abs expects 1 argument, got %d", len(args))
		}
		return ir.OpAbs(args[0]), nil
	case "select":
		if len(args) != 3 {
			return nil, errors.Valuef("select expects 3 arguments, got %d", len(args))
		}
		return ir.OpSelect(args[0], args[1], args[2]), nil
	case "if_then_else":
		if len(args) != 3 {
			return nil, errors.Valuef("if_then_else expects 3 arguments, got %d", len(args))
		}
		return ir.OpIfThenElse(args[0], args[1], args[2]), nil
	case "ramp":
		if len(args) != 3 {
			return nil, errors.Valuef("ramp expects 3 arguments, got %d", len(args))
		}
		lanes, ok := ir.AsConstInt(args[2])
		if !ok {
			return nil, errors.Valuef("ramp lanes must be a constant")
		}
		return ir.OpRamp(args[0], args[1], lanes), nil
	case "broadcast":
		if len(args) != 2 {
			return nil, errors.Valuef("broadcast expects 2 arguments, got %d", len(args))
		}
		lanes, ok := ir.AsConstInt(args[1])
		if !ok {
			return nil, errors.Valuef("broadcast lanes must be a constant")
		}
		return ir.OpBroadcast(args[0], lanes), nil
	}
	if target, ok := castTargets[e.Name]; ok {
		if len(args) != 1 {
			return nil, errors.Valuef("%s cast expects 1 argument, got %d", e.Name, len(args))
		}
		return ir.OpCast(target, args[0]), nil
	}
	return nil, errors.Keyf("unknown function %q", e.Name)
}
