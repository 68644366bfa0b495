package ir

// Mutator is the open-recursion hook for expression rewriting. MutateExpr
// receives each node and returns its replacement.
type Mutator interface {
	MutateExpr(e Expr) Expr
}

// MutateChildren rewrites every child of e through m and rebuilds the node.
// When every child comes back pointer-identical the original node is
// returned, so unchanged subtrees are shared rather than copied.
//
// Rebuilding goes through the operator constructors, so constant folding
// applies to any node whose children collapsed to immediates. Call nodes
// are the exception: they are rebuilt directly and never folded here.
func MutateChildren(e Expr, m Mutator) Expr {
	switch x := e.(type) {
	case *Var, *IntImm, *FloatImm:
		return e
	case *Cast:
		v := m.MutateExpr(x.Value)
		if v == x.Value {
			return e
		}
		return OpCast(x.Dtype, v)
	case *Add:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpAdd(a, b)
	case *Sub:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpSub(a, b)
	case *Mul:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpMul(a, b)
	case *Div:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpTruncDiv(a, b)
	case *Mod:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpTruncMod(a, b)
	case *FloorDiv:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpFloorDiv(a, b)
	case *FloorMod:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpFloorMod(a, b)
	case *Min:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpMin(a, b)
	case *Max:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpMax(a, b)
	case *EQ:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpEQ(a, b)
	case *NE:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpNE(a, b)
	case *LT:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpLT(a, b)
	case *LE:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpLE(a, b)
	case *GT:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpGT(a, b)
	case *GE:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpGE(a, b)
	case *And:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpAnd(a, b)
	case *Or:
		a, b := m.MutateExpr(x.A), m.MutateExpr(x.B)
		if a == x.A && b == x.B {
			return e
		}
		return OpOr(a, b)
	case *Not:
		a := m.MutateExpr(x.A)
		if a == x.A {
			return e
		}
		return OpNot(a)
	case *Select:
		c := m.MutateExpr(x.Cond)
		t := m.MutateExpr(x.TrueValue)
		f := m.MutateExpr(x.FalseValue)
		if c == x.Cond && t == x.TrueValue && f == x.FalseValue {
			return e
		}
		return OpSelect(c, t, f)
	case *Ramp:
		b := m.MutateExpr(x.Base)
		s := m.MutateExpr(x.Stride)
		if b == x.Base && s == x.Stride {
			return e
		}
		return OpRamp(b, s, x.Lanes)
	case *Broadcast:
		v := m.MutateExpr(x.Value)
		if v == x.Value {
			return e
		}
		return OpBroadcast(v, x.Lanes)
	case *Let:
		v := m.MutateExpr(x.Value)
		body := m.MutateExpr(x.Body)
		if v == x.Value && body == x.Body {
			return e
		}
		return OpLet(x.Var, v, body)
	case *Call:
		changed := false
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = m.MutateExpr(a)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return e
		}
		return &Call{Dtype: x.Dtype, Op: x.Op, Args: args}
	}
	return e
}

// Substitute replaces free occurrences of variables per the given map.
func Substitute(e Expr, replace map[*Var]Expr) Expr {
	s := &substituter{replace: replace}
	return s.MutateExpr(e)
}

type substituter struct {
	replace map[*Var]Expr
}

func (s *substituter) MutateExpr(e Expr) Expr {
	if v, ok := e.(*Var); ok {
		if repl, found := s.replace[v]; found {
			return repl
		}
		return e
	}
	return MutateChildren(e, s)
}
