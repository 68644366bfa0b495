package ir

// Walk visits e and its children pre-order. The callback returns false to
// skip the children of the current node.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch x := e.(type) {
	case *Var, *IntImm, *FloatImm:
	case *Cast:
		Walk(x.Value, visit)
	case *Add:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Sub:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Mul:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Div:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Mod:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *FloorDiv:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *FloorMod:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Min:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Max:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *EQ:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *NE:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *LT:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *LE:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *GT:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *GE:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *And:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Or:
		Walk(x.A, visit)
		Walk(x.B, visit)
	case *Not:
		Walk(x.A, visit)
	case *Select:
		Walk(x.Cond, visit)
		Walk(x.TrueValue, visit)
		Walk(x.FalseValue, visit)
	case *Ramp:
		Walk(x.Base, visit)
		Walk(x.Stride, visit)
	case *Broadcast:
		Walk(x.Value, visit)
	case *Let:
		Walk(x.Var, visit)
		Walk(x.Value, visit)
		Walk(x.Body, visit)
	case *Call:
		for _, a := range x.Args {
			Walk(a, visit)
		}
	}
}

// ContainsVar reports whether v occurs free in e. Let-shadowing is not
// tracked: variables are unique objects, so shadowing cannot occur.
func ContainsVar(e Expr, v *Var) bool {
	found := false
	Walk(e, func(sub Expr) bool {
		if sub == Expr(v) {
			found = true
		}
		return !found
	})
	return found
}
