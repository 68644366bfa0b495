package ir

// Constraint extraction helpers shared by the analyzers.

func collectConstraints(e Expr, keepComposite bool, out *[]Expr) {
	if keepComposite {
		*out = append(*out, e)
	}
	if and, ok := e.(*And); ok {
		collectConstraints(and.A, keepComposite, out)
		collectConstraints(and.B, keepComposite, out)
	} else if !keepComposite {
		*out = append(*out, e)
	}
}

// ExtractConstraints returns the conjuncts of a boolean expression,
// splitting on And. With keepComposite, every composite conjunction is
// itself kept in the output as well.
func ExtractConstraints(e Expr, keepComposite bool) []Expr {
	var out []Expr
	collectConstraints(e, keepComposite, &out)
	return out
}

// ExtractComponents returns the disjuncts of a boolean expression,
// splitting on Or.
func ExtractComponents(e Expr) []Expr {
	var out []Expr
	var collect func(Expr)
	collect = func(e Expr) {
		if or, ok := e.(*Or); ok {
			collect(or.A)
			collect(or.B)
		} else {
			out = append(out, e)
		}
	}
	collect(e)
	return out
}

// UnpackSum walks an Add/Sub tree and reports each leaf with its sign.
func UnpackSum(e Expr, leaf func(Expr, int)) {
	var walk func(Expr, int)
	walk = func(e Expr, sign int) {
		switch x := e.(type) {
		case *Add:
			walk(x.A, sign)
			walk(x.B, sign)
		case *Sub:
			walk(x.A, sign)
			walk(x.B, -sign)
		default:
			leaf(e, sign)
		}
	}
	walk(e, 1)
}

// UnpackMul walks a Mul tree and reports each factor.
func UnpackMul(e Expr, leaf func(Expr)) {
	var walk func(Expr)
	walk = func(e Expr) {
		if x, ok := e.(*Mul); ok {
			walk(x.A)
			walk(x.B)
		} else {
			leaf(e)
		}
	}
	walk(e)
}

// MulAndNormalize multiplies two product trees, collecting every constant
// factor into a single trailing scale.
func MulAndNormalize(lhs, rhs Expr) Expr {
	cscale := int64(1)
	res := ConstScalar(lhs.Type(), 1)
	collect := func(val Expr) {
		if imm, ok := val.(*IntImm); ok {
			cscale *= imm.Value
		} else {
			res = OpMul(res, val)
		}
	}
	UnpackMul(lhs, collect)
	UnpackMul(rhs, collect)
	if cscale != 1 {
		res = OpMul(res, ConstScalar(res.Type(), cscale))
	}
	return res
}

// ConstantMulFactor returns the product of the constant factors of a Mul
// tree, e.g. 32 for 32*n.
func ConstantMulFactor(e Expr) int64 {
	cscale := int64(1)
	UnpackMul(e, func(val Expr) {
		if imm, ok := val.(*IntImm); ok {
			cscale *= imm.Value
		}
	})
	return cscale
}
