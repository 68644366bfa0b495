package arith

import "shiki/internal/ir"

// Rewrite rules for comparisons and boolean connectives. Comparisons
// reduce to LT/LE/EQ/NE forms; GT and GE never reach the rule tables.

func (s *RewriteSimplifier) visitEQ(op *ir.EQ) ir.Expr {
	ret := s.mutateChildren(op)
	eq, ok := ret.(*ir.EQ)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldEQ(eq.A, eq.B); ok {
		return res
	}
	if res, ok := s.tryMatchLiteralConstraint(eq); ok {
		return res
	}
	return s.applyRulesEQ(eq)
}

func (s *RewriteSimplifier) applyRulesEQ(eq *ir.EQ) ir.Expr {
	x := ir.NewPExpr()
	y := ir.NewPExpr()
	c1, c2 := ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()
	ret := ir.Expr(eq)
	if eq.Type().Lanes != 1 {
		if s.match(ir.PEQ(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpEQ(x.Value(), y.Value()), lanes.Value()))
		}
	}
	if isIndexType(eq.A.Type()) {
		switch s.tryCompare(eq.A, eq.B) {
		case CmpEQ:
			return ir.NewBoolImm(true)
		case CmpNE, CmpGT, CmpLT:
			return ir.NewBoolImm(false)
		}
		if s.match(ir.PEQ(c1, x), ret) {
			return s.rewrite(ir.OpEQ(x.Value(), c1.Imm()))
		}
		if s.match(ir.PEQ(ir.PSub(x, c1), c2), ret) {
			return s.rewrite(ir.OpEQ(x.Value(),
				ir.ConstScalar(eq.A.Type(), c2.Value()+c1.Value())))
		}
		if s.match(ir.PEQ(ir.PSub(c1, x), c2), ret) {
			return s.rewrite(ir.OpEQ(x.Value(),
				ir.ConstScalar(eq.A.Type(), c1.Value()-c2.Value())))
		}
		if s.match(ir.PEQ(ir.PAdd(x, c1), c2), ret) {
			return s.rewrite(ir.OpEQ(x.Value(),
				ir.ConstScalar(eq.A.Type(), c2.Value()-c1.Value())))
		}
		if s.match(ir.PEQ(ir.PMul(x, y), ir.NewPImm(0)), ret) {
			return s.rewriteRec(ir.OpOr(
				ir.OpEQ(x.Value(), zeroOf(x.Value())),
				ir.OpEQ(y.Value(), zeroOf(y.Value()))))
		}
	}
	if s.match(ir.PEQ(x, x), ret) {
		return s.rewrite(ir.NewBoolImm(true))
	}
	return ret
}

func (s *RewriteSimplifier) visitNE(op *ir.NE) ir.Expr {
	ret := s.mutateChildren(op)
	ne, ok := ret.(*ir.NE)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldNE(ne.A, ne.B); ok {
		return res
	}
	if res, ok := s.tryMatchLiteralConstraint(ne); ok {
		return res
	}
	if isIndexType(ne.A.Type()) {
		switch s.tryCompare(ne.A, ne.B) {
		case CmpNE, CmpGT, CmpLT:
			return ir.NewBoolImm(true)
		case CmpEQ:
			return ir.NewBoolImm(false)
		case CmpGE:
			// a >= b makes a != b equivalent to b < a
			return s.applyRulesLT(&ir.LT{A: ne.B, B: ne.A})
		case CmpLE:
			return s.applyRulesLT(&ir.LT{A: ne.A, B: ne.B})
		}
	}
	eqPart := s.applyRulesEQ(&ir.EQ{A: ne.A, B: ne.B})
	if asEQ, ok := eqPart.(*ir.EQ); ok {
		return s.applyRulesNot(&ir.Not{A: asEQ})
	}
	if res, ok := ir.TryConstFoldNot(eqPart); ok {
		return res
	}
	return s.applyRulesNot(&ir.Not{A: eqPart})
}

func (s *RewriteSimplifier) visitLE(op *ir.LE) ir.Expr {
	ret := s.mutateChildren(op)
	le, ok := ret.(*ir.LE)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldLE(le.A, le.B); ok {
		return res
	}
	if res, ok := s.tryMatchLiteralConstraint(le); ok {
		return res
	}
	// apply the LT rewrites before attempting to prove the inequality, so
	// (A <= B*x) still becomes (ceildiv(A,B) <= x) when B does not divide A
	flipped := s.applyRulesLT(&ir.LT{A: le.B, B: le.A})
	var next ir.Expr
	if asLT, ok := flipped.(*ir.LT); ok {
		next = s.applyRulesNot(&ir.Not{A: asLT})
	} else if res, ok := ir.TryConstFoldNot(flipped); ok {
		next = res
	} else {
		next = s.applyRulesNot(&ir.Not{A: flipped})
	}
	le2, ok := next.(*ir.LE)
	if ok && isIndexType(le2.A.Type()) {
		switch s.tryCompare(le2.A, le2.B) {
		case CmpLE, CmpLT, CmpEQ:
			return ir.NewBoolImm(true)
		case CmpGT:
			return ir.NewBoolImm(false)
		case CmpNE:
			return s.applyRulesLT(&ir.LT{A: le2.A, B: le2.B})
		case CmpGE:
			return s.applyRulesEQ(&ir.EQ{A: le2.A, B: le2.B})
		}
	}
	return next
}

func (s *RewriteSimplifier) visitLT(op *ir.LT) ir.Expr {
	ret := s.mutateChildren(op)
	lt, ok := ret.(*ir.LT)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldLT(lt.A, lt.B); ok {
		return res
	}
	if res, ok := s.tryMatchLiteralConstraint(lt); ok {
		return res
	}
	return s.applyRulesLT(lt)
}

func (s *RewriteSimplifier) applyRulesLT(lt *ir.LT) ir.Expr {
	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	s1 := ir.NewPExpr()
	c1, c2 := ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()
	ret := ir.Expr(lt)
	dtype := lt.A.Type()

	if lt.Type().Lanes != 1 {
		if s.match(ir.PLT(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpLT(x.Value(), y.Value()), lanes.Value()))
		}
		if s.match(ir.PLT(ir.PRamp(x, s1, lanes), ir.PRamp(y, s1, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpLT(x.Value(), y.Value()), lanes.Value()))
		}
	}
	if isIndexType(dtype) {
		result := s.tryCompare(lt.A, lt.B)
		if result == CmpLT {
			return ir.NewBoolImm(true)
		}
		if result == CmpEQ || result == CmpGT || result == CmpGE {
			return ir.NewBoolImm(false)
		}

		// cancellation
		if s.match(ir.POneOf(
			ir.PLT(ir.PAdd(x, y), ir.PAdd(x, z)),
			ir.PLT(ir.PAdd(x, y), ir.PAdd(z, x)),
			ir.PLT(ir.PAdd(y, x), ir.PAdd(x, z)),
			ir.PLT(ir.PAdd(y, x), ir.PAdd(z, x)),
		), ret) {
			return s.rewrite(ir.OpLT(y.Value(), z.Value()))
		}
		if s.match(ir.PLT(ir.PSub(y, x), ir.PSub(z, x)), ret) {
			return s.rewrite(ir.OpLT(y.Value(), z.Value()))
		}
		if s.match(ir.PLT(ir.PSub(x, y), ir.PSub(x, z)), ret) {
			return s.rewrite(ir.OpLT(z.Value(), y.Value()))
		}
		if s.match(ir.POneOf(ir.PLT(x, ir.PAdd(x, z)), ir.PLT(x, ir.PAdd(z, x))), ret) {
			return s.rewrite(ir.OpLT(zeroOf(z.Value()), z.Value()))
		}
		if s.match(ir.PLT(x, ir.PSub(x, z)), ret) {
			return s.rewrite(ir.OpLT(z.Value(), zeroOf(z.Value())))
		}
		if s.matchIf(ir.PLT(ir.PMul(x, c1), ir.PMul(y, c1)), ret,
			func() bool { return c1.Value() > 0 }) {
			return s.rewrite(ir.OpLT(x.Value(), y.Value()))
		}
		if s.matchIf(ir.PLT(ir.PMul(x, c1), ir.PMul(y, c1)), ret,
			func() bool { return c1.Value() < 0 }) {
			return s.rewrite(ir.OpLT(y.Value(), x.Value()))
		}

		// scaled comparisons; truncation-mode division keeps the dialect
		if s.matchIf(ir.PLT(ir.PMul(x, c2), c1), ret,
			func() bool { return c1.Value() > 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, (c1.Value()-1)/c2.Value()+1)))
		}
		if s.matchIf(ir.PLT(ir.PMul(x, c2), c1), ret,
			func() bool { return c1.Value() <= 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, c1.Value()/c2.Value())))
		}
		if s.matchIf(ir.PLT(ir.PMul(x, c2), c1), ret,
			func() bool { return c1.Value() > 0 && c2.Value() < 0 }) {
			return s.rewrite(ir.OpLT(
				ir.ConstScalar(dtype, (c1.Value()-1)/c2.Value()-1), x.Value()))
		}
		if s.matchIf(ir.PLT(ir.PMul(x, c2), c1), ret,
			func() bool { return c1.Value() <= 0 && c2.Value() < 0 }) {
			return s.rewrite(ir.OpLT(
				ir.ConstScalar(dtype, c1.Value()/c2.Value()), x.Value()))
		}
		if s.matchIf(ir.PLT(c1, ir.PMul(x, c2)), ret,
			func() bool { return c1.Value() < 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(
				ir.ConstScalar(dtype, (c1.Value()+1)/c2.Value()-1), x.Value()))
		}
		if s.matchIf(ir.PLT(c1, ir.PMul(x, c2)), ret,
			func() bool { return c1.Value() >= 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(
				ir.ConstScalar(dtype, c1.Value()/c2.Value()), x.Value()))
		}
		if s.matchIf(ir.PLT(c1, ir.PMul(x, c2)), ret,
			func() bool { return c1.Value() < 0 && c2.Value() < 0 }) {
			return s.rewrite(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, (c1.Value()+1)/c2.Value()+1)))
		}
		if s.matchIf(ir.PLT(c1, ir.PMul(x, c2)), ret,
			func() bool { return c1.Value() >= 0 && c2.Value() < 0 }) {
			return s.rewrite(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, c1.Value()/c2.Value())))
		}

		// DivMod rules, truncdiv
		if s.matchIf(ir.PLT(ir.PDiv(x, c1), c2), ret,
			func() bool { return c1.Value() > 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, c1.Value()*c2.Value())))
		}
		if s.matchIf(ir.PLT(ir.PDiv(x, c1), c2), ret,
			func() bool { return c1.Value() > 0 && c2.Value() <= 0 }) {
			return s.rewrite(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, c1.Value()*(c2.Value()-1)+1)))
		}
		if s.matchIf(ir.PLT(c1, ir.PDiv(x, c2)), ret,
			func() bool { return c1.Value() >= 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(
				ir.ConstScalar(dtype, (c1.Value()+1)*c2.Value()-1), x.Value()))
		}
		if s.matchIf(ir.PLT(c1, ir.PDiv(x, c2)), ret,
			func() bool { return c1.Value() < 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(
				ir.ConstScalar(dtype, c1.Value()*c2.Value()), x.Value()))
		}
		// x - (x / c1) * c1 is the remainder
		if s.matchIf(ir.PLT(ir.PMul(ir.PDiv(x, c1), c1), x), ret,
			func() bool { return c1.Value() > 0 }) {
			return s.rewrite(ir.OpLT(zeroOf(x.Value()), ir.OpTruncMod(x.Value(), c1.Imm())))
		}
		// floordiv
		if s.matchIf(ir.PLT(ir.PFloorDiv(x, c1), c2), ret,
			func() bool { return c1.Value() > 0 }) {
			return s.rewrite(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, c1.Value()*c2.Value())))
		}
		if s.matchIf(ir.PLT(c1, ir.PFloorDiv(x, c2)), ret,
			func() bool { return c2.Value() > 0 }) {
			return s.rewrite(ir.OpLT(
				ir.ConstScalar(dtype, (c1.Value()+1)*c2.Value()-1), x.Value()))
		}
		if s.matchIf(ir.PLT(ir.PMul(ir.PFloorDiv(x, c1), c1), x), ret,
			func() bool { return c1.Value() > 0 }) {
			return s.rewrite(ir.OpLT(zeroOf(x.Value()), ir.OpFloorMod(x.Value(), c1.Imm())))
		}

		// distribute comparisons over min/max
		if s.match(ir.PLT(ir.PMin(x, y), z), ret) {
			return s.rewriteRec(ir.OpOr(
				ir.OpLT(x.Value(), z.Value()), ir.OpLT(y.Value(), z.Value())))
		}
		if s.match(ir.PLT(ir.PMax(x, y), z), ret) {
			return s.rewriteRec(ir.OpAnd(
				ir.OpLT(x.Value(), z.Value()), ir.OpLT(y.Value(), z.Value())))
		}
		if s.match(ir.PLT(z, ir.PMin(x, y)), ret) {
			return s.rewriteRec(ir.OpAnd(
				ir.OpLT(z.Value(), x.Value()), ir.OpLT(z.Value(), y.Value())))
		}
		if s.match(ir.PLT(z, ir.PMax(x, y)), ret) {
			return s.rewriteRec(ir.OpOr(
				ir.OpLT(z.Value(), x.Value()), ir.OpLT(z.Value(), y.Value())))
		}

		// constant placement canonicalization
		if s.match(ir.POneOf(
			ir.PLT(c1, ir.PAdd(x, c2)),
			ir.PLT(ir.PSub(c1, x), c2),
		), ret) {
			return s.rewriteRec(ir.OpLT(
				ir.ConstScalar(dtype, c1.Value()-c2.Value()), x.Value()))
		}
		if s.match(ir.POneOf(
			ir.PLT(c1, ir.PSub(c2, x)),
			ir.PLT(ir.PAdd(x, c1), c2),
		), ret) {
			return s.rewriteRec(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, c2.Value()-c1.Value())))
		}
		if s.match(ir.PLT(c1, ir.PSub(x, c2)), ret) {
			return s.rewriteRec(ir.OpLT(
				ir.ConstScalar(dtype, c1.Value()+c2.Value()), x.Value()))
		}
		if s.match(ir.PLT(ir.PSub(x, c2), c1), ret) {
			return s.rewriteRec(ir.OpLT(x.Value(),
				ir.ConstScalar(dtype, c1.Value()+c2.Value())))
		}
		if s.match(ir.PLT(x, ir.PSub(c1, y)), ret) {
			return s.rewriteRec(ir.OpLT(ir.OpAdd(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PLT(ir.PSub(c1, y), x), ret) {
			return s.rewriteRec(ir.OpLT(c1.Imm(), ir.OpAdd(x.Value(), y.Value())))
		}
		if s.match(ir.PLT(x, ir.PAdd(y, c1)), ret) {
			return s.rewriteRec(ir.OpLT(ir.OpSub(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PLT(ir.PAdd(y, c1), x), ret) {
			return s.rewriteRec(ir.OpLT(c1.Imm(), ir.OpSub(x.Value(), y.Value())))
		}

		// merge extracted offsets against the difference
		if merged, ok := s.mergeConstantsLT(lt); ok {
			return s.recursiveRewrite(merged)
		}

		// cancel the common modular factor of both sides
		commonFactor := func() int64 {
			modA := s.ana.ModularSet.Query(lt.A)
			modB := s.ana.ModularSet.Query(lt.B)
			gcdLHS := ir.ZeroAwareGCD(modA.Base, modA.Coeff)
			gcdRHS := ir.ZeroAwareGCD(modB.Base, modB.Coeff)
			return ir.ZeroAwareGCD(gcdLHS, gcdRHS)
		}()
		if commonFactor > 1 {
			factor := ir.ConstScalar(dtype, commonFactor)
			return s.recursiveRewrite(ir.OpLT(
				ir.OpFloorDiv(lt.A, factor), ir.OpFloorDiv(lt.B, factor)))
		}
	}
	return ret
}

// mergeConstantsLT extracts (lhs, rhs, offset) and merges the constant
// offsets into the tightest comparison form.
func (s *RewriteSimplifier) mergeConstantsLT(lt *ir.LT) (ir.Expr, bool) {
	lhs, lhsOffset := extractConstantOffset(lt.A)
	rhs, rhsOffset := extractConstantOffset(lt.B)
	if lhsOffset == 0 && rhsOffset == 0 {
		return nil, false
	}
	diff := rhsOffset - lhsOffset
	switch {
	case diff == 0:
		return ir.OpLT(lhs, rhs), true
	case diff == 1:
		return ir.OpLE(lhs, rhs), true
	case diff < 0 && rhsOffset != 0:
		return ir.OpLT(ir.OpAdd(lhs, ir.ConstScalar(lhs.Type(), -diff)), rhs), true
	case diff > 0 && lhsOffset != 0:
		return ir.OpLT(lhs, ir.OpAdd(rhs, ir.ConstScalar(rhs.Type(), diff))), true
	}
	return nil, false
}

func (s *RewriteSimplifier) visitNot(op *ir.Not) ir.Expr {
	ret := s.mutateChildren(op)
	not, ok := ret.(*ir.Not)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldNot(not.A); ok {
		return res
	}
	if res, ok := s.tryMatchLiteralConstraint(not); ok {
		return res
	}
	return s.applyRulesNot(not)
}

func (s *RewriteSimplifier) applyRulesNot(not *ir.Not) ir.Expr {
	x, y := ir.NewPExpr(), ir.NewPExpr()
	lanes := ir.NewPLanes()
	ret := ir.Expr(not)
	if not.Type().Lanes != 1 {
		if s.match(ir.PNot(ir.PBroadcast(x, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpNot(x.Value()), lanes.Value()))
		}
	}
	if s.match(ir.PNot(ir.PNot(x)), ret) {
		return s.rewrite(x.Value())
	}
	if s.match(ir.PNot(ir.PLE(x, y)), ret) {
		return s.rewrite(ir.OpLT(y.Value(), x.Value()))
	}
	if s.match(ir.PNot(ir.PGE(x, y)), ret) {
		return s.rewrite(ir.OpLT(x.Value(), y.Value()))
	}
	if s.match(ir.PNot(ir.PLT(x, y)), ret) {
		return s.rewrite(ir.OpLE(y.Value(), x.Value()))
	}
	if s.match(ir.PNot(ir.PGT(x, y)), ret) {
		return s.rewrite(ir.OpLE(x.Value(), y.Value()))
	}
	if s.match(ir.PNot(ir.PEQ(x, y)), ret) {
		return s.rewrite(ir.OpNE(x.Value(), y.Value()))
	}
	if s.match(ir.PNot(ir.PNE(x, y)), ret) {
		return s.rewrite(ir.OpEQ(x.Value(), y.Value()))
	}
	if s.match(ir.PNot(ir.POrP(x, y)), ret) {
		return s.rewriteRec(ir.OpAnd(
			ir.OpNot(x.Value()), ir.OpNot(y.Value())))
	}
	if s.match(ir.PNot(ir.PAndP(x, y)), ret) {
		return s.rewriteRec(ir.OpOr(
			ir.OpNot(x.Value()), ir.OpNot(y.Value())))
	}
	return ret
}

// visitBooleanBranches alternately simplifies each branch of a boolean
// binary node under the assumption derived from the other branch, until a
// fixed point or the iteration cap.
func (s *RewriteSimplifier) visitBooleanBranches(a, b ir.Expr,
	constraintOf func(other ir.Expr) ir.Expr) (ir.Expr, ir.Expr) {
	iterationsSinceUpdate := 0
	for i := 0; i < 4; i++ {
		var toUpdate *ir.Expr
		var constraint ir.Expr
		if i%2 == 0 {
			toUpdate = &a
			constraint = b
		} else {
			toUpdate = &b
			constraint = a
		}
		func() {
			ctx := s.ana.EnterConstraint(constraintOf(constraint))
			defer ctx.Exit()
			updated := s.self.MutateExpr(*toUpdate)
			if updated != *toUpdate {
				*toUpdate = updated
				iterationsSinceUpdate = 0
			} else {
				iterationsSinceUpdate++
			}
		}()
		if iterationsSinceUpdate >= 2 {
			break
		}
	}
	return a, b
}

func (s *RewriteSimplifier) visitAnd(op *ir.And) ir.Expr {
	var ret ir.Expr
	if s.enabledExtensions&ExtApplyConstraintsToBooleanBranches != 0 {
		a, b := s.visitBooleanBranches(op.A, op.B, func(other ir.Expr) ir.Expr { return other })
		if a == op.A && b == op.B {
			ret = op
		} else {
			ret = ir.OpAnd(a, b)
		}
	} else {
		ret = s.mutateChildren(op)
	}
	and, ok := ret.(*ir.And)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldAnd(and.A, and.B); ok {
		return res
	}
	if res, ok := s.tryMatchLiteralConstraint(and); ok {
		return res
	}
	if s.enabledExtensions&ExtConvertBooleanToAndOfOrs != 0 && !s.recursivelyVisitingBoolean {
		return s.ana.simplifyAsAndOfOrs(and)
	}

	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	c1, c2, c3 := ir.NewPConst(), ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()
	cfalse := ir.NewBoolImm(false)

	if and.Type().Lanes != 1 {
		if s.match(ir.PAndP(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpAnd(x.Value(), y.Value()), lanes.Value()))
		}
	}
	if s.match(ir.POneOf(
		ir.PAndP(ir.PEQ(x, y), ir.PNE(x, y)),
		ir.PAndP(ir.PNE(x, y), ir.PEQ(x, y)),
		ir.PAndP(x, ir.PNot(x)),
		ir.PAndP(ir.PNot(x), x),
		ir.PAndP(ir.PLE(x, y), ir.PLT(y, x)),
		ir.PAndP(ir.PLT(y, x), ir.PLE(x, y)),
	), ret) {
		return s.rewrite(cfalse)
	}
	if s.matchIf(ir.PAndP(ir.PLT(x, c1), ir.PLT(c2, x)), ret,
		func() bool { return c2.Value()+1 >= c1.Value() }) {
		return s.rewrite(cfalse)
	}
	if s.matchIf(ir.PAndP(ir.PLT(c2, x), ir.PLT(x, c1)), ret,
		func() bool { return c2.Value()+1 >= c1.Value() }) {
		return s.rewrite(cfalse)
	}
	if s.matchIf(ir.POneOf(
		ir.PAndP(ir.PLT(x, c1), ir.PLE(c2, x)),
		ir.PAndP(ir.PLE(c2, x), ir.PLT(x, c1)),
		ir.PAndP(ir.PLE(x, c1), ir.PLT(c2, x)),
		ir.PAndP(ir.PLT(c2, x), ir.PLE(x, c1)),
	), ret, func() bool { return c2.Value() >= c1.Value() }) {
		return s.rewrite(cfalse)
	}
	if s.matchIf(ir.POneOf(
		ir.PAndP(ir.PLE(x, c1), ir.PLE(c2, x)),
		ir.PAndP(ir.PLE(c2, x), ir.PLE(x, c1)),
	), ret, func() bool { return c2.Value() > c1.Value() }) {
		return s.rewrite(cfalse)
	}
	if s.match(ir.PAndP(ir.PEQ(x, c1), ir.PEQ(x, c2)), ret) {
		return s.rewrite(ir.OpAnd(
			ir.OpEQ(x.Value(), c1.Imm()),
			ir.NewBoolImm(c1.Value() == c2.Value())))
	}
	if s.match(ir.POneOf(
		ir.PAndP(ir.PEQ(x, c1), ir.PNE(x, c2)),
		ir.PAndP(ir.PNE(x, c2), ir.PEQ(x, c1)),
	), ret) {
		return s.rewrite(ir.OpAnd(
			ir.OpEQ(x.Value(), c1.Imm()),
			ir.NewBoolImm(c1.Value() != c2.Value())))
	}
	// floordiv/floormod recombination
	if s.match(ir.POneOf(
		ir.PAndP(ir.PEQ(ir.PFloorDiv(x, c2), c1), ir.PEQ(ir.PFloorMod(x, c2), c3)),
		ir.PAndP(ir.PEQ(ir.PFloorMod(x, c2), c3), ir.PEQ(ir.PFloorDiv(x, c2), c1)),
	), ret) {
		return s.rewriteRec(ir.OpEQ(x.Value(),
			ir.ConstScalar(x.Value().Type(), c1.Value()*c2.Value()+c3.Value())))
	}
	if s.match(ir.POneOf(
		ir.PAndP(ir.PEQ(ir.PFloorDiv(x, c2), c1), ir.PLT(ir.PFloorMod(x, c2), c3)),
		ir.PAndP(ir.PLT(ir.PFloorMod(x, c2), c3), ir.PEQ(ir.PFloorDiv(x, c2), c1)),
	), ret) {
		t := x.Value().Type()
		return s.rewriteRec(ir.OpAnd(
			ir.OpLE(ir.ConstScalar(t, c1.Value()*c2.Value()), x.Value()),
			ir.OpLT(x.Value(), ir.ConstScalar(t, c1.Value()*c2.Value()+c3.Value()))))
	}
	if s.match(ir.POneOf(
		ir.PAndP(ir.PEQ(ir.PFloorDiv(x, c2), c1), ir.PLE(c3, ir.PFloorMod(x, c2))),
		ir.PAndP(ir.PLE(c3, ir.PFloorMod(x, c2)), ir.PEQ(ir.PFloorDiv(x, c2), c1)),
	), ret) {
		t := x.Value().Type()
		return s.rewriteRec(ir.OpAnd(
			ir.OpLE(ir.ConstScalar(t, c1.Value()*c2.Value()+c3.Value()), x.Value()),
			ir.OpLT(x.Value(), ir.ConstScalar(t, (c1.Value()+1)*c2.Value()))))
	}
	// associativity
	if s.match(ir.PAndP(x, ir.PAndP(y, z)), ret) {
		return s.rewriteRec(ir.OpAnd(
			ir.OpAnd(x.Value(), y.Value()), z.Value()))
	}
	return ret
}

func (s *RewriteSimplifier) visitOr(op *ir.Or) ir.Expr {
	var ret ir.Expr
	if s.enabledExtensions&ExtApplyConstraintsToBooleanBranches != 0 {
		a, b := s.visitBooleanBranches(op.A, op.B, func(other ir.Expr) ir.Expr {
			return normalizeBooleanOperators(&ir.Not{A: other})
		})
		if a == op.A && b == op.B {
			ret = op
		} else {
			ret = ir.OpOr(a, b)
		}
	} else {
		ret = s.mutateChildren(op)
	}
	or, ok := ret.(*ir.Or)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldOr(or.A, or.B); ok {
		return res
	}
	if res, ok := s.tryMatchLiteralConstraint(or); ok {
		return res
	}
	if s.enabledExtensions&ExtConvertBooleanToAndOfOrs != 0 && !s.recursivelyVisitingBoolean {
		return s.ana.simplifyAsAndOfOrs(or)
	}

	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	c1, c2 := ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()
	ctrue := ir.NewBoolImm(true)

	if or.Type().Lanes != 1 {
		if s.match(ir.POrP(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpOr(x.Value(), y.Value()), lanes.Value()))
		}
	}
	if s.match(ir.POneOf(
		ir.POrP(ir.PEQ(x, y), ir.PNE(x, y)),
		ir.POrP(ir.PNE(x, y), ir.PEQ(x, y)),
		ir.POrP(x, ir.PNot(x)),
		ir.POrP(ir.PNot(x), x),
		ir.POrP(ir.PLE(x, y), ir.PLT(y, x)),
		ir.POrP(ir.PLT(y, x), ir.PLE(x, y)),
	), ret) {
		return s.rewrite(ctrue)
	}
	if s.match(ir.POrP(ir.PLT(x, y), ir.PLT(y, x)), ret) {
		return s.rewrite(ir.OpNE(x.Value(), y.Value()))
	}
	if s.matchIf(ir.POneOf(
		ir.POrP(ir.PLT(x, c1), ir.PLT(c2, x)),
		ir.POrP(ir.PLT(c2, x), ir.PLT(x, c1)),
	), ret, func() bool { return c2.Value() < c1.Value() }) {
		return s.rewrite(ctrue)
	}
	if s.matchIf(ir.POneOf(
		ir.POrP(ir.PLE(x, c1), ir.PLT(c2, x)),
		ir.POrP(ir.PLT(c2, x), ir.PLE(x, c1)),
		ir.POrP(ir.PLT(x, c1), ir.PLE(c2, x)),
		ir.POrP(ir.PLE(c2, x), ir.PLT(x, c1)),
	), ret, func() bool { return c2.Value() <= c1.Value() }) {
		return s.rewrite(ctrue)
	}
	if s.matchIf(ir.POneOf(
		ir.POrP(ir.PLE(x, c1), ir.PLE(c2, x)),
		ir.POrP(ir.PLE(c2, x), ir.PLE(x, c1)),
	), ret, func() bool { return c2.Value() <= c1.Value()+1 }) {
		return s.rewrite(ctrue)
	}
	if s.match(ir.POrP(ir.PNE(x, c1), ir.PNE(x, c2)), ret) {
		return s.rewrite(ir.OpOr(
			ir.OpNE(x.Value(), c1.Imm()),
			ir.NewBoolImm(c1.Value() != c2.Value())))
	}
	if s.match(ir.POneOf(
		ir.POrP(ir.PNE(x, c1), ir.PEQ(x, c2)),
		ir.POrP(ir.PEQ(x, c2), ir.PNE(x, c1)),
	), ret) {
		return s.rewrite(ir.OpOr(
			ir.OpNE(x.Value(), c1.Imm()),
			ir.NewBoolImm(c1.Value() == c2.Value())))
	}
	if s.match(ir.POneOf(
		ir.POrP(ir.PLT(x, y), ir.PEQ(x, y)),
		ir.POrP(ir.PLT(x, y), ir.PEQ(y, x)),
		ir.POrP(ir.PEQ(x, y), ir.PLT(x, y)),
		ir.POrP(ir.PEQ(y, x), ir.PLT(x, y)),
	), ret) {
		return s.rewriteRec(ir.OpLE(x.Value(), y.Value()))
	}
	if s.match(ir.POrP(x, ir.POrP(y, z)), ret) {
		return s.rewriteRec(ir.OpOr(
			ir.OpOr(x.Value(), y.Value()), z.Value()))
	}
	return ret
}
