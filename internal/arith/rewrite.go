package arith

import (
	"shiki/internal/errors"
	"shiki/internal/ir"
)

// Extension is the bitset of optional rewrite-simplifier behaviors.
type Extension uint32

const (
	ExtNone Extension = 0

	// ExtTransitivelyProveInequalities routes inequality proofs through
	// the transitive comparison analyzer with propagation enabled.
	ExtTransitivelyProveInequalities Extension = 1 << 0

	// ExtConvertBooleanToAndOfOrs rewrites boolean expressions into
	// conjunctive normal form and simplifies within and across chunks.
	ExtConvertBooleanToAndOfOrs Extension = 1 << 1

	// ExtApplyConstraintsToBooleanBranches simplifies each branch of a
	// boolean And/Or under the assumption that the other branch does not
	// already dominate the result.
	ExtApplyConstraintsToBooleanBranches Extension = 1 << 2

	// ExtComparisonOfProductAndSum proves (A+B)*C vs (A*B)*D inequalities
	// for positive terms via a reciprocal-form bound check.
	ExtComparisonOfProductAndSum Extension = 1 << 3
)

// RewriteStats are usage counters for debugging and testing, to keep an eye
// on passes that trigger excessive simplification work.
type RewriteStats struct {
	NodesVisited         int64
	ConstraintsEntered   int64
	RewritesAttempted    int64
	RewritesPerformed    int64
	MaxRecursiveDepth    int64
	NumRecursiveRewrites int64
}

// maximum recursion allowed when a rule re-enters the simplifier on its
// rewritten result
const maxRecurDepth = 5

// exprSimplifier is the open-recursion hook shared by the rewrite and
// canonical simplifiers: recursive visits dispatch through it so that the
// canonical simplifier can override node handling while reusing the
// rewrite rules.
type exprSimplifier interface {
	ir.Mutator
}

// RewriteSimplifier is a local pattern-rewriting simplifier with constant
// folding and a literal-constraint table.
type RewriteSimplifier struct {
	ana  *Analyzer
	self exprSimplifier

	stats              RewriteStats
	maxRewriteSteps    int64
	recurDepth         int64
	varMap             map[*ir.Var]ir.Expr
	literalConstraints []ir.Expr
	enabledExtensions  Extension

	recursivelyVisitingBoolean bool
}

func newRewriteSimplifier(ana *Analyzer) *RewriteSimplifier {
	s := &RewriteSimplifier{
		ana:    ana,
		varMap: make(map[*ir.Var]ir.Expr),
	}
	s.self = s
	return s
}

// Simplify runs the bottom-up rewriting pass until a fixed point, bounded
// at two iterations.
func (s *RewriteSimplifier) Simplify(expr ir.Expr) ir.Expr {
	res := expr
	for i := 0; i < 2; i++ {
		newExpr := s.self.MutateExpr(res)
		if newExpr == res {
			return res
		}
		res = newExpr
	}
	return res
}

// Update registers var -> expr for inlining during simplification.
func (s *RewriteSimplifier) Update(v *ir.Var, info ir.Expr, allowOverride bool) {
	if !allowOverride {
		if old, ok := s.varMap[v]; ok && !ir.DeepEqual(old, info) {
			panic(errors.Internalf(
				"trying to update var %q with a different value: original=%s, new=%s",
				v.Name, old, info))
		}
	}
	s.varMap[v] = info
}

func (s *RewriteSimplifier) SetEnabledExtensions(flags Extension) { s.enabledExtensions = flags }
func (s *RewriteSimplifier) GetEnabledExtensions() Extension      { return s.enabledExtensions }
func (s *RewriteSimplifier) Stats() RewriteStats                  { return s.stats }
func (s *RewriteSimplifier) ResetStatsCounters()                  { s.stats = RewriteStats{} }
func (s *RewriteSimplifier) SetMaximumRewriteSteps(maximum int64) { s.maxRewriteSteps = maximum }

// EnterConstraint seeds the literal-constraint table with the simplified
// constraint and the negation of each conjunct, so a later query equal to
// the negation resolves to false.
func (s *RewriteSimplifier) EnterConstraint(constraint ir.Expr) func() {
	oldSize := len(s.literalConstraints)
	newConstraint := s.Simplify(constraint)
	for _, sub := range ir.ExtractConstraints(newConstraint, false) {
		s.literalConstraints = append(s.literalConstraints, sub)
		var negation ir.Expr
		if sub.Type().IsBool() {
			// normalizing here means TryMatchLiteralConstraint can use
			// plain structural comparison on each lookup
			negation = normalizeBooleanOperators(&ir.Not{A: sub})
		} else {
			negation = ir.OpEQ(sub, ir.ConstScalar(sub.Type(), 0))
		}
		s.literalConstraints = append(s.literalConstraints, &ir.Not{A: negation})
	}
	s.stats.ConstraintsEntered++
	newSize := len(s.literalConstraints)
	return func() {
		if len(s.literalConstraints) != newSize {
			panic(errors.InternalCode(errors.ErrorConstraintStack,
				"literal constraint table changed size while a constraint was live"))
		}
		s.literalConstraints = s.literalConstraints[:oldSize]
	}
}

// tryMatchLiteralConstraint resolves a boolean expression against the
// current scope's literal constraints, directly or via its negation.
func (s *RewriteSimplifier) tryMatchLiteralConstraint(expr ir.Expr) (ir.Expr, bool) {
	negation := ir.Expr(&ir.Not{A: expr})
	for _, constraint := range s.literalConstraints {
		if ir.DeepEqual(constraint, expr) {
			return ir.NewBoolImm(true), true
		}
		if ir.DeepEqual(constraint, negation) {
			return ir.NewBoolImm(false), true
		}
	}
	return nil, false
}

// MutateExpr dispatches the bottom-up rewrite of one node.
func (s *RewriteSimplifier) MutateExpr(e ir.Expr) ir.Expr {
	s.stats.NodesVisited++
	switch op := e.(type) {
	case *ir.Add:
		return s.visitAdd(op)
	case *ir.Sub:
		return s.visitSub(op)
	case *ir.Mul:
		return s.visitMul(op)
	case *ir.Div:
		return s.visitDiv(op)
	case *ir.Mod:
		return s.visitMod(op)
	case *ir.FloorDiv:
		return s.visitFloorDiv(op)
	case *ir.FloorMod:
		return s.visitFloorMod(op)
	case *ir.Min:
		return s.visitMin(op)
	case *ir.Max:
		return s.visitMax(op)
	case *ir.EQ:
		return s.visitEQ(op)
	case *ir.NE:
		return s.visitNE(op)
	case *ir.LT:
		return s.visitLT(op)
	case *ir.LE:
		return s.visitLE(op)
	case *ir.GT:
		return s.self.MutateExpr(&ir.LT{A: op.B, B: op.A})
	case *ir.GE:
		return s.self.MutateExpr(&ir.LE{A: op.B, B: op.A})
	case *ir.And:
		return s.visitAnd(op)
	case *ir.Or:
		return s.visitOr(op)
	case *ir.Not:
		return s.visitNot(op)
	case *ir.Select:
		return s.visitSelect(op)
	case *ir.Call:
		return s.visitCall(op)
	case *ir.Var:
		return s.visitVar(op)
	case *ir.Cast:
		return s.visitCast(op)
	case *ir.Let:
		return s.visitLet(op)
	}
	return s.mutateChildren(e)
}

// mutateChildren rewrites children through the analyzer-aware walk:
// entering a Select or if_then_else branch installs the (possibly negated)
// condition as a scoped constraint.
func (s *RewriteSimplifier) mutateChildren(e ir.Expr) ir.Expr {
	switch op := e.(type) {
	case *ir.Select:
		cond := s.self.MutateExpr(op.Cond)
		trueValue := func() ir.Expr {
			ctx := s.ana.EnterConstraint(cond)
			defer ctx.Exit()
			return s.self.MutateExpr(op.TrueValue)
		}()
		falseValue := func() ir.Expr {
			notCond := s.ana.Rewrite.Simplify(&ir.Not{A: cond})
			ctx := s.ana.EnterConstraint(notCond)
			defer ctx.Exit()
			return s.self.MutateExpr(op.FalseValue)
		}()
		if ir.IsConstInt(cond, 0) {
			return falseValue
		}
		if ir.IsConstInt(cond, 1) {
			return trueValue
		}
		if cond == op.Cond && trueValue == op.TrueValue && falseValue == op.FalseValue {
			return e
		}
		return ir.OpSelect(cond, trueValue, falseValue)
	case *ir.Call:
		if op.Op == ir.IntrinsicIfThenElse {
			cond := s.self.MutateExpr(op.Args[0])
			trueValue := func() ir.Expr {
				ctx := s.ana.EnterConstraint(cond)
				defer ctx.Exit()
				return s.self.MutateExpr(op.Args[1])
			}()
			falseValue := func() ir.Expr {
				ctx := s.ana.EnterConstraint(&ir.Not{A: cond})
				defer ctx.Exit()
				return s.self.MutateExpr(op.Args[2])
			}()
			if ir.IsConstInt(cond, 0) {
				return falseValue
			}
			if ir.IsConstInt(cond, 1) {
				return trueValue
			}
			if cond == op.Args[0] && trueValue == op.Args[1] && falseValue == op.Args[2] {
				return e
			}
			return &ir.Call{Dtype: op.Dtype, Op: op.Op, Args: []ir.Expr{cond, trueValue, falseValue}}
		}
	}
	return ir.MutateChildren(e, s.self)
}

// match is one attempted rewrite.
func (s *RewriteSimplifier) match(p ir.Pattern, e ir.Expr) bool {
	s.stats.RewritesAttempted++
	return ir.Match(p, e)
}

func (s *RewriteSimplifier) matchIf(p ir.Pattern, e ir.Expr, cond func() bool) bool {
	s.stats.RewritesAttempted++
	return ir.MatchIf(p, e, cond)
}

// rewrite records a performed rewrite and enforces the configured
// maximum number of rewrite steps.
func (s *RewriteSimplifier) rewrite(result ir.Expr) ir.Expr {
	s.stats.RewritesPerformed++
	if s.maxRewriteSteps > 0 && s.stats.RewritesPerformed > s.maxRewriteSteps {
		panic(errors.Internalf(
			"rewrite simplifier exceeded maximum number of rewrites allowed (%d)", s.maxRewriteSteps))
	}
	return result
}

// recursiveRewrite re-enters the simplifier on a rewritten result, bounded
// by the recursion depth.
func (s *RewriteSimplifier) recursiveRewrite(x ir.Expr) ir.Expr {
	s.stats.NumRecursiveRewrites++
	if s.recurDepth >= maxRecurDepth {
		return x
	}
	s.recurDepth++
	if s.recurDepth > s.stats.MaxRecursiveDepth {
		s.stats.MaxRecursiveDepth = s.recurDepth
	}
	res := s.self.MutateExpr(x)
	s.recurDepth--
	return res
}

func (s *RewriteSimplifier) rewriteRec(result ir.Expr) ir.Expr {
	return s.recursiveRewrite(s.rewrite(result))
}

// Proof helpers that refer back to the super-analyzer.

func (s *RewriteSimplifier) canProveGreaterEqual(x ir.Expr, val int64) bool {
	return s.ana.CanProveGreaterEqual(x, val)
}

func (s *RewriteSimplifier) canProveLess(x ir.Expr, val int64) bool {
	return s.ana.CanProveLess(x, val)
}

func (s *RewriteSimplifier) canProveEqual(x ir.Expr, val int64) bool {
	return s.tryCompareConst(x, val) == CmpEQ
}

// tryCompareConst compares x against a constant using the rewritten form,
// constant bounds and modular parity. It is called on hot paths, so only
// cheap analyses run here.
func (s *RewriteSimplifier) tryCompareConst(x ir.Expr, val int64) CompareResult {
	diff := s.self.MutateExpr(x)
	if imm, ok := diff.(*ir.IntImm); ok {
		switch {
		case imm.Value == val:
			return CmpEQ
		case imm.Value > val:
			return CmpGT
		default:
			return CmpLT
		}
	}
	dbound := s.ana.ConstIntBound.Query(diff)
	if dbound.Min == val && dbound.Max == val {
		return CmpEQ
	}
	if dbound.Min > val {
		return CmpGT
	}
	if dbound.Max < val {
		return CmpLT
	}
	if dbound.Min >= val {
		return CmpGE
	}
	if dbound.Max <= val {
		return CmpLE
	}
	if val == 0 {
		dmod := s.ana.ModularSet.Query(diff)
		if dmod.Base != 0 {
			return CmpNE
		}
	}
	return CmpUnknown
}

// tryCompare compares two expressions, intersecting results from constant
// bounds, known inequalities and the product-vs-sum extension.
func (s *RewriteSimplifier) tryCompare(x, y ir.Expr) CompareResult {
	output := CmpUnknown
	finished := func() bool {
		return output == CmpEQ || output == CmpLT || output == CmpGT
	}
	output = output.And(s.tryCompareConst(ir.OpSub(x, y), 0))
	if finished() {
		return output
	}
	propagate := s.enabledExtensions&ExtTransitivelyProveInequalities != 0
	output = output.And(s.ana.TransitiveComparisons.TryCompare(x, y, propagate))
	if finished() {
		return output
	}
	output = output.And(s.tryComparisonOfProductAndSum(x, y))
	return output
}

// tryComparisonOfProductAndSum proves (A+B)*C vs (A*B)*D for positive
// terms. With all terms positive, (A+B)*C < (A*B)*D is equivalent to
// 1/(A*D) + 1/(B*D) < 1/C, which is checkable on interval bounds alone.
func (s *RewriteSimplifier) tryComparisonOfProductAndSum(x, y ir.Expr) CompareResult {
	if s.enabledExtensions&ExtComparisonOfProductAndSum == 0 {
		return CmpUnknown
	}
	A, B, C, D := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	diff := s.self.MutateExpr(ir.OpSub(x, y)) // diff is (A+B)*C - (A*B)*D
	var a, b, c, d ir.Expr
	reversed := false
	sumTimesC := func() ir.Pattern { return ir.PMul(ir.PAdd(A, B), C) }
	switch {
	case ir.Match(ir.POneOf(
		ir.PAdd(sumTimesC(), ir.PMul(ir.PMul(A, B), D)),
		ir.PAdd(sumTimesC(), ir.PMul(ir.PMul(B, A), D)),
		ir.PAdd(ir.PMul(ir.PMul(A, B), D), sumTimesC()),
		ir.PAdd(ir.PMul(ir.PMul(B, A), D), sumTimesC()),
	), diff):
		a, b, c = A.Value(), B.Value(), C.Value()
		d = ir.OpNeg(D.Value())
	case ir.Match(ir.POneOf(
		ir.PSub(sumTimesC(), ir.PMul(ir.PMul(A, B), D)),
		ir.PSub(sumTimesC(), ir.PMul(ir.PMul(B, A), D)),
	), diff):
		// (A+B)*C - (A*B)*D keeps its Sub form when D stays symbolic
		a, b, c = A.Value(), B.Value(), C.Value()
		d = D.Value()
	case ir.Match(ir.POneOf(
		ir.PSub(ir.PMul(ir.PMul(A, B), D), sumTimesC()),
		ir.PSub(ir.PMul(ir.PMul(B, A), D), sumTimesC()),
	), diff):
		// the negated difference: prove the flipped comparison, then
		// reverse the verdict
		a, b, c = A.Value(), B.Value(), C.Value()
		d = D.Value()
		reversed = true
	case ir.Match(ir.POneOf(
		ir.PAdd(sumTimesC(), ir.PMul(A, B)),
		ir.PAdd(sumTimesC(), ir.PMul(B, A)),
		ir.PAdd(ir.PMul(A, B), sumTimesC()),
		ir.PAdd(ir.PMul(B, A), sumTimesC()),
	), diff):
		a, b, c = A.Value(), B.Value(), C.Value()
		d = ir.ConstScalar(diff.Type(), -1)
	case ir.Match(ir.POneOf(
		ir.PSub(sumTimesC(), ir.PMul(A, B)),
		ir.PSub(sumTimesC(), ir.PMul(B, A)),
	), diff):
		a, b, c = A.Value(), B.Value(), C.Value()
		d = ir.ConstScalar(diff.Type(), 1)
	default:
		return CmpUnknown
	}
	aBound := s.ana.ConstIntBound.Query(a)
	bBound := s.ana.ConstIntBound.Query(b)
	cBound := s.ana.ConstIntBound.Query(c)
	dBound := s.ana.ConstIntBound.Query(d)

	negate := func(bound ConstIntBound) ConstIntBound {
		return ConstIntBound{Min: -bound.Max, Max: -bound.Min}
	}
	isNegative := func(bound ConstIntBound) bool { return bound.Max < 0 }
	isPositive := func(bound ConstIntBound) bool { return bound.Min > 0 }

	// A negative D means we are bounding (A*B)*D from above instead of
	// below; flip signs, prove the lower bound, then flip back.
	isUpperBound := isNegative(dBound)
	if isUpperBound {
		cBound = negate(cBound)
		dBound = negate(dBound)
	}
	if isNegative(cBound) {
		aBound = negate(aBound)
		bBound = negate(bBound)
		cBound = negate(cBound)
	}
	if !(isPositive(aBound) && isPositive(bBound) && isPositive(cBound) && isPositive(dBound)) {
		return CmpUnknown
	}

	reciprocalPositive := func() bool {
		if dBound.Max == ir.PosInf {
			// with unbounded D the 1/(A*D) and 1/(B*D) terms approach
			// zero and -1/C decides the sign
			return false
		}
		if min64(aBound.Max, bBound.Max)*dBound.Max <= cBound.Min {
			// 1/C < 1/(A*D) + 1/(B*D) holds when either A*D <= C or
			// B*D <= C
			return true
		}
		if aBound.Max != ir.PosInf && bBound.Max != ir.PosInf {
			// A_max*B_max*D_max < C_min*(A_max + B_max) proves the
			// inequality at the extreme point, hence everywhere
			if aBound.Max*bBound.Max*dBound.Max < cBound.Min*(aBound.Max+bBound.Max) {
				return true
			}
		}
		return false
	}()
	if !reciprocalPositive {
		return CmpUnknown
	}
	result := CmpGT
	if isUpperBound {
		result = CmpLT
	}
	if reversed {
		result = result.Reverse()
	}
	return result
}

// normalizeBooleanOperators pushes Not through And/Or and comparison
// reversals, so negations compare structurally.
func normalizeBooleanOperators(expr ir.Expr) ir.Expr {
	x, y := ir.NewPExpr(), ir.NewPExpr()
	for {
		switch {
		case ir.Match(ir.PNot(ir.PNot(x)), expr):
			expr = x.Value()
		case ir.Match(ir.PNot(ir.POrP(x, y)), expr):
			return ir.OpAnd(
				normalizeBooleanOperators(&ir.Not{A: x.Value()}),
				normalizeBooleanOperators(&ir.Not{A: y.Value()}))
		case ir.Match(ir.PNot(ir.PAndP(x, y)), expr):
			return ir.OpOr(
				normalizeBooleanOperators(&ir.Not{A: x.Value()}),
				normalizeBooleanOperators(&ir.Not{A: y.Value()}))
		case ir.Match(ir.POneOf(ir.PGE(x, y), ir.PNot(ir.PLT(x, y)), ir.PNot(ir.PGT(y, x))), expr):
			return ir.OpLE(y.Value(), x.Value())
		case ir.Match(ir.POneOf(ir.PGT(x, y), ir.PNot(ir.PLE(x, y)), ir.PNot(ir.PGE(y, x))), expr):
			return ir.OpLT(y.Value(), x.Value())
		case ir.Match(ir.PNot(ir.PEQ(x, y)), expr):
			return ir.OpNE(x.Value(), y.Value())
		case ir.Match(ir.PNot(ir.PNE(x, y)), expr):
			return ir.OpEQ(x.Value(), y.Value())
		default:
			return expr
		}
	}
}

// extractConstantOffset splits expr into (base, constant offset). Any
// (c1+x) form is already normalized into (x+c1) by the add rules.
func extractConstantOffset(expr ir.Expr) (ir.Expr, int64) {
	x := ir.NewPExpr()
	c1 := ir.NewPConst()
	switch {
	case ir.Match(ir.PAdd(x, c1), expr):
		return x.Value(), c1.Value()
	case ir.Match(ir.PSub(x, c1), expr):
		return x.Value(), -c1.Value()
	case ir.Match(ir.PSub(c1, x), expr):
		return x.Value(), c1.Value()
	}
	return expr, 0
}

func isIndexType(t ir.DType) bool { return t.IsIndex() }

func zeroOf(e ir.Expr) ir.Expr { return ir.ConstScalar(e.Type(), 0) }
func oneOf(e ir.Expr) ir.Expr  { return ir.ConstScalar(e.Type(), 1) }

func (s *RewriteSimplifier) visitVar(op *ir.Var) ir.Expr {
	if op.Dtype.IsBool() {
		if res, ok := s.tryMatchLiteralConstraint(op); ok {
			return res
		}
	}
	if repl, ok := s.varMap[op]; ok {
		return repl
	}
	return op
}

func (s *RewriteSimplifier) visitCast(op *ir.Cast) ir.Expr {
	ret := s.mutateChildren(op)
	if cast, ok := ret.(*ir.Cast); ok {
		return ir.OpCast(cast.Dtype, cast.Value)
	}
	return ret
}

// canInlineLet only inlines trivial bindings, avoiding deep expression
// explosion when a let constructs complicated values.
func canInlineLet(op *ir.Let) bool {
	if _, ok := ir.AsConstInt(op.Value); ok {
		return true
	}
	_, isVar := op.Value.(*ir.Var)
	return isVar
}

func (s *RewriteSimplifier) visitLet(op *ir.Let) ir.Expr {
	value := s.self.MutateExpr(op.Value)
	if canInlineLet(op) {
		// the binding can be dropped entirely since the value is always
		// inlined by the simplifier
		s.ana.Bind(op.Var, value, false)
		return s.self.MutateExpr(op.Body)
	}
	body := s.self.MutateExpr(op.Body)
	if value == op.Value && body == op.Body {
		return op
	}
	return &ir.Let{Var: op.Var, Value: value, Body: body}
}

func (s *RewriteSimplifier) visitSelect(op *ir.Select) ir.Expr {
	ret := s.mutateChildren(op)
	sel, ok := ret.(*ir.Select)
	if !ok {
		return ret
	}
	x, y := ir.NewPExpr(), ir.NewPExpr()
	if s.match(ir.PSelect(x, y, y), sel) {
		return s.rewrite(y.Value())
	}
	return ret
}

func (s *RewriteSimplifier) visitCall(op *ir.Call) ir.Expr {
	ret := s.mutateChildren(op)
	call, ok := ret.(*ir.Call)
	if !ok {
		return ret
	}
	switch call.Op {
	case ir.IntrinsicRightShift:
		if _, aok := ir.AsConstInt(call.Args[0]); aok {
			if _, bok := ir.AsConstInt(call.Args[1]); bok {
				return ir.OpRightShift(call.Args[0], call.Args[1])
			}
		}
	case ir.IntrinsicLeftShift:
		if _, aok := ir.AsConstInt(call.Args[0]); aok {
			if _, bok := ir.AsConstInt(call.Args[1]); bok {
				return ir.OpLeftShift(call.Args[0], call.Args[1])
			}
		}
	case ir.IntrinsicIfThenElse:
		// if_then_else(c1, if_then_else(c2, t, e'), e) with e == e'
		// collapses to if_then_else(c1 && c2, t, e)
		cond := call.Args[0]
		thenExpr := call.Args[1]
		elseExpr := call.Args[2]
		if inner, ok := thenExpr.(*ir.Call); ok && inner.Op == ir.IntrinsicIfThenElse {
			innerCond := inner.Args[0]
			innerThen := inner.Args[1]
			innerElse := inner.Args[2]
			// only constant cases, to avoid recursion
			if _, iok := ir.AsConstInt(innerElse); iok {
				if _, eok := ir.AsConstInt(elseExpr); eok {
					if s.ana.CanProve(ir.OpEQ(innerElse, elseExpr), ProofDefault) {
						return ir.OpIfThenElse(ir.OpAnd(cond, innerCond), innerThen, elseExpr)
					}
				}
			}
		}
	}
	return ret
}
