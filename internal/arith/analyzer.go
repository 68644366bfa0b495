package arith

import "shiki/internal/ir"

// ProofStrength selects how hard CanProve works before giving up.
type ProofStrength int

const (
	// ProofDefault simplifies the condition and checks for a constant.
	ProofDefault ProofStrength = iota
	// ProofSymbolicBound additionally reduces comparisons to a
	// positive-difference check over symbolic interval bounds.
	ProofSymbolicBound
)

// Analyzer is the facade coupling the sub-analyzers. Queries route across
// all of them, and scoped constraint contexts install hypotheses on every
// one of them at once.
//
// An Analyzer is a single-threaded stateful object; sub-analyzers may call
// back into the facade, which is safe because all mutation happens through
// push/pop of recovery stacks.
type Analyzer struct {
	ConstIntBound         *ConstIntBoundAnalyzer
	ModularSet            *ModularSetAnalyzer
	Rewrite               *RewriteSimplifier
	Canonical             *CanonicalSimplifier
	IntervalSet           *IntervalSetAnalyzer
	TransitiveComparisons *TransitiveComparisonAnalyzer
}

func NewAnalyzer() *Analyzer {
	a := &Analyzer{}
	a.ConstIntBound = newConstIntBoundAnalyzer(a)
	a.ModularSet = newModularSetAnalyzer(a)
	a.Rewrite = newRewriteSimplifier(a)
	a.Canonical = newCanonicalSimplifier(a)
	a.IntervalSet = newIntervalSetAnalyzer(a)
	a.TransitiveComparisons = newTransitiveComparisonAnalyzer(a)
	return a
}

// Bind registers v == expr with every sub-analyzer, simplifying the
// expression first.
func (a *Analyzer) Bind(v *ir.Var, expr ir.Expr, allowOverride bool) {
	newExpr := a.Canonical.Simplify(expr)
	newExpr = a.Rewrite.Simplify(newExpr)
	a.ConstIntBound.Update(v, a.ConstIntBound.Query(newExpr), allowOverride)
	a.ModularSet.Update(v, a.ModularSet.Query(newExpr), allowOverride)
	a.Rewrite.Update(v, newExpr, allowOverride)
	a.Canonical.Update(v, newExpr, allowOverride)
	a.IntervalSet.Update(v, a.IntervalSet.Query(newExpr), allowOverride)
	a.TransitiveComparisons.Bind(v, expr, allowOverride)
}

// BindRange registers v in [min, min+extent); a unit extent degenerates to
// an equality binding.
func (a *Analyzer) BindRange(v *ir.Var, r ir.Range, allowOverride bool) {
	if ir.IsConstInt(r.Extent, 1) {
		a.Bind(v, r.Min, allowOverride)
		return
	}
	a.ConstIntBound.Bind(v, r, allowOverride)
	a.IntervalSet.Bind(v, r, allowOverride)
	a.TransitiveComparisons.BindRange(v, r, allowOverride)
}

// BindMap registers every binding in the map.
func (a *Analyzer) BindMap(variables map[*ir.Var]ir.Range, allowOverride bool) {
	for v, r := range variables {
		a.BindRange(v, r, allowOverride)
	}
}

// MarkGlobalNonNeg marks a value as globally non-negative by decomposing
// it as symbol*scale + offset and, for a positive scale over a single
// index-typed Var, installing symbol >= -offset on the constant bounds.
// The interval set is deliberately left alone: relaxing the var there
// would weaken later bound proofs.
func (a *Analyzer) MarkGlobalNonNeg(value ir.Expr) {
	offset := int64(0)
	symbolScale := ir.Expr(ir.ConstScalar(value.Type(), 0))
	ir.UnpackSum(value, func(val ir.Expr, sign int) {
		if imm, ok := val.(*ir.IntImm); ok {
			offset += imm.Value * int64(sign)
		} else if sign > 0 {
			symbolScale = ir.OpAdd(symbolScale, val)
		} else {
			symbolScale = ir.OpSub(symbolScale, val)
		}
	})
	cscale := int64(1)
	symbol := ir.Expr(ir.ConstScalar(value.Type(), 1))
	ir.UnpackMul(symbolScale, func(val ir.Expr) {
		if imm, ok := val.(*ir.IntImm); ok {
			cscale *= imm.Value
		} else {
			symbol = ir.OpMul(symbol, val)
		}
	})
	if cscale <= 0 {
		return
	}
	if v, ok := symbol.(*ir.Var); ok {
		// skip non-index vars to stay compatible with placeholder dims
		// that do not denote a value
		if !v.Dtype.IsIndex() {
			return
		}
		a.ConstIntBound.Update(v, ConstIntBound{Min: -offset, Max: ir.PosInf}, true)
	}
}

// Simplify runs a canonical pass, then alternates rewrite and canonical
// passes for the requested number of steps. The leading canonical pass
// matters: rewriting can destroy structure the canonical form relies on.
func (a *Analyzer) Simplify(expr ir.Expr, steps int) ir.Expr {
	res := a.Canonical.Simplify(expr)
	for i := 0; i < steps; i++ {
		if _, isConst := ir.AsConstInt(res); isConst {
			return res
		}
		if i%2 == 0 {
			res = a.Rewrite.Simplify(res)
		} else {
			res = a.Canonical.Simplify(res)
		}
	}
	return res
}

// CanProveGreaterEqual proves expr >= lowerBound via constant bounds.
func (a *Analyzer) CanProveGreaterEqual(expr ir.Expr, lowerBound int64) bool {
	if imm, ok := expr.(*ir.IntImm); ok {
		return imm.Value >= lowerBound
	}
	bd := a.ConstIntBound.Query(a.Rewrite.Simplify(expr))
	return bd.Min >= lowerBound
}

// CanProveLess proves expr < upperBound via constant bounds.
func (a *Analyzer) CanProveLess(expr ir.Expr, upperBound int64) bool {
	if imm, ok := expr.(*ir.IntImm); ok {
		return imm.Value < upperBound
	}
	bd := a.ConstIntBound.Query(a.Rewrite.Simplify(expr))
	return bd.Max < upperBound
}

// CanProveEqual proves lhs == rhs, short-circuiting on constants and
// opaque handles.
func (a *Analyzer) CanProveEqual(lhs, rhs ir.Expr) bool {
	cl, lok := ir.AsConstInt(lhs)
	cr, rok := ir.AsConstInt(rhs)
	if lok && rok {
		return cl == cr
	}
	if lhs.Type().IsHandle() || rhs.Type().IsHandle() {
		return lhs == rhs
	}
	diff := ir.OpSub(lhs, rhs)
	return a.CanProve(ir.OpEQ(diff, ir.ConstScalar(diff.Type(), 0)), ProofDefault)
}

// CanProveLessEqualThanSymbolicShapeValue proves lhs <= shape for a shape
// value that is positive by construction. When the direct proof fails and
// the shape is a product like 32*n, the constant factor alone is used as
// the bound.
func (a *Analyzer) CanProveLessEqualThanSymbolicShapeValue(lhs, shape ir.Expr) bool {
	if a.CanProve(ir.OpLE(lhs, shape), ProofSymbolicBound) {
		return true
	}
	if _, isConst := ir.AsConstInt(shape); isConst {
		return false
	}
	cscale := ir.ConstantMulFactor(shape)
	bound := ir.ConstScalar(lhs.Type(), abs64(cscale))
	return a.CanProve(ir.OpLE(lhs, bound), ProofSymbolicBound)
}

// CanProve proves a boolean condition. At symbolic-bound strength a
// residual comparison reduces to a positive-difference obligation checked
// on the interval set; this path only runs at the top level to keep
// repeated sub-analyzer calls cheap.
func (a *Analyzer) CanProve(cond ir.Expr, strength ProofStrength) bool {
	if imm, ok := cond.(*ir.IntImm); ok {
		return imm.Value != 0
	}
	simplified := a.Simplify(cond, 2)
	if v, ok := ir.AsConstInt(simplified); ok && v != 0 {
		return true
	}
	if strength >= ProofSymbolicBound {
		var posDiff ir.Expr
		lowerBound := int64(0)
		switch c := cond.(type) {
		case *ir.LT:
			posDiff = ir.OpSub(c.B, c.A)
			lowerBound = 1
		case *ir.LE:
			posDiff = ir.OpSub(c.B, c.A)
		case *ir.GT:
			posDiff = ir.OpSub(c.A, c.B)
			lowerBound = 1
		case *ir.GE:
			posDiff = ir.OpSub(c.A, c.B)
		}
		if posDiff != nil {
			iset := a.IntervalSet.Query(a.Simplify(posDiff, 2))
			if iset.HasLowerBound() {
				relaxed := a.ConstIntBound.Query(a.Simplify(iset.MinValue, 2))
				if relaxed.Min >= lowerBound {
					return true
				}
			}
		}
	}
	return false
}

// ConstraintContext is a scoped hypothesis installed on every
// sub-analyzer. Exit removes it; contexts nest and the innermost must be
// released first, so callers pair EnterConstraint with a deferred Exit.
type ConstraintContext struct {
	recovery []func()
}

// EnterConstraint installs cond on all sub-analyzers in order and returns
// the context whose Exit rolls them back in reverse.
func (a *Analyzer) EnterConstraint(cond ir.Expr) *ConstraintContext {
	ctx := &ConstraintContext{}
	ctx.recovery = append(ctx.recovery, a.ConstIntBound.EnterConstraint(cond))
	ctx.recovery = append(ctx.recovery, a.ModularSet.EnterConstraint(cond))
	ctx.recovery = append(ctx.recovery, a.Rewrite.EnterConstraint(cond))
	ctx.recovery = append(ctx.recovery, a.IntervalSet.EnterConstraint(cond))
	ctx.recovery = append(ctx.recovery, a.TransitiveComparisons.EnterConstraint(cond))
	return ctx
}

// Exit restores each sub-analyzer exactly, in reverse entry order.
func (ctx *ConstraintContext) Exit() {
	for i := len(ctx.recovery) - 1; i >= 0; i-- {
		if f := ctx.recovery[i]; f != nil {
			f()
		}
	}
	ctx.recovery = nil
}
