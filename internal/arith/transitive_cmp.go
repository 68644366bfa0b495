package arith

import (
	"shiki/internal/errors"
	"shiki/internal/ir"
)

// comparison is the normalized edge "lhs RESULT (rhs + offset)". The
// constructor removes LT and GT by tightening the offset, so every stored
// edge has one of EQ, LE, GE, NE. Working with closed operators keeps
// transitive chaining free of off-by-one bookkeeping:
//
//	i < j + c1, j < k + c2
//	i <= j + c1 - 1, j <= k + c2 - 1
//	i <= k + (c1 + c2 - 2), i.e. i < k + (c1 + c2 - 1)
type comparison struct {
	lhs    exprKey
	rhs    exprKey
	offset int64
	result CompareResult
}

func newComparison(lhs, rhs exprKey, offset int64, result CompareResult) comparison {
	switch result {
	case CmpLT:
		result = CmpLE
		offset--
	case CmpGT:
		result = CmpGE
		offset++
	}
	return comparison{lhs: lhs, rhs: rhs, offset: offset, result: result}
}

func (c comparison) exists() bool { return c.lhs != keyNonExist }

func (c comparison) isNormalized() bool {
	return c.result != CmpLT && c.result != CmpGT
}

// withLHS reorients the edge so newLHS appears on the left, or returns a
// non-existent comparison when the edge does not involve newLHS.
func (c comparison) withLHS(newLHS exprKey) comparison {
	if newLHS == c.lhs {
		return c
	}
	if newLHS == c.rhs {
		return newComparison(c.rhs, c.lhs, -c.offset, c.result.Reverse())
	}
	return comparison{lhs: keyNonExist, rhs: keyNonExist, offset: -1, result: CmpInconsistent}
}

// implies reports whether this edge makes other redundant. Both edges must
// relate the same keys and be normalized.
func (c comparison) implies(other comparison) bool {
	if c.result == other.result && c.offset == other.offset {
		return true
	}
	if other.result == CmpLE && c.offset <= other.offset {
		if c.result == CmpEQ || c.result == CmpLE {
			return true
		}
	}
	if other.result == CmpGE && c.offset >= other.offset {
		if c.result == CmpEQ || c.result == CmpGE {
			return true
		}
	}
	if other.result == CmpNE {
		if c.result == CmpEQ && c.offset != other.offset {
			return true
		}
		if c.result == CmpLE && c.offset < other.offset {
			return true
		}
		if c.result == CmpGE && c.offset > other.offset {
			return true
		}
	}
	return false
}

// TransitiveComparisonAnalyzer proves chained (in)equalities by searching
// a graph of normalized comparison edges over interned expressions.
type TransitiveComparisonAnalyzer struct {
	interner     *exprInterner
	prevBindings map[*ir.Var]ir.Range
	knowns       []comparison
	scopedKnowns []comparison
}

func newTransitiveComparisonAnalyzer(_ *Analyzer) *TransitiveComparisonAnalyzer {
	return &TransitiveComparisonAnalyzer{
		interner:     newExprInterner(),
		prevBindings: make(map[*ir.Var]ir.Range),
	}
}

// extractOffsets splits both sides into (expr, constant offset) and
// returns the combined rhs-minus-lhs offset.
func extractOffsets(lhs, rhs ir.Expr) (ir.Expr, ir.Expr, int64) {
	extract := func(e ir.Expr) (ir.Expr, int64) {
		x := ir.NewPExpr()
		c := ir.NewPConst()
		switch {
		case ir.Match(ir.PAdd(x, c), e):
			return x.Value(), c.Value()
		case ir.Match(ir.PSub(x, c), e):
			return x.Value(), -c.Value()
		}
		if imm, ok := e.(*ir.IntImm); ok {
			return ir.ConstScalar(imm.Dtype, 0), imm.Value
		}
		return e, 0
	}
	lhsExpr, lhsOffset := extract(lhs)
	rhsExpr, rhsOffset := extract(rhs)
	return lhsExpr, rhsExpr, rhsOffset - lhsOffset
}

// fromExpr converts a comparison expression into a normalized edge,
// interning both sides.
func (a *TransitiveComparisonAnalyzer) fromExpr(expr ir.Expr) comparison {
	x := ir.NewPExpr()
	y := ir.NewPExpr()
	var res CompareResult
	switch {
	case ir.Match(ir.PLE(x, y), expr):
		res = CmpLE
	case ir.Match(ir.PGE(x, y), expr):
		res = CmpGE
	case ir.Match(ir.PLT(x, y), expr):
		res = CmpLT
	case ir.Match(ir.PGT(x, y), expr):
		res = CmpGT
	case ir.Match(ir.PEQ(x, y), expr):
		res = CmpEQ
	case ir.Match(ir.PNE(x, y), expr):
		res = CmpNE
	default:
		return comparison{lhs: keyNonExist, rhs: keyNonExist, offset: -1, result: CmpInconsistent}
	}
	lhsExpr, rhsExpr := x.Value(), y.Value()
	if _, lok := lhsExpr.(*ir.IntImm); lok {
		if _, rok := rhsExpr.(*ir.IntImm); rok {
			return comparison{lhs: keyNonExist, rhs: keyNonExist, offset: -1, result: CmpInconsistent}
		}
	}
	lhs, rhs, offset := extractOffsets(lhsExpr, rhsExpr)
	return newComparison(a.interner.Intern(lhs), a.interner.Intern(rhs), offset, res)
}

func (a *TransitiveComparisonAnalyzer) addKnown(expr ir.Expr, vec *[]comparison) {
	for _, sub := range ir.ExtractConstraints(expr, false) {
		if cmp := a.fromExpr(sub); cmp.exists() {
			*vec = append(*vec, cmp)
		}
	}
}

// BindRange installs v >= min and v < min+extent; a unit extent becomes
// v == min. Re-binding with a different range drops the old edges.
func (a *TransitiveComparisonAnalyzer) BindRange(v *ir.Var, r ir.Range, allowOverride bool) {
	if prev, ok := a.prevBindings[v]; ok {
		differs := !ir.DeepEqual(r.Min, prev.Min) || !ir.DeepEqual(r.Extent, prev.Extent)
		if differs {
			if !allowOverride {
				panic(errors.Internalf(
					"binding of variable %q conflicts with its previous range binding", v.Name))
			}
			if key, ok := a.interner.Lookup(v); ok {
				kept := a.knowns[:0]
				for _, known := range a.knowns {
					if known.lhs != key {
						kept = append(kept, known)
					}
				}
				a.knowns = kept
			}
		}
	}
	a.prevBindings[v] = r
	if ir.IsConstInt(r.Extent, 1) {
		a.addKnown(ir.OpEQ(v, r.Min), &a.knowns)
	} else {
		a.addKnown(ir.OpGE(v, r.Min), &a.knowns)
		a.addKnown(ir.OpLT(v, ir.OpAdd(r.Min, r.Extent)), &a.knowns)
	}
}

// Bind installs v == expr.
func (a *TransitiveComparisonAnalyzer) Bind(v *ir.Var, expr ir.Expr, allowOverride bool) {
	a.BindRange(v, ir.NewRange(expr, ir.ConstScalar(expr.Type(), 1)), allowOverride)
}

func (a *TransitiveComparisonAnalyzer) EnterConstraint(expr ir.Expr) func() {
	oldSize := len(a.scopedKnowns)
	a.addKnown(expr, &a.scopedKnowns)
	newSize := len(a.scopedKnowns)
	return func() {
		if len(a.scopedKnowns) != newSize {
			panic(errors.InternalCode(errors.ErrorConstraintStack,
				"scoped comparison count changed while a constraint was live"))
		}
		a.scopedKnowns = a.scopedKnowns[:oldSize]
	}
}

// TryCompare compares lhs against rhs using stored edges; with propagate it
// additionally chains edges transitively via DFS from both sides.
func (a *TransitiveComparisonAnalyzer) TryCompare(lhs, rhs ir.Expr, propagate bool) CompareResult {
	// only integer comparisons are tracked
	if lhs.Type().Code != ir.CodeInt || rhs.Type().Code != ir.CodeInt {
		return CmpUnknown
	}
	xInt, xok := lhs.(*ir.IntImm)
	yInt, yok := rhs.(*ir.IntImm)
	if xok && yok {
		switch {
		case xInt.Value < yInt.Value:
			return CmpLT
		case xInt.Value > yInt.Value:
			return CmpGT
		default:
			return CmpEQ
		}
	}
	lhsExpr, rhsExpr, offset := extractOffsets(lhs, rhs)
	lhsKey, lok := a.interner.Lookup(lhsExpr)
	rhsKey, rok := a.interner.Lookup(rhsExpr)
	if !lok || !rok {
		return CmpUnknown
	}
	var lhsToRHS []comparison
	if propagate {
		lhsToRHS = a.collectIndirectComparisons(lhsKey, rhsKey)
	} else {
		lhsToRHS = a.collectDirectComparisons(lhsKey, rhsKey)
	}
	return mergeComparisons(lhsToRHS, offset)
}

func (a *TransitiveComparisonAnalyzer) collectDirectComparisons(lhsKey, rhsKey exprKey) []comparison {
	var output []comparison
	appendKnown := func(cmp comparison) {
		if normalized := cmp.withLHS(lhsKey); normalized.exists() && normalized.rhs == rhsKey {
			output = append(output, normalized)
		}
	}
	for _, known := range a.knowns {
		appendKnown(known)
	}
	for _, known := range a.scopedKnowns {
		appendKnown(known)
	}
	return output
}

func (a *TransitiveComparisonAnalyzer) collectIndirectComparisons(lhsKey, rhsKey exprKey) []comparison {
	output := a.dfsFromLHS(lhsKey, rhsKey)
	for _, cmp := range a.dfsFromLHS(rhsKey, lhsKey) {
		output = append(output, cmp.withLHS(lhsKey))
	}
	return output
}

// dfsFromLHS walks the space of comparisons whose left side is lhsKey,
// composing edges transitively and keeping only the strongest per target.
func (a *TransitiveComparisonAnalyzer) dfsFromLHS(lhsKey, rhsKey exprKey) []comparison {
	seen := make(map[exprKey]bool)
	toVisit := make(map[exprKey]bool)
	comparedToLHS := make(map[exprKey][]comparison)

	declareKnown := func(cmp comparison) {
		knowns := comparedToLHS[cmp.rhs]
		for _, prev := range knowns {
			if prev.implies(cmp) {
				return
			}
		}
		if cmp.rhs != rhsKey && !seen[cmp.rhs] {
			toVisit[cmp.rhs] = true
			seen[cmp.rhs] = true
		}
		for i, prev := range knowns {
			if cmp.implies(prev) {
				knowns[i] = cmp
				comparedToLHS[cmp.rhs] = knowns
				return
			}
		}
		comparedToLHS[cmp.rhs] = append(knowns, cmp)
	}

	for _, known := range a.knowns {
		if normalized := known.withLHS(lhsKey); normalized.exists() {
			declareKnown(normalized)
		}
	}
	for _, known := range a.scopedKnowns {
		if normalized := known.withLHS(lhsKey); normalized.exists() {
			declareKnown(normalized)
		}
	}

	for len(toVisit) > 0 {
		var middleKey exprKey
		for k := range toVisit {
			middleKey = k
			break
		}
		delete(toVisit, middleKey)
		prevKnownsUsingMiddle := comparedToLHS[middleKey]

		var newKnownsUsingLHS []comparison
		attemptTransitive := func(cmp comparison) {
			rightKey := cmp.rhs
			if rightKey == lhsKey {
				return
			}
			for _, prev := range prevKnownsUsingMiddle {
				newResult := CmpUnknown
				newOffset := prev.offset + cmp.offset
				if prev.result == CmpEQ {
					// x == y + c1 && y OP z + c2 => x OP z + (c1 + c2)
					newResult = cmp.result
				} else if cmp.result == CmpEQ {
					newResult = prev.result
				} else if prev.result == cmp.result && (prev.result == CmpLE || prev.result == CmpGE) {
					// x <= y + c1 && y <= z + c2 => x <= z + (c1 + c2)
					newResult = prev.result
				}
				if newResult != CmpUnknown {
					newKnownsUsingLHS = append(newKnownsUsingLHS,
						newComparison(lhsKey, rightKey, newOffset, newResult))
				}
			}
		}
		for _, known := range a.knowns {
			if cmp := known.withLHS(middleKey); cmp.exists() {
				attemptTransitive(cmp)
			}
		}
		for _, known := range a.scopedKnowns {
			if cmp := known.withLHS(middleKey); cmp.exists() {
				attemptTransitive(cmp)
			}
		}
		for _, newKnown := range newKnownsUsingLHS {
			declareKnown(newKnown)
		}
	}
	return comparedToLHS[rhsKey]
}

// mergeComparisons folds candidate edges against the query offset.
func mergeComparisons(lhsToRHS []comparison, offset int64) CompareResult {
	result := CmpUnknown
	for _, cmp := range lhsToRHS {
		switch cmp.result {
		case CmpInconsistent:
			result = CmpInconsistent
		case CmpEQ:
			if offset == cmp.offset {
				result = result.And(CmpEQ)
			} else {
				result = result.And(CmpNE)
			}
		case CmpLE:
			if cmp.offset < offset {
				result = result.And(CmpLT)
			} else if cmp.offset <= offset {
				result = result.And(CmpLE)
			}
		case CmpGE:
			if cmp.offset > offset {
				result = result.And(CmpGT)
			} else if cmp.offset >= offset {
				result = result.And(CmpGE)
			}
		case CmpNE:
			if offset == cmp.offset {
				result = result.And(CmpNE)
			}
		case CmpUnknown:
		default:
			panic(errors.InternalCode(errors.ErrorComparisonNormal,
				"normalized comparisons may only hold EQ, LE, GE or NE, got %v", cmp.result))
		}
	}
	return result
}
