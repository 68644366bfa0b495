package arith

import (
	"fmt"

	"shiki/internal/errors"
	"shiki/internal/ir"
)

// IntervalSet is a pair of symbolic bounds. The sentinels are the two
// dedicated pos_inf/neg_inf Var nodes compared by identity.
type IntervalSet struct {
	MinValue ir.Expr
	MaxValue ir.Expr
}

func (s IntervalSet) String() string {
	return fmt.Sprintf("IntervalSet[%s, %s]", s.MinValue, s.MaxValue)
}

func (s IntervalSet) HasUpperBound() bool { return !ir.IsPosInf(s.MaxValue) && !s.IsEmpty() }
func (s IntervalSet) HasLowerBound() bool { return !ir.IsNegInf(s.MinValue) && !s.IsEmpty() }
func (s IntervalSet) IsSinglePoint() bool { return s.MinValue == s.MaxValue }
func (s IntervalSet) IsEmpty() bool       { return ir.IsPosInf(s.MinValue) || ir.IsNegInf(s.MaxValue) }
func (s IntervalSet) IsEverything() bool  { return ir.IsNegInf(s.MinValue) && ir.IsPosInf(s.MaxValue) }

func IntervalSetEverything() IntervalSet {
	return IntervalSet{MinValue: ir.NegInfExpr(), MaxValue: ir.PosInfExpr()}
}

func IntervalSetEmpty() IntervalSet {
	return IntervalSet{MinValue: ir.PosInfExpr(), MaxValue: ir.NegInfExpr()}
}

func IntervalSetSinglePoint(value ir.Expr) IntervalSet {
	return IntervalSet{MinValue: value, MaxValue: value}
}

// IntervalSetFromRange converts an extent-based Range; a unit extent is a
// single point.
func IntervalSetFromRange(r ir.Range) IntervalSet {
	if ir.IsConstInt(r.Extent, 1) {
		return IntervalSetSinglePoint(r.Min)
	}
	rangeMax := ir.OpSub(ir.OpAdd(r.Extent, r.Min), ir.ConstScalar(r.Min.Type(), 1))
	return IntervalSet{MinValue: r.Min, MaxValue: rangeMax}
}

// IntervalSetInterval collapses equal endpoints into a single point.
func IntervalSetInterval(min, max ir.Expr) IntervalSet {
	if min == max {
		return IntervalSetSinglePoint(min)
	}
	return IntervalSet{MinValue: min, MaxValue: max}
}

func (s IntervalSet) intersect(b IntervalSet, ana *Analyzer) IntervalSet {
	maxValue := ir.OpMin(s.MaxValue, b.MaxValue)
	minValue := ir.OpMax(s.MinValue, b.MinValue)
	intOrUInt := func(t ir.DType) bool { return t.IsInt() || t.IsUInt() }
	if intOrUInt(maxValue.Type()) && intOrUInt(minValue.Type()) &&
		ana.CanProve(ir.OpLT(maxValue, minValue), ProofDefault) {
		return IntervalSetEmpty()
	}
	return IntervalSet{MinValue: minValue, MaxValue: maxValue}
}

func (s IntervalSet) union(b IntervalSet) IntervalSet {
	if s.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return s
	}
	return IntervalSet{
		MinValue: ir.OpMin(s.MinValue, b.MinValue),
		MaxValue: ir.OpMax(s.MaxValue, b.MaxValue),
	}
}

// intervalIntersectAll intersects a list of sets and simplifies the bounds.
func intervalIntersectAll(sets []IntervalSet, ana *Analyzer) IntervalSet {
	if len(sets) == 0 {
		return IntervalSetEmpty()
	}
	if len(sets) == 1 {
		return sets[0]
	}
	x := sets[0]
	for _, y := range sets[1:] {
		x = x.intersect(y, ana)
	}
	return IntervalSet{
		MinValue: ana.Simplify(x.MinValue, 2),
		MaxValue: ana.Simplify(x.MaxValue, 2),
	}
}

// Per-operator interval combination. Single-point fast paths fold through
// the operator constructors; everything else works on the endpoints.

func combineAdd(a, b IntervalSet) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(ir.OpAdd(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	minValue := ir.NegInfExpr()
	if a.HasLowerBound() && b.HasLowerBound() {
		minValue = ir.OpAdd(a.MinValue, b.MinValue)
	}
	maxValue := ir.PosInfExpr()
	if a.HasUpperBound() && b.HasUpperBound() {
		maxValue = ir.OpAdd(a.MaxValue, b.MaxValue)
	}
	return IntervalSet{MinValue: minValue, MaxValue: maxValue}
}

func combineSub(a, b IntervalSet) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(ir.OpSub(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	minValue := ir.NegInfExpr()
	if a.HasLowerBound() && b.HasUpperBound() {
		minValue = ir.OpSub(a.MinValue, b.MaxValue)
	}
	maxValue := ir.PosInfExpr()
	if a.HasUpperBound() && b.HasLowerBound() {
		maxValue = ir.OpSub(a.MaxValue, b.MinValue)
	}
	return IntervalSet{MinValue: minValue, MaxValue: maxValue}
}

func combineMul(ana *Analyzer, a, b IntervalSet) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(ir.OpMul(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	if a.IsSinglePoint() {
		a, b = b, a
	}
	if b.IsSinglePoint() {
		if ir.IsConstInt(b.MinValue, 0) {
			return b
		}
		if ir.IsConstInt(b.MinValue, 1) {
			return a
		}
		if ana.CanProveGreaterEqual(b.MinValue, 0) {
			minValue := ir.NegInfExpr()
			if a.HasLowerBound() {
				minValue = ir.OpMul(a.MinValue, b.MinValue)
			}
			maxValue := ir.PosInfExpr()
			if a.HasUpperBound() {
				maxValue = ir.OpMul(a.MaxValue, b.MinValue)
			}
			return IntervalSet{MinValue: minValue, MaxValue: maxValue}
		} else if ana.CanProveGreaterEqual(ir.OpNeg(b.MinValue), 1) {
			minValue := ir.NegInfExpr()
			if a.HasUpperBound() {
				minValue = ir.OpMul(a.MaxValue, b.MinValue)
			}
			maxValue := ir.PosInfExpr()
			if a.HasLowerBound() {
				maxValue = ir.OpMul(a.MinValue, b.MinValue)
			}
			return IntervalSet{MinValue: minValue, MaxValue: maxValue}
		} else if a.HasUpperBound() && a.HasLowerBound() {
			sign := ir.OpGE(b.MinValue, ir.ConstScalar(b.MinValue.Type(), 0))
			e1 := ir.OpMul(a.MinValue, b.MinValue)
			e2 := ir.OpMul(a.MaxValue, b.MinValue)
			return IntervalSet{
				MinValue: ir.OpSelect(sign, e1, e2),
				MaxValue: ir.OpSelect(sign, e2, e1),
			}
		}
	}
	return IntervalSetEverything()
}

func combineDivLike(ana *Analyzer, a, b IntervalSet,
	div func(x, y ir.Expr) ir.Expr) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(div(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	if b.IsSinglePoint() {
		if ir.IsConstInt(b.MinValue, 0) {
			panic(errors.ValueCode(errors.ErrorDivideByZero, "divide by zero in interval division"))
		}
		if ir.IsConstInt(b.MinValue, 1) {
			return a
		}
		// no relaxation is needed: the set is inclusive
		if ana.CanProveGreaterEqual(b.MinValue, 0) {
			minValue := ir.NegInfExpr()
			if a.HasLowerBound() {
				minValue = div(a.MinValue, b.MinValue)
			}
			maxValue := ir.PosInfExpr()
			if a.HasUpperBound() {
				maxValue = div(a.MaxValue, b.MinValue)
			}
			return IntervalSet{MinValue: minValue, MaxValue: maxValue}
		} else if ana.CanProveGreaterEqual(ir.OpNeg(b.MinValue), 1) {
			minValue := ir.NegInfExpr()
			if a.HasUpperBound() {
				minValue = div(a.MaxValue, b.MinValue)
			}
			maxValue := ir.PosInfExpr()
			if a.HasLowerBound() {
				maxValue = div(a.MinValue, b.MinValue)
			}
			return IntervalSet{MinValue: minValue, MaxValue: maxValue}
		} else if a.HasUpperBound() && a.HasLowerBound() {
			sign := ir.OpGE(b.MinValue, ir.ConstScalar(b.MinValue.Type(), 0))
			e1 := div(a.MinValue, b.MinValue)
			e2 := div(a.MaxValue, b.MinValue)
			return IntervalSet{
				MinValue: ir.OpSelect(sign, e1, e2),
				MaxValue: ir.OpSelect(sign, e2, e1),
			}
		}
	}
	return IntervalSetEverything()
}

func combineTruncMod(ana *Analyzer, a, b IntervalSet) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(ir.OpTruncMod(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	if b.IsSinglePoint() {
		divisor := b.MinValue
		if ir.IsConstInt(divisor, 0) {
			panic(errors.ValueCode(errors.ErrorDivideByZero, "modulo by zero in interval modulo"))
		}
		if ana.CanProveGreaterEqual(divisor, 0) {
			one := ir.ConstScalar(divisor.Type(), 1)
			return IntervalSet{
				MinValue: ir.ConstScalar(divisor.Type(), 0),
				MaxValue: ir.OpSub(divisor, one),
			}
		}
		bound := ir.OpSub(ir.OpAbs(divisor), ir.ConstScalar(divisor.Type(), 1))
		return IntervalSet{MinValue: ir.OpNeg(bound), MaxValue: bound}
	}
	return IntervalSetEverything()
}

func combineFloorMod(ana *Analyzer, a, b IntervalSet) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(ir.OpFloorMod(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	if b.IsSinglePoint() {
		divisor := b.MinValue
		if ir.IsConstInt(divisor, 0) {
			panic(errors.ValueCode(errors.ErrorDivideByZero, "modulo by zero in interval modulo"))
		}
		if ana.CanProveGreaterEqual(divisor, 0) {
			if _, isImm := divisor.(*ir.IntImm); isImm {
				// a mod b = a - (a/b)*b whenever both endpoints land in
				// the same quotient bucket
				qmax := ir.PosInfExpr()
				if a.HasUpperBound() {
					qmax = ir.OpFloorDiv(a.MaxValue, divisor)
				}
				qmin := ir.NegInfExpr()
				if a.HasLowerBound() {
					qmin = ir.OpFloorDiv(a.MinValue, divisor)
				}
				if !ir.IsPosInf(qmax) && !ir.IsNegInf(qmin) &&
					ana.CanProve(ir.OpEQ(qmax, qmin), ProofDefault) {
					tmax := ir.OpSub(a.MaxValue, ir.OpMul(divisor, qmin))
					tmin := ir.OpSub(a.MinValue, ir.OpMul(divisor, qmin))
					return IntervalSet{MinValue: tmin, MaxValue: tmax}
				}
			}
			one := ir.ConstScalar(divisor.Type(), 1)
			return IntervalSet{
				MinValue: ir.ConstScalar(divisor.Type(), 0),
				MaxValue: ir.OpSub(divisor, one),
			}
		}
		bound := ir.OpSub(ir.OpAbs(divisor), ir.ConstScalar(divisor.Type(), 1))
		return IntervalSet{MinValue: ir.OpNeg(bound), MaxValue: bound}
	}
	return IntervalSetEverything()
}

func combineMin(a, b IntervalSet) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(ir.OpMin(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	return IntervalSet{
		MinValue: ir.OpMin(a.MinValue, b.MinValue),
		MaxValue: ir.OpMin(a.MaxValue, b.MaxValue),
	}
}

func combineMax(a, b IntervalSet) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(ir.OpMax(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	return IntervalSet{
		MinValue: ir.OpMax(a.MinValue, b.MinValue),
		MaxValue: ir.OpMax(a.MaxValue, b.MaxValue),
	}
}

// combineLogical covers comparisons and boolean connectives: constant
// points fold; anything symbolic is just a boolean range.
func combineLogical(a, b IntervalSet, rebuild func(x, y ir.Expr) ir.Expr) IntervalSet {
	if a.IsSinglePoint() && b.IsSinglePoint() {
		return IntervalSetSinglePoint(rebuild(a.MinValue, b.MinValue))
	}
	if a.IsEmpty() {
		return a
	}
	if b.IsEmpty() {
		return b
	}
	return IntervalSet{MinValue: ir.NewBoolImm(false), MaxValue: ir.NewBoolImm(true)}
}

type varInterval struct {
	v   *ir.Var
	set IntervalSet
}

// intervalSetEvaluator evaluates an expression into an IntervalSet under a
// variable domain map plus scope-local domain constraints.
type intervalSetEvaluator struct {
	ana            *Analyzer
	domMap         map[*ir.Var]IntervalSet
	domConstraints []varInterval
	evalVec        bool
	// recurDepth guards Eval(IntervalSet) against indefinite re-expansion
	// through recursively defined domain variables. The cut-off at
	// len(domMap) is a heuristic carried over from the reference.
	recurDepth int
}

func (ev *intervalSetEvaluator) evalSet(val IntervalSet) IntervalSet {
	if ev.recurDepth >= len(ev.domMap) {
		return val
	}
	ev.recurDepth++
	minSet := ev.eval(val.MinValue)
	maxSet := ev.eval(val.MaxValue)
	ev.recurDepth--
	return IntervalSet{MinValue: minSet.MinValue, MaxValue: maxSet.MaxValue}
}

func (ev *intervalSetEvaluator) eval(expr ir.Expr) IntervalSet {
	switch op := expr.(type) {
	case *ir.IntImm:
		return IntervalSetSinglePoint(expr)
	case *ir.Var:
		var values []IntervalSet
		for _, c := range ev.domConstraints {
			if c.v == op {
				values = append(values, c.set)
			}
		}
		if domain, ok := ev.domMap[op]; ok {
			values = append(values, domain)
		}
		if len(values) == 0 {
			return IntervalSetSinglePoint(op)
		}
		var res IntervalSet
		if len(values) == 1 {
			res = values[0]
		} else {
			res = intervalIntersectAll(values, ev.ana)
		}
		if res.MinValue == ir.Expr(op) && res.MaxValue == ir.Expr(op) {
			return res
		}
		// recursively evaluate the mapped result in case the domain
		// contains variables that must themselves be relaxed
		return ev.evalSet(res)
	case *ir.Add:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineAdd(a, b) }, expr)
	case *ir.Sub:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineSub(a, b) }, expr)
	case *ir.Mul:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineMul(ev.ana, a, b) }, expr)
	case *ir.Div:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet {
			return combineDivLike(ev.ana, a, b, ir.OpTruncDiv)
		}, expr)
	case *ir.FloorDiv:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet {
			return combineDivLike(ev.ana, a, b, ir.OpFloorDiv)
		}, expr)
	case *ir.Mod:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineTruncMod(ev.ana, a, b) }, expr)
	case *ir.FloorMod:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineFloorMod(ev.ana, a, b) }, expr)
	case *ir.Min:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineMin(a, b) }, expr)
	case *ir.Max:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineMax(a, b) }, expr)
	case *ir.EQ:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpEQ) }, expr)
	case *ir.NE:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpNE) }, expr)
	case *ir.LT:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpLT) }, expr)
	case *ir.LE:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpLE) }, expr)
	case *ir.GT:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpGT) }, expr)
	case *ir.GE:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpGE) }, expr)
	case *ir.And:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpAnd) }, expr)
	case *ir.Or:
		return ev.binary(op.A, op.B, func(a, b IntervalSet) IntervalSet { return combineLogical(a, b, ir.OpOr) }, expr)
	case *ir.Ramp:
		base := ev.eval(op.Base)
		stride := ir.NewPConst()
		if ir.Match(stride, op.Stride) {
			t := op.Base.Type()
			vstride := stride.Value()
			lanes := op.Lanes
			if vstride > 0 {
				return combineAdd(base, IntervalSet{
					MinValue: ir.ConstScalar(t, 0),
					MaxValue: ir.ConstScalar(t, vstride*(lanes-1)),
				})
			}
			return combineAdd(base, IntervalSet{
				MinValue: ir.ConstScalar(t, vstride*(lanes-1)),
				MaxValue: ir.ConstScalar(t, 0),
			})
		}
		return IntervalSetEverything()
	case *ir.Broadcast:
		return ev.eval(op.Value)
	case *ir.Select:
		trueSet := ev.eval(op.TrueValue)
		falseSet := ev.eval(op.FalseValue)
		return falseSet.union(trueSet)
	case *ir.Cast:
		valueSet := ev.eval(op.Value)
		if valueSet.MinValue == valueSet.MaxValue {
			if valueSet.IsEmpty() {
				return valueSet
			}
			return IntervalSetSinglePoint(ir.OpCast(op.Dtype, valueSet.MinValue))
		}
		minValue := ir.NegInfExpr()
		if valueSet.HasLowerBound() {
			minValue = ir.OpCast(op.Dtype, valueSet.MinValue)
		}
		maxValue := ir.PosInfExpr()
		if valueSet.HasUpperBound() {
			maxValue = ir.OpCast(op.Dtype, valueSet.MaxValue)
		}
		return IntervalSet{MinValue: minValue, MaxValue: maxValue}
	}
	return IntervalSetEverything()
}

func (ev *intervalSetEvaluator) binary(lhs, rhs ir.Expr,
	combine func(a, b IntervalSet) IntervalSet, original ir.Expr) IntervalSet {
	a := ev.eval(lhs)
	b := ev.eval(rhs)
	if a.MinValue == lhs && a.MaxValue == lhs && b.MinValue == rhs && b.MaxValue == rhs {
		return IntervalSetSinglePoint(original)
	}
	return combine(a, b)
}

// IntervalSetAnalyzer evaluates expressions into symbolic interval sets
// under registered variable domains.
type IntervalSetAnalyzer struct {
	parent         *Analyzer
	domMap         map[*ir.Var]IntervalSet
	domConstraints []varInterval
}

func newIntervalSetAnalyzer(parent *Analyzer) *IntervalSetAnalyzer {
	return &IntervalSetAnalyzer{
		parent: parent,
		domMap: make(map[*ir.Var]IntervalSet),
	}
}

// Query evaluates expr under the current domain map and scope constraints.
func (a *IntervalSetAnalyzer) Query(expr ir.Expr) IntervalSet {
	ev := &intervalSetEvaluator{
		ana:            a.parent,
		domMap:         a.domMap,
		domConstraints: a.domConstraints,
		evalVec:        true,
	}
	return ev.eval(expr)
}

// QueryWith evaluates expr under an explicit domain map.
func (a *IntervalSetAnalyzer) QueryWith(expr ir.Expr, domMap map[*ir.Var]IntervalSet) IntervalSet {
	ev := &intervalSetEvaluator{ana: a.parent, domMap: domMap}
	return ev.eval(expr)
}

func (a *IntervalSetAnalyzer) Bind(v *ir.Var, r ir.Range, allowOverride bool) {
	a.Update(v, IntervalSetFromRange(r), allowOverride)
}

func (a *IntervalSetAnalyzer) BindExpr(v *ir.Var, expr ir.Expr, allowOverride bool) {
	a.Update(v, a.Query(expr), allowOverride)
}

func (a *IntervalSetAnalyzer) Update(v *ir.Var, info IntervalSet, allowOverride bool) {
	if !allowOverride {
		if old, ok := a.domMap[v]; ok {
			if !ir.DeepEqual(old.MinValue, info.MinValue) || !ir.DeepEqual(old.MaxValue, info.MaxValue) {
				panic(errors.Internalf(
					"trying to update var %q with a different interval: original=%v, new=%v",
					v.Name, old, info))
			}
		}
	}
	a.domMap[v] = info
}

func (a *IntervalSetAnalyzer) EnterConstraint(cond ir.Expr) func() {
	bounds := detectVarIntervals(cond)
	if len(bounds) == 0 {
		return nil
	}
	oldSize := len(a.domConstraints)
	a.domConstraints = append(a.domConstraints, bounds...)
	newSize := len(a.domConstraints)
	return func() {
		if len(a.domConstraints) != newSize {
			panic(errors.InternalCode(errors.ErrorConstraintStack,
				"interval constraint stack out of sync"))
		}
		a.domConstraints = a.domConstraints[:oldSize]
	}
}

// detectVarIntervals splits a condition into the per-variable interval
// bounds it implies, in both comparison orientations.
func detectVarIntervals(cond ir.Expr) []varInterval {
	x := ir.NewPVarOnly()
	limit := ir.NewPExpr()

	var bounds []varInterval
	push := func(v *ir.Var, set IntervalSet) {
		bounds = append(bounds, varInterval{v: v, set: set})
	}
	one := func() ir.Expr { return ir.ConstScalar(limit.Value().Type(), 1) }

	for _, sub := range ir.ExtractConstraints(cond, true) {
		switch {
		case ir.Match(ir.PLE(x, limit), sub):
			push(x.Value(), IntervalSetInterval(ir.NegInfExpr(), limit.Value()))
		case ir.Match(ir.PLT(x, limit), sub):
			push(x.Value(), IntervalSetInterval(ir.NegInfExpr(), ir.OpSub(limit.Value(), one())))
		case ir.Match(ir.PGE(x, limit), sub):
			push(x.Value(), IntervalSetInterval(limit.Value(), ir.PosInfExpr()))
		case ir.Match(ir.PGT(x, limit), sub):
			push(x.Value(), IntervalSetInterval(ir.OpAdd(limit.Value(), one()), ir.PosInfExpr()))
		case ir.Match(ir.PEQ(x, limit), sub):
			push(x.Value(), IntervalSetSinglePoint(limit.Value()))
		}
		switch {
		case ir.Match(ir.PGE(limit, x), sub):
			push(x.Value(), IntervalSetInterval(ir.NegInfExpr(), limit.Value()))
		case ir.Match(ir.PGT(limit, x), sub):
			push(x.Value(), IntervalSetInterval(ir.NegInfExpr(), ir.OpSub(limit.Value(), one())))
		case ir.Match(ir.PLE(limit, x), sub):
			push(x.Value(), IntervalSetInterval(limit.Value(), ir.PosInfExpr()))
		case ir.Match(ir.PLT(limit, x), sub):
			push(x.Value(), IntervalSetInterval(ir.OpAdd(limit.Value(), one()), ir.PosInfExpr()))
		case ir.Match(ir.PEQ(limit, x), sub):
			push(x.Value(), IntervalSetSinglePoint(limit.Value()))
		}
	}
	return bounds
}
