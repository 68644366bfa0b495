package arith

import (
	"shiki/internal/errors"
	"shiki/internal/ir"
)

// ConstIntBound is a closed int64 interval [Min, Max] with the symmetric
// saturation sentinels ir.PosInf / ir.NegInf.
type ConstIntBound struct {
	Min int64
	Max int64
}

func (b ConstIntBound) IsConst(v int64) bool { return b.Min == b.Max && b.Min == v }

func (b ConstIntBound) String() string {
	return "ConstIntBound[" + formatBound(b.Min) + ", " + formatBound(b.Max) + "]"
}

func formatBound(v int64) string {
	switch v {
	case ir.PosInf:
		return "+inf"
	case ir.NegInf:
		return "-inf"
	}
	return int64String(v)
}

// makeBound normalizes degenerate sentinel placements so Min <= Max holds.
func makeBound(min, max int64) ConstIntBound {
	if min == ir.PosInf {
		min = min - 1
	}
	if max == ir.NegInf {
		max = max + 1
	}
	return ConstIntBound{Min: min, Max: max}
}

func boundUnion(a, b ConstIntBound) ConstIntBound {
	return ConstIntBound{Min: min64(a.Min, b.Min), Max: max64(a.Max, b.Max)}
}

func boundIntersect(a, b ConstIntBound) ConstIntBound {
	return ConstIntBound{Min: max64(a.Min, b.Min), Max: min64(a.Max, b.Max)}
}

// boundEverything is the full range representable in dtype; uints get a
// zero lower bound, non-integers get [-inf, +inf].
func boundEverything(t ir.DType) ConstIntBound {
	if !t.IsInt() && !t.IsUInt() {
		return makeBound(ir.NegInf, ir.PosInf)
	}
	vbits := int64(t.Bits)
	if t.IsInt() {
		vbits--
	}
	var ret ConstIntBound
	if t.IsUInt() {
		ret.Min = 0
	} else if vbits >= 63 {
		ret.Min = ir.NegInf
	} else {
		ret.Min = -(int64(1) << uint(vbits))
	}
	if vbits >= 63 {
		ret.Max = ir.PosInf
	} else {
		ret.Max = (int64(1) << uint(vbits)) - 1
	}
	return ret
}

// Saturating arithmetic on bounds.

func addWillOverflow(x, y int64) bool {
	if y > 0 && x > ir.PosInf-y {
		return true
	}
	if y < 0 && x < ir.NegInf-y {
		return true
	}
	return false
}

func mulWillOverflow(x, y int64) bool {
	if y == 0 {
		return false
	}
	if y > 0 {
		return x < ir.NegInf/y || x > ir.PosInf/y
	}
	return x > ir.NegInf/y || x < ir.PosInf/y
}

func infAwareAdd(x, y int64) int64 {
	if x == ir.PosInf || x == ir.NegInf {
		return x
	}
	if y == ir.PosInf || y == ir.NegInf {
		return y
	}
	if addWillOverflow(x, y) {
		if x > 0 {
			return ir.PosInf
		}
		return ir.NegInf
	}
	return x + y
}

func infAwareMul(x, y int64) int64 {
	if !mulWillOverflow(x, y) {
		return x * y
	}
	if (x > 0 && y > 0) || (x < 0 && y < 0) {
		return ir.PosInf
	}
	return ir.NegInf
}

func infAwareDiv(x, y int64) int64 {
	if y == 0 {
		panic(errors.ValueCode(errors.ErrorDivideByZero, "division by zero"))
	}
	if x == ir.PosInf || x == ir.NegInf {
		if y > 0 {
			return x
		}
		return -x
	}
	return x / y
}

func infAwareFloorDiv(x, y int64) int64 {
	if y == 0 {
		panic(errors.ValueCode(errors.ErrorDivideByZero, "division by zero"))
	}
	if x == ir.PosInf || x == ir.NegInf {
		if y > 0 {
			return x
		}
		return -x
	}
	return ir.FloorDiv64(x, y)
}

func infAwareLeftShift(x, y int64) int64 {
	if x == ir.PosInf || x == ir.NegInf {
		return x
	}
	bits := 0
	for v := x; v != 0; v >>= 1 {
		if v < 0 {
			v = -v
		}
		bits++
	}
	if int64(bits)+y < 64 {
		return x << uint(y)
	}
	return ir.PosInf
}

func infAwareRightShift(x, y int64) int64 {
	if x == ir.PosInf || x == ir.NegInf {
		return x
	}
	return x >> uint(y)
}

// binaryBoundary evaluates a monotone binary op at the four interval
// corners and takes the envelope.
func binaryBoundary(a, b ConstIntBound, op func(x, y int64) int64) ConstIntBound {
	v1 := op(a.Min, b.Min)
	v2 := op(a.Max, b.Max)
	v3 := op(a.Min, b.Max)
	v4 := op(a.Max, b.Min)
	return ConstIntBound{
		Min: min64(min64(v1, v2), min64(v3, v4)),
		Max: max64(max64(v1, v2), max64(v3, v4)),
	}
}

// handleDivision splits a signed divisor range that straddles zero into its
// negative and positive halves, since binaryBoundary only checks endpoints.
func handleDivision(a, b ConstIntBound, t ir.DType, op func(x, y int64) int64) ConstIntBound {
	if b.Min <= 0 && 0 <= b.Max && t.IsInt() {
		bNeg := boundEverything(t)
		if b.Min < 0 {
			bNeg = makeBound(b.Min, -1)
		}
		bPos := boundEverything(t)
		if b.Max > 0 {
			bPos = makeBound(1, b.Max)
		}
		eNeg := binaryBoundary(a, bNeg, op)
		ePos := binaryBoundary(a, bPos, op)
		return makeBound(min64(eNeg.Min, ePos.Min), max64(eNeg.Max, ePos.Max))
	}
	if b.Min == 0 && t.IsUInt() {
		return binaryBoundary(a, makeBound(1, b.Max), op)
	}
	return binaryBoundary(a, b, op)
}

// boundInfo is an extra (expr, bound) hint installed by a constraint scope
// and applied structurally on every visit.
type boundInfo struct {
	expr  ir.Expr
	bound ConstIntBound
}

// ConstIntBoundAnalyzer performs abstract interpretation over the bounded
// int64 interval lattice.
type ConstIntBoundAnalyzer struct {
	parent         *Analyzer
	varMap         map[*ir.Var]ConstIntBound
	additionalInfo []boundInfo
	boundMap       *BoundMap
}

func newConstIntBoundAnalyzer(parent *Analyzer) *ConstIntBoundAnalyzer {
	return &ConstIntBoundAnalyzer{
		parent: parent,
		varMap: make(map[*ir.Var]ConstIntBound),
	}
}

// Query returns the bound of expr under the current bindings and scope
// hints.
func (a *ConstIntBoundAnalyzer) Query(expr ir.Expr) ConstIntBound {
	return a.visit(expr)
}

// QueryMemoized additionally records results for every visited expression
// into the caller-supplied map.
func (a *ConstIntBoundAnalyzer) QueryMemoized(expr ir.Expr, bound *BoundMap) ConstIntBound {
	a.boundMap = bound
	res := a.visit(expr)
	a.boundMap = nil
	return res
}

// Bind seeds v from a Range: v is in [min, min+extent-1].
func (a *ConstIntBoundAnalyzer) Bind(v *ir.Var, r ir.Range, allowOverride bool) {
	mn := a.visit(r.Min)
	ext := a.visit(r.Extent)
	ret := ConstIntBound{
		Min: mn.Min,
		Max: infAwareAdd(mn.Max, infAwareAdd(ext.Max, -1)),
	}
	a.Update(v, ret, allowOverride)
}

// Update installs a bound for v. Conflicting silent updates are an
// internal error unless allowOverride is set.
func (a *ConstIntBoundAnalyzer) Update(v *ir.Var, info ConstIntBound, allowOverride bool) {
	if !allowOverride {
		if old, ok := a.varMap[v]; ok && old != info {
			panic(errors.Internalf(
				"trying to update var %q with a different const bound: original=%v, new=%v",
				v.Name, old, info))
		}
	}
	a.varMap[v] = info
}

// EnterConstraint installs bounds implied by cond and returns the recovery
// function, or nil when cond implies nothing.
func (a *ConstIntBoundAnalyzer) EnterConstraint(cond ir.Expr) func() {
	info := detectBoundInfo(cond)
	if len(info) == 0 {
		return nil
	}
	oldSize := len(a.additionalInfo)
	a.additionalInfo = append(a.additionalInfo, info...)
	newSize := len(a.additionalInfo)
	return func() {
		if len(a.additionalInfo) != newSize {
			panic(errors.InternalCode(errors.ErrorConstraintStack,
				"const-int-bound constraint stack out of sync: have %d, want %d",
				len(a.additionalInfo), newSize))
		}
		a.additionalInfo = a.additionalInfo[:oldSize]
	}
}

func (a *ConstIntBoundAnalyzer) visit(expr ir.Expr) ConstIntBound {
	res := a.visitNode(expr)
	// a linear scan over the scope hints; the list stays short in practice
	for _, info := range a.additionalInfo {
		if ir.DeepEqual(expr, info.expr) {
			res = boundIntersect(res, info.bound)
		}
	}
	if a.boundMap != nil {
		if prev, ok := a.boundMap.Get(expr); ok {
			everything := boundEverything(expr.Type())
			if prev != res && prev != everything {
				panic(errors.Internalf("bound for %s conflicts with memoized entry: %v vs %v",
					expr, prev, res))
			}
		}
		a.boundMap.Set(expr, res)
	}
	return res
}

func (a *ConstIntBoundAnalyzer) visitNode(expr ir.Expr) ConstIntBound {
	switch op := expr.(type) {
	case *ir.IntImm:
		return makeBound(op.Value, op.Value)
	case *ir.Var:
		if info, ok := a.varMap[op]; ok {
			return info
		}
		if op.Shape {
			return makeBound(0, ir.PosInf)
		}
		return boundEverything(op.Dtype)
	case *ir.Let:
		if _, bound := a.varMap[op.Var]; !bound {
			a.varMap[op.Var] = a.visit(op.Value)
			ret := a.visit(op.Body)
			delete(a.varMap, op.Var)
			return ret
		}
		return a.visit(op.Body)
	case *ir.Cast:
		return boundIntersect(a.visit(op.Value), boundEverything(op.Dtype))
	case *ir.Add:
		x, y := a.visit(op.A), a.visit(op.B)
		return ConstIntBound{Min: infAwareAdd(x.Min, y.Min), Max: infAwareAdd(x.Max, y.Max)}
	case *ir.Sub:
		x, y := a.visit(op.A), a.visit(op.B)
		return ConstIntBound{Min: infAwareAdd(x.Min, -y.Max), Max: infAwareAdd(x.Max, -y.Min)}
	case *ir.Mul:
		return binaryBoundary(a.visit(op.A), a.visit(op.B), infAwareMul)
	case *ir.Div:
		x := a.visit(op.A)
		y := assumeNoZeroDivisor(a.visit(op.B))
		return handleDivision(x, y, op.Dtype, infAwareDiv)
	case *ir.FloorDiv:
		x := a.visit(op.A)
		y := assumeNoZeroDivisor(a.visit(op.B))
		return handleDivision(x, y, op.Dtype, infAwareFloorDiv)
	case *ir.Mod:
		return a.visitTruncMod(op)
	case *ir.FloorMod:
		return a.visitFloorMod(op)
	case *ir.Min:
		x, y := a.visit(op.A), a.visit(op.B)
		return ConstIntBound{Min: min64(x.Min, y.Min), Max: min64(x.Max, y.Max)}
	case *ir.Max:
		x, y := a.visit(op.A), a.visit(op.B)
		return ConstIntBound{Min: max64(x.Min, y.Min), Max: max64(x.Max, y.Max)}
	case *ir.Select:
		return boundUnion(a.visit(op.TrueValue), a.visit(op.FalseValue))
	case *ir.Ramp:
		// {base + i*stride | 0 <= i < lanes} is linear in i, so the union
		// of the two endpoints covers the whole vector.
		x := a.visit(op.Base)
		last := ir.OpAdd(op.Base, ir.OpMul(
			ir.ConstScalar(op.Base.Type(), op.Lanes-1), op.Stride))
		y := a.visit(last)
		return boundUnion(x, y)
	case *ir.Broadcast:
		return a.visit(op.Value)
	case *ir.Call:
		switch op.Op {
		case ir.IntrinsicRightShift:
			return binaryBoundary(a.visit(op.Args[0]), a.visit(op.Args[1]), infAwareRightShift)
		case ir.IntrinsicLeftShift:
			x, y := a.visit(op.Args[0]), a.visit(op.Args[1])
			if x.Min < 0 || y.Min < 0 {
				// negative operands can hit undefined behavior on some
				// targets, so assume nothing
				return boundEverything(op.Dtype)
			}
			return binaryBoundary(x, y, infAwareLeftShift)
		case ir.IntrinsicBitwiseAnd:
			return a.visitBitwiseAnd(op)
		}
		return boundEverything(op.Dtype)
	}
	return boundEverything(expr.Type())
}

func (a *ConstIntBoundAnalyzer) visitTruncMod(op *ir.Mod) ConstIntBound {
	x := a.visit(op.A)
	y := assumeNoZeroDivisor(a.visit(op.B))
	if y.Min > 0 {
		yMaxCap := infAwareAdd(y.Max, -1)
		if x.Min >= 0 {
			if x.Max < y.Min {
				return x
			}
			return makeBound(0, min64(x.Max, yMaxCap))
		}
		return makeBound(max64(x.Min, -yMaxCap), min64(max64(x.Max, 0), yMaxCap))
	}
	// mod by a possibly-negative divisor is rare; use the simplest rule
	return boundEverything(op.Dtype)
}

func (a *ConstIntBoundAnalyzer) visitFloorMod(op *ir.FloorMod) ConstIntBound {
	// floormod(a, b) = b*y with y in [0, 1), so
	// min(0, b.min+1) <= floormod(a, b) <= max(0, b.max-1)
	x := a.visit(op.A)
	y := assumeNoZeroDivisor(a.visit(op.B))
	if y.Min > 0 {
		yMaxCap := infAwareAdd(y.Max, -1)
		if x.Min >= 0 {
			if x.Max < y.Min {
				return x
			}
			return makeBound(0, min64(x.Max, yMaxCap))
		}
		return makeBound(0, yMaxCap)
	}
	yMinCap := infAwareAdd(y.Min, 1)
	yMaxCap := infAwareAdd(y.Max, -1)
	return boundIntersect(
		makeBound(min64(0, yMinCap), max64(0, yMaxCap)),
		boundEverything(op.Dtype))
}

func (a *ConstIntBoundAnalyzer) visitBitwiseAnd(op *ir.Call) ConstIntBound {
	x, y := a.visit(op.Args[0]), a.visit(op.Args[1])
	if x.Min >= 0 && y.Min >= 0 {
		return makeBound(0, min64(x.Max, y.Max))
	}
	if y.Min >= 0 {
		return makeBound(0, y.Max)
	}
	if x.Min >= 0 {
		return makeBound(0, x.Max)
	}
	return boundEverything(op.Dtype)
}

// assumeNoZeroDivisor tightens a divisor interval touching zero from below,
// assuming a valid program never divides by zero. This matters for
// symbolic shapes: n >= 0 usually means n > 0 wherever a division occurs.
func assumeNoZeroDivisor(divisor ConstIntBound) ConstIntBound {
	if divisor.IsConst(0) {
		panic(errors.ValueCode(errors.ErrorDivideByZero, "division by a constant zero divisor"))
	}
	if divisor.Min == 0 {
		divisor.Min = 1
	}
	return divisor
}

// detectBoundInfo extracts constant bounds implied by a conjunction of
// comparisons against integer immediates.
func detectBoundInfo(cond ir.Expr) []boundInfo {
	x := ir.NewPExpr()
	c := ir.NewPConst()

	var info []boundInfo
	addInfo := func(expr ir.Expr, min, max int64) {
		// comparing two integers implies no variable bound
		if _, isImm := expr.(*ir.IntImm); !isImm {
			info = append(info, boundInfo{expr: expr, bound: makeBound(min, max)})
		}
	}

	for _, sub := range ir.ExtractConstraints(cond, true) {
		switch {
		case ir.Match(ir.POneOf(ir.PLE(c, x), ir.PGE(x, c)), sub):
			addInfo(x.Value(), c.Value(), ir.PosInf)
		case ir.Match(ir.POneOf(ir.PLT(c, x), ir.PGT(x, c)), sub):
			addInfo(x.Value(), c.Value()+1, ir.PosInf)
		case ir.Match(ir.POneOf(ir.PLE(x, c), ir.PGE(c, x)), sub):
			addInfo(x.Value(), ir.NegInf, c.Value())
		case ir.Match(ir.POneOf(ir.PLT(x, c), ir.PGT(c, x)), sub):
			addInfo(x.Value(), ir.NegInf, c.Value()-1)
		case ir.Match(ir.POneOf(ir.PEQ(x, c), ir.PEQ(c, x)), sub):
			addInfo(x.Value(), c.Value(), c.Value())
		}
	}
	return info
}
