package arith

import (
	"fmt"
	"sort"

	"shiki/internal/errors"
	"shiki/internal/ir"
)

// DivMode selects between C-style truncating division and Python-style
// floor division when reconstructing canonical terms.
type DivMode uint8

const (
	TruncDiv DivMode = iota
	FloorDiv
)

func divImpl(a, b ir.Expr, mode DivMode) ir.Expr {
	if mode == TruncDiv {
		return ir.OpTruncDiv(a, b)
	}
	return ir.OpFloorDiv(a, b)
}

func modImpl(a, b ir.Expr, mode DivMode) ir.Expr {
	if mode == TruncDiv {
		return ir.OpTruncMod(a, b)
	}
	return ir.OpFloorMod(a, b)
}

// castIsSafe reports whether value provably fits in dtype's range.
func castIsSafe(dtype ir.DType, value ir.Expr, ana *Analyzer) bool {
	if !dtype.IsIndex() {
		return false
	}
	if value.Type().Bits <= dtype.Bits {
		return true
	}
	bound := ana.ConstIntBound.Query(value)
	upper, err := ir.MaxValue(dtype)
	if err != nil {
		return false
	}
	lower, err := ir.MinValue(dtype)
	if err != nil {
		return false
	}
	ubound, _ := ir.AsConstInt(upper)
	lbound, _ := ir.AsConstInt(lower)
	return bound.Max <= ubound && bound.Min >= lbound
}

// SplitExpr is the canonical coefficient term
// ((Index mod UpperFactor) div LowerFactor) * Scale under DivMode; an
// infinite UpperFactor omits the outer mod, a unit LowerFactor omits the
// inner div.
type SplitExpr struct {
	Dtype       ir.DType
	Index       ir.Expr
	LowerFactor int64
	UpperFactor int64
	Scale       int64
	DivMode     DivMode
}

func (e *SplitExpr) Type() ir.DType { return e.Dtype }

func (e *SplitExpr) String() string {
	return fmt.Sprintf("SplitExpr(index=%s, lower_factor=%d, upper_factor=%d, scale=%d, div_mode=%d)",
		e.Index, e.LowerFactor, e.UpperFactor, e.Scale, e.DivMode)
}

func (e *SplitExpr) clone() *SplitExpr {
	c := *e
	return &c
}

func (e *SplitExpr) verify() {
	if !(e.UpperFactor == ir.PosInf || e.UpperFactor%e.LowerFactor == 0) {
		panic(errors.InternalCode(errors.ErrorSplitVerify,
			"split expr verification failed: upper_factor %d mod lower_factor %d != 0",
			e.UpperFactor, e.LowerFactor))
	}
}

func (e *SplitExpr) normalizeWithScale(sscale int64) ir.Expr {
	res := e.Index
	if e.Scale == 0 {
		return ir.ConstScalar(e.Dtype, 0)
	}
	if e.UpperFactor != ir.PosInf {
		res = modImpl(res, ir.ConstScalar(e.Dtype, e.UpperFactor), e.DivMode)
	}
	if e.LowerFactor != 1 {
		res = divImpl(res, ir.ConstScalar(e.Dtype, e.LowerFactor), e.DivMode)
	}
	sscale *= e.Scale
	if sscale != 1 {
		res = ir.OpMul(res, ir.ConstScalar(e.Dtype, sscale))
	}
	return res
}

func (e *SplitExpr) normalize() ir.Expr { return e.normalizeWithScale(1) }

func (e *SplitExpr) mulToSelf(s int64) { e.Scale *= s }

func (e *SplitExpr) indexEqual(other *SplitExpr) bool {
	return e.Index == other.Index || ir.DeepEqual(e.Index, other.Index)
}

// divModeCompatibleTo holds when modes match or the term is degenerate
// (both modes agree when no div or mod is applied).
func (e *SplitExpr) divModeCompatibleTo(mode DivMode) bool {
	if e.DivMode == mode {
		return true
	}
	return e.LowerFactor == 1 && e.UpperFactor == ir.PosInf
}

// canPushCastToChildren verifies that every intermediate expression in the
// reconstruction fits in dtype, or that the cast is an upcast.
func (e *SplitExpr) canPushCastToChildren(dtype ir.DType, ana *Analyzer) bool {
	if dtype.Bits >= e.Dtype.Bits {
		return true
	}
	if e.Scale == 0 {
		return true
	}
	res := e.Index
	if !castIsSafe(dtype, res, ana) {
		return false
	}
	if e.UpperFactor != ir.PosInf {
		res = modImpl(res, ir.ConstScalar(e.Dtype, e.UpperFactor), e.DivMode)
		if !castIsSafe(dtype, res, ana) {
			return false
		}
	}
	if e.LowerFactor != 1 {
		res = divImpl(res, ir.ConstScalar(e.Dtype, e.LowerFactor), e.DivMode)
		if !castIsSafe(dtype, res, ana) {
			return false
		}
	}
	if e.Scale != 1 {
		res = ir.OpMul(res, ir.ConstScalar(e.Dtype, e.Scale))
		if !castIsSafe(dtype, res, ana) {
			return false
		}
	}
	return true
}

func (e *SplitExpr) pushCastToChildren(dtype ir.DType) {
	e.Index = ir.OpCast(dtype, e.Index)
	e.Dtype = dtype
}

// SumExpr is the canonical sum of split terms plus a constant base. Args
// form segments: terms with the same index are contiguous and sorted by
// descending lower factor.
type SumExpr struct {
	Dtype ir.DType
	Args  []*SplitExpr
	Base  int64
}

func (e *SumExpr) Type() ir.DType { return e.Dtype }

func (e *SumExpr) String() string {
	s := fmt.Sprintf("SumExpr(base=%d, args=[", e.Base)
	for i, arg := range e.Args {
		if i > 0 {
			s += ", "
		}
		s += arg.String()
	}
	return s + "])"
}

func (e *SumExpr) clone() *SumExpr {
	args := make([]*SplitExpr, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.clone()
	}
	return &SumExpr{Dtype: e.Dtype, Args: args, Base: e.Base}
}

func (e *SumExpr) isZero() bool { return e.Base == 0 && len(e.Args) == 0 }

func (e *SumExpr) normalize() ir.Expr {
	if len(e.Args) == 0 {
		return ir.ConstScalar(e.Dtype, e.Base)
	}
	return sumNormalize(e.Dtype, simplifySplitExprs(cloneSplits(e.Args)), e.Base)
}

func (e *SumExpr) divisibleBy(scale int64) bool {
	if e.Base%scale != 0 {
		return false
	}
	for _, arg := range e.Args {
		if arg.Scale%scale != 0 {
			return false
		}
	}
	return true
}

func (e *SumExpr) mulToSelf(scale int64) {
	e.Base *= scale
	for _, arg := range e.Args {
		arg.Scale *= scale
	}
}

func (e *SumExpr) divideBy(scale int64) {
	if e.Base%scale != 0 {
		panic(errors.Internalf("sum base %d not divisible by %d", e.Base, scale))
	}
	e.Base /= scale
	for _, arg := range e.Args {
		if arg.Scale%scale != 0 {
			panic(errors.Internalf("split scale %d not divisible by %d", arg.Scale, scale))
		}
		arg.Scale /= scale
	}
}

func (e *SumExpr) addConst(value int64) { e.Base += value }

// addSplit inserts other*scale while maintaining the segment invariant:
// equal indices stay contiguous, ordered by descending lower factor.
func (e *SumExpr) addSplit(other *SplitExpr, scale int64) {
	if other.Scale == 0 {
		return
	}
	start := 0
	for ; start < len(e.Args); start++ {
		if e.Args[start].indexEqual(other) {
			break
		}
	}
	for j := start; j < len(e.Args); j++ {
		if !e.Args[j].indexEqual(other) || other.LowerFactor > e.Args[j].LowerFactor {
			inserted := other.clone()
			inserted.Scale *= scale
			e.Args = append(e.Args, nil)
			copy(e.Args[j+1:], e.Args[j:])
			e.Args[j] = inserted
			return
		}
		if other.LowerFactor == e.Args[j].LowerFactor &&
			other.UpperFactor == e.Args[j].UpperFactor &&
			other.divModeCompatibleTo(e.Args[j].DivMode) {
			e.Args[j].Scale += other.Scale * scale
			return
		}
	}
	inserted := other.clone()
	inserted.Scale *= scale
	e.Args = append(e.Args, inserted)
}

// addSum folds another sum in term by term; a linear scan is fine since
// balanced long expressions are rare.
func (e *SumExpr) addSum(other *SumExpr, scale int64) {
	for _, arg := range other.Args {
		e.addSplit(arg, scale)
	}
	e.addConst(other.Base * scale)
}

func (e *SumExpr) isMinValueBase() bool {
	if e.Dtype.Bits == 64 {
		return e.Base == -(int64(1)<<62)*2
	}
	return e.Base == -(int64(1) << uint(e.Dtype.Bits-1))
}

func (e *SumExpr) canPushCastToChildren(dtype ir.DType, ana *Analyzer) bool {
	if dtype.Bits >= e.Dtype.Bits {
		return true
	}
	isMinValue := e.isMinValueBase()
	res := ir.Expr(ir.ConstScalar(dtype, 0))
	for _, arg := range e.Args {
		if arg.Scale > 0 {
			res = ir.OpAdd(res, arg.normalize())
			if !castIsSafe(dtype, res, ana) {
				return false
			}
		}
	}
	if e.Base > 0 || isMinValue {
		res = ir.OpAdd(res, ir.ConstScalar(e.Dtype, e.Base))
		if !castIsSafe(dtype, res, ana) {
			return false
		}
	}
	for _, arg := range e.Args {
		if arg.Scale < 0 {
			res = ir.OpSub(res, arg.normalizeWithScale(-1))
			if !castIsSafe(dtype, res, ana) {
				return false
			}
		}
	}
	if e.Base < 0 && !isMinValue {
		res = ir.OpSub(res, ir.ConstScalar(e.Dtype, -e.Base))
		if !castIsSafe(dtype, res, ana) {
			return false
		}
	}
	for _, arg := range e.Args {
		if !arg.canPushCastToChildren(dtype, ana) {
			return false
		}
	}
	return true
}

func (e *SumExpr) pushCastToChildren(dtype ir.DType) {
	for _, arg := range e.Args {
		arg.pushCastToChildren(dtype)
	}
	e.Dtype = dtype
}

func cloneSplits(args []*SplitExpr) []*SplitExpr {
	out := make([]*SplitExpr, len(args))
	for i, arg := range args {
		out[i] = arg.clone()
	}
	return out
}

// simplifySplitExprs fuses adjacent entries within each segment:
// same-coefficient terms merge their scales, and
// (x / (c*s)) * s + (x % (c*s)) / c fuses into (x / c) by the identity
// (x % (c*s)) / c == (x / c) % s.
func simplifySplitExprs(args []*SplitExpr) []*SplitExpr {
	for i := 0; i < len(args); i++ {
		if args[i].Scale == 0 {
			continue
		}
		for j := i + 1; j < len(args); j++ {
			lhs, rhs := args[i], args[j]
			if !lhs.indexEqual(rhs) {
				break
			}
			if lhs.UpperFactor < rhs.LowerFactor {
				break
			}
			if lhs.UpperFactor == rhs.UpperFactor && lhs.LowerFactor == rhs.LowerFactor &&
				lhs.divModeCompatibleTo(rhs.DivMode) {
				// fold same coefficient
				rhs.Scale += lhs.Scale
				lhs.Scale = 0
			} else if lhs.LowerFactor == rhs.UpperFactor && rhs.Scale != 0 &&
				lhs.Scale%rhs.Scale == 0 &&
				lhs.LowerFactor == (lhs.Scale/rhs.Scale)*rhs.LowerFactor &&
				lhs.divModeCompatibleTo(rhs.DivMode) {
				// (x / (c*s)) * s + (x % (c*s)) / c => x / c
				rhs.UpperFactor = lhs.UpperFactor
				lhs.Scale = 0
				break
			}
		}
	}
	// Stable sort by descending scale, then factors and div mode. Index
	// is deliberately not compared: address-based ordering would make
	// results run dependent.
	sort.SliceStable(args, func(i, j int) bool {
		lhs, rhs := args[i], args[j]
		if lhs.Scale != rhs.Scale {
			return lhs.Scale > rhs.Scale
		}
		if lhs.LowerFactor != rhs.LowerFactor {
			return lhs.LowerFactor > rhs.LowerFactor
		}
		if lhs.UpperFactor != rhs.UpperFactor {
			return lhs.UpperFactor > rhs.UpperFactor
		}
		return lhs.DivMode > rhs.DivMode
	})
	return args
}

// sumNormalize reconstructs an Expr: positive terms, positive base,
// negative terms, negative base.
func sumNormalize(dtype ir.DType, args []*SplitExpr, base int64) ir.Expr {
	isMinValue := false
	if dtype.Bits < 64 {
		isMinValue = base == -(int64(1) << uint(dtype.Bits-1))
	}
	res := ir.Expr(ir.ConstScalar(dtype, 0))
	for _, arg := range args {
		if arg.Scale > 0 {
			res = ir.OpAdd(res, arg.normalize())
		}
	}
	if base > 0 || isMinValue {
		res = ir.OpAdd(res, ir.ConstScalar(dtype, base))
	}
	for _, arg := range args {
		if arg.Scale < 0 {
			res = ir.OpSub(res, arg.normalizeWithScale(-1))
		}
	}
	if base < 0 && !isMinValue {
		res = ir.OpSub(res, ir.ConstScalar(dtype, -base))
	}
	return res
}

// CanonicalSimplifier normalizes index arithmetic into the
// sum-of-split-expressions canonical form, reusing the rewrite simplifier
// for everything outside the index fragment.
type CanonicalSimplifier struct {
	*RewriteSimplifier
}

func newCanonicalSimplifier(ana *Analyzer) *CanonicalSimplifier {
	c := &CanonicalSimplifier{RewriteSimplifier: newRewriteSimplifier(ana)}
	c.self = c
	return c
}

// Simplify runs one canonical pass.
func (c *CanonicalSimplifier) Simplify(expr ir.Expr) ir.Expr {
	return c.MutateExpr(expr)
}

// MutateExpr dispatches and then normalizes any canonical container back
// into a plain expression.
func (c *CanonicalSimplifier) MutateExpr(e ir.Expr) ir.Expr {
	return c.normalizeExpr(c.canonicalMutate(e))
}

// canonicalMutate dispatches without the trailing normalization, keeping
// canonical containers alive between the canonical visit methods.
func (c *CanonicalSimplifier) canonicalMutate(e ir.Expr) ir.Expr {
	switch op := e.(type) {
	case *ir.Add:
		return c.visitAddCanonical(op)
	case *ir.Sub:
		return c.visitSubCanonical(op)
	case *ir.Mul:
		return c.visitMulCanonical(op)
	case *ir.Div:
		return c.visitDivCanonical(op)
	case *ir.Mod:
		return c.visitModCanonical(op)
	case *ir.FloorDiv:
		return c.visitFloorDivCanonical(op)
	case *ir.FloorMod:
		return c.visitFloorModCanonical(op)
	case *ir.Cast:
		return c.visitCastCanonical(op)
	case *ir.LT:
		return c.visitLTCanonical(op)
	}
	return c.RewriteSimplifier.MutateExpr(e)
}

func (c *CanonicalSimplifier) normalizeExpr(e ir.Expr) ir.Expr {
	switch op := e.(type) {
	case *SplitExpr:
		return op.normalize()
	case *SumExpr:
		return op.normalize()
	}
	return e
}

// toSplitExpr converts expr into an equivalent single split term.
func (c *CanonicalSimplifier) toSplitExpr(expr ir.Expr) *SplitExpr {
	if op, ok := expr.(*SplitExpr); ok {
		return op
	}
	if op, ok := expr.(*SumExpr); ok {
		if op.Base == 0 && len(op.Args) == 1 {
			return op.Args[0]
		}
		expr = op.normalize()
	}
	return &SplitExpr{
		Dtype:       expr.Type(),
		Index:       expr,
		LowerFactor: 1,
		UpperFactor: ir.PosInf,
		Scale:       1,
		DivMode:     TruncDiv,
	}
}

// convertDivMode returns an equivalent split with the requested div mode.
func (c *CanonicalSimplifier) convertDivMode(expr *SplitExpr, mode DivMode) *SplitExpr {
	if expr.DivMode == mode {
		return expr
	}
	if expr.divModeCompatibleTo(mode) {
		expr = expr.clone()
		expr.DivMode = mode
		return expr
	}
	expr = c.toSplitExpr(c.normalizeExpr(expr)).clone()
	expr.DivMode = mode
	return expr
}

func (c *CanonicalSimplifier) toSumExpr(expr ir.Expr) *SumExpr {
	if op, ok := expr.(*SumExpr); ok {
		return op
	}
	n := &SumExpr{Dtype: expr.Type()}
	if imm, ok := expr.(*ir.IntImm); ok {
		n.Base = imm.Value
		return n
	}
	n.Args = append(n.Args, c.toSplitExpr(expr))
	return n
}

func (c *CanonicalSimplifier) visitAddCanonical(op *ir.Add) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitAdd(op)
	}
	a := c.canonicalMutate(op.A)
	b := c.canonicalMutate(op.B)
	if res, ok := tryConstFoldCanonical(a, b, ir.TryConstFoldAdd); ok {
		return res
	}
	ret := c.toSumExpr(a).clone()
	if imm, ok := b.(*ir.IntImm); ok {
		ret.addConst(imm.Value)
	} else if sum, ok := b.(*SumExpr); ok {
		ret.addSum(sum, 1)
	} else {
		ret.addSplit(c.toSplitExpr(b), 1)
	}
	return ret
}

func (c *CanonicalSimplifier) visitSubCanonical(op *ir.Sub) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitSub(op)
	}
	a := c.canonicalMutate(op.A)
	b := c.canonicalMutate(op.B)
	if res, ok := tryConstFoldCanonical(a, b, ir.TryConstFoldSub); ok {
		return res
	}
	ret := c.toSumExpr(a).clone()
	if imm, ok := b.(*ir.IntImm); ok {
		ret.addConst(-imm.Value)
	} else if sum, ok := b.(*SumExpr); ok {
		ret.addSum(sum, -1)
	} else {
		ret.addSplit(c.toSplitExpr(b), -1)
	}
	return ret
}

func (c *CanonicalSimplifier) visitMulCanonical(op *ir.Mul) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitMul(op)
	}
	a := c.canonicalMutate(op.A)
	b := c.canonicalMutate(op.B)
	if res, ok := tryConstFoldCanonical(a, b, ir.TryConstFoldMul); ok {
		return res
	}
	if _, ok := a.(*ir.IntImm); ok {
		a, b = b, a
	}
	if bconst, ok := b.(*ir.IntImm); ok {
		if sum, ok := a.(*SumExpr); ok {
			ret := sum.clone()
			ret.mulToSelf(bconst.Value)
			return ret
		}
		ret := c.toSplitExpr(a).clone()
		ret.mulToSelf(bconst.Value)
		return ret
	}
	// symbolic * symbolic falls back to a normalized product
	a = c.normalizeExpr(a)
	b = c.normalizeExpr(b)
	ret := ir.MulAndNormalize(a, b)
	if mul, ok := ret.(*ir.Mul); ok && mul.A == op.A && mul.B == op.B {
		return op
	}
	return ret
}

// tryConstFoldCanonical folds when both sides normalize to immediates.
func tryConstFoldCanonical(a, b ir.Expr,
	fold func(a, b ir.Expr) (ir.Expr, bool)) (ir.Expr, bool) {
	_, aImm := a.(*ir.IntImm)
	_, bImm := b.(*ir.IntImm)
	if !aImm && !bImm {
		return nil, false
	}
	return fold(a, b)
}

// separateDivisibleParts splits a sum into the part whose scales and base
// are divisible by coeff and the remainder.
func separateDivisibleParts(psum *SumExpr, coeff int64) (divisible, nonDivisible *SumExpr) {
	divisible = &SumExpr{Dtype: psum.Dtype}
	nonDivisible = &SumExpr{Dtype: psum.Dtype}
	if psum.Base%coeff == 0 {
		divisible.Base = psum.Base
	} else {
		nonDivisible.Base = psum.Base
	}
	for _, arg := range psum.Args {
		if arg.Scale%coeff == 0 {
			divisible.Args = append(divisible.Args, arg.clone())
		} else {
			nonDivisible.Args = append(nonDivisible.Args, arg.clone())
		}
	}
	return divisible, nonDivisible
}

// splitDivConst divides a split term by a positive constant.
func (c *CanonicalSimplifier) splitDivConst(lhs *SplitExpr, cval int64, mode DivMode) *SplitExpr {
	lhs = c.convertDivMode(lhs, mode).clone()

	// works for both floordiv and truncdiv
	if lhs.Scale%cval == 0 {
		lhs.Scale /= cval
		return lhs
	}
	if cval%lhs.Scale == 0 {
		scaledCval := cval / lhs.Scale
		if lhs.UpperFactor == ir.PosInf || lhs.UpperFactor%(lhs.LowerFactor*scaledCval) == 0 {
			// directly fold division
			lhs.Scale = 1
			lhs.LowerFactor *= scaledCval
			lhs.verify()
			return lhs
		} else if lhs.UpperFactor <= lhs.LowerFactor*scaledCval {
			// (x % c1) / c2 => 0 when c2 >= c1
			return c.toSplitExpr(ir.ConstScalar(lhs.Dtype, 0))
		} else {
			// move the modular bound into the index
			lhs.Index = modImpl(lhs.Index, ir.ConstScalar(lhs.Dtype, lhs.UpperFactor), mode)
			lhs.UpperFactor = ir.PosInf
			lhs.Scale = 1
			lhs.LowerFactor *= scaledCval
			lhs.verify()
			return lhs
		}
	}
	// fall back to a fresh split over the normalized value
	lhs = c.toSplitExpr(c.normalizeExpr(lhs)).clone()
	lhs.LowerFactor *= cval
	lhs.DivMode = mode
	return lhs
}

// splitModConst takes a split term modulo a positive constant.
func (c *CanonicalSimplifier) splitModConst(lhs *SplitExpr, cval int64, mode DivMode) *SplitExpr {
	lhs = c.convertDivMode(lhs, mode).clone()

	if lhs.Scale%cval == 0 {
		lhs.Scale = 0
		return lhs
	}
	if cval%lhs.Scale == 0 {
		// (index % upper / lower * scale) % cval, with cval = scaled*scale:
		//   by (x * c1) % (c2 * c1) => (x % c2) * c1 and
		//   (x / c1) % c2 => (x % (c1 * c2)) / c1
		// = (index % upper % new_upper) / lower * scale
		scaledCval := cval / lhs.Scale
		newUpperFactor := lhs.LowerFactor * scaledCval
		if lhs.UpperFactor == ir.PosInf || lhs.UpperFactor%newUpperFactor == 0 {
			if newUpperFactor < lhs.UpperFactor && lhs.UpperFactor != ir.PosInf {
				// the strictly smaller modulus may expose more index
				// simplification; recurse on the refined mod
				updated := c.toSplitExpr(c.MutateExpr(
					modImpl(lhs.Index, ir.ConstScalar(lhs.Dtype, newUpperFactor), mode)))
				if lhs.LowerFactor != 1 {
					ret := c.splitDivConst(updated, lhs.LowerFactor, mode).clone()
					ret.mulToSelf(lhs.Scale)
					return ret
				}
				updated = updated.clone()
				updated.mulToSelf(lhs.Scale)
				return updated
			}
			lhs.UpperFactor = newUpperFactor
			return lhs
		} else if newUpperFactor%lhs.UpperFactor == 0 {
			// (x % 2) % 4 => x % 2
			return lhs
		}
	}
	lhs = c.toSplitExpr(c.normalizeExpr(lhs)).clone()
	lhs.DivMode = mode
	lhs.UpperFactor = cval
	return lhs
}

func (c *CanonicalSimplifier) visitDivCanonical(op *ir.Div) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitDiv(op)
	}
	a := c.canonicalMutate(op.A)
	b := c.canonicalMutate(op.B)
	if res, ok := tryConstFoldCanonical(a, b, ir.TryConstFoldDiv); ok {
		return res
	}
	if cimm, ok := b.(*ir.IntImm); ok && cimm.Value > 0 {
		cval := cimm.Value
		if cval == 1 {
			return a
		}
		if psum, ok := a.(*SumExpr); ok {
			lhs, extra := separateDivisibleParts(psum, cval)
			if extra.isZero() {
				lhs.divideBy(cval)
				return lhs
			}
			// trunc mode needs both parts non-negative
			if c.ana.CanProveGreaterEqual(lhs.normalize(), 0) &&
				c.ana.CanProveGreaterEqual(extra.normalize(), 0) {
				lhs.divideBy(cval)
				temp := c.normalizeExpr(extra)
				if pconst, ok := temp.(*ir.IntImm); ok {
					lhs.addConst(pconst.Value / cval)
				} else {
					// 0 <= extra < cval eliminates the extra entirely
					if c.tryCompareConst(temp, cval) != CmpLT {
						lhs.addSplit(c.splitDivConst(c.toSplitExpr(temp), cval, TruncDiv), 1)
					}
				}
				return lhs
			}
		} else {
			// a >= 0 and a < cval gives 0
			cbound := c.ana.ConstIntBound.Query(c.normalizeExpr(a))
			if cbound.Min >= 0 && cbound.Max < cval {
				return ir.ConstScalar(a.Type(), 0)
			}
		}
		return c.splitDivConst(c.toSplitExpr(a), cval, TruncDiv)
	}
	a = c.normalizeExpr(a)
	b = c.normalizeExpr(b)
	if newA, newB, ok := prodDivSimplify(a, b); ok {
		return ir.OpTruncDiv(newA, newB)
	}
	if a == op.A && b == op.B {
		return op
	}
	return &ir.Div{Dtype: a.Type(), A: a, B: b}
}

func (c *CanonicalSimplifier) visitFloorDivCanonical(op *ir.FloorDiv) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitFloorDiv(op)
	}
	a := c.canonicalMutate(op.A)
	b := c.canonicalMutate(op.B)
	if res, ok := tryConstFoldCanonical(a, b, ir.TryConstFoldFloorDiv); ok {
		return res
	}
	if cimm, ok := b.(*ir.IntImm); ok && cimm.Value > 0 {
		cval := cimm.Value
		if cval == 1 {
			return a
		}
		if psum, ok := a.(*SumExpr); ok {
			lhs, extra := separateDivisibleParts(psum, cval)
			if extra.isZero() {
				lhs.divideBy(cval)
				return lhs
			}
			lhs.divideBy(cval)
			temp := c.normalizeExpr(extra)
			if pconst, ok := temp.(*ir.IntImm); ok {
				lhs.addConst(ir.FloorDiv64(pconst.Value, cval))
			} else {
				// 0 <= extra < cval eliminates the extra entirely
				if !(c.tryCompareConst(temp, cval) == CmpLT && c.ana.CanProveGreaterEqual(temp, 0)) {
					lhs.addSplit(c.splitDivConst(c.toSplitExpr(temp), cval, FloorDiv), 1)
				}
			}
			return lhs
		}
		cbound := c.ana.ConstIntBound.Query(c.normalizeExpr(a))
		if cbound.Min >= 0 && cbound.Max < cval {
			return ir.ConstScalar(a.Type(), 0)
		}
		return c.splitDivConst(c.toSplitExpr(a), cval, FloorDiv)
	}
	a = c.normalizeExpr(a)
	b = c.normalizeExpr(b)
	if newA, newB, ok := prodDivSimplify(a, b); ok {
		return ir.OpFloorDiv(newA, newB)
	}
	if a == op.A && b == op.B {
		return op
	}
	return &ir.FloorDiv{Dtype: a.Type(), A: a, B: b}
}

func (c *CanonicalSimplifier) visitModCanonical(op *ir.Mod) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitMod(op)
	}
	a := c.canonicalMutate(op.A)
	b := c.canonicalMutate(op.B)
	if res, ok := tryConstFoldCanonical(a, b, ir.TryConstFoldMod); ok {
		return res
	}
	if cimm, ok := b.(*ir.IntImm); ok && cimm.Value > 0 {
		cval := cimm.Value
		if psum, ok := a.(*SumExpr); ok {
			lhs, extra := separateDivisibleParts(psum, cval)
			if extra.isZero() {
				return ir.ConstScalar(a.Type(), 0)
			}
			if c.ana.CanProveGreaterEqual(lhs.normalize(), 0) &&
				c.ana.CanProveGreaterEqual(extra.normalize(), 0) {
				temp := c.normalizeExpr(extra)
				if _, ok := temp.(*ir.IntImm); ok {
					return ir.OpTruncMod(temp, cimm)
				}
				// temp < cval and temp >= 0 removes the mod
				if c.tryCompareConst(temp, cval) == CmpLT {
					return temp
				}
				// continue with only the non-divisible part
				a = extra
				psum = extra
			}
			// simplify the offset constant: (x - 5) % 3 => (x - 2) % 3
			// when x - 5 >= 0
			cbound := c.ana.ConstIntBound.Query(c.normalizeExpr(a))
			newBase := psum.Base % cval
			if cbound.Min >= 0 && cbound.Min-psum.Base+newBase >= 0 {
				sumExpr := psum.clone()
				sumExpr.Base = newBase
				return c.splitModConst(c.toSplitExpr(sumExpr), cval, TruncDiv)
			}
		} else {
			// a >= 0 and a < cval keeps a unchanged
			cbound := c.ana.ConstIntBound.Query(c.normalizeExpr(a))
			if cbound.Min >= 0 && cbound.Max < cval {
				return a
			}
		}
		return c.splitModConst(c.toSplitExpr(a), cval, TruncDiv)
	}
	a = c.normalizeExpr(a)
	b = c.normalizeExpr(b)
	if newA, newB, scale, ok := prodDivSimplifyScale(a, b); ok {
		return ir.OpMul(ir.OpTruncMod(newA, newB), scale)
	}
	if a == op.A && b == op.B {
		return op
	}
	return &ir.Mod{Dtype: a.Type(), A: a, B: b}
}

func (c *CanonicalSimplifier) visitFloorModCanonical(op *ir.FloorMod) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitFloorMod(op)
	}
	a := c.canonicalMutate(op.A)
	b := c.canonicalMutate(op.B)
	if res, ok := tryConstFoldCanonical(a, b, ir.TryConstFoldFloorMod); ok {
		return res
	}
	if cimm, ok := b.(*ir.IntImm); ok && cimm.Value > 0 {
		cval := cimm.Value
		if psum, ok := a.(*SumExpr); ok {
			_, extra := separateDivisibleParts(psum, cval)
			temp := c.normalizeExpr(extra)
			if _, ok := temp.(*ir.IntImm); ok {
				return ir.OpFloorMod(temp, cimm)
			}
			if c.tryCompareConst(temp, cval) == CmpLT && c.ana.CanProveGreaterEqual(temp, 0) {
				return temp
			}
			// floormod(x - 5, 3) => floormod(x + 1, 3)
			sumExpr := extra.clone()
			sumExpr.Base = ir.FloorMod64(extra.Base, cval)
			return c.splitModConst(c.toSplitExpr(sumExpr), cval, FloorDiv)
		}
		cbound := c.ana.ConstIntBound.Query(c.normalizeExpr(a))
		if cbound.Min >= 0 && cbound.Max < cval {
			return a
		}
		return c.splitModConst(c.toSplitExpr(a), cval, FloorDiv)
	}
	a = c.normalizeExpr(a)
	b = c.normalizeExpr(b)
	if newA, newB, scale, ok := prodDivSimplifyScale(a, b); ok {
		return ir.OpMul(ir.OpFloorMod(newA, newB), scale)
	}
	if a == op.A && b == op.B {
		return op
	}
	return &ir.FloorMod{Dtype: a.Type(), A: a, B: b}
}

func (c *CanonicalSimplifier) visitCastCanonical(op *ir.Cast) ir.Expr {
	if !isIndexType(op.Dtype) {
		return c.RewriteSimplifier.visitCast(op)
	}
	value := c.canonicalMutate(op.Value)
	if sum, ok := value.(*SumExpr); ok {
		if sum.canPushCastToChildren(op.Dtype, c.ana) {
			se := sum.clone()
			se.pushCastToChildren(op.Dtype)
			return se
		}
	}
	if split, ok := value.(*SplitExpr); ok {
		if split.canPushCastToChildren(op.Dtype, c.ana) {
			se := split.clone()
			se.pushCastToChildren(op.Dtype)
			return se
		}
	}
	value = c.normalizeExpr(value)
	if value == op.Value {
		return c.RewriteSimplifier.visitCast(op)
	}
	return c.RewriteSimplifier.visitCast(&ir.Cast{Dtype: op.Dtype, Value: value})
}

// visitLTCanonical rewrites a < b as a - b < 0 and divides both sides by
// the gcd of the leading scales when the trailing term provably stays
// within (-gcd, gcd).
func (c *CanonicalSimplifier) visitLTCanonical(op *ir.LT) ir.Expr {
	if !isIndexType(op.A.Type()) {
		return c.RewriteSimplifier.visitLT(op)
	}
	expr := c.canonicalMutate(ir.OpSub(op.A, op.B))
	if lhs, ok := expr.(*SumExpr); ok {
		gcd := lhs.Base
		hasNonOneScale := false
		for _, split := range lhs.Args {
			if split.Scale > 1 || split.Scale < -1 {
				hasNonOneScale = true
				gcd = ir.ZeroAwareGCD(gcd, abs64(split.Scale))
			}
		}
		if !hasNonOneScale || gcd <= 1 {
			return c.RewriteSimplifier.visitLT(op)
		}
		divisible, extra := separateDivisibleParts(lhs, gcd)
		normalExtra := extra.normalize()
		zero := ir.ConstScalar(lhs.Dtype, 0)
		gcdImm := ir.ConstScalar(lhs.Dtype, gcd)
		if c.ana.CanProve(ir.OpLT(normalExtra, gcdImm), ProofDefault) &&
			c.ana.CanProve(ir.OpGT(normalExtra, ir.ConstScalar(lhs.Dtype, -gcd)), ProofDefault) {
			// -gcd < extra < gcd
			divisible.divideBy(gcd)
			return c.RewriteSimplifier.MutateExpr(ir.OpLT(divisible.normalize(), zero))
		}
		if len(extra.Args) == 1 && extra.Args[0].UpperFactor != ir.PosInf &&
			extra.Args[0].UpperFactor%(gcd*extra.Args[0].LowerFactor) == 0 {
			// extra is y % m with m divisible by gcd
			divisible.divideBy(gcd)
			split := extra.Args[0]
			lowerFactor := gcd * split.LowerFactor
			extraExpr := ir.OpFloorMod(
				ir.OpFloorDiv(split.Index, ir.ConstScalar(lhs.Dtype, lowerFactor)),
				ir.ConstScalar(lhs.Dtype, split.UpperFactor/lowerFactor))
			return c.RewriteSimplifier.MutateExpr(
				ir.OpLT(ir.OpAdd(divisible.normalize(), extraExpr), zero))
		}
	}
	return c.RewriteSimplifier.visitLT(op)
}

// prodDivSimplifyScale cancels shared symbolic factors between the two
// sides of a division or modulo, returning the reduced operands plus the
// eliminated common scale.
func prodDivSimplifyScale(lhs, rhs ir.Expr) (ir.Expr, ir.Expr, ir.Expr, bool) {
	// a constant rhs is covered by the other simplifiers
	if _, ok := rhs.(*ir.IntImm); ok {
		return nil, nil, nil, false
	}
	var lhsProds []ir.Expr
	newRHS := ir.Expr(ir.ConstScalar(rhs.Type(), 1))
	newCommonScale := ir.Expr(ir.ConstScalar(rhs.Type(), 1))
	lhsCScale, rhsCScale := int64(1), int64(1)
	numElimination := 0

	ir.UnpackMul(lhs, func(value ir.Expr) {
		if imm, ok := value.(*ir.IntImm); ok {
			lhsCScale *= imm.Value
		} else {
			lhsProds = append(lhsProds, value)
		}
	})
	ir.UnpackMul(rhs, func(value ir.Expr) {
		if imm, ok := value.(*ir.IntImm); ok {
			rhsCScale *= imm.Value
			return
		}
		for i, prod := range lhsProds {
			if prod != nil && ir.DeepEqual(value, prod) {
				lhsProds[i] = nil
				numElimination++
				newCommonScale = ir.OpMul(newCommonScale, value)
				return
			}
		}
		newRHS = ir.OpMul(newRHS, value)
	})
	cscaleGCD := ir.ZeroAwareGCD(lhsCScale, rhsCScale)
	if cscaleGCD != 0 {
		lhsCScale /= cscaleGCD
		rhsCScale /= cscaleGCD
	}
	if numElimination == 0 && cscaleGCD == 1 {
		return nil, nil, nil, false
	}
	newLHS := ir.Expr(ir.ConstScalar(lhs.Type(), 1))
	for _, prod := range lhsProds {
		if prod != nil {
			newLHS = ir.OpMul(newLHS, prod)
		}
	}
	newLHS = ir.OpMul(newLHS, ir.ConstScalar(lhs.Type(), lhsCScale))
	newRHS = ir.OpMul(newRHS, ir.ConstScalar(rhs.Type(), rhsCScale))
	commonScale := ir.OpMul(newCommonScale, ir.ConstScalar(rhs.Type(), cscaleGCD))
	return newLHS, newRHS, commonScale, true
}

// prodDivSimplify is the division form of the cancellation: the common
// scale divides out entirely.
func prodDivSimplify(lhs, rhs ir.Expr) (ir.Expr, ir.Expr, bool) {
	newLHS, newRHS, _, ok := prodDivSimplifyScale(lhs, rhs)
	return newLHS, newRHS, ok
}
