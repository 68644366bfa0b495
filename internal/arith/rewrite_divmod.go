package arith

import (
	"shiki/internal/errors"
	"shiki/internal/ir"
)

// Rewrite rules for the four division flavors. truncdiv/truncmod rules
// need non-negativity preconditions proved through the analyzer; the
// floordiv/floormod rules mostly do not.

func (s *RewriteSimplifier) visitDiv(op *ir.Div) ir.Expr {
	ret := s.mutateChildren(op)
	div, ok := ret.(*ir.Div)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldDiv(div.A, div.B); ok {
		return res
	}
	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	b1 := ir.NewPExpr()
	c1, c2, c3 := ir.NewPConst(), ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()

	// x / 2.0 => x * 0.5
	if fimm, ok := div.B.(*ir.FloatImm); ok {
		if !div.Dtype.IsFloat() {
			panic(errors.Typef("truncdiv with float immediate divisor on %s", div.Dtype))
		}
		return ir.OpMul(div.A, ir.NewFloatImm(fimm.Dtype, 1.0/fimm.Value))
	}

	if div.Dtype.Lanes != 1 {
		if s.match(ir.PDiv(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpTruncDiv(x.Value(), y.Value()), lanes.Value()))
		}
		// ramp / broadcast collapses when all lanes land in one quotient
		// bucket, detected via the modular set of the base
		if s.match(ir.PDiv(ir.PRamp(b1, c1, lanes), ir.PBroadcast(c2, lanes)), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			if c2val == 0 {
				panic(errors.ValueCode(errors.ErrorDivideByZero, "division by zero in vector division"))
			}
			if c1val%c2val == 0 {
				return s.rewrite(ir.OpRamp(
					ir.OpTruncDiv(b1.Value(), c2.Imm()),
					ir.ConstScalar(b1.Value().Type(), c1val/c2val), lanes.Value()))
			}
			if s.canProveGreaterEqual(b1.Value(), 0) {
				bmod := s.ana.ModularSet.Query(b1.Value())
				rampMin := bmod.Base / c2val
				rampMax := (bmod.Base + (lanes.Value()-1)*c1val) / c2val
				if bmod.Coeff%c2val == 0 && rampMin == rampMax {
					return s.rewrite(ir.OpBroadcast(
						ir.OpTruncDiv(b1.Value(), c2.Imm()), lanes.Value()))
				}
			}
		}
	}
	if isIndexType(div.Dtype) {
		// re-fold constants under truncation semantics
		if s.match(ir.PDiv(c1, c2), ret) {
			return s.rewrite(ir.ConstScalar(div.Dtype, c1.Value()/c2.Value()))
		}
		if s.matchIf(ir.PDiv(ir.PDiv(x, c1), c2), ret,
			func() bool { return c1.Value() > 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpTruncDiv(x.Value(),
				ir.ConstScalar(div.Dtype, c1.Value()*c2.Value())))
		}
		if s.matchIf(ir.PDiv(ir.PAdd(ir.PDiv(x, c1), c2), c3), ret, func() bool {
			return c1.Value() > 0 && c2.Value() >= 0 && c3.Value() > 0 &&
				s.canProveGreaterEqual(x.Value(), 0)
		}) {
			return s.rewrite(ir.OpTruncDiv(
				ir.OpAdd(x.Value(), ir.ConstScalar(div.Dtype, c1.Value()*c2.Value())),
				ir.ConstScalar(div.Dtype, c1.Value()*c3.Value())))
		}
		if s.match(ir.PDiv(ir.PMul(x, c1), c2), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			if c1val > 0 && c2val > 0 {
				if c1val%c2val == 0 {
					return s.rewrite(ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, c1val/c2val)))
				}
				if c2val%c1val == 0 {
					return s.rewrite(ir.OpTruncDiv(x.Value(), ir.ConstScalar(div.Dtype, c2val/c1val)))
				}
			}
		}
		if s.match(ir.PDiv(x, x), ret) {
			return s.rewrite(oneOf(x.Value()))
		}
		if s.match(ir.POneOf(ir.PDiv(ir.PMul(x, c1), x), ir.PDiv(ir.PMul(c1, x), x)), ret) {
			return s.rewrite(c1.Imm())
		}
		// 2-operand rules with sign preconditions
		if s.matchIf(ir.PDiv(ir.PAdd(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c1.Value() >= 0 && c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0) && s.canProveGreaterEqual(y.Value(), 0)
		}) {
			return s.rewrite(ir.OpAdd(
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, c1.Value()/c2.Value())),
				ir.OpTruncDiv(y.Value(), c2.Imm())))
		}
		if s.matchIf(ir.PDiv(ir.PMin(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c1.Value() >= 0 && c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0) && s.canProveGreaterEqual(y.Value(), 0)
		}) {
			return s.rewrite(ir.OpMin(
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, c1.Value()/c2.Value())),
				ir.OpTruncDiv(y.Value(), c2.Imm())))
		}
		if s.matchIf(ir.PDiv(ir.PMax(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c1.Value() >= 0 && c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0) && s.canProveGreaterEqual(y.Value(), 0)
		}) {
			return s.rewrite(ir.OpMax(
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, c1.Value()/c2.Value())),
				ir.OpTruncDiv(y.Value(), c2.Imm())))
		}
		if s.matchIf(ir.PDiv(ir.PAdd(y, ir.PMul(x, c1)), c2), ret, func() bool {
			return c1.Value() >= 0 && c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0) && s.canProveGreaterEqual(y.Value(), 0)
		}) {
			return s.rewrite(ir.OpAdd(
				ir.OpTruncDiv(y.Value(), c2.Imm()),
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, c1.Value()/c2.Value()))))
		}
		// 3-operand rules
		if s.matchIf(ir.PDiv(ir.PAdd(ir.PAdd(ir.PMul(x, c1), y), z), c2), ret, func() bool {
			return c1.Value() >= 0 && c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0) &&
				s.canProveGreaterEqual(ir.OpAdd(y.Value(), z.Value()), 0)
		}) {
			return s.rewrite(ir.OpAdd(
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, c1.Value()/c2.Value())),
				ir.OpTruncDiv(ir.OpAdd(y.Value(), z.Value()), c2.Imm())))
		}
		if s.matchIf(ir.PDiv(ir.PAdd(x, c1), c2), ret, func() bool {
			return c1.Value() > 0 && c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0)
		}) {
			return s.rewrite(ir.OpAdd(
				ir.OpTruncDiv(x.Value(), c2.Imm()),
				ir.ConstScalar(div.Dtype, c1.Value()/c2.Value())))
		}
		if s.matchIf(ir.POneOf(ir.PDiv(ir.PAdd(x, y), x), ir.PDiv(ir.PAdd(y, x), x)), ret, func() bool {
			return s.canProveGreaterEqual(x.Value(), 0) && s.canProveGreaterEqual(y.Value(), 0)
		}) {
			return s.rewrite(ir.OpAdd(ir.OpTruncDiv(y.Value(), x.Value()), oneOf(x.Value())))
		}
		if s.matchIf(ir.POneOf(ir.PDiv(ir.PMul(x, y), y), ir.PDiv(ir.PMul(y, x), y)), ret, func() bool {
			return s.canProveGreaterEqual(x.Value(), 0) && s.canProveGreaterEqual(y.Value(), 0)
		}) {
			return s.rewrite(x.Value())
		}
		if s.matchIf(ir.POneOf(
			ir.PDiv(ir.PAdd(ir.PMul(x, z), y), z),
			ir.PDiv(ir.PAdd(ir.PMul(z, x), y), z),
		), ret, func() bool {
			return s.canProveGreaterEqual(x.Value(), 0) &&
				s.canProveGreaterEqual(y.Value(), 0) && s.canProveGreaterEqual(z.Value(), 0)
		}) {
			return s.rewrite(ir.OpAdd(x.Value(), ir.OpTruncDiv(y.Value(), z.Value())))
		}
		if s.matchIf(ir.POneOf(
			ir.PDiv(ir.PAdd(y, ir.PMul(x, z)), z),
			ir.PDiv(ir.PAdd(y, ir.PMul(z, x)), z),
		), ret, func() bool {
			return s.canProveGreaterEqual(x.Value(), 0) &&
				s.canProveGreaterEqual(y.Value(), 0) && s.canProveGreaterEqual(z.Value(), 0)
		}) {
			return s.rewrite(ir.OpAdd(ir.OpTruncDiv(y.Value(), z.Value()), x.Value()))
		}
	}
	return ret
}

func (s *RewriteSimplifier) visitMod(op *ir.Mod) ir.Expr {
	ret := s.mutateChildren(op)
	mod, ok := ret.(*ir.Mod)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldMod(mod.A, mod.B); ok {
		return res
	}
	x, y := ir.NewPExpr(), ir.NewPExpr()
	b1 := ir.NewPExpr()
	c1, c2 := ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()

	if mod.Dtype.Lanes != 1 {
		if s.match(ir.PMod(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpTruncMod(x.Value(), y.Value()), lanes.Value()))
		}
		if s.match(ir.PMod(ir.PRamp(b1, c1, lanes), ir.PBroadcast(c2, lanes)), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			if c2val == 0 {
				panic(errors.ValueCode(errors.ErrorDivideByZero, "modulo by zero in vector modulo"))
			}
			if c1val%c2val == 0 {
				return s.rewrite(ir.OpBroadcast(
					ir.OpTruncMod(b1.Value(), c2.Imm()), lanes.Value()))
			}
			if s.canProveGreaterEqual(b1.Value(), 0) {
				bmod := s.ana.ModularSet.Query(b1.Value())
				rampMin := bmod.Base / c2val
				rampMax := (bmod.Base + (lanes.Value()-1)*c1val) / c2val
				if bmod.Coeff%c2val == 0 {
					base := ir.ConstScalar(b1.Value().Type(), bmod.Base%c2val)
					if rampMin == rampMax {
						return s.rewrite(ir.OpRamp(base, c1.Imm(), lanes.Value()))
					}
					return s.rewrite(ir.OpTruncMod(
						ir.OpRamp(base, c1.Imm(), lanes.Value()),
						ir.OpBroadcast(c2.Imm(), lanes.Value())))
				}
			}
		}
	}
	if isIndexType(mod.Dtype) {
		if s.matchIf(ir.PMod(ir.PMul(x, c1), c2), ret, func() bool {
			return c2.Value() != 0 && c1.Value()%c2.Value() == 0
		}) {
			return s.rewrite(zeroOf(x.Value()))
		}
		if s.matchIf(ir.PMod(ir.PAdd(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(ir.OpMul(x.Value(), c1.Imm()), 0) &&
				s.canProveGreaterEqual(y.Value(), 0)
		}) {
			return s.rewrite(ir.OpTruncMod(y.Value(), c2.Imm()))
		}
		if s.matchIf(ir.PMod(ir.PAdd(x, c1), c2), ret, func() bool {
			return c2.Value() > 0 && c1.Value() >= 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0)
		}) {
			return s.rewrite(ir.OpTruncMod(x.Value(), c2.Imm()))
		}
		if s.matchIf(ir.PMod(ir.PAdd(x, ir.PMul(y, c1)), c2), ret, func() bool {
			return c2.Value() > 0 && c1.Value()%c2.Value() == 0 &&
				s.canProveGreaterEqual(x.Value(), 0) &&
				s.canProveGreaterEqual(ir.OpMul(y.Value(), c1.Imm()), 0)
		}) {
			return s.rewrite(ir.OpTruncMod(x.Value(), c2.Imm()))
		}
		// x % c => x % (-c) canonicalization is truncation-specific
		if s.matchIf(ir.PMod(x, c1), ret, func() bool { return c1.Value() < 0 }) {
			return s.rewriteRec(ir.OpTruncMod(x.Value(),
				ir.ConstScalar(mod.Dtype, -c1.Value())))
		}
		// modular-set fallback
		if s.match(ir.PMod(x, c1), ret) {
			m := s.ana.ModularSet.Query(x.Value())
			c1val := c1.Value()
			if c1val > 0 && m.Coeff%c1val == 0 && s.canProveGreaterEqual(x.Value(), 0) {
				return s.rewrite(ir.ConstScalar(mod.Dtype, m.Base%c1val))
			}
		}
	}
	return ret
}

func (s *RewriteSimplifier) visitFloorDiv(op *ir.FloorDiv) ir.Expr {
	ret := s.mutateChildren(op)
	div, ok := ret.(*ir.FloorDiv)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldFloorDiv(div.A, div.B); ok {
		return res
	}
	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	b1 := ir.NewPExpr()
	c1, c2, c3 := ir.NewPConst(), ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()

	if div.Dtype.Lanes != 1 {
		if s.match(ir.PFloorDiv(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpFloorDiv(x.Value(), y.Value()), lanes.Value()))
		}
		if s.match(ir.PFloorDiv(ir.PRamp(b1, c1, lanes), ir.PBroadcast(c2, lanes)), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			if c2val == 0 {
				panic(errors.ValueCode(errors.ErrorDivideByZero, "division by zero in vector division"))
			}
			if c1val%c2val == 0 {
				return s.rewrite(ir.OpRamp(
					ir.OpFloorDiv(b1.Value(), c2.Imm()),
					ir.ConstScalar(b1.Value().Type(), ir.FloorDiv64(c1val, c2val)), lanes.Value()))
			}
			bmod := s.ana.ModularSet.Query(b1.Value())
			rampMin := ir.FloorDiv64(bmod.Base, c2val)
			rampMax := ir.FloorDiv64(bmod.Base+(lanes.Value()-1)*c1val, c2val)
			if rampMin == rampMax {
				if bmod.Coeff%c2val == 0 {
					return s.rewrite(ir.OpBroadcast(
						ir.OpFloorDiv(b1.Value(), c2.Imm()), lanes.Value()))
				}
				if bmod.Coeff != 0 && c2val%bmod.Coeff == 0 &&
					bmod.Base+(lanes.Value()-1)*c1val < bmod.Coeff {
					return s.rewrite(ir.OpBroadcast(
						ir.OpFloorDiv(b1.Value(), c2.Imm()), lanes.Value()))
				}
			}
		}
	}
	if isIndexType(div.Dtype) {
		if s.matchIf(ir.PFloorDiv(ir.PFloorDiv(x, c1), c2), ret,
			func() bool { return c1.Value() > 0 && c2.Value() > 0 }) {
			return s.rewrite(ir.OpFloorDiv(x.Value(),
				ir.ConstScalar(div.Dtype, c1.Value()*c2.Value())))
		}
		if s.matchIf(ir.PFloorDiv(ir.PAdd(ir.PFloorDiv(x, c1), c2), c3), ret,
			func() bool { return c1.Value() > 0 && c3.Value() > 0 }) {
			return s.rewrite(ir.OpFloorDiv(
				ir.OpAdd(x.Value(), ir.ConstScalar(div.Dtype, c1.Value()*c2.Value())),
				ir.ConstScalar(div.Dtype, c1.Value()*c3.Value())))
		}
		// residue elimination on (x*c1 + y) // c2 shapes
		if s.match(ir.POneOf(
			ir.PFloorDiv(ir.PAdd(ir.PMul(x, c1), y), c2),
			ir.PFloorDiv(ir.PAdd(y, ir.PMul(x, c1)), c2),
		), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			yval := y.Value()
			if c2val != 0 {
				residue := ir.OpFloorDiv(
					ir.OpAdd(
						ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, ir.FloorMod64(c1val, c2val))),
						ir.OpFloorMod(yval, c2.Imm())),
					c2.Imm())
				yDiv := ir.OpFloorDiv(yval, c2.Imm())
				if s.canProveEqual(yDiv, 0) {
					yDiv = zeroOf(yval)
				}
				bound := s.ana.ConstIntBound.Query(residue)
				if bound.Max == bound.Min {
					return s.rewrite(ir.OpAdd(
						ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, ir.FloorDiv64(c1val, c2val))),
						ir.OpAdd(yDiv, ir.ConstScalar(div.Dtype, bound.Max))))
				}
				if c1val > 0 && c2val > 0 && c2val%c1val == 0 &&
					s.canProveLess(ir.OpFloorMod(yval, c2.Imm()), c1val) {
					// (x*c1 + y) // c2 => x // (c2//c1) + y // c2 when the
					// residue cannot reach the next quotient bucket
					return s.rewrite(ir.OpAdd(
						ir.OpFloorDiv(x.Value(), ir.ConstScalar(div.Dtype, c2val/c1val)), yDiv))
				}
			}
		}
		if s.match(ir.PFloorDiv(x, x), ret) {
			return s.rewrite(oneOf(x.Value()))
		}
		if s.match(ir.POneOf(
			ir.PFloorDiv(ir.PMul(x, c1), x), ir.PFloorDiv(ir.PMul(c1, x), x),
		), ret) {
			return s.rewrite(c1.Imm())
		}
		if s.match(ir.PFloorDiv(ir.PAdd(ir.PFloorMod(x, ir.NewPImm(2)), ir.NewPImm(1)), ir.NewPImm(2)), ret) {
			return s.rewrite(ir.OpFloorMod(x.Value(), ir.ConstScalar(div.Dtype, 2)))
		}
		if s.matchIf(ir.PFloorDiv(ir.PMin(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c2.Value() > 0 && c1.Value()%c2.Value() == 0
		}) {
			return s.rewrite(ir.OpMin(
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, ir.FloorDiv64(c1.Value(), c2.Value()))),
				ir.OpFloorDiv(y.Value(), c2.Imm())))
		}
		if s.matchIf(ir.PFloorDiv(ir.PMax(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c2.Value() > 0 && c1.Value()%c2.Value() == 0
		}) {
			return s.rewrite(ir.OpMax(
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, ir.FloorDiv64(c1.Value(), c2.Value()))),
				ir.OpFloorDiv(y.Value(), c2.Imm())))
		}
		if s.matchIf(ir.PFloorDiv(ir.PAdd(ir.PAdd(ir.PMul(x, c1), y), z), c2), ret, func() bool {
			return c2.Value() > 0 && c1.Value()%c2.Value() == 0
		}) {
			return s.rewrite(ir.OpAdd(
				ir.OpMul(x.Value(), ir.ConstScalar(div.Dtype, ir.FloorDiv64(c1.Value(), c2.Value()))),
				ir.OpFloorDiv(ir.OpAdd(y.Value(), z.Value()), c2.Imm())))
		}
		if s.matchIf(ir.PFloorDiv(ir.PAdd(x, c1), c2), ret, func() bool {
			return c2.Value() > 0 && c1.Value()%c2.Value() == 0
		}) {
			return s.rewrite(ir.OpAdd(
				ir.OpFloorDiv(x.Value(), c2.Imm()),
				ir.ConstScalar(div.Dtype, c1.Value()/c2.Value())))
		}
		if s.matchIf(ir.PFloorDiv(ir.PMul(x, c1), ir.PMul(x, c2)), ret,
			func() bool { return c2.Value() > 0 }) {
			return s.rewrite(ir.ConstScalar(div.Dtype, ir.FloorDiv64(c1.Value(), c2.Value())))
		}
		if s.matchIf(ir.POneOf(
			ir.PFloorDiv(ir.PAdd(x, y), x), ir.PFloorDiv(ir.PAdd(y, x), x),
		), ret, func() bool { return s.canProveGreaterEqual(x.Value(), 0) }) {
			return s.rewrite(ir.OpAdd(ir.OpFloorDiv(y.Value(), x.Value()), oneOf(x.Value())))
		}
		if s.matchIf(ir.POneOf(
			ir.PFloorDiv(ir.PMul(x, y), y), ir.PFloorDiv(ir.PMul(y, x), y),
		), ret, func() bool { return s.canProveGreaterEqual(y.Value(), 0) }) {
			return s.rewrite(x.Value())
		}
		if s.matchIf(ir.POneOf(
			ir.PFloorDiv(ir.PAdd(ir.PMul(x, z), y), z),
			ir.PFloorDiv(ir.PAdd(ir.PMul(z, x), y), z),
		), ret, func() bool { return s.canProveGreaterEqual(z.Value(), 0) }) {
			return s.rewrite(ir.OpAdd(x.Value(), ir.OpFloorDiv(y.Value(), z.Value())))
		}
		if s.matchIf(ir.POneOf(
			ir.PFloorDiv(ir.PAdd(y, ir.PMul(x, z)), z),
			ir.PFloorDiv(ir.PAdd(y, ir.PMul(z, x)), z),
		), ret, func() bool { return s.canProveGreaterEqual(z.Value(), 0) }) {
			return s.rewrite(ir.OpAdd(ir.OpFloorDiv(y.Value(), z.Value()), x.Value()))
		}
		if s.matchIf(ir.PFloorDiv(ir.PSub(x, ir.PFloorMod(x, c1)), c1), ret,
			func() bool { return c1.Value() != 0 }) {
			return s.rewrite(ir.OpFloorDiv(x.Value(), c1.Imm()))
		}
	}
	return ret
}

func (s *RewriteSimplifier) visitFloorMod(op *ir.FloorMod) ir.Expr {
	ret := s.mutateChildren(op)
	mod, ok := ret.(*ir.FloorMod)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldFloorMod(mod.A, mod.B); ok {
		return res
	}
	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	b1 := ir.NewPExpr()
	c1, c2 := ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()

	if mod.Dtype.Lanes != 1 {
		if s.match(ir.PFloorMod(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpFloorMod(x.Value(), y.Value()), lanes.Value()))
		}
		if s.match(ir.PFloorMod(ir.PRamp(b1, c1, lanes), ir.PBroadcast(c2, lanes)), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			if c2val == 0 {
				panic(errors.ValueCode(errors.ErrorDivideByZero, "modulo by zero in vector modulo"))
			}
			if c1val%c2val == 0 {
				return s.rewrite(ir.OpBroadcast(
					ir.OpFloorMod(b1.Value(), c2.Imm()), lanes.Value()))
			}
			bmod := s.ana.ModularSet.Query(b1.Value())
			rampMin := ir.FloorDiv64(bmod.Base, c2val)
			rampMax := ir.FloorDiv64(bmod.Base+(lanes.Value()-1)*c1val, c2val)
			if rampMin == rampMax {
				if bmod.Coeff%c2val == 0 {
					return s.rewrite(ir.OpRamp(
						ir.ConstScalar(b1.Value().Type(), ir.FloorMod64(bmod.Base, c2val)),
						c1.Imm(), lanes.Value()))
				}
				if bmod.Coeff != 0 && c2val%bmod.Coeff == 0 &&
					bmod.Base+(lanes.Value()-1)*c1val < bmod.Coeff {
					return s.rewrite(ir.OpRamp(
						ir.OpFloorMod(b1.Value(), c2.Imm()), c1.Imm(), lanes.Value()))
				}
			}
			if bmod.Coeff%c2val == 0 {
				return s.rewrite(ir.OpFloorMod(
					ir.OpRamp(ir.ConstScalar(b1.Value().Type(), ir.FloorMod64(bmod.Base, c2val)),
						c1.Imm(), lanes.Value()),
					ir.OpBroadcast(c2.Imm(), lanes.Value())))
			}
		}
	}
	if isIndexType(mod.Dtype) {
		if s.matchIf(ir.PFloorMod(ir.PAdd(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c1.Value() > 0 && c2.Value() > 0 && c2.Value()%c1.Value() == 0 &&
				s.canProveEqual(ir.OpFloorDiv(y.Value(), c1.Imm()), 0)
		}) {
			return s.rewrite(ir.OpAdd(
				ir.OpMul(ir.OpFloorMod(x.Value(),
					ir.ConstScalar(mod.Dtype, c2.Value()/c1.Value())), c1.Imm()),
				y.Value()))
		}
		if s.matchIf(ir.PFloorMod(ir.PAdd(ir.PMul(x, c1), y), c2), ret, func() bool {
			return c2.Value() > 0 && ir.FloorMod64(c1.Value(), c2.Value()) != c1.Value()
		}) {
			return s.rewrite(ir.OpFloorMod(
				ir.OpAdd(ir.OpMul(x.Value(),
					ir.ConstScalar(mod.Dtype, ir.FloorMod64(c1.Value(), c2.Value()))), y.Value()),
				c2.Imm()))
		}
		if s.matchIf(ir.PFloorMod(ir.PMul(x, c1), c2), ret, func() bool {
			return c2.Value() != 0 && ir.FloorMod64(c1.Value(), c2.Value()) != c1.Value()
		}) {
			return s.rewrite(ir.OpFloorMod(
				ir.OpMul(x.Value(),
					ir.ConstScalar(mod.Dtype, ir.FloorMod64(c1.Value(), c2.Value()))),
				c2.Imm()))
		}
		// (x + 5) % 2 => (x + 1) % 2, (x + 3) % 3 => x % 3
		if s.matchIf(ir.PFloorMod(ir.PAdd(x, c1), c2), ret, func() bool {
			return c2.Value() > 0 && (c1.Value() >= c2.Value() || c1.Value() < 0)
		}) {
			newC1 := ir.FloorMod64(c1.Value(), c2.Value())
			if newC1 == 0 {
				return s.rewrite(ir.OpFloorMod(x.Value(), c2.Imm()))
			}
			return s.rewrite(ir.OpFloorMod(
				ir.OpAdd(x.Value(), ir.ConstScalar(mod.Dtype, newC1)), c2.Imm()))
		}
		if s.matchIf(ir.PFloorMod(ir.PMul(x, c1), ir.PMul(x, c2)), ret,
			func() bool { return c2.Value() != 0 }) {
			return s.rewrite(ir.OpMul(x.Value(),
				ir.ConstScalar(mod.Dtype, ir.FloorMod64(c1.Value(), c2.Value()))))
		}
		if s.match(ir.POneOf(
			ir.PFloorMod(ir.PMul(x, y), y), ir.PFloorMod(ir.PMul(y, x), y),
		), ret) {
			return s.rewrite(zeroOf(x.Value()))
		}
		if s.matchIf(ir.POneOf(
			ir.PFloorMod(ir.PAdd(x, ir.PFloorMod(z, y)), y),
			ir.PFloorMod(ir.PAdd(ir.PFloorMod(z, y), x), y),
		), ret, func() bool {
			return s.canProveEqual(ir.OpFloorMod(ir.OpAdd(x.Value(), z.Value()), y.Value()), 0)
		}) {
			return s.rewrite(zeroOf(x.Value()))
		}
		if s.matchIf(ir.POneOf(
			ir.PFloorMod(ir.PSub(x, ir.PFloorMod(x, z)), y),
			ir.PFloorMod(ir.PSub(ir.PFloorMod(x, z), x), y),
		), ret, func() bool {
			return s.canProveEqual(ir.OpSub(y.Value(), z.Value()), 0) ||
				s.canProveEqual(ir.OpAdd(y.Value(), z.Value()), 0)
		}) {
			return s.rewrite(zeroOf(x.Value()))
		}
		if s.match(ir.PFloorMod(x, c1), ret) {
			c1val := c1.Value()
			if c1val > 0 {
				m := s.ana.ModularSet.Query(x.Value())
				if m.Coeff%c1val == 0 {
					return s.rewrite(ir.ConstScalar(mod.Dtype, ir.FloorMod64(m.Base, c1val)))
				}
				// no-op when x is already within range
				bound := s.ana.ConstIntBound.Query(x.Value())
				if bound.Min >= 0 && bound.Max < c1val {
					return s.rewrite(x.Value())
				}
			}
		}
	}
	return ret
}
