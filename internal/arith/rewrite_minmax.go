package arith

import "shiki/internal/ir"

// Rewrite rules for Min and Max: idempotence, interval-based collapse,
// constant comparison, absorption, distribution and scaling.

func (s *RewriteSimplifier) visitMin(op *ir.Min) ir.Expr {
	ret := s.mutateChildren(op)
	m, ok := ret.(*ir.Min)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldMin(m.A, m.B); ok {
		return res
	}
	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	s1, s2 := ir.NewPExpr(), ir.NewPExpr()
	c1, c2 := ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()

	if m.Dtype.Lanes != 1 {
		if s.match(ir.PMin(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpMin(x.Value(), y.Value()), lanes.Value()))
		}
		if s.match(ir.PMin(ir.PMin(x, ir.PBroadcast(y, lanes)), ir.PBroadcast(z, lanes)), ret) {
			return s.rewrite(ir.OpMin(x.Value(),
				ir.OpBroadcast(ir.OpMin(y.Value(), z.Value()), lanes.Value())))
		}
	}
	if isIndexType(m.Dtype) {
		if s.match(ir.PMin(x, x), ret) {
			return s.rewrite(x.Value())
		}
		// interval collapse when the ranges do not overlap
		aBound := s.ana.ConstIntBound.Query(m.A)
		bBound := s.ana.ConstIntBound.Query(m.B)
		if aBound.Max <= bBound.Min {
			return m.A
		}
		if bBound.Max <= aBound.Min {
			return m.B
		}

		// constant comparison
		if s.match(ir.PMin(ir.PAdd(x, c1), ir.PAdd(x, c2)), ret) {
			if c1.Value() < c2.Value() {
				return s.rewrite(ir.OpAdd(x.Value(), c1.Imm()))
			}
			return s.rewrite(ir.OpAdd(x.Value(), c2.Imm()))
		}
		if s.match(ir.POneOf(ir.PMin(ir.PAdd(x, c1), x), ir.PMin(x, ir.PAdd(x, c1))), ret) {
			if c1.Value() < 0 {
				return s.rewrite(ir.OpAdd(x.Value(), c1.Imm()))
			}
			return s.rewrite(x.Value())
		}
		if s.match(ir.PMin(ir.PSub(c1, x), ir.PSub(c2, x)), ret) {
			if c1.Value() < c2.Value() {
				return s.rewrite(ir.OpSub(c1.Imm(), x.Value()))
			}
			return s.rewrite(ir.OpSub(c2.Imm(), x.Value()))
		}

		// DivMod rules: ceildiv(x, c2)*c2 is x rounded up, so the min is x
		if s.matchIf(ir.POneOf(
			ir.PMin(ir.PMul(ir.PDiv(ir.PAdd(x, c1), c2), c2), x),
			ir.PMin(x, ir.PMul(ir.PDiv(ir.PAdd(x, c1), c2), c2)),
			ir.PMin(ir.PMul(ir.PFloorDiv(ir.PAdd(x, c1), c2), c2), x),
			ir.PMin(x, ir.PMul(ir.PFloorDiv(ir.PAdd(x, c1), c2), c2)),
		), ret, func() bool {
			return c2.Value() > 0 && c1.Value()+1 == c2.Value()
		}) {
			return s.rewrite(x.Value())
		}
		if s.matchIf(ir.POneOf(
			ir.PMin(x, ir.PMul(ir.PFloorDiv(x, c2), c2)),
			ir.PMin(ir.PMul(ir.PFloorDiv(x, c2), c2), x),
		), ret, func() bool { return c2.Value() > 0 }) {
			return s.rewrite(ir.OpMul(ir.OpFloorDiv(x.Value(), c2.Imm()), c2.Imm()))
		}

		// absorption
		if s.match(ir.POneOf(
			ir.PMin(ir.PMax(x, y), ir.PMin(x, y)),
			ir.PMin(ir.PMax(x, y), ir.PMin(y, x)),
			ir.PMin(ir.PMin(x, y), ir.PMax(x, y)),
			ir.PMin(ir.PMin(x, y), ir.PMax(y, x)),
			ir.PMin(ir.PMin(x, y), x),
			ir.PMin(ir.PMin(x, y), y),
			ir.PMin(x, ir.PMin(x, y)),
			ir.PMin(y, ir.PMin(x, y)),
		), ret) {
			return s.rewrite(ir.OpMin(x.Value(), y.Value()))
		}
		if s.match(ir.POneOf(
			ir.PMin(ir.PMax(x, y), x),
			ir.PMin(ir.PMax(y, x), x),
			ir.PMin(x, ir.PMax(x, y)),
			ir.PMin(x, ir.PMax(y, x)),
		), ret) {
			return s.rewrite(x.Value())
		}
		if s.match(ir.PMin(ir.PMin(ir.PMin(x, y), z), y), ret) {
			return s.rewrite(ir.OpMin(ir.OpMin(x.Value(), y.Value()), z.Value()))
		}
		if s.match(ir.PMin(ir.PMin(ir.PMin(ir.PMin(x, y), z), s1), y), ret) {
			return s.rewrite(ir.OpMin(ir.OpMin(ir.OpMin(x.Value(), y.Value()), z.Value()), s1.Value()))
		}
		if s.match(ir.PMin(ir.PMin(ir.PMin(ir.PMin(ir.PMin(x, y), z), s1), s2), y), ret) {
			return s.rewrite(ir.OpMin(
				ir.OpMin(ir.OpMin(ir.OpMin(x.Value(), y.Value()), z.Value()), s1.Value()), s2.Value()))
		}
		if s.match(ir.POneOf(
			ir.PMin(ir.PMax(x, y), ir.PMax(x, z)),
			ir.PMin(ir.PMax(x, y), ir.PMax(z, x)),
			ir.PMin(ir.PMax(y, x), ir.PMax(x, z)),
			ir.PMin(ir.PMax(y, x), ir.PMax(z, x)),
		), ret) {
			return s.rewrite(ir.OpMax(ir.OpMin(y.Value(), z.Value()), x.Value()))
		}
		if s.match(ir.POneOf(
			ir.PMin(ir.PMin(x, y), ir.PMin(x, z)),
			ir.PMin(ir.PMin(x, y), ir.PMin(z, x)),
			ir.PMin(ir.PMin(y, x), ir.PMin(x, z)),
			ir.PMin(ir.PMin(y, x), ir.PMin(z, x)),
		), ret) {
			return s.rewrite(ir.OpMin(ir.OpMin(y.Value(), z.Value()), x.Value()))
		}
		// add distribution
		if s.match(ir.POneOf(
			ir.PMin(ir.PAdd(y, x), ir.PAdd(z, x)),
			ir.PMin(ir.PAdd(y, x), ir.PAdd(x, z)),
			ir.PMin(ir.PAdd(x, y), ir.PAdd(x, z)),
			ir.PMin(ir.PAdd(x, y), ir.PAdd(z, x)),
		), ret) {
			return s.rewrite(ir.OpAdd(ir.OpMin(y.Value(), z.Value()), x.Value()))
		}
		// sub distribution
		if s.match(ir.PMin(ir.PSub(y, x), ir.PSub(z, x)), ret) {
			return s.rewrite(ir.OpSub(ir.OpMin(y.Value(), z.Value()), x.Value()))
		}
		if s.match(ir.PMin(ir.PSub(x, y), ir.PSub(x, z)), ret) {
			return s.rewrite(ir.OpSub(x.Value(), ir.OpMax(y.Value(), z.Value())))
		}
		// constant folding
		if s.match(ir.PMin(ir.PMin(x, c1), c2), ret) {
			return s.rewrite(ir.OpMin(x.Value(),
				ir.ConstScalar(m.Dtype, min64(c1.Value(), c2.Value()))))
		}
		// scaling
		if s.match(ir.PMin(ir.PDiv(x, c1), ir.PDiv(y, c1)), ret) {
			if c1.Value() > 0 {
				return s.rewrite(ir.OpTruncDiv(ir.OpMin(x.Value(), y.Value()), c1.Imm()))
			}
			return s.rewrite(ir.OpTruncDiv(ir.OpMax(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PMin(ir.PFloorDiv(x, c1), ir.PFloorDiv(y, c1)), ret) {
			if c1.Value() > 0 {
				return s.rewrite(ir.OpFloorDiv(ir.OpMin(x.Value(), y.Value()), c1.Imm()))
			}
			return s.rewrite(ir.OpFloorDiv(ir.OpMax(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PMin(ir.PMul(x, c1), ir.PMul(y, c1)), ret) {
			if c1.Value() > 0 {
				return s.rewrite(ir.OpMul(ir.OpMin(x.Value(), y.Value()), c1.Imm()))
			}
			return s.rewrite(ir.OpMul(ir.OpMax(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PMin(ir.PMul(x, c1), c2), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			if c1val == 0 {
				if c2val < 0 {
					return s.rewrite(c2.Imm())
				}
				return s.rewrite(c1.Imm())
			}
			if c2val%c1val == 0 {
				if c1val > 0 {
					return s.rewrite(ir.OpMul(
						ir.OpMin(x.Value(), ir.ConstScalar(m.Dtype, c2val/c1val)), c1.Imm()))
				}
				return s.rewrite(ir.OpMul(
					ir.OpMax(x.Value(), ir.ConstScalar(m.Dtype, c2val/c1val)), c1.Imm()))
			}
		}
		// canonicalization
		if s.match(ir.PMin(ir.PMin(x, c1), y), ret) {
			return s.rewriteRec(ir.OpMin(ir.OpMin(x.Value(), y.Value()), c1.Imm()))
		}
		if s.matchIf(ir.PMin(ir.PSub(c1, x), c2), ret,
			func() bool { return c2.Value() != 0 }) {
			return s.rewriteRec(ir.OpSub(c1.Imm(),
				ir.OpMax(x.Value(), ir.ConstScalar(m.Dtype, c1.Value()-c2.Value()))))
		}
	}
	// condition rules
	if s.match(ir.PMin(ir.PSelect(x, y, z), ir.PSelect(x, s1, s2)), ret) {
		return s.rewrite(ir.OpSelect(x.Value(),
			ir.OpMin(y.Value(), s1.Value()), ir.OpMin(z.Value(), s2.Value())))
	}
	return ret
}

func (s *RewriteSimplifier) visitMax(op *ir.Max) ir.Expr {
	ret := s.mutateChildren(op)
	m, ok := ret.(*ir.Max)
	if !ok {
		return ret
	}
	if res, ok := ir.TryConstFoldMax(m.A, m.B); ok {
		return res
	}
	x, y, z := ir.NewPExpr(), ir.NewPExpr(), ir.NewPExpr()
	s1, s2 := ir.NewPExpr(), ir.NewPExpr()
	c1, c2 := ir.NewPConst(), ir.NewPConst()
	lanes := ir.NewPLanes()

	if m.Dtype.Lanes != 1 {
		if s.match(ir.PMax(ir.PBroadcast(x, lanes), ir.PBroadcast(y, lanes)), ret) {
			return s.rewrite(ir.OpBroadcast(ir.OpMax(x.Value(), y.Value()), lanes.Value()))
		}
		if s.match(ir.PMax(ir.PMax(x, ir.PBroadcast(y, lanes)), ir.PBroadcast(z, lanes)), ret) {
			return s.rewrite(ir.OpMax(x.Value(),
				ir.OpBroadcast(ir.OpMax(y.Value(), z.Value()), lanes.Value())))
		}
	}
	if isIndexType(m.Dtype) {
		if s.match(ir.PMax(x, x), ret) {
			return s.rewrite(x.Value())
		}
		aBound := s.ana.ConstIntBound.Query(m.A)
		bBound := s.ana.ConstIntBound.Query(m.B)
		if aBound.Min >= bBound.Max {
			return m.A
		}
		if bBound.Min >= aBound.Max {
			return m.B
		}

		// constant comparison
		if s.match(ir.PMax(ir.PAdd(x, c1), ir.PAdd(x, c2)), ret) {
			if c1.Value() > c2.Value() {
				return s.rewrite(ir.OpAdd(x.Value(), c1.Imm()))
			}
			return s.rewrite(ir.OpAdd(x.Value(), c2.Imm()))
		}
		if s.match(ir.POneOf(ir.PMax(ir.PAdd(x, c1), x), ir.PMax(x, ir.PAdd(x, c1))), ret) {
			if c1.Value() > 0 {
				return s.rewrite(ir.OpAdd(x.Value(), c1.Imm()))
			}
			return s.rewrite(x.Value())
		}
		if s.match(ir.PMax(ir.PSub(c1, x), ir.PSub(c2, x)), ret) {
			if c1.Value() > c2.Value() {
				return s.rewrite(ir.OpSub(c1.Imm(), x.Value()))
			}
			return s.rewrite(ir.OpSub(c2.Imm(), x.Value()))
		}

		// DivMod rules: rounding up
		if s.matchIf(ir.POneOf(
			ir.PMax(ir.PMul(ir.PDiv(ir.PAdd(x, c1), c2), c2), x),
			ir.PMax(x, ir.PMul(ir.PDiv(ir.PAdd(x, c1), c2), c2)),
		), ret, func() bool {
			return c2.Value() > 0 && c1.Value()+1 == c2.Value()
		}) {
			return s.rewrite(ir.OpMul(
				ir.OpTruncDiv(ir.OpAdd(x.Value(), c1.Imm()), c2.Imm()), c2.Imm()))
		}
		if s.matchIf(ir.POneOf(
			ir.PMax(ir.PMul(ir.PFloorDiv(ir.PAdd(x, c1), c2), c2), x),
			ir.PMax(x, ir.PMul(ir.PFloorDiv(ir.PAdd(x, c1), c2), c2)),
		), ret, func() bool {
			return c2.Value() > 0 && c1.Value()+1 == c2.Value()
		}) {
			return s.rewrite(ir.OpMul(
				ir.OpFloorDiv(ir.OpAdd(x.Value(), c1.Imm()), c2.Imm()), c2.Imm()))
		}
		if s.matchIf(ir.POneOf(
			ir.PMax(ir.PMul(ir.PFloorDiv(x, c2), c2), x),
			ir.PMax(x, ir.PMul(ir.PFloorDiv(x, c2), c2)),
		), ret, func() bool { return c2.Value() > 0 }) {
			return s.rewrite(x.Value())
		}

		// absorption
		if s.match(ir.POneOf(
			ir.PMax(ir.PMin(x, y), x),
			ir.PMax(ir.PMin(y, x), x),
			ir.PMax(x, ir.PMin(x, y)),
			ir.PMax(x, ir.PMin(y, x)),
		), ret) {
			return s.rewrite(x.Value())
		}
		if s.match(ir.POneOf(
			ir.PMax(ir.PMin(x, y), ir.PMax(x, y)),
			ir.PMax(ir.PMin(x, y), ir.PMax(y, x)),
			ir.PMax(ir.PMax(x, y), ir.PMin(x, y)),
			ir.PMax(ir.PMax(x, y), ir.PMin(y, x)),
			ir.PMax(ir.PMax(x, y), x),
			ir.PMax(ir.PMax(x, y), y),
			ir.PMax(x, ir.PMax(x, y)),
			ir.PMax(y, ir.PMax(x, y)),
		), ret) {
			return s.rewrite(ir.OpMax(x.Value(), y.Value()))
		}
		if s.match(ir.PMax(ir.PMax(ir.PMax(x, y), z), y), ret) {
			return s.rewrite(ir.OpMax(ir.OpMax(x.Value(), y.Value()), z.Value()))
		}
		if s.match(ir.PMax(ir.PMax(ir.PMax(ir.PMax(x, y), z), s1), y), ret) {
			return s.rewrite(ir.OpMax(ir.OpMax(ir.OpMax(x.Value(), y.Value()), z.Value()), s1.Value()))
		}
		if s.match(ir.PMax(ir.PMax(ir.PMax(ir.PMax(ir.PMax(x, y), z), s1), s2), y), ret) {
			return s.rewrite(ir.OpMax(
				ir.OpMax(ir.OpMax(ir.OpMax(x.Value(), y.Value()), z.Value()), s1.Value()), s2.Value()))
		}
		if s.match(ir.POneOf(
			ir.PMax(ir.PMax(x, y), ir.PMax(x, z)),
			ir.PMax(ir.PMax(x, y), ir.PMax(z, x)),
			ir.PMax(ir.PMax(y, x), ir.PMax(x, z)),
			ir.PMax(ir.PMax(y, x), ir.PMax(z, x)),
		), ret) {
			return s.rewrite(ir.OpMax(ir.OpMax(y.Value(), z.Value()), x.Value()))
		}
		if s.match(ir.POneOf(
			ir.PMax(ir.PMin(x, y), ir.PMin(x, z)),
			ir.PMax(ir.PMin(x, y), ir.PMin(z, x)),
			ir.PMax(ir.PMin(y, x), ir.PMin(x, z)),
			ir.PMax(ir.PMin(y, x), ir.PMin(z, x)),
		), ret) {
			return s.rewrite(ir.OpMin(ir.OpMax(y.Value(), z.Value()), x.Value()))
		}
		// add distribution
		if s.match(ir.POneOf(
			ir.PMax(ir.PAdd(y, x), ir.PAdd(z, x)),
			ir.PMax(ir.PAdd(y, x), ir.PAdd(x, z)),
			ir.PMax(ir.PAdd(x, y), ir.PAdd(x, z)),
			ir.PMax(ir.PAdd(x, y), ir.PAdd(z, x)),
		), ret) {
			return s.rewrite(ir.OpAdd(ir.OpMax(y.Value(), z.Value()), x.Value()))
		}
		// sub distribution
		if s.match(ir.PMax(ir.PSub(y, x), ir.PSub(z, x)), ret) {
			return s.rewrite(ir.OpSub(ir.OpMax(y.Value(), z.Value()), x.Value()))
		}
		if s.match(ir.PMax(ir.PSub(x, y), ir.PSub(x, z)), ret) {
			return s.rewrite(ir.OpSub(x.Value(), ir.OpMin(y.Value(), z.Value())))
		}
		// constant folding
		if s.match(ir.PMax(ir.PMax(x, c1), c2), ret) {
			return s.rewrite(ir.OpMax(x.Value(),
				ir.ConstScalar(m.Dtype, max64(c1.Value(), c2.Value()))))
		}
		// scaling
		if s.match(ir.PMax(ir.PDiv(x, c1), ir.PDiv(y, c1)), ret) {
			if c1.Value() > 0 {
				return s.rewrite(ir.OpTruncDiv(ir.OpMax(x.Value(), y.Value()), c1.Imm()))
			}
			return s.rewrite(ir.OpTruncDiv(ir.OpMin(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PMax(ir.PFloorDiv(x, c1), ir.PFloorDiv(y, c1)), ret) {
			if c1.Value() > 0 {
				return s.rewrite(ir.OpFloorDiv(ir.OpMax(x.Value(), y.Value()), c1.Imm()))
			}
			return s.rewrite(ir.OpFloorDiv(ir.OpMin(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PMax(ir.PMul(x, c1), ir.PMul(y, c1)), ret) {
			if c1.Value() > 0 {
				return s.rewrite(ir.OpMul(ir.OpMax(x.Value(), y.Value()), c1.Imm()))
			}
			return s.rewrite(ir.OpMul(ir.OpMin(x.Value(), y.Value()), c1.Imm()))
		}
		if s.match(ir.PMax(ir.PMul(x, c1), c2), ret) {
			c1val, c2val := c1.Value(), c2.Value()
			if c1val == 0 {
				if c2val > 0 {
					return s.rewrite(c2.Imm())
				}
				return s.rewrite(c1.Imm())
			}
			if c2val%c1val == 0 {
				if c1val > 0 {
					return s.rewrite(ir.OpMul(
						ir.OpMax(x.Value(), ir.ConstScalar(m.Dtype, c2val/c1val)), c1.Imm()))
				}
				return s.rewrite(ir.OpMul(
					ir.OpMin(x.Value(), ir.ConstScalar(m.Dtype, c2val/c1val)), c1.Imm()))
			}
		}
		// canonicalization
		if s.match(ir.PMax(ir.PMax(x, c1), y), ret) {
			return s.rewriteRec(ir.OpMax(ir.OpMax(x.Value(), y.Value()), c1.Imm()))
		}
		if s.matchIf(ir.PMax(ir.PSub(c1, x), c2), ret,
			func() bool { return c2.Value() != 0 }) {
			return s.rewriteRec(ir.OpSub(c1.Imm(),
				ir.OpMin(x.Value(), ir.ConstScalar(m.Dtype, c1.Value()-c2.Value()))))
		}
	}
	// condition rules
	if s.match(ir.PMax(ir.PSelect(x, y, z), ir.PSelect(x, s1, s2)), ret) {
		return s.rewrite(ir.OpSelect(x.Value(),
			ir.OpMax(y.Value(), s1.Value()), ir.OpMax(z.Value(), s2.Value())))
	}
	return ret
}
