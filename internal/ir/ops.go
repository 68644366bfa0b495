package ir

import (
	"shiki/internal/errors"
)

// Operator constructors. Each performs dtype broadcasting, attempts
// constant folding, and only then allocates a fresh node. Invalid operands
// (divide by a constant zero, out-of-range shifts, non-boolean conditions,
// incompatible dtypes) panic with an analyzer error; the public entry
// points in internal/arith surface these to the caller.

func throw(err error) {
	panic(err)
}

func expectIntOrUInt(t DType, op string) {
	if !t.IsInt() && !t.IsUInt() {
		throw(errors.Typef("%s expects an integer type, but got %s", op, t))
	}
}

func expectBool(t DType, op string) {
	if !(t.Code == CodeUInt && t.Bits == 1) {
		throw(errors.ValueCode(errors.ErrorNonBoolCondition,
			"%s expects a boolean condition, but got %s", op, t))
	}
}

// binaryOpMatchTypes broadcasts lanes and promotes element types so both
// operands agree, mirroring the usual index-arithmetic promotion rules.
func binaryOpMatchTypes(a, b Expr) (Expr, Expr) {
	lt, rt := a.Type(), b.Type()
	if lt == rt {
		return a, b
	}
	if lt.Lanes == 1 && rt.Lanes != 1 {
		a = OpBroadcast(a, int64(rt.Lanes))
		lt = a.Type()
	} else if lt.Lanes != 1 && rt.Lanes == 1 {
		b = OpBroadcast(b, int64(lt.Lanes))
		rt = b.Type()
	} else if lt.Lanes != rt.Lanes {
		throw(errors.ValueCode(errors.ErrorIncompatibleTypes,
			"incompatible broadcast types: %s vs %s", lt, rt))
	}
	if lt == rt {
		return a, b
	}
	if lt.IsHandle() || rt.IsHandle() {
		throw(errors.ValueCode(errors.ErrorIncompatibleTypes,
			"cannot match opaque handle type: %s vs %s", lt, rt))
	}
	switch {
	case lt.Code == CodeFloat && rt.Code == CodeFloat:
		if lt.Bits < rt.Bits {
			a = OpCast(rt, a)
		} else {
			b = OpCast(lt, b)
		}
	case lt.Code != CodeFloat && rt.Code == CodeFloat:
		a = OpCast(rt, a)
	case lt.Code == CodeFloat && rt.Code != CodeFloat:
		b = OpCast(lt, b)
	case lt.Code != CodeBFloat && rt.Code == CodeBFloat:
		a = OpCast(rt, a)
	case lt.Code == CodeBFloat && rt.Code != CodeBFloat:
		b = OpCast(lt, b)
	case (lt.Code == CodeInt && rt.Code == CodeInt) || (lt.Code == CodeUInt && rt.Code == CodeUInt):
		if lt.Bits < rt.Bits {
			a = OpCast(rt, a)
		} else {
			b = OpCast(lt, b)
		}
	case (lt.Code == CodeInt && rt.Code == CodeUInt) || (lt.Code == CodeUInt && rt.Code == CodeInt):
		// mixed signedness: promote to the wider; on a tie, unsigned wins
		if lt.Bits < rt.Bits {
			a = OpCast(rt, a)
		} else if lt.Bits > rt.Bits {
			b = OpCast(lt, b)
		} else if lt.Code == CodeUInt {
			b = OpCast(lt, b)
		} else {
			a = OpCast(rt, a)
		}
	default:
		throw(errors.ValueCode(errors.ErrorIncompatibleTypes,
			"cannot match type %s vs %s", lt, rt))
	}
	return a, b
}

// OpCast converts value to dtype, folding immediates and distributing over
// broadcast/ramp for vector targets.
func OpCast(t DType, value Expr) Expr {
	if value.Type() == t {
		return value
	}
	if t.Lanes == 1 {
		if i, ok := value.(*IntImm); ok {
			return ConstScalar(t, i.Value)
		}
		if f, ok := value.(*FloatImm); ok {
			if t.IsFloat() {
				return &FloatImm{Dtype: t, Value: f.Value}
			}
			return ConstScalar(t, int64(f.Value))
		}
		if value.Type().IsHandle() {
			throw(errors.Valuef("cannot cast opaque handle to %s", t))
		}
		return &Cast{Dtype: t, Value: value}
	}
	elem := t.Elem()
	if value.Type().Lanes == 1 {
		if value.Type() != elem {
			value = OpCast(elem, value)
		}
		return OpBroadcast(value, int64(t.Lanes))
	}
	if int(value.Type().Lanes) != int(t.Lanes) {
		throw(errors.Valuef("cannot cast between vectors of different lanes: %s vs %s", value.Type(), t))
	}
	if bc, ok := value.(*Broadcast); ok {
		return OpBroadcast(OpCast(elem, bc.Value), bc.Lanes)
	}
	if rp, ok := value.(*Ramp); ok {
		if t.IsInt() || t.IsUInt() {
			return OpRamp(OpCast(elem, rp.Base), OpCast(elem, rp.Stride), rp.Lanes)
		}
	}
	return &Cast{Dtype: t, Value: value}
}

func OpAdd(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldAdd(a, b); ok {
		return res
	}
	return &Add{Dtype: a.Type(), A: a, B: b}
}

func OpSub(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldSub(a, b); ok {
		return res
	}
	return &Sub{Dtype: a.Type(), A: a, B: b}
}

func OpMul(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldMul(a, b); ok {
		return res
	}
	return &Mul{Dtype: a.Type(), A: a, B: b}
}

func OpNeg(a Expr) Expr {
	if i, ok := a.(*IntImm); ok {
		return &IntImm{Dtype: i.Dtype, Value: -i.Value}
	}
	if f, ok := a.(*FloatImm); ok {
		return &FloatImm{Dtype: f.Dtype, Value: -f.Value}
	}
	return OpSub(ConstScalar(a.Type(), 0), a)
}

func OpTruncDiv(a, b Expr) Expr {
	expectIntOrUInt(a.Type(), "truncdiv")
	expectIntOrUInt(b.Type(), "truncdiv")
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldDiv(a, b); ok {
		return res
	}
	return &Div{Dtype: a.Type(), A: a, B: b}
}

func OpTruncMod(a, b Expr) Expr {
	expectIntOrUInt(a.Type(), "truncmod")
	expectIntOrUInt(b.Type(), "truncmod")
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldMod(a, b); ok {
		return res
	}
	return &Mod{Dtype: a.Type(), A: a, B: b}
}

func OpFloorDiv(a, b Expr) Expr {
	expectIntOrUInt(a.Type(), "floordiv")
	expectIntOrUInt(b.Type(), "floordiv")
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldFloorDiv(a, b); ok {
		return res
	}
	return &FloorDiv{Dtype: a.Type(), A: a, B: b}
}

func OpFloorMod(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldFloorMod(a, b); ok {
		return res
	}
	return &FloorMod{Dtype: a.Type(), A: a, B: b}
}

func OpMin(a, b Expr) Expr {
	// the symbolic limits absorb before any type matching
	if IsPosInf(a) {
		return b
	}
	if IsNegInf(a) {
		return a
	}
	if IsPosInf(b) {
		return a
	}
	if IsNegInf(b) {
		return b
	}
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldMin(a, b); ok {
		return res
	}
	return &Min{Dtype: a.Type(), A: a, B: b}
}

func OpMax(a, b Expr) Expr {
	if IsPosInf(a) {
		return a
	}
	if IsNegInf(a) {
		return b
	}
	if IsPosInf(b) {
		return b
	}
	if IsNegInf(b) {
		return a
	}
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldMax(a, b); ok {
		return res
	}
	return &Max{Dtype: a.Type(), A: a, B: b}
}

func OpEQ(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldEQ(a, b); ok {
		return res
	}
	return &EQ{A: a, B: b}
}

func OpNE(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldNE(a, b); ok {
		return res
	}
	return &NE{A: a, B: b}
}

func OpLT(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldLT(a, b); ok {
		return res
	}
	return &LT{A: a, B: b}
}

func OpLE(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldLE(a, b); ok {
		return res
	}
	return &LE{A: a, B: b}
}

func OpGT(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldGT(a, b); ok {
		return res
	}
	return &GT{A: a, B: b}
}

func OpGE(a, b Expr) Expr {
	a, b = binaryOpMatchTypes(a, b)
	if res, ok := TryConstFoldGE(a, b); ok {
		return res
	}
	return &GE{A: a, B: b}
}

func OpAnd(a, b Expr) Expr {
	expectBool(a.Type().Elem(), "logical_and")
	expectBool(b.Type().Elem(), "logical_and")
	if res, ok := TryConstFoldAnd(a, b); ok {
		return res
	}
	return &And{A: a, B: b}
}

func OpOr(a, b Expr) Expr {
	expectBool(a.Type().Elem(), "logical_or")
	expectBool(b.Type().Elem(), "logical_or")
	if res, ok := TryConstFoldOr(a, b); ok {
		return res
	}
	return &Or{A: a, B: b}
}

func OpNot(a Expr) Expr {
	expectBool(a.Type().Elem(), "logical_not")
	if res, ok := TryConstFoldNot(a); ok {
		return res
	}
	return &Not{A: a}
}

func OpSelect(cond, trueValue, falseValue Expr) Expr {
	expectBool(cond.Type().Elem(), "select")
	trueValue, falseValue = binaryOpMatchTypes(trueValue, falseValue)
	if c, ok := cond.(*IntImm); ok {
		if c.Value != 0 {
			return trueValue
		}
		return falseValue
	}
	return &Select{Cond: cond, TrueValue: trueValue, FalseValue: falseValue}
}

func OpIfThenElse(cond, trueValue, falseValue Expr) Expr {
	expectBool(cond.Type().Elem(), "if_then_else")
	trueValue, falseValue = binaryOpMatchTypes(trueValue, falseValue)
	if c, ok := cond.(*IntImm); ok {
		if c.Value != 0 {
			return trueValue
		}
		return falseValue
	}
	return &Call{Dtype: trueValue.Type(), Op: IntrinsicIfThenElse, Args: []Expr{cond, trueValue, falseValue}}
}

func checkShiftAmount(b Expr, t DType) {
	if amount, ok := AsConstInt(b); ok {
		if amount < 0 || amount >= int64(t.Bits) {
			throw(errors.ValueCode(errors.ErrorShiftRange,
				"shift amount must be in [0, %d) for type %s, got %d", t.Bits, t, amount))
		}
	}
}

func OpRightShift(a, b Expr) Expr {
	expectIntOrUInt(a.Type(), "right_shift")
	expectIntOrUInt(b.Type(), "right_shift")
	a, b = binaryOpMatchTypes(a, b)
	checkShiftAmount(b, a.Type())
	pa, aok := AsConstInt(a)
	pb, bok := AsConstInt(b)
	if aok && bok {
		return ConstScalar(a.Type(), pa>>uint(pb))
	}
	if bok && pb == 0 {
		return a
	}
	return &Call{Dtype: a.Type(), Op: IntrinsicRightShift, Args: []Expr{a, b}}
}

func OpLeftShift(a, b Expr) Expr {
	expectIntOrUInt(a.Type(), "left_shift")
	expectIntOrUInt(b.Type(), "left_shift")
	a, b = binaryOpMatchTypes(a, b)
	checkShiftAmount(b, a.Type())
	pa, aok := AsConstInt(a)
	pb, bok := AsConstInt(b)
	if aok && bok {
		return ConstScalar(a.Type(), pa<<uint(pb))
	}
	if bok && pb == 0 {
		return a
	}
	return &Call{Dtype: a.Type(), Op: IntrinsicLeftShift, Args: []Expr{a, b}}
}

func bitwiseBinary(op IntrinsicOp, a, b Expr, fold func(x, y int64) int64) Expr {
	expectIntOrUInt(a.Type(), op.String())
	expectIntOrUInt(b.Type(), op.String())
	a, b = binaryOpMatchTypes(a, b)
	pa, aok := AsConstInt(a)
	pb, bok := AsConstInt(b)
	if aok && bok {
		return ConstScalar(a.Type(), fold(pa, pb))
	}
	return &Call{Dtype: a.Type(), Op: op, Args: []Expr{a, b}}
}

func OpBitwiseAnd(a, b Expr) Expr {
	return bitwiseBinary(IntrinsicBitwiseAnd, a, b, func(x, y int64) int64 { return x & y })
}

func OpBitwiseOr(a, b Expr) Expr {
	return bitwiseBinary(IntrinsicBitwiseOr, a, b, func(x, y int64) int64 { return x | y })
}

func OpBitwiseXor(a, b Expr) Expr {
	return bitwiseBinary(IntrinsicBitwiseXor, a, b, func(x, y int64) int64 { return x ^ y })
}

func OpBitwiseNot(a Expr) Expr {
	expectIntOrUInt(a.Type(), "bitwise_not")
	if pa, ok := AsConstInt(a); ok {
		return ConstScalar(a.Type(), ^pa)
	}
	return &Call{Dtype: a.Type(), Op: IntrinsicBitwiseNot, Args: []Expr{a}}
}

func OpAbs(x Expr) Expr {
	t := x.Type()
	switch {
	case t.Code == CodeInt:
		if px, ok := x.(*IntImm); ok {
			v := px.Value
			if v < 0 {
				v = -v
			}
			return &IntImm{Dtype: t, Value: v}
		}
		return &Select{
			Cond:       OpGE(x, ConstScalar(t, 0)),
			TrueValue:  x,
			FalseValue: OpNeg(x),
		}
	case t.IsFloat():
		if fx, ok := x.(*FloatImm); ok {
			v := fx.Value
			if v < 0 {
				v = -v
			}
			return &FloatImm{Dtype: t, Value: v}
		}
		return &Call{Dtype: t, Op: IntrinsicFabs, Args: []Expr{x}}
	case t.Code == CodeUInt:
		return x
	}
	throw(errors.Typef("dtype not supported for abs: %s", t))
	return nil
}

func OpBroadcast(value Expr, lanes int64) Expr {
	if !value.Type().IsScalar() {
		throw(errors.Valuef("broadcast expects a scalar value, got %s", value.Type()))
	}
	return &Broadcast{Value: value, Lanes: lanes}
}

func OpRamp(base, stride Expr, lanes int64) Expr {
	base, stride = binaryOpMatchTypes(base, stride)
	if !base.Type().IsScalar() {
		throw(errors.Valuef("ramp expects scalar base and stride, got %s", base.Type()))
	}
	return &Ramp{Base: base, Stride: stride, Lanes: lanes}
}

func OpLet(v *Var, value, body Expr) Expr {
	return &Let{Var: v, Value: value, Body: body}
}
