package ir

import (
	"math"

	"shiki/internal/errors"
)

// Constant folding, one total or partial function per operator. Folding
// happens on scalar immediates; identity elements fold even when the other
// side is symbolic. Division by a constant zero is a ValueError, never a
// silent result.

func constOperands(a, b Expr) (pa, pb *IntImm, fa, fb *FloatImm) {
	pa, _ = a.(*IntImm)
	pb, _ = b.(*IntImm)
	fa, _ = a.(*FloatImm)
	fb, _ = b.(*FloatImm)
	return
}

func foldFloat(t DType, v float64) (Expr, bool) {
	switch t.Bits {
	case 32:
		return &FloatImm{Dtype: t, Value: float64(float32(v))}, true
	case 64:
		return &FloatImm{Dtype: t, Value: v}, true
	}
	return nil, false
}

func TryConstFoldAdd(a, b Expr) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		return &IntImm{Dtype: rtype, Value: foldInt64Repr(pa.Value+pb.Value, rtype)}, true
	}
	if pa != nil && pa.Value == 0 {
		return b, true
	}
	if pb != nil && pb.Value == 0 {
		return a, true
	}
	if fa != nil && fb != nil {
		return foldFloat(rtype, fa.Value+fb.Value)
	}
	if fa != nil && fa.Value == 0 {
		return b, true
	}
	if fb != nil && fb.Value == 0 {
		return a, true
	}
	return nil, false
}

func TryConstFoldSub(a, b Expr) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		return &IntImm{Dtype: rtype, Value: foldInt64Repr(pa.Value-pb.Value, rtype)}, true
	}
	if pb != nil && pb.Value == 0 {
		return a, true
	}
	if fa != nil && fb != nil {
		return foldFloat(rtype, fa.Value-fb.Value)
	}
	if fb != nil && fb.Value == 0 {
		return a, true
	}
	return nil, false
}

func TryConstFoldMul(a, b Expr) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		return &IntImm{Dtype: rtype, Value: foldInt64Repr(pa.Value*pb.Value, rtype)}, true
	}
	if pa != nil {
		if pa.Value == 1 {
			return b, true
		}
		if pa.Value == 0 {
			return a, true
		}
	}
	if pb != nil {
		if pb.Value == 1 {
			return a, true
		}
		if pb.Value == 0 {
			return b, true
		}
	}
	if fa != nil && fb != nil {
		return foldFloat(rtype, fa.Value*fb.Value)
	}
	if fa != nil {
		if fa.Value == 1 {
			return b, true
		}
		if fa.Value == 0 {
			return a, true
		}
	}
	if fb != nil {
		if fb.Value == 1 {
			return a, true
		}
		if fb.Value == 0 {
			return b, true
		}
	}
	return nil, false
}

func divideByZero() {
	throw(errors.ValueCode(errors.ErrorDivideByZero, "division by zero"))
}

func TryConstFoldDiv(a, b Expr) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		if pb.Value == 0 {
			divideByZero()
		}
		return &IntImm{Dtype: rtype, Value: foldInt64Repr(pa.Value/pb.Value, rtype)}, true
	}
	if pa != nil && pa.Value == 0 {
		return a, true
	}
	if pb != nil {
		if pb.Value == 1 {
			return a, true
		}
		if pb.Value == 0 {
			divideByZero()
		}
	}
	if fa != nil && fb != nil {
		if fb.Value == 0 {
			divideByZero()
		}
		return foldFloat(rtype, fa.Value/fb.Value)
	}
	if fa != nil && fa.Value == 0 {
		return a, true
	}
	if fb != nil {
		if fb.Value == 1 {
			return a, true
		}
		if fb.Value == 0 {
			divideByZero()
		}
	}
	return nil, false
}

func TryConstFoldMod(a, b Expr) (Expr, bool) {
	pa, pb, _, _ := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		if pb.Value == 0 {
			divideByZero()
		}
		return &IntImm{Dtype: rtype, Value: foldInt64Repr(pa.Value%pb.Value, rtype)}, true
	}
	if pa != nil && pa.Value == 0 {
		return a, true
	}
	if pb != nil {
		if pb.Value == 1 {
			return &IntImm{Dtype: rtype, Value: 0}, true
		}
		if pb.Value == 0 {
			divideByZero()
		}
	}
	return nil, false
}

func TryConstFoldFloorDiv(a, b Expr) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		if pb.Value == 0 {
			divideByZero()
		}
		return &IntImm{Dtype: rtype, Value: foldInt64Repr(FloorDiv64(pa.Value, pb.Value), rtype)}, true
	}
	if pa != nil && pa.Value == 0 {
		return a, true
	}
	if pb != nil {
		if pb.Value == 1 {
			return a, true
		}
		if pb.Value == 0 {
			divideByZero()
		}
	}
	if fa != nil && fb != nil {
		if fb.Value == 0 {
			divideByZero()
		}
		return foldFloat(rtype, math.Floor(fa.Value/fb.Value))
	}
	if fa != nil && fa.Value == 0 {
		return a, true
	}
	if fb != nil {
		if fb.Value == 1 {
			return a, true
		}
		if fb.Value == 0 {
			divideByZero()
		}
	}
	return nil, false
}

func TryConstFoldFloorMod(a, b Expr) (Expr, bool) {
	pa, pb, _, _ := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		if pb.Value == 0 {
			divideByZero()
		}
		return &IntImm{Dtype: rtype, Value: foldInt64Repr(FloorMod64(pa.Value, pb.Value), rtype)}, true
	}
	if pa != nil && pa.Value == 0 {
		return a, true
	}
	if pb != nil {
		if pb.Value == 1 {
			return &IntImm{Dtype: rtype, Value: 0}, true
		}
		if pb.Value == 0 {
			divideByZero()
		}
	}
	return nil, false
}

func TryConstFoldMin(a, b Expr) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		return &IntImm{Dtype: rtype, Value: min64(pa.Value, pb.Value)}, true
	}
	if fa != nil && fb != nil {
		return &FloatImm{Dtype: rtype, Value: math.Min(fa.Value, fb.Value)}, true
	}
	if a == b || DeepEqual(a, b) {
		return a, true
	}
	return nil, false
}

func TryConstFoldMax(a, b Expr) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	rtype := a.Type()
	if pa != nil && pb != nil {
		return &IntImm{Dtype: rtype, Value: max64(pa.Value, pb.Value)}, true
	}
	if fa != nil && fb != nil {
		return &FloatImm{Dtype: rtype, Value: math.Max(fa.Value, fb.Value)}, true
	}
	if a == b || DeepEqual(a, b) {
		return a, true
	}
	return nil, false
}

func foldCompare(a, b Expr, intCmp func(x, y int64) bool, floatCmp func(x, y float64) bool) (Expr, bool) {
	pa, pb, fa, fb := constOperands(a, b)
	if pa != nil && pb != nil {
		return NewBoolImm(intCmp(pa.Value, pb.Value)), true
	}
	if fa != nil && fb != nil {
		return NewBoolImm(floatCmp(fa.Value, fb.Value)), true
	}
	return nil, false
}

func TryConstFoldEQ(a, b Expr) (Expr, bool) {
	return foldCompare(a, b,
		func(x, y int64) bool { return x == y },
		func(x, y float64) bool { return x == y })
}

func TryConstFoldNE(a, b Expr) (Expr, bool) {
	return foldCompare(a, b,
		func(x, y int64) bool { return x != y },
		func(x, y float64) bool { return x != y })
}

func TryConstFoldLT(a, b Expr) (Expr, bool) {
	return foldCompare(a, b,
		func(x, y int64) bool { return x < y },
		func(x, y float64) bool { return x < y })
}

func TryConstFoldLE(a, b Expr) (Expr, bool) {
	return foldCompare(a, b,
		func(x, y int64) bool { return x <= y },
		func(x, y float64) bool { return x <= y })
}

func TryConstFoldGT(a, b Expr) (Expr, bool) {
	return foldCompare(a, b,
		func(x, y int64) bool { return x > y },
		func(x, y float64) bool { return x > y })
}

func TryConstFoldGE(a, b Expr) (Expr, bool) {
	return foldCompare(a, b,
		func(x, y int64) bool { return x >= y },
		func(x, y float64) bool { return x >= y })
}

func TryConstFoldAnd(a, b Expr) (Expr, bool) {
	pa, _ := a.(*IntImm)
	pb, _ := b.(*IntImm)
	if pa != nil && pa.Value != 0 {
		return b, true
	}
	if pa != nil && pa.Value == 0 {
		return a, true
	}
	if pb != nil && pb.Value != 0 {
		return a, true
	}
	if pb != nil && pb.Value == 0 {
		return b, true
	}
	return nil, false
}

func TryConstFoldOr(a, b Expr) (Expr, bool) {
	pa, _ := a.(*IntImm)
	pb, _ := b.(*IntImm)
	if pa != nil && pa.Value != 0 {
		return a, true
	}
	if pa != nil && pa.Value == 0 {
		return b, true
	}
	if pb != nil && pb.Value != 0 {
		return b, true
	}
	if pb != nil && pb.Value == 0 {
		return a, true
	}
	return nil, false
}

func TryConstFoldNot(a Expr) (Expr, bool) {
	if pa, ok := a.(*IntImm); ok {
		return NewBoolImm(pa.Value == 0), true
	}
	return nil, false
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
