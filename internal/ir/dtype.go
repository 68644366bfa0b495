package ir

import (
	"fmt"

	"shiki/internal/errors"
)

// DTypeCode enumerates the scalar element kinds an expression can carry.
type DTypeCode uint8

const (
	CodeInt DTypeCode = iota
	CodeUInt
	CodeFloat
	CodeBFloat
	CodeHandle
)

// DType describes the value type of an expression: an element code, the
// element width in bits, and a vector lane count (1 for scalars).
type DType struct {
	Code  DTypeCode
	Bits  int16
	Lanes int16
}

func Int(bits int) DType    { return DType{Code: CodeInt, Bits: int16(bits), Lanes: 1} }
func UInt(bits int) DType   { return DType{Code: CodeUInt, Bits: int16(bits), Lanes: 1} }
func Float(bits int) DType  { return DType{Code: CodeFloat, Bits: int16(bits), Lanes: 1} }
func BFloat(bits int) DType { return DType{Code: CodeBFloat, Bits: int16(bits), Lanes: 1} }
func Handle() DType         { return DType{Code: CodeHandle, Bits: 64, Lanes: 1} }

// Bool is represented as a 1-bit unsigned integer, vectorizable.
func Bool() DType { return DType{Code: CodeUInt, Bits: 1, Lanes: 1} }

// WithLanes returns the same element type with the given lane count.
func (t DType) WithLanes(lanes int) DType {
	t.Lanes = int16(lanes)
	return t
}

// Elem returns the scalar element type.
func (t DType) Elem() DType { return t.WithLanes(1) }

func (t DType) IsScalar() bool { return t.Lanes == 1 }
func (t DType) IsVector() bool { return t.Lanes > 1 }
func (t DType) IsInt() bool    { return t.Code == CodeInt }
func (t DType) IsUInt() bool   { return t.Code == CodeUInt }
func (t DType) IsFloat() bool  { return t.Code == CodeFloat || t.Code == CodeBFloat }
func (t DType) IsHandle() bool { return t.Code == CodeHandle }

func (t DType) IsBool() bool {
	return t.Code == CodeUInt && t.Bits == 1
}

// IsIndex reports whether t is usable for shapes, loop bounds and memory
// indices: a scalar 32- or 64-bit integer.
func (t DType) IsIndex() bool {
	return (t.Code == CodeInt || t.Code == CodeUInt) && t.Lanes == 1 && (t.Bits == 32 || t.Bits == 64)
}

func (t DType) String() string {
	var base string
	switch t.Code {
	case CodeInt:
		base = fmt.Sprintf("i%d", t.Bits)
	case CodeUInt:
		if t.Bits == 1 {
			base = "bool"
		} else {
			base = fmt.Sprintf("u%d", t.Bits)
		}
	case CodeFloat:
		base = fmt.Sprintf("f%d", t.Bits)
	case CodeBFloat:
		base = fmt.Sprintf("bf%d", t.Bits)
	case CodeHandle:
		base = "handle"
	default:
		base = "?"
	}
	if t.Lanes > 1 {
		return fmt.Sprintf("%sx%d", base, t.Lanes)
	}
	return base
}

// MaxValue returns the largest value representable in dtype as an
// immediate. Vector dtypes and exotic widths are rejected.
func MaxValue(t DType) (Expr, error) {
	if t.Lanes != 1 {
		return nil, errors.ValueCode(errors.ErrorNoTypeLimit, "cannot take max_value of vector dtype %s", t)
	}
	switch t.Code {
	case CodeInt:
		if t.Bits == 64 {
			return NewIntImm(t, int64(^uint64(0)>>1)), nil
		}
		if t.Bits < 64 {
			return NewIntImm(t, (int64(1)<<(t.Bits-1))-1), nil
		}
	case CodeUInt:
		if t.Bits == 64 {
			// u64 max is kept at i64 max to avoid overflowing immediates.
			return NewIntImm(t, int64(^uint64(0)>>1)), nil
		}
		if t.Bits < 64 {
			return NewIntImm(t, (int64(1)<<t.Bits)-1), nil
		}
	case CodeFloat:
		switch t.Bits {
		case 64:
			return NewFloatImm(t, 1.7976931348623157e308), nil
		case 32:
			return NewFloatImm(t, 3.4028234663852886e38), nil
		case 16:
			return NewFloatImm(t, 65504.0), nil
		}
	case CodeBFloat:
		return NewFloatImm(t, 3.4028234663852886e38), nil
	}
	return nil, errors.ValueCode(errors.ErrorNoTypeLimit, "cannot decide max_value for dtype %s", t)
}

// MinValue mirrors MaxValue for the smallest representable value.
func MinValue(t DType) (Expr, error) {
	if t.Lanes != 1 {
		return nil, errors.ValueCode(errors.ErrorNoTypeLimit, "cannot take min_value of vector dtype %s", t)
	}
	switch t.Code {
	case CodeInt:
		if t.Bits == 64 {
			return NewIntImm(t, -int64(^uint64(0)>>1)-1), nil
		}
		if t.Bits < 64 {
			return NewIntImm(t, -(int64(1) << (t.Bits - 1))), nil
		}
	case CodeUInt:
		return NewIntImm(t, 0), nil
	case CodeFloat:
		switch t.Bits {
		case 64:
			return NewFloatImm(t, -1.7976931348623157e308), nil
		case 32:
			return NewFloatImm(t, -3.4028234663852886e38), nil
		case 16:
			return NewFloatImm(t, -65504.0), nil
		}
	case CodeBFloat:
		return NewFloatImm(t, -3.4028234663852886e38), nil
	}
	return nil, errors.ValueCode(errors.ErrorNoTypeLimit, "cannot decide min_value for dtype %s", t)
}
