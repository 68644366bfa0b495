package ir

import "hash/maphash"

// DeepEqual reports structural equality. Variables compare by pointer
// identity; everything else compares by shape, dtype and value.
func DeepEqual(a, b Expr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch x := a.(type) {
	case *Var:
		// identity only; handled by the a == b fast path above
		return false
	case *IntImm:
		y, ok := b.(*IntImm)
		return ok && x.Dtype == y.Dtype && x.Value == y.Value
	case *FloatImm:
		y, ok := b.(*FloatImm)
		return ok && x.Dtype == y.Dtype && x.Value == y.Value
	case *Cast:
		y, ok := b.(*Cast)
		return ok && x.Dtype == y.Dtype && DeepEqual(x.Value, y.Value)
	case *Add:
		y, ok := b.(*Add)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Sub:
		y, ok := b.(*Sub)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Mul:
		y, ok := b.(*Mul)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Div:
		y, ok := b.(*Div)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Mod:
		y, ok := b.(*Mod)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *FloorDiv:
		y, ok := b.(*FloorDiv)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *FloorMod:
		y, ok := b.(*FloorMod)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Min:
		y, ok := b.(*Min)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Max:
		y, ok := b.(*Max)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *EQ:
		y, ok := b.(*EQ)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *NE:
		y, ok := b.(*NE)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *LT:
		y, ok := b.(*LT)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *LE:
		y, ok := b.(*LE)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *GT:
		y, ok := b.(*GT)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *GE:
		y, ok := b.(*GE)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *And:
		y, ok := b.(*And)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Or:
		y, ok := b.(*Or)
		return ok && DeepEqual(x.A, y.A) && DeepEqual(x.B, y.B)
	case *Not:
		y, ok := b.(*Not)
		return ok && DeepEqual(x.A, y.A)
	case *Select:
		y, ok := b.(*Select)
		return ok && DeepEqual(x.Cond, y.Cond) &&
			DeepEqual(x.TrueValue, y.TrueValue) && DeepEqual(x.FalseValue, y.FalseValue)
	case *Ramp:
		y, ok := b.(*Ramp)
		return ok && x.Lanes == y.Lanes && DeepEqual(x.Base, y.Base) && DeepEqual(x.Stride, y.Stride)
	case *Broadcast:
		y, ok := b.(*Broadcast)
		return ok && x.Lanes == y.Lanes && DeepEqual(x.Value, y.Value)
	case *Let:
		y, ok := b.(*Let)
		return ok && x.Var == y.Var && DeepEqual(x.Value, y.Value) && DeepEqual(x.Body, y.Body)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Op != y.Op || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !DeepEqual(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	// Unknown node kinds (e.g. canonical containers) compare by identity.
	return false
}

var hashSeed = maphash.MakeSeed()

// StructuralHash returns a hash consistent with DeepEqual, used by the
// interners in the analyzers.
func StructuralHash(e Expr) uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	hashExpr(&h, e)
	return h.Sum64()
}

func hashInt(h *maphash.Hash, v int64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}

func hashKind(h *maphash.Hash, kind byte) { h.WriteByte(kind) }

func hashExpr(h *maphash.Hash, e Expr) {
	switch x := e.(type) {
	case *Var:
		hashKind(h, 1)
		// identity hash: name plus a stable per-object discriminator is not
		// available, so hash the name; collisions fall back to DeepEqual.
		h.WriteString(x.Name)
	case *IntImm:
		hashKind(h, 2)
		hashInt(h, x.Value)
	case *FloatImm:
		hashKind(h, 3)
		h.WriteString(x.String())
	case *Cast:
		hashKind(h, 4)
		h.WriteString(x.Dtype.String())
		hashExpr(h, x.Value)
	case *Add:
		hashKind(h, 5)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Sub:
		hashKind(h, 6)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Mul:
		hashKind(h, 7)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Div:
		hashKind(h, 8)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Mod:
		hashKind(h, 9)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *FloorDiv:
		hashKind(h, 10)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *FloorMod:
		hashKind(h, 11)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Min:
		hashKind(h, 12)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Max:
		hashKind(h, 13)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *EQ:
		hashKind(h, 14)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *NE:
		hashKind(h, 15)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *LT:
		hashKind(h, 16)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *LE:
		hashKind(h, 17)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *GT:
		hashKind(h, 18)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *GE:
		hashKind(h, 19)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *And:
		hashKind(h, 20)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Or:
		hashKind(h, 21)
		hashExpr(h, x.A)
		hashExpr(h, x.B)
	case *Not:
		hashKind(h, 22)
		hashExpr(h, x.A)
	case *Select:
		hashKind(h, 23)
		hashExpr(h, x.Cond)
		hashExpr(h, x.TrueValue)
		hashExpr(h, x.FalseValue)
	case *Ramp:
		hashKind(h, 24)
		hashInt(h, x.Lanes)
		hashExpr(h, x.Base)
		hashExpr(h, x.Stride)
	case *Broadcast:
		hashKind(h, 25)
		hashInt(h, x.Lanes)
		hashExpr(h, x.Value)
	case *Let:
		hashKind(h, 26)
		h.WriteString(x.Var.Name)
		hashExpr(h, x.Value)
		hashExpr(h, x.Body)
	case *Call:
		hashKind(h, 27)
		hashKind(h, byte(x.Op))
		for _, a := range x.Args {
			hashExpr(h, a)
		}
	default:
		hashKind(h, 0)
		h.WriteString(e.String())
	}
}
