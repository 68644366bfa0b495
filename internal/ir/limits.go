package ir

import "math"

// Sentinels for saturating interval arithmetic. Note the symmetry: NegInf
// is -(i64 max), not i64 min, so negating a sentinel never overflows.
const (
	PosInf int64 = math.MaxInt64
	NegInf int64 = -math.MaxInt64
)

// The symbolic limits are two dedicated Var nodes compared by identity.
// They are not arithmetic variables: no analyzer ever binds them.
var (
	symbolicPosInf = &Var{Name: "pos_inf", Dtype: Int(64)}
	symbolicNegInf = &Var{Name: "neg_inf", Dtype: Int(64)}
)

// PosInfExpr returns the positive symbolic limit.
func PosInfExpr() Expr { return symbolicPosInf }

// NegInfExpr returns the negative symbolic limit.
func NegInfExpr() Expr { return symbolicNegInf }

func IsPosInf(e Expr) bool { return e == Expr(symbolicPosInf) }
func IsNegInf(e Expr) bool { return e == Expr(symbolicNegInf) }
