package ir

// A small pattern DSL over the expression sum type, used by the rewrite
// rules and the constraint detectors. Patterns are trees mirroring the
// node kinds, with typed pattern variables at the leaves. A variable binds
// on first match and requires structural equality on later occurrences
// within the same Match call.

// Pattern matches a target expression, binding pattern variables.
type Pattern interface {
	match(e Expr) bool
	forEachBinder(f func(binder))
}

type binder interface {
	clear()
	save() any
	load(any)
}

// Match attempts to match pattern p against e, clearing all bindings first.
func Match(p Pattern, e Expr) bool {
	p.forEachBinder(func(b binder) { b.clear() })
	return p.match(e)
}

// MatchIf matches and then checks a side condition on the bindings.
func MatchIf(p Pattern, e Expr, cond func() bool) bool {
	return Match(p, e) && cond()
}

// PExpr is a pattern variable binding an arbitrary expression.
type PExpr struct {
	v Expr
}

func NewPExpr() *PExpr { return &PExpr{} }

func (p *PExpr) match(e Expr) bool {
	if p.v == nil {
		p.v = e
		return true
	}
	return p.v == e || DeepEqual(p.v, e)
}

func (p *PExpr) forEachBinder(f func(binder)) { f(p) }
func (p *PExpr) clear()                       { p.v = nil }
func (p *PExpr) save() any                    { return p.v }
func (p *PExpr) load(s any)                   { p.v, _ = s.(Expr) }

// Value returns the bound expression.
func (p *PExpr) Value() Expr { return p.v }

// PConst is a pattern variable binding an integer immediate.
type PConst struct {
	v *IntImm
}

func NewPConst() *PConst { return &PConst{} }

func (p *PConst) match(e Expr) bool {
	imm, ok := e.(*IntImm)
	if !ok {
		return false
	}
	if p.v == nil {
		p.v = imm
		return true
	}
	return p.v.Value == imm.Value && p.v.Dtype == imm.Dtype
}

func (p *PConst) forEachBinder(f func(binder)) { f(p) }
func (p *PConst) clear()                       { p.v = nil }
func (p *PConst) save() any                    { return p.v }
func (p *PConst) load(s any)                   { p.v, _ = s.(*IntImm) }

// Value returns the bound immediate's value.
func (p *PConst) Value() int64 { return p.v.Value }

// Imm returns the bound immediate node.
func (p *PConst) Imm() *IntImm { return p.v }

// PFloat is a pattern variable binding a float immediate.
type PFloat struct {
	v *FloatImm
}

func NewPFloat() *PFloat { return &PFloat{} }

func (p *PFloat) match(e Expr) bool {
	imm, ok := e.(*FloatImm)
	if !ok {
		return false
	}
	if p.v == nil {
		p.v = imm
		return true
	}
	return p.v.Value == imm.Value && p.v.Dtype == imm.Dtype
}

func (p *PFloat) forEachBinder(f func(binder)) { f(p) }
func (p *PFloat) clear()                       { p.v = nil }
func (p *PFloat) save() any                    { return p.v }
func (p *PFloat) load(s any)                   { p.v, _ = s.(*FloatImm) }

func (p *PFloat) Value() float64 { return p.v.Value }

// PVarOnly is a pattern variable that only binds Var nodes.
type PVarOnly struct {
	v *Var
}

func NewPVarOnly() *PVarOnly { return &PVarOnly{} }

func (p *PVarOnly) match(e Expr) bool {
	vr, ok := e.(*Var)
	if !ok {
		return false
	}
	if p.v == nil {
		p.v = vr
		return true
	}
	return p.v == vr
}

func (p *PVarOnly) forEachBinder(f func(binder)) { f(p) }
func (p *PVarOnly) clear()                       { p.v = nil }
func (p *PVarOnly) save() any                    { return p.v }
func (p *PVarOnly) load(s any)                   { p.v, _ = s.(*Var) }

func (p *PVarOnly) Value() *Var { return p.v }

// PLanes binds the lane count of a ramp or broadcast.
type PLanes struct {
	v   int64
	set bool
}

func NewPLanes() *PLanes { return &PLanes{} }

func (p *PLanes) matchLanes(lanes int64) bool {
	if !p.set {
		p.v, p.set = lanes, true
		return true
	}
	return p.v == lanes
}

func (p *PLanes) forEachBinder(f func(binder)) { f(p) }
func (p *PLanes) clear()                       { p.set = false }
func (p *PLanes) save() any {
	if p.set {
		return p.v
	}
	return nil
}
func (p *PLanes) load(s any) {
	if s == nil {
		p.set = false
		return
	}
	p.v, p.set = s.(int64), true
}

func (p *PLanes) Value() int64 { return p.v }

// PImm matches an integer immediate with the given value, any dtype.
type PImm struct {
	value int64
}

func NewPImm(value int64) *PImm { return &PImm{value: value} }

func (p *PImm) match(e Expr) bool {
	imm, ok := e.(*IntImm)
	return ok && imm.Value == p.value
}

func (p *PImm) forEachBinder(func(binder)) {}

type binKind uint8

const (
	kAdd binKind = iota
	kSub
	kMul
	kDiv
	kMod
	kFloorDiv
	kFloorMod
	kMin
	kMax
	kEQ
	kNE
	kLT
	kLE
	kGT
	kGE
	kAnd
	kOr
)

type pBin struct {
	kind binKind
	a, b Pattern
}

func (p *pBin) operands(e Expr) (Expr, Expr, bool) {
	switch p.kind {
	case kAdd:
		if x, ok := e.(*Add); ok {
			return x.A, x.B, true
		}
	case kSub:
		if x, ok := e.(*Sub); ok {
			return x.A, x.B, true
		}
	case kMul:
		if x, ok := e.(*Mul); ok {
			return x.A, x.B, true
		}
	case kDiv:
		if x, ok := e.(*Div); ok {
			return x.A, x.B, true
		}
	case kMod:
		if x, ok := e.(*Mod); ok {
			return x.A, x.B, true
		}
	case kFloorDiv:
		if x, ok := e.(*FloorDiv); ok {
			return x.A, x.B, true
		}
	case kFloorMod:
		if x, ok := e.(*FloorMod); ok {
			return x.A, x.B, true
		}
	case kMin:
		if x, ok := e.(*Min); ok {
			return x.A, x.B, true
		}
	case kMax:
		if x, ok := e.(*Max); ok {
			return x.A, x.B, true
		}
	case kEQ:
		if x, ok := e.(*EQ); ok {
			return x.A, x.B, true
		}
	case kNE:
		if x, ok := e.(*NE); ok {
			return x.A, x.B, true
		}
	case kLT:
		if x, ok := e.(*LT); ok {
			return x.A, x.B, true
		}
	case kLE:
		if x, ok := e.(*LE); ok {
			return x.A, x.B, true
		}
	case kGT:
		if x, ok := e.(*GT); ok {
			return x.A, x.B, true
		}
	case kGE:
		if x, ok := e.(*GE); ok {
			return x.A, x.B, true
		}
	case kAnd:
		if x, ok := e.(*And); ok {
			return x.A, x.B, true
		}
	case kOr:
		if x, ok := e.(*Or); ok {
			return x.A, x.B, true
		}
	}
	return nil, nil, false
}

func (p *pBin) match(e Expr) bool {
	a, b, ok := p.operands(e)
	return ok && p.a.match(a) && p.b.match(b)
}

func (p *pBin) forEachBinder(f func(binder)) {
	p.a.forEachBinder(f)
	p.b.forEachBinder(f)
}

func PAdd(a, b Pattern) Pattern      { return &pBin{kind: kAdd, a: a, b: b} }
func PSub(a, b Pattern) Pattern      { return &pBin{kind: kSub, a: a, b: b} }
func PMul(a, b Pattern) Pattern      { return &pBin{kind: kMul, a: a, b: b} }
func PDiv(a, b Pattern) Pattern      { return &pBin{kind: kDiv, a: a, b: b} }
func PMod(a, b Pattern) Pattern      { return &pBin{kind: kMod, a: a, b: b} }
func PFloorDiv(a, b Pattern) Pattern { return &pBin{kind: kFloorDiv, a: a, b: b} }
func PFloorMod(a, b Pattern) Pattern { return &pBin{kind: kFloorMod, a: a, b: b} }
func PMin(a, b Pattern) Pattern      { return &pBin{kind: kMin, a: a, b: b} }
func PMax(a, b Pattern) Pattern      { return &pBin{kind: kMax, a: a, b: b} }
func PEQ(a, b Pattern) Pattern       { return &pBin{kind: kEQ, a: a, b: b} }
func PNE(a, b Pattern) Pattern       { return &pBin{kind: kNE, a: a, b: b} }
func PLT(a, b Pattern) Pattern       { return &pBin{kind: kLT, a: a, b: b} }
func PLE(a, b Pattern) Pattern       { return &pBin{kind: kLE, a: a, b: b} }
func PGT(a, b Pattern) Pattern       { return &pBin{kind: kGT, a: a, b: b} }
func PGE(a, b Pattern) Pattern       { return &pBin{kind: kGE, a: a, b: b} }
func PAndP(a, b Pattern) Pattern     { return &pBin{kind: kAnd, a: a, b: b} }
func POrP(a, b Pattern) Pattern      { return &pBin{kind: kOr, a: a, b: b} }

type pNot struct{ a Pattern }

func (p *pNot) match(e Expr) bool {
	x, ok := e.(*Not)
	return ok && p.a.match(x.A)
}

func (p *pNot) forEachBinder(f func(binder)) { p.a.forEachBinder(f) }

func PNot(a Pattern) Pattern { return &pNot{a: a} }

type pSelect struct{ cond, t, f Pattern }

func (p *pSelect) match(e Expr) bool {
	x, ok := e.(*Select)
	return ok && p.cond.match(x.Cond) && p.t.match(x.TrueValue) && p.f.match(x.FalseValue)
}

func (p *pSelect) forEachBinder(f func(binder)) {
	p.cond.forEachBinder(f)
	p.t.forEachBinder(f)
	p.f.forEachBinder(f)
}

func PSelect(cond, t, f Pattern) Pattern { return &pSelect{cond: cond, t: t, f: f} }

type pRamp struct {
	base, stride Pattern
	lanes        *PLanes
}

func (p *pRamp) match(e Expr) bool {
	x, ok := e.(*Ramp)
	return ok && p.lanes.matchLanes(x.Lanes) && p.base.match(x.Base) && p.stride.match(x.Stride)
}

func (p *pRamp) forEachBinder(f func(binder)) {
	p.base.forEachBinder(f)
	p.stride.forEachBinder(f)
	f(p.lanes)
}

func PRamp(base, stride Pattern, lanes *PLanes) Pattern {
	return &pRamp{base: base, stride: stride, lanes: lanes}
}

type pBroadcast struct {
	value Pattern
	lanes *PLanes
}

func (p *pBroadcast) match(e Expr) bool {
	x, ok := e.(*Broadcast)
	return ok && p.lanes.matchLanes(x.Lanes) && p.value.match(x.Value)
}

func (p *pBroadcast) forEachBinder(f func(binder)) {
	p.value.forEachBinder(f)
	f(p.lanes)
}

func PBroadcast(value Pattern, lanes *PLanes) Pattern {
	return &pBroadcast{value: value, lanes: lanes}
}

type pCall struct {
	op   IntrinsicOp
	args []Pattern
}

func (p *pCall) match(e Expr) bool {
	x, ok := e.(*Call)
	if !ok || x.Op != p.op || len(x.Args) != len(p.args) {
		return false
	}
	for i, a := range p.args {
		if !a.match(x.Args[i]) {
			return false
		}
	}
	return true
}

func (p *pCall) forEachBinder(f func(binder)) {
	for _, a := range p.args {
		a.forEachBinder(f)
	}
}

func PCall(op IntrinsicOp, args ...Pattern) Pattern { return &pCall{op: op, args: args} }

// pOneOf matches any of a fixed tuple of alternatives with a shared binding
// scope: bindings made by a failed alternative are rolled back before the
// next one is tried.
type pOneOf struct {
	alts []Pattern
}

func (p *pOneOf) match(e Expr) bool {
	var binders []binder
	seen := map[binder]bool{}
	for _, alt := range p.alts {
		alt.forEachBinder(func(b binder) {
			if !seen[b] {
				seen[b] = true
				binders = append(binders, b)
			}
		})
	}
	saved := make([]any, len(binders))
	for i, b := range binders {
		saved[i] = b.save()
	}
	for _, alt := range p.alts {
		if alt.match(e) {
			return true
		}
		for i, b := range binders {
			b.load(saved[i])
		}
	}
	return false
}

func (p *pOneOf) forEachBinder(f func(binder)) {
	for _, alt := range p.alts {
		alt.forEachBinder(f)
	}
}

// POneOf is the n-of combinator over alternative patterns.
func POneOf(alts ...Pattern) Pattern { return &pOneOf{alts: alts} }
