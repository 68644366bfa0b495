package arith

import (
	"fmt"

	"shiki/internal/errors"
	"shiki/internal/ir"
)

// ModularSet denotes the set {Coeff*k + Base | k in Z}. Coeff == 0 is the
// singleton {Base}; Coeff == 1, Base == 0 is everything.
type ModularSet struct {
	Coeff int64
	Base  int64
}

// newModularSet normalizes the representation: a negative coefficient
// flips both fields (the sign convention the canonical simplifier uses for
// floormod(x, -c)), and a nonzero coefficient reduces Base into [0, Coeff).
func newModularSet(coeff, base int64) ModularSet {
	if coeff < 0 {
		coeff = -coeff
		base = -base
	}
	if coeff != 0 {
		base = base % coeff
		if base < 0 {
			base += coeff
		}
	}
	return ModularSet{Coeff: coeff, Base: base}
}

func (m ModularSet) IsConst() bool { return m.Coeff == 0 }

func (m ModularSet) String() string {
	return fmt.Sprintf("ModularSet(coeff=%d, base=%d)", m.Coeff, m.Base)
}

func modularEverything() ModularSet { return ModularSet{Coeff: 1, Base: 0} }

// modularNothing is the empty set, produced only by intersect.
func modularNothing() ModularSet { return ModularSet{Coeff: 0, Base: 1} }

// ModularSetAnalyzer performs abstract interpretation over the
// {coeff, base} lattice.
type ModularSetAnalyzer struct {
	parent *Analyzer
	varMap map[*ir.Var]ModularSet
}

func newModularSetAnalyzer(parent *Analyzer) *ModularSetAnalyzer {
	return &ModularSetAnalyzer{
		parent: parent,
		varMap: make(map[*ir.Var]ModularSet),
	}
}

func (a *ModularSetAnalyzer) Query(expr ir.Expr) ModularSet {
	return a.visit(expr)
}

func (a *ModularSetAnalyzer) Update(v *ir.Var, info ModularSet, allowOverride bool) {
	if !allowOverride {
		if old, ok := a.varMap[v]; ok && old != newModularSet(info.Coeff, info.Base) {
			panic(errors.Internalf(
				"trying to update var %q with a different modular set: original=%v, new=%v",
				v.Name, old, info))
		}
	}
	a.varMap[v] = newModularSet(info.Coeff, info.Base)
}

// EnterConstraint recognizes x % c == b and x == c and intersects the
// variable's modular set accordingly.
func (a *ModularSetAnalyzer) EnterConstraint(cond ir.Expr) func() {
	v := ir.NewPVarOnly()
	coeff := ir.NewPConst()
	base := ir.NewPConst()
	if ir.Match(ir.POneOf(
		ir.PEQ(ir.PMod(v, coeff), base),
		ir.PEQ(ir.PFloorMod(v, coeff), base),
	), cond) {
		entry := newModularSet(coeff.Value(), base.Value())
		return a.updateByIntersect(v.Value(), entry)
	}
	if ir.Match(ir.POneOf(ir.PEQ(v, base), ir.PEQ(base, v)), cond) {
		entry := newModularSet(1, base.Value())
		return a.updateByIntersect(v.Value(), entry)
	}
	return nil
}

func (a *ModularSetAnalyzer) updateByIntersect(v *ir.Var, entry ModularSet) func() {
	old := modularEverything()
	hadOld := false
	if prev, ok := a.varMap[v]; ok {
		old = prev
		hadOld = true
	}
	a.varMap[v] = modularIntersect(old, entry)
	return func() {
		if hadOld {
			a.varMap[v] = old
		} else {
			delete(a.varMap, v)
		}
	}
}

func (a *ModularSetAnalyzer) visit(expr ir.Expr) ModularSet {
	switch op := expr.(type) {
	case *ir.IntImm:
		return newModularSet(0, op.Value)
	case *ir.Var:
		if info, ok := a.varMap[op]; ok {
			return info
		}
		return modularEverything()
	case *ir.Let:
		if _, bound := a.varMap[op.Var]; !bound {
			a.varMap[op.Var] = a.visit(op.Value)
			ret := a.visit(op.Body)
			delete(a.varMap, op.Var)
			return ret
		}
		return a.visit(op.Body)
	case *ir.Cast:
		return a.visit(op.Value)
	case *ir.Add:
		x, y := a.visit(op.A), a.visit(op.B)
		return newModularSet(ir.ZeroAwareGCD(x.Coeff, y.Coeff), x.Base+y.Base)
	case *ir.Sub:
		x, y := a.visit(op.A), a.visit(op.B)
		return newModularSet(ir.ZeroAwareGCD(x.Coeff, y.Coeff), x.Base-y.Base)
	case *ir.Mul:
		x, y := a.visit(op.A), a.visit(op.B)
		// (p x + n)(q y + m) -> pq z + pm x + qn y + nm
		pq := x.Coeff * y.Coeff
		pm := x.Coeff * y.Base
		qn := x.Base * y.Coeff
		coeff := ir.ZeroAwareGCD(pq, ir.ZeroAwareGCD(pm, qn))
		return newModularSet(coeff, x.Base*y.Base)
	case *ir.Div:
		y := a.visit(op.B)
		if y.IsConst() {
			return a.divByConst(op.A, y.Base, false)
		}
		return modularEverything()
	case *ir.FloorDiv:
		y := a.visit(op.B)
		if y.IsConst() {
			return a.divByConst(op.A, y.Base, true)
		}
		return modularEverything()
	case *ir.Mod:
		y := a.visit(op.B)
		if y.IsConst() {
			return a.modByConst(op.A, y.Base, false)
		}
		return modularEverything()
	case *ir.FloorMod:
		y := a.visit(op.B)
		if y.IsConst() {
			return a.modByConst(op.A, y.Base, true)
		}
		return modularEverything()
	case *ir.Min:
		return modularUnion(a.visit(op.A), a.visit(op.B))
	case *ir.Max:
		return modularUnion(a.visit(op.A), a.visit(op.B))
	case *ir.Select:
		return modularUnion(a.visit(op.TrueValue), a.visit(op.FalseValue))
	case *ir.Broadcast:
		return a.visit(op.Value)
	case *ir.Call:
		switch op.Op {
		case ir.IntrinsicRightShift:
			y := a.visit(op.Args[1])
			if y.IsConst() && y.Base >= 0 && y.Base < 63 {
				return a.divByConst(op.Args[0], int64(1)<<uint(y.Base), true)
			}
		case ir.IntrinsicBitwiseAnd:
			y := a.visit(op.Args[1])
			if y.IsConst() {
				if shift := ir.CheckPowOfTwo(y.Base + 1); shift != -1 {
					return a.modByConst(op.Args[0], int64(1)<<uint(shift), true)
				}
			}
		}
		return modularEverything()
	}
	return modularEverything()
}

func (a *ModularSetAnalyzer) divByConst(lhs ir.Expr, val int64, roundDown bool) ModularSet {
	x := a.visit(lhs)
	if val == 0 {
		panic(errors.ValueCode(errors.ErrorDivideByZero, "modular division by zero"))
	}
	if x.Coeff%val == 0 {
		if x.Base == 0 {
			// a c x / c -> a x
			return newModularSet(abs64(x.Coeff/val), 0)
		}
		// positive division has a clear rounding mode; only handle the
		// case where rounding down is known correct
		if x.Base > 0 && val > 0 && (roundDown || a.parent.CanProveGreaterEqual(lhs, 0)) {
			return newModularSet(x.Coeff/val, x.Base/val)
		}
	}
	return modularEverything()
}

func (a *ModularSetAnalyzer) modByConst(lhs ir.Expr, val int64, roundDown bool) ModularSet {
	x := a.visit(lhs)
	if val == 0 {
		panic(errors.ValueCode(errors.ErrorDivideByZero, "modular modulo by zero"))
	}
	coeff := ir.ZeroAwareGCD(x.Coeff, val)
	if x.Base%coeff == 0 ||
		(x.Base > 0 && (roundDown || a.parent.CanProveGreaterEqual(lhs, 0))) {
		return newModularSet(coeff, x.Base%coeff)
	}
	return modularEverything()
}

func modularUnion(a, b ModularSet) ModularSet {
	// {ax + y} union {bz + h} => {gcd(a, b) x + (y or h)}
	coeff := ir.ZeroAwareGCD(a.Coeff, b.Coeff)
	if coeff == 0 {
		if a.Base == b.Base {
			return a
		}
		return modularEverything()
	}
	base0 := a.Base % coeff
	base1 := b.Base % coeff
	if base0 == base1 {
		return newModularSet(coeff, base0)
	}
	return newModularSet(ir.ZeroAwareGCD(ir.ZeroAwareGCD(base0, base1), coeff), base0)
}

func modularIntersect(a, b ModularSet) ModularSet {
	// z = c1 p + b1 = c2 q + b2; solvable iff gcd(c1, c2) | (b2 - b1)
	c1, b1, c2, b2 := a.Coeff, a.Base, b.Coeff, b.Base
	gcd, x, _ := ir.ExtendedEuclidean(c1, c2)
	v := b2 - b1
	if gcd != 0 && v%gcd == 0 {
		x = v / gcd * x
		coeff := c1 / gcd * c2
		return newModularSet(coeff, x*c1+b1)
	}
	if gcd == 0 {
		if v == 0 {
			return a
		}
		return modularNothing()
	}
	return modularNothing()
}
