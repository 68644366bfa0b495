package arith

import "shiki/internal/ir"

// andOfOrs is a conjunctive-normal-form view of a boolean expression: an
// AND of chunks, each chunk an OR of deduplicated sub-expressions
// identified by interned keys.
type andOfOrs struct {
	interner *exprInterner
	chunks   [][]exprKey
	keyTrue  exprKey
	keyFalse exprKey
}

func newAndOfOrs(expr ir.Expr) *andOfOrs {
	a := &andOfOrs{interner: newExprInterner()}
	a.keyTrue = a.interner.Intern(ir.NewBoolImm(true))
	a.keyFalse = a.interner.Intern(ir.NewBoolImm(false))
	visitAndExpressions(expr, func(outer ir.Expr) {
		var orComponents []exprKey
		visitOrExpressions(outer, func(inner ir.Expr) {
			key := a.interner.Intern(inner)
			for _, prev := range orComponents {
				if prev == key {
					return
				}
			}
			orComponents = append(orComponents, key)
		})
		if !a.hasPermutation(orComponents) {
			a.chunks = append(a.chunks, orComponents)
		}
	})
	return a
}

func (a *andOfOrs) hasPermutation(components []exprKey) bool {
	for _, prev := range a.chunks {
		if len(prev) != len(components) {
			continue
		}
		allFound := true
		for _, key := range components {
			found := false
			for _, p := range prev {
				if p == key {
					found = true
					break
				}
			}
			if !found {
				allFound = false
				break
			}
		}
		if allFound {
			return true
		}
	}
	return false
}

// visitAndExpressions yields the AND components; (A && B) || (C && D)
// distributes into (A||C), (A||D), (B||C), (B||D).
func visitAndExpressions(expr ir.Expr, callback func(ir.Expr)) {
	if and, ok := expr.(*ir.And); ok {
		visitAndExpressions(and.A, callback)
		visitAndExpressions(and.B, callback)
	} else if or, ok := expr.(*ir.Or); ok {
		visitAndExpressions(or.A, func(xPart ir.Expr) {
			visitAndExpressions(or.B, func(yPart ir.Expr) {
				callback(ir.OpOr(xPart, yPart))
			})
		})
	} else {
		callback(expr)
	}
}

func visitOrExpressions(expr ir.Expr, callback func(ir.Expr)) {
	if or, ok := expr.(*ir.Or); ok {
		visitOrExpressions(or.A, callback)
		visitOrExpressions(or.B, callback)
	} else if and, ok := expr.(*ir.And); ok {
		visitOrExpressions(and.A, func(xPart ir.Expr) {
			visitOrExpressions(and.B, func(yPart ir.Expr) {
				callback(ir.OpAnd(xPart, yPart))
			})
		})
	} else {
		callback(expr)
	}
}

func (a *andOfOrs) asExpr() ir.Expr {
	expr := ir.Expr(ir.NewBoolImm(true))
	for _, chunk := range a.chunks {
		chunkExpr := ir.Expr(ir.NewBoolImm(false))
		for _, key := range chunk {
			chunkExpr = ir.OpOr(chunkExpr, a.interner.Expr(key))
		}
		expr = ir.OpAnd(expr, chunkExpr)
	}
	return expr
}

func (a *andOfOrs) trySimplifyOr(x, y *exprKey, ana *Analyzer) {
	joint := ir.OpOr(a.interner.Expr(*x), a.interner.Expr(*y))
	simplified := ana.Rewrite.Simplify(joint)
	if !ir.DeepEqual(simplified, joint) {
		if simplifiedOr, ok := simplified.(*ir.Or); ok {
			*x = a.interner.Intern(simplifiedOr.A)
			*y = a.interner.Intern(simplifiedOr.B)
		} else {
			*x = a.keyFalse
			*y = a.interner.Intern(simplified)
		}
	}
}

func (a *andOfOrs) trySimplifyAnd(x, y *exprKey, ana *Analyzer) {
	joint := ir.OpAnd(a.interner.Expr(*x), a.interner.Expr(*y))
	simplified := ana.Rewrite.Simplify(joint)
	if !ir.DeepEqual(simplified, joint) {
		if simplifiedAnd, ok := simplified.(*ir.And); ok {
			*x = a.interner.Intern(simplifiedAnd.A)
			*y = a.interner.Intern(simplifiedAnd.B)
		} else {
			*x = a.keyTrue
			*y = a.interner.Intern(simplified)
		}
	}
}

func (a *andOfOrs) simplify(ana *Analyzer) {
	a.simplifyWithinChunks(ana)
	a.removeTrueFalse()
	a.simplifyAcrossChunks(ana)
	a.removeTrueFalse()
}

// simplifyWithinChunks attempts to collapse each pair within an OR chunk,
// e.g. (b < 10) || (b > 10) becomes (b != 10) || false.
func (a *andOfOrs) simplifyWithinChunks(ana *Analyzer) {
	for ci := range a.chunks {
		chunk := a.chunks[ci]
		for i := 0; i < len(chunk); i++ {
			for j := i + 1; j < len(chunk); j++ {
				a.trySimplifyOr(&chunk[i], &chunk[j], ana)
			}
		}
	}
}

// simplifyAcrossChunks simplifies pairs of chunks that differ by a single
// element: (A or B) and (A or C) => A or (B and C).
func (a *andOfOrs) simplifyAcrossChunks(ana *Analyzer) {
	for iAnd := 0; iAnd < len(a.chunks); iAnd++ {
		for jAnd := iAnd + 1; jAnd < len(a.chunks); jAnd++ {
			iChunk := a.chunks[iAnd]
			jChunk := a.chunks[jAnd]
			if len(iChunk) == 1 && len(jChunk) == 1 {
				a.trySimplifyAnd(&iChunk[0], &jChunk[0], ana)
				continue
			}
			jSet := make(map[exprKey]bool, len(jChunk))
			for _, key := range jChunk {
				jSet[key] = true
			}
			iDistinct := -1
			for i, key := range iChunk {
				if !jSet[key] {
					iDistinct = i
					break
				}
			}
			if iDistinct < 0 {
				// every disjunct of I also appears in J, so I && J == I
				a.chunks[jAnd] = []exprKey{a.keyTrue}
				continue
			}
			iSet := make(map[exprKey]bool, len(iChunk))
			for _, key := range iChunk {
				iSet[key] = true
			}
			jDistinct := -1
			for j, key := range jChunk {
				if !iSet[key] {
					jDistinct = j
					break
				}
			}
			if jDistinct < 0 {
				a.chunks[iAnd] = []exprKey{a.keyTrue}
				continue
			}
			if len(iChunk) == len(jChunk) {
				numShared := 0
				for _, key := range jChunk {
					if iSet[key] {
						numShared++
					}
				}
				if numShared+1 == len(iChunk) {
					// all but one shared; while simplifying the distinct
					// pair, the shared elements may be assumed false
					known := ir.Expr(ir.NewBoolImm(true))
					for i, key := range iChunk {
						if i != iDistinct {
							known = ir.OpAnd(known,
								ana.Simplify(&ir.Not{A: a.interner.Expr(key)}, 2))
						}
					}
					func() {
						ctx := ana.EnterConstraint(known)
						defer ctx.Exit()
						a.trySimplifyAnd(&iChunk[iDistinct], &jChunk[jDistinct], ana)
					}()
				}
			}
		}
	}
}

func (a *andOfOrs) removeTrueFalse() {
	for ci, chunk := range a.chunks {
		hasTrue := false
		for _, key := range chunk {
			if key == a.keyTrue {
				hasTrue = true
				break
			}
		}
		if hasTrue {
			// true inside an OR makes the whole chunk true
			a.chunks[ci] = []exprKey{a.keyTrue}
			continue
		}
		kept := chunk[:0]
		for _, key := range chunk {
			if key != a.keyFalse {
				kept = append(kept, key)
			}
		}
		a.chunks[ci] = kept
	}
	for _, chunk := range a.chunks {
		if len(chunk) == 0 {
			// false inside an AND makes the whole expression false
			a.chunks = [][]exprKey{{}}
			return
		}
	}
	kept := a.chunks[:0]
	for _, chunk := range a.chunks {
		if !(len(chunk) == 1 && chunk[0] == a.keyTrue) {
			kept = append(kept, chunk)
		}
	}
	a.chunks = kept
}

// simplifyAsAndOfOrs converts expr into and-of-ors form and simplifies it,
// with the conversion extension disabled while running to prevent
// re-entry.
func (ana *Analyzer) simplifyAsAndOfOrs(expr ir.Expr) ir.Expr {
	cached := ana.Rewrite.GetEnabledExtensions()
	ana.Rewrite.SetEnabledExtensions(cached &^ ExtConvertBooleanToAndOfOrs)
	defer ana.Rewrite.SetEnabledExtensions(cached)

	repr := newAndOfOrs(ana.Simplify(expr, 2))
	repr.simplify(ana)
	return repr.asExpr()
}
