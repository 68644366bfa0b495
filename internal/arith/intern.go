package arith

import "shiki/internal/ir"

// exprKey is a densely numbered identifier for structurally distinct
// expressions, letting the comparison graph index edges in constant time.
type exprKey int

const keyNonExist exprKey = -1

// exprInterner assigns exprKeys by structural equality, bucketing on the
// structural hash and falling back to deep comparison within a bucket.
type exprInterner struct {
	buckets map[uint64][]internEntry
	exprs   []ir.Expr
}

type internEntry struct {
	expr ir.Expr
	key  exprKey
}

func newExprInterner() *exprInterner {
	return &exprInterner{buckets: make(map[uint64][]internEntry)}
}

// Lookup returns the key previously assigned to expr, if any.
func (in *exprInterner) Lookup(expr ir.Expr) (exprKey, bool) {
	h := ir.StructuralHash(expr)
	for _, entry := range in.buckets[h] {
		if ir.DeepEqual(entry.expr, expr) {
			return entry.key, true
		}
	}
	return keyNonExist, false
}

// Intern returns the key for expr, assigning the next dense key if new.
func (in *exprInterner) Intern(expr ir.Expr) exprKey {
	h := ir.StructuralHash(expr)
	for _, entry := range in.buckets[h] {
		if ir.DeepEqual(entry.expr, expr) {
			return entry.key
		}
	}
	key := exprKey(len(in.exprs))
	in.buckets[h] = append(in.buckets[h], internEntry{expr: expr, key: key})
	in.exprs = append(in.exprs, expr)
	return key
}

// Expr returns the representative expression for a key.
func (in *exprInterner) Expr(key exprKey) ir.Expr { return in.exprs[key] }

// BoundMap memoizes ConstIntBound results per structurally distinct
// expression. A caller supplies one to the memoizing query overload.
type BoundMap struct {
	buckets map[uint64][]boundMapEntry
}

type boundMapEntry struct {
	expr  ir.Expr
	bound ConstIntBound
}

func NewBoundMap() *BoundMap {
	return &BoundMap{buckets: make(map[uint64][]boundMapEntry)}
}

func (m *BoundMap) Get(expr ir.Expr) (ConstIntBound, bool) {
	h := ir.StructuralHash(expr)
	for _, entry := range m.buckets[h] {
		if ir.DeepEqual(entry.expr, expr) {
			return entry.bound, true
		}
	}
	return ConstIntBound{}, false
}

func (m *BoundMap) Set(expr ir.Expr, bound ConstIntBound) {
	h := ir.StructuralHash(expr)
	for i, entry := range m.buckets[h] {
		if ir.DeepEqual(entry.expr, expr) {
			m.buckets[h][i].bound = bound
			return
		}
	}
	m.buckets[h] = append(m.buckets[h], boundMapEntry{expr: expr, bound: bound})
}
