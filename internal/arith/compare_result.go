// Package arith implements the symbolic integer-expression analyzers:
// constant interval bounds, modular sets, interval sets over symbolic
// bounds, a transitive comparison prover, a rewrite simplifier and a
// canonical-form simplifier, coupled behind the Analyzer facade.
package arith

// CompareResult is the 3-bit comparison lattice. Non-strict results are
// the bitwise OR of strict ones, so lattice meet and join are plain & and |.
type CompareResult int

const (
	CmpInconsistent CompareResult = 0
	CmpEQ           CompareResult = 1
	CmpLT           CompareResult = 2
	CmpLE           CompareResult = 3
	CmpGT           CompareResult = 4
	CmpGE           CompareResult = 5
	CmpNE           CompareResult = 6
	CmpUnknown      CompareResult = 7
)

func (r CompareResult) And(other CompareResult) CompareResult { return r & other }
func (r CompareResult) Or(other CompareResult) CompareResult  { return r | other }

// Reverse swaps the sides of the comparison: a < b becomes b > a.
func (r CompareResult) Reverse() CompareResult {
	switch r {
	case CmpLT:
		return CmpGT
	case CmpLE:
		return CmpGE
	case CmpGT:
		return CmpLT
	case CmpGE:
		return CmpLE
	}
	return r
}

// Negate complements the comparison: !(a < b) is a >= b.
func (r CompareResult) Negate() CompareResult {
	switch r {
	case CmpInconsistent, CmpUnknown:
		return r
	}
	return ^r & CmpUnknown
}

func (r CompareResult) String() string {
	switch r {
	case CmpInconsistent:
		return "Inconsistent"
	case CmpEQ:
		return "EQ"
	case CmpLT:
		return "LT"
	case CmpLE:
		return "LE"
	case CmpGT:
		return "GT"
	case CmpGE:
		return "GE"
	case CmpNE:
		return "NE"
	case CmpUnknown:
		return "Unknown"
	}
	return "?"
}
