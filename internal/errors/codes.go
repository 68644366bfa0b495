package errors

// Error codes for the analyzer
// These codes are used in error messages and documentation
// to provide consistent error identification across the toolchain.
//
// Error code ranges:
// E0100-E0199: Value errors (invalid operands)
// E0200-E0299: Type errors (operator on unsupported dtype)
// E0300-E0399: Internal errors (invariant violations)
// E0400-E0499: Lookup errors (missing symbols)

const (
	// E0101: Division or modulo by a constant zero
	ErrorDivideByZero = "E0101"

	// E0102: Shift amount outside [0, bits)
	ErrorShiftRange = "E0102"

	// E0103: min_value/max_value of a vector or unsupported dtype
	ErrorNoTypeLimit = "E0103"

	// E0104: Mixing incompatible dtypes in a binary operator
	ErrorIncompatibleTypes = "E0104"

	// E0105: Non-boolean condition to select/if_then_else
	ErrorNonBoolCondition = "E0105"

	// E0106: Generic invalid operand
	ErrorInvalidOperand = "E0106"

	// E0201: Operator applied to an unsupported dtype
	ErrorUnsupportedDType = "E0201"

	// E0301: SplitExpr verification failure (upper mod lower != 0)
	ErrorSplitVerify = "E0301"

	// E0302: Constraint stack bookkeeping mismatch on recovery
	ErrorConstraintStack = "E0302"

	// E0303: Comparison stored with a non-normalized operator
	ErrorComparisonNormal = "E0303"

	// E0304: Generic invariant violation
	ErrorInvariant = "E0304"

	// E0401: Missing symbol lookup
	ErrorMissingSymbol = "E0401"
)
