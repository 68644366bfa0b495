package errors

import "fmt"

// Kind classifies analyzer errors into the four families surfaced to
// callers. Soft indeterminacy (lattice top, unprovable facts) is never
// reported through this package.
type Kind uint8

const (
	KindValue Kind = iota
	KindType
	KindInternal
	KindKey
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "ValueError"
	case KindType:
		return "TypeError"
	case KindInternal:
		return "InternalError"
	case KindKey:
		return "KeyError"
	}
	return "Error"
}

// Error is a structured analyzer error with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func Valuef(format string, args ...any) *Error {
	return &Error{Kind: KindValue, Code: ErrorInvalidOperand, Message: fmt.Sprintf(format, args...)}
}

func ValueCode(code, format string, args ...any) *Error {
	return &Error{Kind: KindValue, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Typef(format string, args ...any) *Error {
	return &Error{Kind: KindType, Code: ErrorUnsupportedDType, Message: fmt.Sprintf(format, args...)}
}

func Internalf(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Code: ErrorInvariant, Message: fmt.Sprintf(format, args...)}
}

func InternalCode(code, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Keyf(format string, args ...any) *Error {
	return &Error{Kind: KindKey, Code: ErrorMissingSymbol, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an analyzer error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
