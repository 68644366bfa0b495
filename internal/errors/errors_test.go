package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := ValueCode(ErrorDivideByZero, "division by zero")
	assert.Equal(t, "ValueError[E0101]: division by zero", err.Error())

	err = Typef("truncdiv expects an integer type, but got f32")
	assert.True(t, strings.HasPrefix(err.Error(), "TypeError[E0201]:"))

	err = InternalCode(ErrorConstraintStack, "stack out of sync")
	assert.Equal(t, "InternalError[E0302]: stack out of sync", err.Error())
}

func TestIsKind(t *testing.T) {
	err := Keyf("unknown function %q", "frobnicate")
	assert.True(t, IsKind(err, KindKey))
	assert.False(t, IsKind(err, KindValue))
	assert.False(t, IsKind(nil, KindValue))
}

func TestReporterIncludesContext(t *testing.T) {
	r := NewReporter("simplify")
	out := r.Format(Valuef("bad operand"))
	assert.Contains(t, out, "ValueError")
	assert.Contains(t, out, "bad operand")
	assert.Contains(t, out, "simplify")
}
