package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// The printers produce deterministic, fully parenthesized forms. They are
// meant for diagnostics and tests, not for round-tripping source text.

func (e *Var) String() string { return e.Name }

func (e *IntImm) String() string {
	if e.Dtype.IsBool() {
		if e.Value != 0 {
			return "true"
		}
		return "false"
	}
	if e.Dtype == Int(32) {
		return strconv.FormatInt(e.Value, 10)
	}
	return fmt.Sprintf("%s(%d)", e.Dtype, e.Value)
}

func (e *FloatImm) String() string {
	return fmt.Sprintf("%s(%g)", e.Dtype, e.Value)
}

func (e *Cast) String() string {
	return fmt.Sprintf("cast(%s, %s)", e.Dtype, e.Value)
}

func (e *Add) String() string      { return fmt.Sprintf("(%s + %s)", e.A, e.B) }
func (e *Sub) String() string      { return fmt.Sprintf("(%s - %s)", e.A, e.B) }
func (e *Mul) String() string      { return fmt.Sprintf("(%s*%s)", e.A, e.B) }
func (e *Div) String() string      { return fmt.Sprintf("(%s/%s)", e.A, e.B) }
func (e *Mod) String() string      { return fmt.Sprintf("(%s %% %s)", e.A, e.B) }
func (e *FloorDiv) String() string { return fmt.Sprintf("floordiv(%s, %s)", e.A, e.B) }
func (e *FloorMod) String() string { return fmt.Sprintf("floormod(%s, %s)", e.A, e.B) }
func (e *Min) String() string      { return fmt.Sprintf("min(%s, %s)", e.A, e.B) }
func (e *Max) String() string      { return fmt.Sprintf("max(%s, %s)", e.A, e.B) }

func (e *EQ) String() string { return fmt.Sprintf("(%s == %s)", e.A, e.B) }
func (e *NE) String() string { return fmt.Sprintf("(%s != %s)", e.A, e.B) }
func (e *LT) String() string { return fmt.Sprintf("(%s < %s)", e.A, e.B) }
func (e *LE) String() string { return fmt.Sprintf("(%s <= %s)", e.A, e.B) }
func (e *GT) String() string { return fmt.Sprintf("(%s > %s)", e.A, e.B) }
func (e *GE) String() string { return fmt.Sprintf("(%s >= %s)", e.A, e.B) }

func (e *And) String() string { return fmt.Sprintf("(%s && %s)", e.A, e.B) }
func (e *Or) String() string  { return fmt.Sprintf("(%s || %s)", e.A, e.B) }
func (e *Not) String() string { return fmt.Sprintf("!%s", e.A) }

func (e *Select) String() string {
	return fmt.Sprintf("select(%s, %s, %s)", e.Cond, e.TrueValue, e.FalseValue)
}

func (e *Ramp) String() string {
	return fmt.Sprintf("ramp(%s, %s, %d)", e.Base, e.Stride, e.Lanes)
}

func (e *Broadcast) String() string {
	return fmt.Sprintf("broadcast(%s, %d)", e.Value, e.Lanes)
}

func (e *Let) String() string {
	return fmt.Sprintf("(let %s = %s in %s)", e.Var.Name, e.Value, e.Body)
}

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Op, strings.Join(args, ", "))
}
