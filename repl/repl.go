// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"shiki/grammar"
	"shiki/internal/arith"
	"shiki/internal/errors"
	"shiki/internal/ir"
)

const PROMPT = ">> "

// Start reads statements or bare expressions line by line, keeping the
// analyzer state (bindings and assumptions) across lines.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	ana := arith.NewAnalyzer()
	scope := grammar.NewScope()

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		evalLine(out, ana, scope, line)
	}
}

func evalLine(out io.Writer, ana *arith.Analyzer, scope *grammar.Scope, line string) {
	defer func() {
		if rec := recover(); rec != nil {
			if err, ok := rec.(*errors.Error); ok {
				fmt.Fprintln(out, err)
				return
			}
			panic(rec)
		}
	}()

	if !strings.HasSuffix(line, ";") {
		// a bare expression simplifies and reports its facts
		parsed, err := grammar.ParseExpr("repl", line)
		if err != nil {
			fmt.Fprintf(out, "parse error: %s\n", err)
			return
		}
		expr, err := parsed.Build(scope)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		simplified := ana.Simplify(expr, 2)
		fmt.Fprintf(out, "%s\n", simplified)
		if expr.Type().IsIndex() {
			fmt.Fprintf(out, "  bound:   %s\n", ana.ConstIntBound.Query(simplified))
			fmt.Fprintf(out, "  modular: %s\n", ana.ModularSet.Query(simplified))
		}
		return
	}

	script, err := grammar.ParseScript("repl", line)
	if err != nil {
		fmt.Fprintf(out, "parse error: %s\n", err)
		return
	}
	for _, stmt := range script.Statements {
		execStmt(out, ana, scope, stmt)
	}
}

func execStmt(out io.Writer, ana *arith.Analyzer, scope *grammar.Scope, stmt *grammar.Statement) {
	switch {
	case stmt.Let != nil:
		v := scope.Var(stmt.Let.Name)
		if stmt.Let.Range != nil {
			lo, err := stmt.Let.Range.Lo.Build(scope)
			if err != nil {
				fmt.Fprintln(out, err)
				return
			}
			hi, err := stmt.Let.Range.Hi.Build(scope)
			if err != nil {
				fmt.Fprintln(out, err)
				return
			}
			ana.BindRange(v, ir.RangeFromMinMax(lo, hi), true)
			return
		}
		value, err := stmt.Let.Value.Build(scope)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		ana.Bind(v, value, true)
	case stmt.Shape != nil:
		if _, err := scope.DeclareShape(stmt.Shape.Name); err != nil {
			fmt.Fprintln(out, err)
		}
	case stmt.Assume != nil:
		cond, err := stmt.Assume.Cond.Build(scope)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		ana.EnterConstraint(cond)
	case stmt.Prove != nil:
		cond, err := stmt.Prove.Cond.Build(scope)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		if ana.CanProve(cond, arith.ProofSymbolicBound) {
			fmt.Fprintf(out, "proved: %s\n", cond)
		} else {
			fmt.Fprintf(out, "unproved: %s\n", cond)
		}
	case stmt.Simplify != nil:
		expr, err := stmt.Simplify.Value.Build(scope)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		fmt.Fprintf(out, "%s\n", ana.Simplify(expr, 2))
	}
}
