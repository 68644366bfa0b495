// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"shiki/grammar"
	"shiki/internal/arith"
	"shiki/internal/errors"
	"shiki/internal/ir"
)

func arithRange(lo, hi ir.Expr) ir.Range { return ir.RangeFromMinMax(lo, hi) }

func main() {
	verbose := flag.Bool("verbose", false, "log pass statistics")
	steps := flag.Int("steps", 2, "rewrite/canonical alternation steps per simplify")
	extensions := flag.String("extensions", "", "comma-separated rewrite extensions: transitive,cnf,branches,product-sum")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: shiki-cli [flags] <file.shiki>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	if *verbose {
		commonlog.Configure(1, nil)
	}

	script, err := grammar.ParseScript(path, string(source))
	if err != nil {
		reportParseError(string(source), err)
		os.Exit(1)
	}

	runner := &scriptRunner{
		ana:     arith.NewAnalyzer(),
		scope:   grammar.NewScope(),
		steps:   *steps,
		verbose: *verbose,
		log:     commonlog.GetLogger("shiki.cli"),
	}
	runner.ana.Rewrite.SetEnabledExtensions(parseExtensions(*extensions))

	failures := 0
	for _, stmt := range script.Statements {
		if !runner.exec(stmt) {
			failures++
		}
	}
	if failures > 0 {
		color.Red("%d statement(s) failed", failures)
		os.Exit(1)
	}
	color.Green("ok")
}

func parseExtensions(spec string) arith.Extension {
	flags := arith.ExtNone
	for _, name := range strings.Split(spec, ",") {
		switch strings.TrimSpace(name) {
		case "":
		case "transitive":
			flags |= arith.ExtTransitivelyProveInequalities
		case "cnf":
			flags |= arith.ExtConvertBooleanToAndOfOrs
		case "branches":
			flags |= arith.ExtApplyConstraintsToBooleanBranches
		case "product-sum":
			flags |= arith.ExtComparisonOfProductAndSum
		default:
			color.Red("unknown extension %q", name)
			os.Exit(1)
		}
	}
	return flags
}

type scriptRunner struct {
	ana     *arith.Analyzer
	scope   *grammar.Scope
	steps   int
	verbose bool
	log     commonlog.Logger
}

// exec runs one statement, reporting analyzer errors without aborting the
// rest of the script.
func (r *scriptRunner) exec(stmt *grammar.Statement) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			err, isErr := rec.(*errors.Error)
			if !isErr {
				panic(rec)
			}
			fmt.Print(errors.NewReporter(describe(stmt)).Format(err))
			ok = false
		}
	}()
	switch {
	case stmt.Let != nil:
		return r.execLet(stmt.Let)
	case stmt.Shape != nil:
		_, err := r.scope.DeclareShape(stmt.Shape.Name)
		if err != nil {
			fmt.Print(errors.NewReporter(describe(stmt)).Format(err))
			return false
		}
		return true
	case stmt.Assume != nil:
		cond, err := stmt.Assume.Cond.Build(r.scope)
		if err != nil {
			fmt.Print(errors.NewReporter(describe(stmt)).Format(err))
			return false
		}
		// assumptions stay installed for the remainder of the script
		r.ana.EnterConstraint(cond)
		return true
	case stmt.Prove != nil:
		cond, err := stmt.Prove.Cond.Build(r.scope)
		if err != nil {
			fmt.Print(errors.NewReporter(describe(stmt)).Format(err))
			return false
		}
		proved := r.ana.CanProve(cond, arith.ProofSymbolicBound)
		r.logStats("prove")
		if proved {
			color.Green("proved:   %s", cond)
			return true
		}
		color.Red("unproved: %s", cond)
		return false
	case stmt.Simplify != nil:
		expr, err := stmt.Simplify.Value.Build(r.scope)
		if err != nil {
			fmt.Print(errors.NewReporter(describe(stmt)).Format(err))
			return false
		}
		simplified := r.ana.Simplify(expr, r.steps)
		r.logStats("simplify")
		fmt.Printf("%s  %s  %s\n", expr, color.New(color.Faint).Sprint("=>"), simplified)
		return true
	}
	return true
}

func (r *scriptRunner) execLet(let *grammar.LetStmt) bool {
	v := r.scope.Var(let.Name)
	if let.Range != nil {
		lo, err := let.Range.Lo.Build(r.scope)
		if err != nil {
			fmt.Print(errors.NewReporter("let " + let.Name).Format(err))
			return false
		}
		hi, err := let.Range.Hi.Build(r.scope)
		if err != nil {
			fmt.Print(errors.NewReporter("let " + let.Name).Format(err))
			return false
		}
		r.ana.BindRange(v, arithRange(lo, hi), true)
		return true
	}
	value, err := let.Value.Build(r.scope)
	if err != nil {
		fmt.Print(errors.NewReporter("let " + let.Name).Format(err))
		return false
	}
	r.ana.Bind(v, value, true)
	return true
}

func (r *scriptRunner) logStats(operation string) {
	if !r.verbose {
		return
	}
	stats := r.ana.Rewrite.Stats()
	r.log.Infof("%s: visited=%d attempted=%d performed=%d recursive=%d constraints=%d",
		operation, stats.NodesVisited, stats.RewritesAttempted,
		stats.RewritesPerformed, stats.NumRecursiveRewrites, stats.ConstraintsEntered)
}

func describe(stmt *grammar.Statement) string {
	switch {
	case stmt.Let != nil:
		return "let " + stmt.Let.Name
	case stmt.Shape != nil:
		return "shape " + stmt.Shape.Name
	case stmt.Assume != nil:
		return "assume"
	case stmt.Prove != nil:
		return "prove"
	case stmt.Simplify != nil:
		return "simplify"
	}
	return "statement"
}

// reportParseError prints a friendly caret-style parse error message.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	color.Red("Syntax error at line %d, column %d:", pos.Line, pos.Column)
	fmt.Println(lines[pos.Line-1])
	fmt.Println(strings.Repeat(" ", pos.Column-1) + "^")
	color.Red(pe.Message())
}
