package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter formats analyzer errors for terminal output.
type Reporter struct {
	context string // optional label, e.g. the statement being evaluated
}

func NewReporter(context string) *Reporter {
	return &Reporter{context: context}
}

// Format renders an error with the same header style the rest of the
// toolchain uses: kind[code]: message, followed by an optional context line.
func (r *Reporter) Format(err error) string {
	var result strings.Builder

	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if e, ok := err.(*Error); ok {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n", red(e.Kind.String()), e.Code, bold(e.Message)))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n", red("error"), err.Error()))
	}
	if r.context != "" {
		result.WriteString(fmt.Sprintf("  %s %s\n", dim("-->"), r.context))
	}
	return result.String()
}
