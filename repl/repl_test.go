// SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplBindsAndSimplifies(t *testing.T) {
	in := strings.NewReader(`let n in [0, 30];
prove n + 1 < 32;
simplify floordiv(n*8, 8);
`)
	var out bytes.Buffer
	Start(in, &out)

	text := out.String()
	assert.Contains(t, text, "proved: ((n + 1) < 32)")
	assert.Contains(t, text, "n\n", "floordiv(n*8, 8) simplifies back to n")
}

func TestReplBareExpressionReportsFacts(t *testing.T) {
	in := strings.NewReader(`let x in [0, 7];
x + 1
`)
	var out bytes.Buffer
	Start(in, &out)

	text := out.String()
	assert.Contains(t, text, "ConstIntBound[1, 8]")
	assert.Contains(t, text, "modular:")
}

func TestReplSurvivesAnalyzerErrors(t *testing.T) {
	in := strings.NewReader(`simplify 1 / 0;
simplify 1 + 1;
`)
	var out bytes.Buffer
	Start(in, &out)

	text := out.String()
	assert.Contains(t, text, "ValueError")
	assert.Contains(t, text, "2", "the loop continues after an error")
}
