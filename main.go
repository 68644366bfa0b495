// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"shiki/repl"
)

func main() {
	fmt.Println("shiki symbolic arithmetic analyzer")
	fmt.Println("enter statements (let/shape/assume/prove/simplify ... ;) or bare expressions")
	repl.Start(os.Stdin, os.Stdout)
}
