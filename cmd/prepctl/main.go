// Command prepctl is the operator CLI: it seeds the journey catalogue,
// changes visibility and issues tokens for local testing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
