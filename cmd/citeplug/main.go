// Command citeplug resolves and parses citation inputs against formats
// declared in plugin manifests.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "citeplug:", err)
		os.Exit(1)
	}
}
