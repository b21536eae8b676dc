// Command relay talks to Hunyuan and Venus chat endpoints from the terminal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
