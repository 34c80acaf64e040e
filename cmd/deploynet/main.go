// Package main provides the deploynet CLI for inspecting and checking the
// networks a contract deployment can target.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
