// Package main provides the entry point for cfgctl.
package main

import (
	"fmt"
	"os"

	"github.com/offsetmonkey538/offsetconfig/cmd/cfgctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
