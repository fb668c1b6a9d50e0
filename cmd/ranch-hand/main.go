package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	cmd := newRoot().Command()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
