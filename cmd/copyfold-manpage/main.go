package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/copyfold/cmd/copyfold"
)

func main() {
	rootCmd := copyfold.NewRootCmd()

	err := doc.GenMan(rootCmd, copyfold.ManHeader(), os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
