package main

import (
	"fmt"
	"os"

	"github.com/torshproject/torsh/cmd/torsh/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "torsh: %v\n", err)
		os.Exit(1)
	}
}
