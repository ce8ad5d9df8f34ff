package main

import (
	"os"

	"github.com/pb33f/harsize/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
