package main

import (
	"os"

	"github.com/whyumesh/FMV/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
