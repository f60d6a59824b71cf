package main

import (
	"os"

	"github.com/vzahanych/smart-commute/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
