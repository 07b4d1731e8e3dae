package main

import (
	"os"

	"github.com/hubdig/hubdig/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
