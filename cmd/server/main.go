package main

import (
	"os"

	"github.com/lowc1012/swc-rate-limiter/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
