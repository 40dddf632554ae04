package main

import (
	"os"

	"github.com/vecplay/vecplay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
