package main

import (
	"os"

	"github.com/aisavvy/aisavvy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
