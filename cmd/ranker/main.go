package main

import (
	"os"

	"github.com/salesops/stackranker/cmd/ranker/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
