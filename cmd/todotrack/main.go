package main

import (
	"os"

	"todotrack/internal/todocli"
)

func main() {
	if err := todocli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
