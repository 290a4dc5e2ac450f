package main

import (
	"os"

	"ministry_hub/cmd/hubctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
