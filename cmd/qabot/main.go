package main

import (
	"os"

	"github.com/mkrv/qabot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
