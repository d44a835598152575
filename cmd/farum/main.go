package main

import (
	"os"

	"github.com/PabloGalante/farum-probe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
