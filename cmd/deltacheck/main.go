package main

import (
	"os"

	"github.com/dshills/deltacheck/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
