package main

import (
	"os"

	"github.com/giygas/prescription-api/cli"
)

func main() {
	os.Exit(cli.Execute())
}
