package main

import (
	"os"

	"sigitm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
